package authz

import (
	"cf_coach/internal/common"
)

// Operation classifies what the caller is trying to do. List narrowing
// (a coach listing groups only sees their own) is handled by the queries
// themselves; Authorize covers single-resource decisions.
type Operation int

const (
	// OpRead is a read of a Group, Assignment or Exercise.
	OpRead Operation = iota
	// OpMutate is create/update/delete of a Group, Assignment or Exercise.
	OpMutate
	// OpReadMembers is reading a group's membership roster.
	OpReadMembers
	// OpWriteCompletion is creating a StudentExercise or Challenge record.
	OpWriteCompletion
	// OpRelateStudent is any student-to-student relation (follow, message).
	OpRelateStudent
)

// Facts are the resolved ownership inputs to the policy. The Resolver
// produces them; tests construct them directly.
type Facts struct {
	// Missing is set when the resource or one of its parents does not exist.
	Missing bool
	// OwnerCoachID is the coach owning the resource's nearest group.
	OwnerCoachID string
	// GroupID is the resource's nearest group.
	GroupID string
	// ActorIsMember reports whether the acting student belongs to GroupID.
	ActorIsMember bool
	// TargetStudentID is the student a completion record or relation is for.
	TargetStudentID string
	// TargetIsMember reports whether TargetStudentID belongs to GroupID.
	// Used on the admin-delegated completion path.
	TargetIsMember bool
}

type DenyReason int

const (
	ReasonNone DenyReason = iota
	// ReasonNotFound maps to a 404-style outcome, distinct from denial.
	ReasonNotFound
	// ReasonForbidden maps to a 403-style outcome.
	ReasonForbidden
)

// Decision is the policy verdict. It is a value, never an error: callers
// choose the externally visible status via Err.
type Decision struct {
	Allowed bool
	Reason  DenyReason
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason DenyReason) Decision {
	return Decision{Reason: reason}
}

// Err maps a denial to the domain error callers propagate. Allowed decisions
// map to nil.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	if d.Reason == ReasonNotFound {
		return common.ErrNotFound
	}
	return common.ErrForbidden
}

// Authorize decides whether principal may perform op given facts. It is
// total: every (role, operation, facts) combination returns exactly one
// decision and nothing panics.
func Authorize(p Principal, op Operation, f Facts) Decision {
	// Self-referential relations are denied for every role, including admin.
	if op == OpRelateStudent && p.ID == f.TargetStudentID {
		return deny(ReasonForbidden)
	}

	// Admin is the universal override role.
	if p.Role == RoleAdmin {
		if f.Missing {
			return deny(ReasonNotFound)
		}
		if op == OpWriteCompletion && !f.TargetIsMember {
			// Even delegated creation requires the target student to be
			// enrolled in the exercise's group.
			return deny(ReasonForbidden)
		}
		return allow()
	}

	if f.Missing {
		return deny(ReasonNotFound)
	}

	switch p.Role {
	case RoleCoach:
		switch op {
		case OpRead, OpMutate, OpReadMembers:
			if f.OwnerCoachID == p.ID {
				return allow()
			}
			return deny(ReasonForbidden)
		default:
			return deny(ReasonForbidden)
		}

	case RoleStudent:
		switch op {
		case OpRead:
			if f.ActorIsMember {
				return allow()
			}
			return deny(ReasonForbidden)
		case OpWriteCompletion:
			// Students only write their own completion records. Strict
			// identity comparison; an empty target never matches.
			if f.TargetStudentID != "" && f.TargetStudentID == p.ID && f.ActorIsMember {
				return allow()
			}
			return deny(ReasonForbidden)
		case OpRelateStudent:
			if f.TargetStudentID != "" {
				return allow()
			}
			return deny(ReasonForbidden)
		default:
			return deny(ReasonForbidden)
		}
	}

	return deny(ReasonForbidden)
}
