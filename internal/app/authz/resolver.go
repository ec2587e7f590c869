package authz

import (
	"context"
	"errors"
	"fmt"

	"cf_coach/internal/common"
	"cf_coach/internal/domain/repository"
)

// ResourceKind names a node of the ownership hierarchy.
type ResourceKind int

const (
	KindGroup ResourceKind = iota
	KindAssignment
	KindExercise
)

// Ownership is the resolved owning chain of a resource.
type Ownership struct {
	OwnerCoachID string
	GroupID      string
}

// Resolver walks the parent chain Exercise -> Assignment -> Group to find the
// owning coach. It is read-only and never treats a missing parent as a
// failure: missing anywhere in the chain yields common.ErrNotFound so the
// policy can map it to a 404-style outcome instead of a denial.
type Resolver struct {
	groups      repository.GroupRepository
	assignments repository.AssignmentRepository
	exercises   repository.ExerciseRepository
	memberships repository.MembershipRepository
}

func NewResolver(
	groups repository.GroupRepository,
	assignments repository.AssignmentRepository,
	exercises repository.ExerciseRepository,
	memberships repository.MembershipRepository,
) *Resolver {
	return &Resolver{
		groups:      groups,
		assignments: assignments,
		exercises:   exercises,
		memberships: memberships,
	}
}

// OwnerCoach resolves the owning coach and nearest group of a resource.
func (r *Resolver) OwnerCoach(ctx context.Context, kind ResourceKind, id string) (*Ownership, error) {
	groupID := id

	switch kind {
	case KindExercise:
		exercise, err := r.exercises.FindByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("resolve exercise: %w", err)
		}
		assignment, err := r.assignments.FindByID(ctx, exercise.AssignmentID)
		if err != nil {
			return nil, fmt.Errorf("resolve exercise parent: %w", err)
		}
		groupID = assignment.GroupID

	case KindAssignment:
		assignment, err := r.assignments.FindByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("resolve assignment: %w", err)
		}
		groupID = assignment.GroupID
	}

	group, err := r.groups.FindByID(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("resolve group: %w", err)
	}
	return &Ownership{OwnerCoachID: group.OwnerCoachID, GroupID: group.ID}, nil
}

// IsMember reports whether the student belongs to the group.
func (r *Resolver) IsMember(ctx context.Context, studentID, groupID string) (bool, error) {
	return r.memberships.Exists(ctx, studentID, groupID)
}

// Facts resolves the policy inputs for principal acting on the resource.
// targetStudentID is the student a completion record is being created for
// (empty for plain reads and mutations).
func (r *Resolver) Facts(ctx context.Context, p Principal, kind ResourceKind, id, targetStudentID string) (Facts, error) {
	facts := Facts{TargetStudentID: targetStudentID}

	ownership, err := r.OwnerCoach(ctx, kind, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			facts.Missing = true
			return facts, nil
		}
		return facts, err
	}
	facts.OwnerCoachID = ownership.OwnerCoachID
	facts.GroupID = ownership.GroupID

	if p.Role == RoleStudent {
		member, err := r.IsMember(ctx, p.ID, ownership.GroupID)
		if err != nil {
			return facts, err
		}
		facts.ActorIsMember = member
	}
	if targetStudentID != "" {
		if targetStudentID == p.ID && p.Role == RoleStudent {
			facts.TargetIsMember = facts.ActorIsMember
		} else {
			member, err := r.IsMember(ctx, targetStudentID, ownership.GroupID)
			if err != nil {
				return facts, err
			}
			facts.TargetIsMember = member
		}
	}
	return facts, nil
}
