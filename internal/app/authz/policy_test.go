package authz

import (
	"testing"

	"cf_coach/internal/common"

	"github.com/stretchr/testify/assert"
)

func TestAuthorize_Coach(t *testing.T) {
	owner := Principal{ID: "coach-a", Role: RoleCoach}
	other := Principal{ID: "coach-b", Role: RoleCoach}
	owned := Facts{OwnerCoachID: "coach-a", GroupID: "g1"}

	for _, op := range []Operation{OpRead, OpMutate, OpReadMembers} {
		assert.True(t, Authorize(owner, op, owned).Allowed)

		d := Authorize(other, op, owned)
		assert.False(t, d.Allowed)
		assert.Equal(t, ReasonForbidden, d.Reason)
	}

	// Coaches never write completion records, not even in their own groups.
	d := Authorize(owner, OpWriteCompletion, owned)
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonForbidden, d.Reason)
}

func TestAuthorize_Student(t *testing.T) {
	student := Principal{ID: "stu-1", Role: RoleStudent}

	t.Run("read requires membership", func(t *testing.T) {
		assert.True(t, Authorize(student, OpRead, Facts{GroupID: "g1", ActorIsMember: true}).Allowed)
		assert.False(t, Authorize(student, OpRead, Facts{GroupID: "g1"}).Allowed)
	})

	t.Run("mutation is never allowed", func(t *testing.T) {
		d := Authorize(student, OpMutate, Facts{GroupID: "g1", ActorIsMember: true})
		assert.False(t, d.Allowed)
		assert.Equal(t, ReasonForbidden, d.Reason)
	})

	t.Run("completion writes are self-only", func(t *testing.T) {
		self := Facts{GroupID: "g1", ActorIsMember: true, TargetStudentID: "stu-1", TargetIsMember: true}
		assert.True(t, Authorize(student, OpWriteCompletion, self).Allowed)

		other := self
		other.TargetStudentID = "stu-2"
		assert.False(t, Authorize(student, OpWriteCompletion, other).Allowed)

		// An empty target never matches anyone, not even a principal with an
		// empty ID.
		empty := Facts{GroupID: "g1", ActorIsMember: true}
		assert.False(t, Authorize(student, OpWriteCompletion, empty).Allowed)
		assert.False(t, Authorize(Principal{Role: RoleStudent}, OpWriteCompletion, empty).Allowed)
	})

	t.Run("completion writes require membership", func(t *testing.T) {
		f := Facts{GroupID: "g1", TargetStudentID: "stu-1", TargetIsMember: true}
		assert.False(t, Authorize(student, OpWriteCompletion, f).Allowed)
	})
}

func TestAuthorize_Admin(t *testing.T) {
	admin := Principal{ID: "adm-1", Role: RoleAdmin}

	assert.True(t, Authorize(admin, OpRead, Facts{OwnerCoachID: "coach-a"}).Allowed)
	assert.True(t, Authorize(admin, OpMutate, Facts{OwnerCoachID: "coach-a"}).Allowed)
	assert.True(t, Authorize(admin, OpReadMembers, Facts{OwnerCoachID: "coach-a"}).Allowed)

	t.Run("missing resource is not found, not forbidden", func(t *testing.T) {
		d := Authorize(admin, OpRead, Facts{Missing: true})
		assert.False(t, d.Allowed)
		assert.Equal(t, ReasonNotFound, d.Reason)
		assert.ErrorIs(t, d.Err(), common.ErrNotFound)
	})

	t.Run("delegated completion requires enrolled target", func(t *testing.T) {
		enrolled := Facts{GroupID: "g1", TargetStudentID: "stu-1", TargetIsMember: true}
		assert.True(t, Authorize(admin, OpWriteCompletion, enrolled).Allowed)

		outsider := Facts{GroupID: "g1", TargetStudentID: "stu-9"}
		d := Authorize(admin, OpWriteCompletion, outsider)
		assert.False(t, d.Allowed)
		assert.Equal(t, ReasonForbidden, d.Reason)
	})
}

func TestAuthorize_SelfRelationDenied(t *testing.T) {
	// Self-referential relations are rejected for every role, admin included.
	for _, role := range []Role{RoleAdmin, RoleCoach, RoleStudent} {
		p := Principal{ID: "u1", Role: role}
		d := Authorize(p, OpRelateStudent, Facts{TargetStudentID: "u1", TargetIsMember: true})
		assert.False(t, d.Allowed, "role %s", role)
		assert.Equal(t, ReasonForbidden, d.Reason)
	}

	student := Principal{ID: "u1", Role: RoleStudent}
	assert.True(t, Authorize(student, OpRelateStudent, Facts{TargetStudentID: "u2"}).Allowed)
}

func TestAuthorize_NotFoundBeforeForbidden(t *testing.T) {
	// A missing resource reads as not-found for every role; ownership and
	// membership facts are irrelevant once Missing is set.
	for _, role := range []Role{RoleAdmin, RoleCoach, RoleStudent} {
		p := Principal{ID: "u1", Role: role}
		d := Authorize(p, OpRead, Facts{Missing: true, OwnerCoachID: "u1", ActorIsMember: true})
		assert.False(t, d.Allowed, "role %s", role)
		assert.Equal(t, ReasonNotFound, d.Reason)
	}
}

func TestAuthorize_UnknownRoleDeniedEverything(t *testing.T) {
	p := Principal{ID: "u1", Role: RoleUnknown}
	for _, op := range []Operation{OpRead, OpMutate, OpReadMembers, OpWriteCompletion, OpRelateStudent} {
		d := Authorize(p, op, Facts{OwnerCoachID: "u1", ActorIsMember: true, TargetStudentID: "u2", TargetIsMember: true})
		assert.False(t, d.Allowed)
	}
}

func TestDecision_Err(t *testing.T) {
	assert.NoError(t, Decision{Allowed: true}.Err())
	assert.ErrorIs(t, Decision{Reason: ReasonNotFound}.Err(), common.ErrNotFound)
	assert.ErrorIs(t, Decision{Reason: ReasonForbidden}.Err(), common.ErrForbidden)
}
