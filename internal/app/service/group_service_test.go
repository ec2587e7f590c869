package service

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"strings"
	"testing"

	"cf_coach/internal/app/authz"
	"cf_coach/internal/common"
	"cf_coach/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The in-memory repositories ignore the *sql.Tx they are handed, but the
// cascade still calls BeginTx/Commit on a real handle. stubDriver gives the
// service a handle whose transactions succeed and touch nothing.
type stubDriver struct{}

func (stubDriver) Open(string) (driver.Conn, error) { return stubConn{}, nil }

type stubConn struct{}

func (stubConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("unsupported") }
func (stubConn) Close() error                        { return nil }
func (stubConn) Begin() (driver.Tx, error)           { return stubTx{}, nil }

type stubTx struct{}

func (stubTx) Commit() error   { return nil }
func (stubTx) Rollback() error { return nil }

func init() {
	sql.Register("stub", stubDriver{})
}

type groupFixture struct {
	svc         *GroupService
	groups      *memGroupRepo
	memberships *memMembershipRepo
	assignments *memAssignmentRepo
	exercises   *memExerciseRepo
	records     *memStudentExerciseRepo
}

func newGroupFixture(t *testing.T) *groupFixture {
	t.Helper()

	groups := &memGroupRepo{groups: map[string]*model.Group{}}
	memberships := &memMembershipRepo{memberships: map[string]*model.GroupMembership{}}
	assignments := &memAssignmentRepo{assignments: map[string]*model.Assignment{}}
	exercises := &memExerciseRepo{exercises: map[string]*model.Exercise{}}
	records := &memStudentExerciseRepo{records: map[string]*model.StudentExercise{}}
	users := &memUserRepo{users: map[string]*model.User{
		"coach-a": {ID: "coach-a", Username: "carol", Role: model.RoleCoach},
		"coach-b": {ID: "coach-b", Username: "dave", Role: model.RoleCoach},
		"stu-1":   {ID: "stu-1", Username: "alice", Role: model.RoleStudent},
		"stu-2":   {ID: "stu-2", Username: "bob", Role: model.RoleStudent},
	}}
	resolver := authz.NewResolver(groups, assignments, exercises, memberships)

	db, err := sql.Open("stub", "")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	svc := NewGroupService(groups, memberships, assignments, exercises, records, users, resolver, db)
	return &groupFixture{
		svc:         svc,
		groups:      groups,
		memberships: memberships,
		assignments: assignments,
		exercises:   exercises,
		records:     records,
	}
}

var (
	coachA  = authz.Principal{ID: "coach-a", Role: authz.RoleCoach}
	coachB  = authz.Principal{ID: "coach-b", Role: authz.RoleCoach}
	admin   = authz.Principal{ID: "adm-1", Role: authz.RoleAdmin}
	student = authz.Principal{ID: "stu-1", Role: authz.RoleStudent}
)

func TestCreateGroup(t *testing.T) {
	fx := newGroupFixture(t)
	ctx := context.Background()

	group, err := fx.svc.CreateGroup(ctx, coachA, CreateGroupRequest{Name: "Div 2 Prep"})
	require.NoError(t, err)
	assert.Equal(t, "coach-a", group.OwnerCoachID)
	assert.True(t, strings.HasPrefix(group.Slug, "div-2-prep-"))
	assert.NotEmpty(t, group.InviteCode)

	_, err = fx.svc.CreateGroup(ctx, student, CreateGroupRequest{Name: "Nope"})
	assert.ErrorIs(t, err, common.ErrForbidden)

	_, err = fx.svc.CreateGroup(ctx, coachA, CreateGroupRequest{Name: ""})
	assert.ErrorIs(t, err, common.ErrBadRequest)
}

func TestCreateGroup_AdminOnBehalf(t *testing.T) {
	fx := newGroupFixture(t)
	ctx := context.Background()

	group, err := fx.svc.CreateGroup(ctx, admin, CreateGroupRequest{Name: "Camp", OwnerCoachID: "coach-b"})
	require.NoError(t, err)
	assert.Equal(t, "coach-b", group.OwnerCoachID)

	// Ownership can only be handed to a coach.
	_, err = fx.svc.CreateGroup(ctx, admin, CreateGroupRequest{Name: "Camp 2", OwnerCoachID: "stu-1"})
	assert.ErrorIs(t, err, common.ErrBadRequest)
}

func TestGetGroup_InviteCodeHiddenFromStudents(t *testing.T) {
	fx := newGroupFixture(t)
	ctx := context.Background()

	group, err := fx.svc.CreateGroup(ctx, coachA, CreateGroupRequest{Name: "Div 2 Prep"})
	require.NoError(t, err)
	_, err = fx.svc.JoinByInviteCode(ctx, student, group.InviteCode)
	require.NoError(t, err)

	seen, err := fx.svc.GetGroup(ctx, coachA, group.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, seen.InviteCode)

	seen, err = fx.svc.GetGroup(ctx, student, group.ID)
	require.NoError(t, err)
	assert.Empty(t, seen.InviteCode)
}

func TestGetGroup_Authorization(t *testing.T) {
	fx := newGroupFixture(t)
	ctx := context.Background()

	group, err := fx.svc.CreateGroup(ctx, coachA, CreateGroupRequest{Name: "Div 2 Prep"})
	require.NoError(t, err)

	// Another coach's group reads as forbidden, a missing one as not found.
	_, err = fx.svc.GetGroup(ctx, coachB, group.ID)
	assert.ErrorIs(t, err, common.ErrForbidden)

	_, err = fx.svc.GetGroup(ctx, coachB, "g-gone")
	assert.ErrorIs(t, err, common.ErrNotFound)

	// A student who never joined cannot read the group either.
	outsider := authz.Principal{ID: "stu-2", Role: authz.RoleStudent}
	_, err = fx.svc.GetGroup(ctx, outsider, group.ID)
	assert.ErrorIs(t, err, common.ErrForbidden)
}

func TestJoinByInviteCode(t *testing.T) {
	fx := newGroupFixture(t)
	ctx := context.Background()

	group, err := fx.svc.CreateGroup(ctx, coachA, CreateGroupRequest{Name: "Div 2 Prep"})
	require.NoError(t, err)

	membership, err := fx.svc.JoinByInviteCode(ctx, student, group.InviteCode)
	require.NoError(t, err)
	assert.Equal(t, group.ID, membership.GroupID)

	// Joining twice violates the (student, group) uniqueness.
	_, err = fx.svc.JoinByInviteCode(ctx, student, group.InviteCode)
	assert.ErrorIs(t, err, common.ErrConflict)

	_, err = fx.svc.JoinByInviteCode(ctx, student, "bogus")
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = fx.svc.JoinByInviteCode(ctx, coachB, group.InviteCode)
	assert.ErrorIs(t, err, common.ErrForbidden)
}

func TestAddAndRemoveMember(t *testing.T) {
	fx := newGroupFixture(t)
	ctx := context.Background()

	group, err := fx.svc.CreateGroup(ctx, coachA, CreateGroupRequest{Name: "Div 2 Prep"})
	require.NoError(t, err)

	_, err = fx.svc.AddMember(ctx, coachA, group.ID, "stu-1")
	require.NoError(t, err)

	// Coaches cannot be enrolled as members.
	_, err = fx.svc.AddMember(ctx, coachA, group.ID, "coach-b")
	assert.ErrorIs(t, err, common.ErrBadRequest)

	// Only the owner manages the roster.
	_, err = fx.svc.AddMember(ctx, coachB, group.ID, "stu-2")
	assert.ErrorIs(t, err, common.ErrForbidden)

	members, err := fx.svc.ListMembers(ctx, coachA, group.ID)
	require.NoError(t, err)
	assert.Len(t, members, 1)

	// Members cannot read the roster.
	_, err = fx.svc.ListMembers(ctx, student, group.ID)
	assert.ErrorIs(t, err, common.ErrForbidden)

	require.NoError(t, fx.svc.RemoveMember(ctx, coachA, group.ID, "stu-1"))
	members, err = fx.svc.ListMembers(ctx, coachA, group.ID)
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestListGroups_Narrowing(t *testing.T) {
	fx := newGroupFixture(t)
	ctx := context.Background()

	a, err := fx.svc.CreateGroup(ctx, coachA, CreateGroupRequest{Name: "Group A"})
	require.NoError(t, err)
	_, err = fx.svc.CreateGroup(ctx, coachB, CreateGroupRequest{Name: "Group B"})
	require.NoError(t, err)

	own, err := fx.svc.ListGroups(ctx, coachA)
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, a.ID, own[0].ID)

	all, err := fx.svc.ListGroups(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestUpdateGroup(t *testing.T) {
	fx := newGroupFixture(t)
	ctx := context.Background()

	group, err := fx.svc.CreateGroup(ctx, coachA, CreateGroupRequest{Name: "Div 2 Prep"})
	require.NoError(t, err)

	name := "Div 1 Prep"
	updated, err := fx.svc.UpdateGroup(ctx, coachA, group.ID, UpdateGroupRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Div 1 Prep", updated.Name)

	_, err = fx.svc.UpdateGroup(ctx, coachB, group.ID, UpdateGroupRequest{Name: &name})
	assert.ErrorIs(t, err, common.ErrForbidden)
}

func TestDeleteGroup_Cascade(t *testing.T) {
	fx := newGroupFixture(t)
	ctx := context.Background()

	group, err := fx.svc.CreateGroup(ctx, coachA, CreateGroupRequest{Name: "Div 2 Prep"})
	require.NoError(t, err)
	_, err = fx.svc.AddMember(ctx, coachA, group.ID, "stu-1")
	require.NoError(t, err)

	require.NoError(t, fx.assignments.Create(ctx, &model.Assignment{ID: "a1", Title: "Week 1", GroupID: group.ID}))
	require.NoError(t, fx.exercises.Create(ctx, &model.Exercise{ID: "e1", CFCode: "4A", AssignmentID: "a1"}))
	require.NoError(t, fx.records.Create(ctx, &model.StudentExercise{ID: "se1", StudentID: "stu-1", ExerciseID: "e1"}))

	require.NoError(t, fx.svc.DeleteGroup(ctx, coachA, group.ID))

	// Everything under the group is gone.
	assert.Empty(t, fx.groups.groups)
	assert.Empty(t, fx.memberships.memberships)
	assert.Empty(t, fx.assignments.assignments)
	assert.Empty(t, fx.exercises.exercises)
	assert.Empty(t, fx.records.records)
}

func TestDeleteGroup_Authorization(t *testing.T) {
	fx := newGroupFixture(t)
	ctx := context.Background()

	group, err := fx.svc.CreateGroup(ctx, coachA, CreateGroupRequest{Name: "Div 2 Prep"})
	require.NoError(t, err)

	err = fx.svc.DeleteGroup(ctx, coachB, group.ID)
	assert.ErrorIs(t, err, common.ErrForbidden)

	err = fx.svc.DeleteGroup(ctx, coachA, "g-gone")
	assert.ErrorIs(t, err, common.ErrNotFound)
}
