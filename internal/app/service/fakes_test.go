package service

import (
	"context"
	"database/sql"

	"cf_coach/internal/common"
	"cf_coach/internal/domain/model"
	"cf_coach/internal/judge"
)

// In-memory fakes shared by the service tests. They hold plain maps and
// return the same sentinel errors the pg implementations do, so the services
// under test cannot tell the difference.

type fakeJudge struct {
	problems       map[string]judge.Problem // keyed by compact code
	contests       map[int]judge.ContestMeta
	submissions    map[string][]judge.Submission // keyed by handle
	problemSet     []judge.Problem
	submissionsErr error
	contestErr     error
	problemSetErr  error
}

func newFakeJudge() *fakeJudge {
	return &fakeJudge{
		problems:    map[string]judge.Problem{},
		contests:    map[int]judge.ContestMeta{},
		submissions: map[string][]judge.Submission{},
	}
}

func (f *fakeJudge) FindProblem(ctx context.Context, code model.ProblemCode) (*judge.Problem, error) {
	if p, ok := f.problems[code.String()]; ok {
		return &p, nil
	}
	return nil, common.ErrNotFound
}

func (f *fakeJudge) UserInfo(ctx context.Context, handle string) (*judge.User, error) {
	if _, ok := f.submissions[handle]; ok {
		return &judge.User{Handle: handle}, nil
	}
	return nil, common.ErrNotFound
}

func (f *fakeJudge) Submissions(ctx context.Context, handle string, from, count int) ([]judge.Submission, error) {
	if f.submissionsErr != nil {
		return nil, f.submissionsErr
	}
	return f.submissions[handle], nil
}

func (f *fakeJudge) ContestMeta(ctx context.Context, contestID int) (*judge.ContestMeta, error) {
	if f.contestErr != nil {
		return nil, f.contestErr
	}
	if meta, ok := f.contests[contestID]; ok {
		return &meta, nil
	}
	return nil, common.ErrNotFound
}

func (f *fakeJudge) ProblemSet(ctx context.Context) ([]judge.Problem, error) {
	if f.problemSetErr != nil {
		return nil, f.problemSetErr
	}
	return f.problemSet, nil
}

type memAccountRepo struct {
	accounts map[string]*model.CFAccount // keyed by student id
}

func newMemAccountRepo() *memAccountRepo {
	return &memAccountRepo{accounts: map[string]*model.CFAccount{}}
}

func (r *memAccountRepo) Create(ctx context.Context, a *model.CFAccount) error {
	if _, ok := r.accounts[a.StudentID]; ok {
		return common.ErrConflict
	}
	r.accounts[a.StudentID] = a
	return nil
}

func (r *memAccountRepo) FindByStudent(ctx context.Context, studentID string) (*model.CFAccount, error) {
	if a, ok := r.accounts[studentID]; ok {
		return a, nil
	}
	return nil, common.ErrNotFound
}

func (r *memAccountRepo) UpdateHandle(ctx context.Context, studentID, handle string) error {
	a, ok := r.accounts[studentID]
	if !ok {
		return common.ErrNotFound
	}
	a.Handle = handle
	a.IsVerified = false
	return nil
}

func (r *memAccountRepo) SetVerified(ctx context.Context, studentID string) error {
	a, ok := r.accounts[studentID]
	if !ok {
		return common.ErrNotFound
	}
	a.IsVerified = true
	return nil
}

type memGroupRepo struct {
	groups map[string]*model.Group
}

func (r *memGroupRepo) Create(ctx context.Context, g *model.Group) error {
	r.groups[g.ID] = g
	return nil
}

func (r *memGroupRepo) FindByID(ctx context.Context, id string) (*model.Group, error) {
	if g, ok := r.groups[id]; ok {
		return g, nil
	}
	return nil, common.ErrNotFound
}

func (r *memGroupRepo) FindByInviteCode(ctx context.Context, code string) (*model.Group, error) {
	for _, g := range r.groups {
		if g.InviteCode == code {
			return g, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *memGroupRepo) ListByOwner(ctx context.Context, coachID string) ([]model.Group, error) {
	var out []model.Group
	for _, g := range r.groups {
		if g.OwnerCoachID == coachID {
			out = append(out, *g)
		}
	}
	return out, nil
}

func (r *memGroupRepo) ListByMember(ctx context.Context, studentID string) ([]model.Group, error) {
	return nil, nil
}

func (r *memGroupRepo) ListAll(ctx context.Context) ([]model.Group, error) {
	var out []model.Group
	for _, g := range r.groups {
		out = append(out, *g)
	}
	return out, nil
}

func (r *memGroupRepo) Update(ctx context.Context, g *model.Group) error {
	r.groups[g.ID] = g
	return nil
}

func (r *memGroupRepo) Delete(ctx context.Context, tx *sql.Tx, id string) error {
	delete(r.groups, id)
	return nil
}

type memMembershipRepo struct {
	memberships map[string]*model.GroupMembership // keyed by studentID/groupID
}

func membershipKey(studentID, groupID string) string { return studentID + "/" + groupID }

func (r *memMembershipRepo) Create(ctx context.Context, m *model.GroupMembership) error {
	key := membershipKey(m.StudentID, m.GroupID)
	if _, ok := r.memberships[key]; ok {
		return common.ErrConflict
	}
	r.memberships[key] = m
	return nil
}

func (r *memMembershipRepo) Exists(ctx context.Context, studentID, groupID string) (bool, error) {
	_, ok := r.memberships[membershipKey(studentID, groupID)]
	return ok, nil
}

func (r *memMembershipRepo) ListByGroup(ctx context.Context, groupID string) ([]model.GroupMembership, error) {
	var out []model.GroupMembership
	for _, m := range r.memberships {
		if m.GroupID == groupID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (r *memMembershipRepo) Delete(ctx context.Context, studentID, groupID string) error {
	key := membershipKey(studentID, groupID)
	if _, ok := r.memberships[key]; !ok {
		return common.ErrNotFound
	}
	delete(r.memberships, key)
	return nil
}

func (r *memMembershipRepo) DeleteByGroup(ctx context.Context, tx *sql.Tx, groupID string) error {
	for key, m := range r.memberships {
		if m.GroupID == groupID {
			delete(r.memberships, key)
		}
	}
	return nil
}

type memAssignmentRepo struct {
	assignments map[string]*model.Assignment
}

func (r *memAssignmentRepo) Create(ctx context.Context, a *model.Assignment) error {
	r.assignments[a.ID] = a
	return nil
}

func (r *memAssignmentRepo) FindByID(ctx context.Context, id string) (*model.Assignment, error) {
	if a, ok := r.assignments[id]; ok {
		return a, nil
	}
	return nil, common.ErrNotFound
}

func (r *memAssignmentRepo) ListByGroup(ctx context.Context, groupID string) ([]model.Assignment, error) {
	var out []model.Assignment
	for _, a := range r.assignments {
		if a.GroupID == groupID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *memAssignmentRepo) Update(ctx context.Context, a *model.Assignment) error {
	r.assignments[a.ID] = a
	return nil
}

func (r *memAssignmentRepo) Delete(ctx context.Context, tx *sql.Tx, id string) error {
	delete(r.assignments, id)
	return nil
}

func (r *memAssignmentRepo) DeleteByGroup(ctx context.Context, tx *sql.Tx, groupID string) error {
	for id, a := range r.assignments {
		if a.GroupID == groupID {
			delete(r.assignments, id)
		}
	}
	return nil
}

type memExerciseRepo struct {
	exercises map[string]*model.Exercise
}

func (r *memExerciseRepo) Create(ctx context.Context, e *model.Exercise) error {
	r.exercises[e.ID] = e
	return nil
}

func (r *memExerciseRepo) FindByID(ctx context.Context, id string) (*model.Exercise, error) {
	if e, ok := r.exercises[id]; ok {
		return e, nil
	}
	return nil, common.ErrNotFound
}

func (r *memExerciseRepo) ListByAssignment(ctx context.Context, assignmentID string) ([]model.Exercise, error) {
	var out []model.Exercise
	for _, e := range r.exercises {
		if e.AssignmentID == assignmentID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (r *memExerciseRepo) Update(ctx context.Context, e *model.Exercise) error {
	r.exercises[e.ID] = e
	return nil
}

func (r *memExerciseRepo) Delete(ctx context.Context, tx *sql.Tx, id string) error {
	delete(r.exercises, id)
	return nil
}

func (r *memExerciseRepo) DeleteByAssignment(ctx context.Context, tx *sql.Tx, assignmentID string) error {
	for id, e := range r.exercises {
		if e.AssignmentID == assignmentID {
			delete(r.exercises, id)
		}
	}
	return nil
}

type memStudentExerciseRepo struct {
	records map[string]*model.StudentExercise // keyed by record id
}

func (r *memStudentExerciseRepo) Create(ctx context.Context, se *model.StudentExercise) error {
	for _, existing := range r.records {
		if existing.StudentID == se.StudentID && existing.ExerciseID == se.ExerciseID {
			return common.Errorf("completion already recorded: %w", common.ErrConflict)
		}
	}
	r.records[se.ID] = se
	return nil
}

func (r *memStudentExerciseRepo) Find(ctx context.Context, studentID, exerciseID string) (*model.StudentExercise, error) {
	for _, se := range r.records {
		if se.StudentID == studentID && se.ExerciseID == exerciseID {
			return se, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *memStudentExerciseRepo) ListByStudent(ctx context.Context, studentID string) ([]model.StudentExercise, error) {
	var out []model.StudentExercise
	for _, se := range r.records {
		if se.StudentID == studentID {
			out = append(out, *se)
		}
	}
	return out, nil
}

func (r *memStudentExerciseRepo) ListByExercise(ctx context.Context, exerciseID string) ([]model.StudentExercise, error) {
	var out []model.StudentExercise
	for _, se := range r.records {
		if se.ExerciseID == exerciseID {
			out = append(out, *se)
		}
	}
	return out, nil
}

func (r *memStudentExerciseRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.records[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.records, id)
	return nil
}

func (r *memStudentExerciseRepo) DeleteByExercise(ctx context.Context, tx *sql.Tx, exerciseID string) error {
	for id, se := range r.records {
		if se.ExerciseID == exerciseID {
			delete(r.records, id)
		}
	}
	return nil
}

type memChallengeRepo struct {
	challenges map[string]*model.Challenge
}

func (r *memChallengeRepo) Create(ctx context.Context, c *model.Challenge) error {
	for _, existing := range r.challenges {
		if existing.StudentID == c.StudentID && existing.CFCode == c.CFCode {
			return common.Errorf("challenge already declared: %w", common.ErrConflict)
		}
	}
	r.challenges[c.ID] = c
	return nil
}

func (r *memChallengeRepo) FindByID(ctx context.Context, id string) (*model.Challenge, error) {
	if c, ok := r.challenges[id]; ok {
		return c, nil
	}
	return nil, common.ErrNotFound
}

func (r *memChallengeRepo) ListByStudent(ctx context.Context, studentID string) ([]model.Challenge, error) {
	var out []model.Challenge
	for _, c := range r.challenges {
		if c.StudentID == studentID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *memChallengeRepo) MarkCompleted(ctx context.Context, id string, completionType model.CompletionType) error {
	c, ok := r.challenges[id]
	if !ok {
		return common.ErrNotFound
	}
	c.IsCompleted = true
	c.CompletionType = &completionType
	return nil
}

func (r *memChallengeRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.challenges[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.challenges, id)
	return nil
}

type memUserRepo struct {
	users map[string]*model.User
}

// memUserRepo stores and returns copies, like the pg implementation: callers
// mutating a User they passed in or got back must not affect stored state.
func (r *memUserRepo) Create(ctx context.Context, u *model.User) error {
	stored := *u
	r.users[u.ID] = &stored
	return nil
}

func (r *memUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			found := *u
			return &found, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *memUserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			found := *u
			return &found, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *memUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if u, ok := r.users[id]; ok {
		found := *u
		return &found, nil
	}
	return nil, common.ErrNotFound
}
