package service

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"cf_coach/internal/app/authz"
	"cf_coach/internal/common"
	"cf_coach/internal/domain/model"
	"cf_coach/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

type GroupService struct {
	groupRepo           repository.GroupRepository
	membershipRepo      repository.MembershipRepository
	assignmentRepo      repository.AssignmentRepository
	exerciseRepo        repository.ExerciseRepository
	studentExerciseRepo repository.StudentExerciseRepository
	userRepo            repository.UserRepository
	resolver            *authz.Resolver
	db                  *sql.DB // For cascade transactions
}

func NewGroupService(
	groupRepo repository.GroupRepository,
	membershipRepo repository.MembershipRepository,
	assignmentRepo repository.AssignmentRepository,
	exerciseRepo repository.ExerciseRepository,
	studentExerciseRepo repository.StudentExerciseRepository,
	userRepo repository.UserRepository,
	resolver *authz.Resolver,
	db *sql.DB,
) *GroupService {
	return &GroupService{
		groupRepo:           groupRepo,
		membershipRepo:      membershipRepo,
		assignmentRepo:      assignmentRepo,
		exerciseRepo:        exerciseRepo,
		studentExerciseRepo: studentExerciseRepo,
		userRepo:            userRepo,
		resolver:            resolver,
		db:                  db,
	}
}

type CreateGroupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	// OwnerCoachID is honored for admins creating a group on a coach's
	// behalf; coaches always own what they create.
	OwnerCoachID string `json:"owner_coach_id,omitempty"`
}

type UpdateGroupRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

func (s *GroupService) CreateGroup(ctx context.Context, p authz.Principal, req CreateGroupRequest) (*model.Group, error) {
	if p.Role != authz.RoleCoach && p.Role != authz.RoleAdmin {
		return nil, common.ErrForbidden
	}
	if req.Name == "" {
		return nil, common.Errorf("group name is required: %w", common.ErrBadRequest)
	}

	ownerID := p.ID
	if p.Role == authz.RoleAdmin && req.OwnerCoachID != "" {
		owner, err := s.userRepo.FindByID(ctx, req.OwnerCoachID)
		if err != nil {
			return nil, fmt.Errorf("owner coach: %w", err)
		}
		if owner.Role != model.RoleCoach {
			return nil, common.Errorf("owner must be a coach: %w", common.ErrBadRequest)
		}
		ownerID = owner.ID
	}

	group := &model.Group{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Slug:         slug.Make(req.Name) + "-" + shortCode(),
		Description:  req.Description,
		OwnerCoachID: ownerID,
		InviteCode:   shortCode(),
	}
	if err := s.groupRepo.Create(ctx, group); err != nil {
		return nil, fmt.Errorf("failed to create group: %w", err)
	}
	return group, nil
}

func (s *GroupService) GetGroup(ctx context.Context, p authz.Principal, id string) (*model.Group, error) {
	facts, err := s.resolver.Facts(ctx, p, authz.KindGroup, id, "")
	if err != nil {
		return nil, err
	}
	if d := authz.Authorize(p, authz.OpRead, facts); !d.Allowed {
		return nil, d.Err()
	}

	group, err := s.groupRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	// Students never see the invite code they didn't redeem themselves.
	if p.Role == authz.RoleStudent {
		group.InviteCode = ""
	}
	return group, nil
}

// ListGroups narrows the scan to the caller's own subtree: coaches see groups
// they own, students see groups they belong to. An unfiltered listing is
// reserved for admins.
func (s *GroupService) ListGroups(ctx context.Context, p authz.Principal) ([]model.Group, error) {
	switch p.Role {
	case authz.RoleAdmin:
		return s.groupRepo.ListAll(ctx)
	case authz.RoleCoach:
		return s.groupRepo.ListByOwner(ctx, p.ID)
	case authz.RoleStudent:
		groups, err := s.groupRepo.ListByMember(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		for i := range groups {
			groups[i].InviteCode = ""
		}
		return groups, nil
	default:
		return nil, common.ErrForbidden
	}
}

func (s *GroupService) UpdateGroup(ctx context.Context, p authz.Principal, id string, req UpdateGroupRequest) (*model.Group, error) {
	facts, err := s.resolver.Facts(ctx, p, authz.KindGroup, id, "")
	if err != nil {
		return nil, err
	}
	if d := authz.Authorize(p, authz.OpMutate, facts); !d.Allowed {
		return nil, d.Err()
	}

	group, err := s.groupRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		group.Name = *req.Name
	}
	if req.Description != nil {
		group.Description = *req.Description
	}
	if err := s.groupRepo.Update(ctx, group); err != nil {
		return nil, fmt.Errorf("failed to update group: %w", err)
	}
	return group, nil
}

// DeleteGroup removes the group and everything under it. The cascade runs
// child-first (student exercises, exercises, assignments, memberships, group)
// inside one transaction. A crash mid-cascade leaves only orphans that are
// unreachable through the deleted parent chain.
func (s *GroupService) DeleteGroup(ctx context.Context, p authz.Principal, id string) error {
	facts, err := s.resolver.Facts(ctx, p, authz.KindGroup, id, "")
	if err != nil {
		return err
	}
	if d := authz.Authorize(p, authz.OpMutate, facts); !d.Allowed {
		return d.Err()
	}

	assignments, err := s.assignmentRepo.ListByGroup(ctx, id)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, a := range assignments {
		if err := s.deleteAssignmentCascade(ctx, tx, a.ID); err != nil {
			return err
		}
	}
	if err := s.membershipRepo.DeleteByGroup(ctx, tx, id); err != nil {
		return err
	}
	if err := s.groupRepo.Delete(ctx, tx, id); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cascade: %w", err)
	}
	log.Printf("Group %s deleted with %d assignments cascaded.", id, len(assignments))
	return nil
}

func (s *GroupService) deleteAssignmentCascade(ctx context.Context, tx *sql.Tx, assignmentID string) error {
	exercises, err := s.exerciseRepo.ListByAssignment(ctx, assignmentID)
	if err != nil {
		return err
	}
	for _, e := range exercises {
		if err := s.studentExerciseRepo.DeleteByExercise(ctx, tx, e.ID); err != nil {
			return err
		}
	}
	if err := s.exerciseRepo.DeleteByAssignment(ctx, tx, assignmentID); err != nil {
		return err
	}
	return s.assignmentRepo.Delete(ctx, tx, assignmentID)
}

// JoinByInviteCode enrolls the acting student into the group carrying the code.
func (s *GroupService) JoinByInviteCode(ctx context.Context, p authz.Principal, code string) (*model.GroupMembership, error) {
	if p.Role != authz.RoleStudent {
		return nil, common.ErrForbidden
	}
	if code == "" {
		return nil, common.Errorf("invite code is required: %w", common.ErrBadRequest)
	}

	group, err := s.groupRepo.FindByInviteCode(ctx, code)
	if err != nil {
		return nil, err
	}
	membership := &model.GroupMembership{
		ID:        uuid.NewString(),
		StudentID: p.ID,
		GroupID:   group.ID,
	}
	if err := s.membershipRepo.Create(ctx, membership); err != nil {
		return nil, err
	}
	return membership, nil
}

// AddMember enrolls a named student; a coach/admin action.
func (s *GroupService) AddMember(ctx context.Context, p authz.Principal, groupID, studentID string) (*model.GroupMembership, error) {
	facts, err := s.resolver.Facts(ctx, p, authz.KindGroup, groupID, "")
	if err != nil {
		return nil, err
	}
	if d := authz.Authorize(p, authz.OpMutate, facts); !d.Allowed {
		return nil, d.Err()
	}

	student, err := s.userRepo.FindByID(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("student: %w", err)
	}
	if student.Role != model.RoleStudent {
		return nil, common.Errorf("only students can be group members: %w", common.ErrBadRequest)
	}

	membership := &model.GroupMembership{
		ID:        uuid.NewString(),
		StudentID: studentID,
		GroupID:   groupID,
	}
	if err := s.membershipRepo.Create(ctx, membership); err != nil {
		return nil, err
	}
	return membership, nil
}

func (s *GroupService) RemoveMember(ctx context.Context, p authz.Principal, groupID, studentID string) error {
	facts, err := s.resolver.Facts(ctx, p, authz.KindGroup, groupID, "")
	if err != nil {
		return err
	}
	if d := authz.Authorize(p, authz.OpMutate, facts); !d.Allowed {
		return d.Err()
	}
	return s.membershipRepo.Delete(ctx, studentID, groupID)
}

func (s *GroupService) ListMembers(ctx context.Context, p authz.Principal, groupID string) ([]model.GroupMembership, error) {
	facts, err := s.resolver.Facts(ctx, p, authz.KindGroup, groupID, "")
	if err != nil {
		return nil, err
	}
	if d := authz.Authorize(p, authz.OpReadMembers, facts); !d.Allowed {
		return nil, d.Err()
	}
	return s.membershipRepo.ListByGroup(ctx, groupID)
}

func shortCode() string {
	return strings.SplitN(uuid.NewString(), "-", 2)[0]
}
