package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"cf_coach/internal/app/authz"
	"cf_coach/internal/common"
	"cf_coach/internal/domain/model"
	"cf_coach/internal/domain/repository"

	"github.com/google/uuid"
)

type AssignmentService struct {
	assignmentRepo      repository.AssignmentRepository
	exerciseRepo        repository.ExerciseRepository
	studentExerciseRepo repository.StudentExerciseRepository
	resolver            *authz.Resolver
	db                  *sql.DB
}

func NewAssignmentService(
	assignmentRepo repository.AssignmentRepository,
	exerciseRepo repository.ExerciseRepository,
	studentExerciseRepo repository.StudentExerciseRepository,
	resolver *authz.Resolver,
	db *sql.DB,
) *AssignmentService {
	return &AssignmentService{
		assignmentRepo:      assignmentRepo,
		exerciseRepo:        exerciseRepo,
		studentExerciseRepo: studentExerciseRepo,
		resolver:            resolver,
		db:                  db,
	}
}

type CreateAssignmentRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	GroupID     string     `json:"group_id"`
}

type UpdateAssignmentRequest struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

// CreateAssignment requires the parent group to exist; authorization is
// resolved against that group, so a missing parent yields not-found rather
// than a denial.
func (s *AssignmentService) CreateAssignment(ctx context.Context, p authz.Principal, req CreateAssignmentRequest) (*model.Assignment, error) {
	if req.Title == "" || req.GroupID == "" {
		return nil, common.Errorf("title and group_id are required: %w", common.ErrBadRequest)
	}

	facts, err := s.resolver.Facts(ctx, p, authz.KindGroup, req.GroupID, "")
	if err != nil {
		return nil, err
	}
	if d := authz.Authorize(p, authz.OpMutate, facts); !d.Allowed {
		return nil, d.Err()
	}

	assignment := &model.Assignment{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		GroupID:     req.GroupID,
	}
	if err := s.assignmentRepo.Create(ctx, assignment); err != nil {
		return nil, fmt.Errorf("failed to create assignment: %w", err)
	}
	return assignment, nil
}

func (s *AssignmentService) GetAssignment(ctx context.Context, p authz.Principal, id string) (*model.Assignment, error) {
	facts, err := s.resolver.Facts(ctx, p, authz.KindAssignment, id, "")
	if err != nil {
		return nil, err
	}
	if d := authz.Authorize(p, authz.OpRead, facts); !d.Allowed {
		return nil, d.Err()
	}
	return s.assignmentRepo.FindByID(ctx, id)
}

func (s *AssignmentService) ListAssignments(ctx context.Context, p authz.Principal, groupID string) ([]model.Assignment, error) {
	facts, err := s.resolver.Facts(ctx, p, authz.KindGroup, groupID, "")
	if err != nil {
		return nil, err
	}
	if d := authz.Authorize(p, authz.OpRead, facts); !d.Allowed {
		return nil, d.Err()
	}
	return s.assignmentRepo.ListByGroup(ctx, groupID)
}

func (s *AssignmentService) UpdateAssignment(ctx context.Context, p authz.Principal, id string, req UpdateAssignmentRequest) (*model.Assignment, error) {
	facts, err := s.resolver.Facts(ctx, p, authz.KindAssignment, id, "")
	if err != nil {
		return nil, err
	}
	if d := authz.Authorize(p, authz.OpMutate, facts); !d.Allowed {
		return nil, d.Err()
	}

	assignment, err := s.assignmentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Title != nil {
		assignment.Title = *req.Title
	}
	if req.Description != nil {
		assignment.Description = *req.Description
	}
	if req.DueDate != nil {
		assignment.DueDate = req.DueDate
	}
	if err := s.assignmentRepo.Update(ctx, assignment); err != nil {
		return nil, fmt.Errorf("failed to update assignment: %w", err)
	}
	return assignment, nil
}

// DeleteAssignment cascades to the assignment's exercises and their
// completion records.
func (s *AssignmentService) DeleteAssignment(ctx context.Context, p authz.Principal, id string) error {
	facts, err := s.resolver.Facts(ctx, p, authz.KindAssignment, id, "")
	if err != nil {
		return err
	}
	if d := authz.Authorize(p, authz.OpMutate, facts); !d.Allowed {
		return d.Err()
	}

	exercises, err := s.exerciseRepo.ListByAssignment(ctx, id)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, e := range exercises {
		if err := s.studentExerciseRepo.DeleteByExercise(ctx, tx, e.ID); err != nil {
			return err
		}
	}
	if err := s.exerciseRepo.DeleteByAssignment(ctx, tx, id); err != nil {
		return err
	}
	if err := s.assignmentRepo.Delete(ctx, tx, id); err != nil {
		return err
	}
	return tx.Commit()
}
