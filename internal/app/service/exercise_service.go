package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"cf_coach/internal/app/authz"
	"cf_coach/internal/common"
	"cf_coach/internal/domain/model"
	"cf_coach/internal/domain/repository"
	"cf_coach/internal/judge"

	"github.com/google/uuid"
)

type ExerciseService struct {
	exerciseRepo        repository.ExerciseRepository
	studentExerciseRepo repository.StudentExerciseRepository
	resolver            *authz.Resolver
	judge               judge.API
	db                  *sql.DB
}

func NewExerciseService(
	exerciseRepo repository.ExerciseRepository,
	studentExerciseRepo repository.StudentExerciseRepository,
	resolver *authz.Resolver,
	judgeAPI judge.API,
	db *sql.DB,
) *ExerciseService {
	return &ExerciseService{
		exerciseRepo:        exerciseRepo,
		studentExerciseRepo: studentExerciseRepo,
		resolver:            resolver,
		judge:               judgeAPI,
		db:                  db,
	}
}

type CreateExerciseRequest struct {
	Name         string `json:"name"`
	CFCode       string `json:"cf_code"`
	AssignmentID string `json:"assignment_id"`
}

type UpdateExerciseRequest struct {
	Name *string `json:"name,omitempty"`
}

// CreateExercise validates the problem code shape and confirms the problem
// actually exists on the judge before anything is stored. cf_code and the
// parent assignment are immutable afterwards.
func (s *ExerciseService) CreateExercise(ctx context.Context, p authz.Principal, req CreateExerciseRequest) (*model.Exercise, error) {
	if req.Name == "" || req.AssignmentID == "" {
		return nil, common.Errorf("name and assignment_id are required: %w", common.ErrBadRequest)
	}
	code, err := model.ParseProblemCode(req.CFCode)
	if err != nil {
		return nil, common.Errorf("malformed problem code %q: %w", req.CFCode, common.ErrValidation)
	}

	facts, err := s.resolver.Facts(ctx, p, authz.KindAssignment, req.AssignmentID, "")
	if err != nil {
		return nil, err
	}
	if d := authz.Authorize(p, authz.OpMutate, facts); !d.Allowed {
		return nil, d.Err()
	}

	if _, err := s.judge.FindProblem(ctx, code); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.Errorf("problem %s does not exist on the judge: %w", code, common.ErrValidation)
		}
		return nil, err
	}

	exercise := &model.Exercise{
		ID:           uuid.NewString(),
		Name:         req.Name,
		CFCode:       code.String(),
		AssignmentID: req.AssignmentID,
	}
	if err := s.exerciseRepo.Create(ctx, exercise); err != nil {
		return nil, fmt.Errorf("failed to create exercise: %w", err)
	}
	return exercise, nil
}

func (s *ExerciseService) GetExercise(ctx context.Context, p authz.Principal, id string) (*model.Exercise, error) {
	facts, err := s.resolver.Facts(ctx, p, authz.KindExercise, id, "")
	if err != nil {
		return nil, err
	}
	if d := authz.Authorize(p, authz.OpRead, facts); !d.Allowed {
		return nil, d.Err()
	}
	return s.exerciseRepo.FindByID(ctx, id)
}

func (s *ExerciseService) ListExercises(ctx context.Context, p authz.Principal, assignmentID string) ([]model.Exercise, error) {
	facts, err := s.resolver.Facts(ctx, p, authz.KindAssignment, assignmentID, "")
	if err != nil {
		return nil, err
	}
	if d := authz.Authorize(p, authz.OpRead, facts); !d.Allowed {
		return nil, d.Err()
	}
	return s.exerciseRepo.ListByAssignment(ctx, assignmentID)
}

func (s *ExerciseService) UpdateExercise(ctx context.Context, p authz.Principal, id string, req UpdateExerciseRequest) (*model.Exercise, error) {
	facts, err := s.resolver.Facts(ctx, p, authz.KindExercise, id, "")
	if err != nil {
		return nil, err
	}
	if d := authz.Authorize(p, authz.OpMutate, facts); !d.Allowed {
		return nil, d.Err()
	}

	exercise, err := s.exerciseRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		exercise.Name = *req.Name
	}
	if err := s.exerciseRepo.Update(ctx, exercise); err != nil {
		return nil, fmt.Errorf("failed to update exercise: %w", err)
	}
	return exercise, nil
}

// DeleteExercise cascades to the exercise's completion records.
func (s *ExerciseService) DeleteExercise(ctx context.Context, p authz.Principal, id string) error {
	facts, err := s.resolver.Facts(ctx, p, authz.KindExercise, id, "")
	if err != nil {
		return err
	}
	if d := authz.Authorize(p, authz.OpMutate, facts); !d.Allowed {
		return d.Err()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.studentExerciseRepo.DeleteByExercise(ctx, tx, id); err != nil {
		return err
	}
	if err := s.exerciseRepo.Delete(ctx, tx, id); err != nil {
		return err
	}
	return tx.Commit()
}
