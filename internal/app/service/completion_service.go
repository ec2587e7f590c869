package service

import (
	"context"
	"errors"
	"fmt"

	"cf_coach/internal/app/authz"
	"cf_coach/internal/common"
	"cf_coach/internal/domain/model"
	"cf_coach/internal/domain/repository"
	"cf_coach/internal/judge"

	"github.com/google/uuid"
)

// CompletionService decides whether a handle has solved a target problem and
// records completion (StudentExercise for assigned work, Challenge for
// self-directed work).
type CompletionService struct {
	exerciseRepo        repository.ExerciseRepository
	studentExerciseRepo repository.StudentExerciseRepository
	challengeRepo       repository.ChallengeRepository
	accountRepo         repository.CFAccountRepository
	userRepo            repository.UserRepository
	resolver            *authz.Resolver
	judge               judge.API
	submissionsPage     int
}

func NewCompletionService(
	exerciseRepo repository.ExerciseRepository,
	studentExerciseRepo repository.StudentExerciseRepository,
	challengeRepo repository.ChallengeRepository,
	accountRepo repository.CFAccountRepository,
	userRepo repository.UserRepository,
	resolver *authz.Resolver,
	judgeAPI judge.API,
	submissionsPage int,
) *CompletionService {
	return &CompletionService{
		exerciseRepo:        exerciseRepo,
		studentExerciseRepo: studentExerciseRepo,
		challengeRepo:       challengeRepo,
		accountRepo:         accountRepo,
		userRepo:            userRepo,
		resolver:            resolver,
		judge:               judgeAPI,
		submissionsPage:     submissionsPage,
	}
}

// CompletionResult is the outcome of a judge-side solve check.
type CompletionResult struct {
	Solved         bool                  `json:"solved"`
	CompletionType *model.CompletionType `json:"completion_type,omitempty"`
}

// VerifyCompletion checks whether handle has an accepted submission for the
// target problem and classifies it: "contest" if any accepted submission
// landed inside the contest's live window (inclusive of the final second),
// "normal" otherwise. One qualifying contest-window solve is enough even if
// later practice solves exist.
func (s *CompletionService) VerifyCompletion(ctx context.Context, handle string, code model.ProblemCode) (*CompletionResult, error) {
	meta, err := s.judge.ContestMeta(ctx, code.ContestID)
	if err != nil {
		return nil, err
	}

	submissions, err := s.judge.Submissions(ctx, handle, 1, s.submissionsPage)
	if err != nil {
		return nil, err
	}

	solved := false
	completionType := model.CompletionNormal
	for _, sub := range submissions {
		if sub.Verdict != judge.VerdictAccepted {
			continue
		}
		if sub.Problem.ContestID != code.ContestID || sub.Problem.Index != code.Index {
			continue
		}
		solved = true
		if meta.DurationSeconds > 0 &&
			sub.RelativeTimeSeconds >= 0 && sub.RelativeTimeSeconds <= meta.DurationSeconds {
			completionType = model.CompletionContest
			break
		}
	}

	if !solved {
		return &CompletionResult{Solved: false}, nil
	}
	return &CompletionResult{Solved: true, CompletionType: &completionType}, nil
}

type CreateStudentExerciseRequest struct {
	ExerciseID string `json:"exercise_id"`
	// StudentID names the student an admin is recording completion for.
	// Non-admin callers leave it empty and act on themselves.
	StudentID string `json:"student_id,omitempty"`
}

// CreateStudentExercise records completion of an assigned exercise. Students
// must have actually solved the problem on the judge. Admins may force-create
// a record for an enrolled student without judge proof; such records carry
// completion type "normal".
func (s *CompletionService) CreateStudentExercise(ctx context.Context, p authz.Principal, req CreateStudentExerciseRequest) (*model.StudentExercise, error) {
	if req.ExerciseID == "" {
		return nil, common.Errorf("exercise_id is required: %w", common.ErrBadRequest)
	}

	targetStudentID := p.ID
	if req.StudentID != "" && req.StudentID != p.ID {
		if p.Role != authz.RoleAdmin {
			return nil, common.Errorf("cannot record completion for another student: %w", common.ErrForbidden)
		}
		targetStudentID = req.StudentID
	}

	facts, err := s.resolver.Facts(ctx, p, authz.KindExercise, req.ExerciseID, targetStudentID)
	if err != nil {
		return nil, err
	}
	if d := authz.Authorize(p, authz.OpWriteCompletion, facts); !d.Allowed {
		return nil, d.Err()
	}

	exercise, err := s.exerciseRepo.FindByID(ctx, req.ExerciseID)
	if err != nil {
		return nil, err
	}
	code, err := model.ParseProblemCode(exercise.CFCode)
	if err != nil {
		return nil, fmt.Errorf("stored exercise code is malformed: %w", err)
	}

	completionType := model.CompletionNormal
	if p.Role == authz.RoleAdmin {
		// Trusted override: no judge proof required, recorded as "normal".
	} else {
		account, err := s.accountRepo.FindByStudent(ctx, targetStudentID)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return nil, common.Errorf("no judge account linked: %w", common.ErrBadRequest)
			}
			return nil, err
		}
		result, err := s.VerifyCompletion(ctx, account.Handle, code)
		if err != nil {
			return nil, err
		}
		if !result.Solved {
			return nil, common.ErrNotYetCompleted
		}
		completionType = *result.CompletionType
	}

	record := &model.StudentExercise{
		ID:             uuid.NewString(),
		StudentID:      targetStudentID,
		ExerciseID:     req.ExerciseID,
		CompletionType: completionType,
	}
	if err := s.studentExerciseRepo.Create(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

func (s *CompletionService) ListStudentExercises(ctx context.Context, p authz.Principal, studentID string) ([]model.StudentExercise, error) {
	if p.Role != authz.RoleAdmin && p.ID != studentID {
		return nil, common.ErrForbidden
	}
	return s.studentExerciseRepo.ListByStudent(ctx, studentID)
}

type CreateChallengeRequest struct {
	CFCode string `json:"cf_code"`
}

// CreateChallenge declares a self-directed problem. The code must be
// well-formed and exist on the judge; one challenge per (student, problem).
func (s *CompletionService) CreateChallenge(ctx context.Context, p authz.Principal, req CreateChallengeRequest) (*model.Challenge, error) {
	if p.Role != authz.RoleStudent {
		return nil, common.ErrForbidden
	}
	code, err := model.ParseProblemCode(req.CFCode)
	if err != nil {
		return nil, common.Errorf("malformed problem code %q: %w", req.CFCode, common.ErrValidation)
	}
	if _, err := s.judge.FindProblem(ctx, code); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.Errorf("problem %s does not exist on the judge: %w", code, common.ErrValidation)
		}
		return nil, err
	}

	challenge := &model.Challenge{
		ID:        uuid.NewString(),
		StudentID: p.ID,
		CFCode:    code.String(),
	}
	if err := s.challengeRepo.Create(ctx, challenge); err != nil {
		return nil, err
	}
	return challenge, nil
}

// CompleteChallenge marks a challenge solved. Students need a judge-verified
// solve; an admin completing on a student's behalf bypasses the judge and the
// record is stored as "normal".
func (s *CompletionService) CompleteChallenge(ctx context.Context, p authz.Principal, challengeID string) (*model.Challenge, error) {
	challenge, err := s.challengeRepo.FindByID(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	if p.Role != authz.RoleAdmin && challenge.StudentID != p.ID {
		return nil, common.ErrForbidden
	}
	if challenge.IsCompleted {
		return nil, common.Errorf("challenge already completed: %w", common.ErrConflict)
	}

	completionType := model.CompletionNormal
	if p.Role != authz.RoleAdmin {
		code, err := model.ParseProblemCode(challenge.CFCode)
		if err != nil {
			return nil, fmt.Errorf("stored challenge code is malformed: %w", err)
		}
		account, err := s.accountRepo.FindByStudent(ctx, challenge.StudentID)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return nil, common.Errorf("no judge account linked: %w", common.ErrBadRequest)
			}
			return nil, err
		}
		result, err := s.VerifyCompletion(ctx, account.Handle, code)
		if err != nil {
			return nil, err
		}
		if !result.Solved {
			return nil, common.ErrNotYetCompleted
		}
		completionType = *result.CompletionType
	}

	if err := s.challengeRepo.MarkCompleted(ctx, challengeID, completionType); err != nil {
		return nil, err
	}
	return s.challengeRepo.FindByID(ctx, challengeID)
}

func (s *CompletionService) ListChallenges(ctx context.Context, p authz.Principal, studentID string) ([]model.Challenge, error) {
	if p.Role != authz.RoleAdmin && p.ID != studentID {
		return nil, common.ErrForbidden
	}
	return s.challengeRepo.ListByStudent(ctx, studentID)
}
