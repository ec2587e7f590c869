package service

import (
	"context"
	"fmt"
	"time"

	"cf_coach/internal/common"
	"cf_coach/internal/common/security"
	"cf_coach/internal/domain/model"
	"cf_coach/internal/domain/repository"
	"cf_coach/internal/judge"

	"github.com/redis/go-redis/v9"
)

// How many recent submissions End scans for the challenge attempt. The
// student is told to submit immediately, so the attempt sits near the top of
// their history.
const verificationScanCount = 50

// VerificationService implements the account-ownership protocol: Start hands
// the student a random challenge problem and a signed, time-boxed ticket;
// End checks the judge for any submission against that problem inside the
// ticket window. Any verdict counts, a compilation error included; the
// student is proving control of the handle, not skill.
type VerificationService struct {
	accountRepo repository.CFAccountRepository
	judge       judge.API
	signer      *security.TicketSigner
	pool        *problemPool
}

func NewVerificationService(
	accountRepo repository.CFAccountRepository,
	judgeAPI judge.API,
	signer *security.TicketSigner,
	rdb *redis.Client,
	poolTTL time.Duration,
) *VerificationService {
	return &VerificationService{
		accountRepo: accountRepo,
		judge:       judgeAPI,
		signer:      signer,
		pool:        newProblemPool(rdb, judgeAPI, poolTTL),
	}
}

type StartVerificationResponse struct {
	Ticket      string    `json:"ticket"`
	ProblemCode string    `json:"problem_code"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type EndVerificationResponse struct {
	Verified bool   `json:"verified"`
	Handle   string `json:"handle"`
}

// Start mints a verification ticket for the student's linked handle. Nothing
// is persisted; the ticket is self-contained.
func (s *VerificationService) Start(ctx context.Context, studentID string) (*StartVerificationResponse, error) {
	account, err := s.accountRepo.FindByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("no linked account: %w", err)
	}
	if account.IsVerified {
		return nil, common.Errorf("account is already verified: %w", common.ErrConflict)
	}

	problem, err := s.pool.Random(ctx)
	if err != nil {
		return nil, err
	}
	code := model.ProblemCode{ContestID: problem.ContestID, Index: problem.Index}

	ticket, decoded, err := s.signer.Mint(studentID, code.String())
	if err != nil {
		return nil, err
	}
	return &StartVerificationResponse{
		Ticket:      ticket,
		ProblemCode: code.String(),
		ExpiresAt:   decoded.ExpiresAt,
	}, nil
}

// End consumes a ticket. Outcomes, in order of checking:
//   - bad signature or malformed claims: ErrTicketInvalid
//   - expired: ErrTicketExpired
//   - ticket bound to a different student: ErrForbidden
//   - no qualifying submission yet: ErrNotYetVerified (retryable while the
//     ticket lives)
//   - judge unreachable: ErrJudgeUnavailable (retryable, state untouched)
//
// End is idempotent once the account is verified.
func (s *VerificationService) End(ctx context.Context, presentingStudentID, ticketString string) (*EndVerificationResponse, error) {
	ticket, err := s.signer.Verify(ticketString)
	if err != nil {
		return nil, err
	}

	// Strict identity comparison: a ticket minted for student A is useless
	// to student B even with judge-valid submissions under A's handle.
	if ticket.StudentID != presentingStudentID {
		return nil, common.Errorf("cannot verify another student's account: %w", common.ErrForbidden)
	}

	account, err := s.accountRepo.FindByStudent(ctx, presentingStudentID)
	if err != nil {
		return nil, fmt.Errorf("no linked account: %w", err)
	}
	if account.IsVerified {
		return &EndVerificationResponse{Verified: true, Handle: account.Handle}, nil
	}

	code, err := model.ParseProblemCode(ticket.CFCode)
	if err != nil {
		return nil, common.ErrTicketInvalid
	}

	submissions, err := s.judge.Submissions(ctx, account.Handle, 1, verificationScanCount)
	if err != nil {
		return nil, err
	}

	if !hasAttemptInWindow(submissions, code, ticket.IssuedAt, ticket.ExpiresAt) {
		return nil, common.ErrNotYetVerified
	}

	if err := s.accountRepo.SetVerified(ctx, presentingStudentID); err != nil {
		return nil, err
	}
	return &EndVerificationResponse{Verified: true, Handle: account.Handle}, nil
}

// hasAttemptInWindow scans for any submission against code created inside
// [issuedAt, expiresAt]. The verdict is irrelevant; the submission existing
// under the handle is the proof.
func hasAttemptInWindow(submissions []judge.Submission, code model.ProblemCode, issuedAt, expiresAt time.Time) bool {
	for _, sub := range submissions {
		if sub.Problem.ContestID != code.ContestID || sub.Problem.Index != code.Index {
			continue
		}
		created := time.Unix(sub.CreationTimeSeconds, 0)
		if !created.Before(issuedAt) && !created.After(expiresAt) {
			return true
		}
	}
	return false
}
