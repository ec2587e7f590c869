package service

import (
	"context"
	"errors"
	"fmt"

	"cf_coach/internal/common"
	"cf_coach/internal/common/security"
	"cf_coach/internal/domain/model"
	"cf_coach/internal/domain/repository"

	"github.com/google/uuid"
)

type AuthService struct {
	userRepo    repository.UserRepository
	accountRepo repository.CFAccountRepository
}

func NewAuthService(userRepo repository.UserRepository, accountRepo repository.CFAccountRepository) *AuthService {
	return &AuthService{userRepo: userRepo, accountRepo: accountRepo}
}

type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"` // "coach" or "student"; admins are seeded out of band
}

type LoginRequest struct {
	LoginField string `json:"login_field"` // Can be username or email
	Password   string `json:"password"`
}

type AuthResponse struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

func (s *AuthService) Signup(ctx context.Context, req SignupRequest) (*AuthResponse, error) {
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return nil, common.ErrBadRequest
	}
	if req.Role != model.RoleCoach && req.Role != model.RoleStudent {
		return nil, common.Errorf("role must be coach or student: %w", common.ErrBadRequest)
	}

	hashedPassword, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:             uuid.NewString(),
		Username:       req.Username,
		Email:          req.Email,
		HashedPassword: hashedPassword,
		Role:           req.Role,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := security.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	user.HashedPassword = ""
	return &AuthResponse{User: user, Token: token}, nil
}

func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if req.LoginField == "" || req.Password == "" {
		return nil, common.ErrBadRequest
	}

	user, err := s.userRepo.FindByEmail(ctx, req.LoginField)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			user, err = s.userRepo.FindByUsername(ctx, req.LoginField)
		}
	}
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized // Generic message for security
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !security.CheckPasswordHash(req.Password, user.HashedPassword) {
		return nil, common.ErrUnauthorized
	}

	token, err := security.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	user.HashedPassword = ""
	return &AuthResponse{User: user, Token: token}, nil
}

// LinkAccount links or relinks a judge handle to the student. Relinking a new
// handle always resets is_verified; the student must rerun verification.
func (s *AuthService) LinkAccount(ctx context.Context, studentID, handle string) (*model.CFAccount, error) {
	if handle == "" {
		return nil, common.Errorf("handle is required: %w", common.ErrBadRequest)
	}

	existing, err := s.accountRepo.FindByStudent(ctx, studentID)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}

	if existing == nil {
		account := &model.CFAccount{
			ID:        uuid.NewString(),
			StudentID: studentID,
			Handle:    handle,
		}
		if err := s.accountRepo.Create(ctx, account); err != nil {
			return nil, fmt.Errorf("failed to link account: %w", err)
		}
		return account, nil
	}

	if err := s.accountRepo.UpdateHandle(ctx, studentID, handle); err != nil {
		return nil, fmt.Errorf("failed to relink account: %w", err)
	}
	return s.accountRepo.FindByStudent(ctx, studentID)
}
