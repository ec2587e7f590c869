package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"cf_coach/internal/common"
	"cf_coach/internal/domain/model"

	"github.com/jackc/pgx/v5/pgconn"
)

type CFAccountRepository interface {
	Create(ctx context.Context, a *model.CFAccount) error
	FindByStudent(ctx context.Context, studentID string) (*model.CFAccount, error)
	// UpdateHandle replaces the linked handle and resets is_verified to false.
	UpdateHandle(ctx context.Context, studentID, handle string) error
	SetVerified(ctx context.Context, studentID string) error
}

type pgCFAccountRepository struct {
	db *sql.DB
}

func NewPgCFAccountRepository(db *sql.DB) CFAccountRepository {
	return &pgCFAccountRepository{db: db}
}

func (r *pgCFAccountRepository) Create(ctx context.Context, a *model.CFAccount) error {
	query := `INSERT INTO cf_accounts (id, student_id, handle, is_verified) VALUES ($1, $2, $3, FALSE)`
	_, err := r.db.ExecContext(ctx, query, a.ID, a.StudentID, a.Handle)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("student already has a linked account: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgCFAccountRepository.Create: %w", err)
	}
	return nil
}

func (r *pgCFAccountRepository) FindByStudent(ctx context.Context, studentID string) (*model.CFAccount, error) {
	query := `SELECT id, student_id, handle, is_verified, created_at, updated_at
	          FROM cf_accounts WHERE student_id = $1`
	a := &model.CFAccount{}
	err := r.db.QueryRowContext(ctx, query, studentID).Scan(
		&a.ID, &a.StudentID, &a.Handle, &a.IsVerified, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgCFAccountRepository.FindByStudent: %w", err)
	}
	return a, nil
}

func (r *pgCFAccountRepository) UpdateHandle(ctx context.Context, studentID, handle string) error {
	query := `UPDATE cf_accounts SET handle = $1, is_verified = FALSE, updated_at = CURRENT_TIMESTAMP
	          WHERE student_id = $2`
	res, err := r.db.ExecContext(ctx, query, handle, studentID)
	if err != nil {
		return fmt.Errorf("pgCFAccountRepository.UpdateHandle: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgCFAccountRepository) SetVerified(ctx context.Context, studentID string) error {
	query := `UPDATE cf_accounts SET is_verified = TRUE, updated_at = CURRENT_TIMESTAMP
	          WHERE student_id = $1`
	res, err := r.db.ExecContext(ctx, query, studentID)
	if err != nil {
		return fmt.Errorf("pgCFAccountRepository.SetVerified: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrNotFound
	}
	return nil
}
