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

type ChallengeRepository interface {
	Create(ctx context.Context, c *model.Challenge) error
	FindByID(ctx context.Context, id string) (*model.Challenge, error)
	ListByStudent(ctx context.Context, studentID string) ([]model.Challenge, error)
	MarkCompleted(ctx context.Context, id string, completionType model.CompletionType) error
	Delete(ctx context.Context, id string) error
}

type pgChallengeRepository struct {
	db *sql.DB
}

func NewPgChallengeRepository(db *sql.DB) ChallengeRepository {
	return &pgChallengeRepository{db: db}
}

const challengeColumns = `id, student_id, cf_code, is_completed, completion_type, created_at, updated_at`

func (r *pgChallengeRepository) Create(ctx context.Context, c *model.Challenge) error {
	query := `INSERT INTO challenges (id, student_id, cf_code, is_completed, completion_type)
	          VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.ExecContext(ctx, query, c.ID, c.StudentID, c.CFCode, c.IsCompleted, c.CompletionType)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("challenge already exists for this problem: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgChallengeRepository.Create: %w", err)
	}
	return nil
}

func (r *pgChallengeRepository) FindByID(ctx context.Context, id string) (*model.Challenge, error) {
	query := `SELECT ` + challengeColumns + ` FROM challenges WHERE id = $1`
	c := &model.Challenge{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.StudentID, &c.CFCode, &c.IsCompleted, &c.CompletionType, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgChallengeRepository.FindByID: %w", err)
	}
	return c, nil
}

func (r *pgChallengeRepository) ListByStudent(ctx context.Context, studentID string) ([]model.Challenge, error) {
	query := `SELECT ` + challengeColumns + ` FROM challenges WHERE student_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("pgChallengeRepository.ListByStudent query: %w", err)
	}
	defer rows.Close()

	challenges := []model.Challenge{}
	for rows.Next() {
		var c model.Challenge
		if err := rows.Scan(&c.ID, &c.StudentID, &c.CFCode, &c.IsCompleted, &c.CompletionType, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("pgChallengeRepository.ListByStudent scan: %w", err)
		}
		challenges = append(challenges, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgChallengeRepository.ListByStudent rows.Err: %w", err)
	}
	return challenges, nil
}

func (r *pgChallengeRepository) MarkCompleted(ctx context.Context, id string, completionType model.CompletionType) error {
	query := `UPDATE challenges SET is_completed = TRUE, completion_type = $1, updated_at = CURRENT_TIMESTAMP
	          WHERE id = $2`
	res, err := r.db.ExecContext(ctx, query, completionType, id)
	if err != nil {
		return fmt.Errorf("pgChallengeRepository.MarkCompleted: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgChallengeRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM challenges WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("pgChallengeRepository.Delete: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrNotFound
	}
	return nil
}
