package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"cf_coach/internal/common"
	"cf_coach/internal/domain/model"
)

type AssignmentRepository interface {
	Create(ctx context.Context, a *model.Assignment) error
	FindByID(ctx context.Context, id string) (*model.Assignment, error)
	ListByGroup(ctx context.Context, groupID string) ([]model.Assignment, error)
	Update(ctx context.Context, a *model.Assignment) error
	Delete(ctx context.Context, tx *sql.Tx, id string) error
	DeleteByGroup(ctx context.Context, tx *sql.Tx, groupID string) error
}

type pgAssignmentRepository struct {
	db *sql.DB
}

func NewPgAssignmentRepository(db *sql.DB) AssignmentRepository {
	return &pgAssignmentRepository{db: db}
}

const assignmentColumns = `id, title, description, due_date, group_id, created_at, updated_at`

func (r *pgAssignmentRepository) Create(ctx context.Context, a *model.Assignment) error {
	query := `INSERT INTO assignments (id, title, description, due_date, group_id)
	          VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.ExecContext(ctx, query, a.ID, a.Title, a.Description, a.DueDate, a.GroupID)
	if err != nil {
		return fmt.Errorf("pgAssignmentRepository.Create: %w", err)
	}
	return nil
}

func (r *pgAssignmentRepository) FindByID(ctx context.Context, id string) (*model.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments WHERE id = $1`
	a := &model.Assignment{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&a.ID, &a.Title, &a.Description, &a.DueDate, &a.GroupID, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgAssignmentRepository.FindByID: %w", err)
	}
	return a, nil
}

func (r *pgAssignmentRepository) ListByGroup(ctx context.Context, groupID string) ([]model.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments WHERE group_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("pgAssignmentRepository.ListByGroup query: %w", err)
	}
	defer rows.Close()

	assignments := []model.Assignment{}
	for rows.Next() {
		var a model.Assignment
		if err := rows.Scan(&a.ID, &a.Title, &a.Description, &a.DueDate, &a.GroupID, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("pgAssignmentRepository.ListByGroup scan: %w", err)
		}
		assignments = append(assignments, a)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgAssignmentRepository.ListByGroup rows.Err: %w", err)
	}
	return assignments, nil
}

// Update never touches group_id: assignments cannot be re-parented.
func (r *pgAssignmentRepository) Update(ctx context.Context, a *model.Assignment) error {
	query := `UPDATE assignments SET title = $1, description = $2, due_date = $3, updated_at = CURRENT_TIMESTAMP
	          WHERE id = $4`
	_, err := r.db.ExecContext(ctx, query, a.Title, a.Description, a.DueDate, a.ID)
	if err != nil {
		return fmt.Errorf("pgAssignmentRepository.Update: %w", err)
	}
	return nil
}

func (r *pgAssignmentRepository) Delete(ctx context.Context, tx *sql.Tx, id string) error {
	query := `DELETE FROM assignments WHERE id = $1`
	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, id)
	} else {
		_, err = r.db.ExecContext(ctx, query, id)
	}
	if err != nil {
		return fmt.Errorf("pgAssignmentRepository.Delete: %w", err)
	}
	return nil
}

func (r *pgAssignmentRepository) DeleteByGroup(ctx context.Context, tx *sql.Tx, groupID string) error {
	query := `DELETE FROM assignments WHERE group_id = $1`
	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, groupID)
	} else {
		_, err = r.db.ExecContext(ctx, query, groupID)
	}
	if err != nil {
		return fmt.Errorf("pgAssignmentRepository.DeleteByGroup: %w", err)
	}
	return nil
}
