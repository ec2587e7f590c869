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

type ExerciseRepository interface {
	Create(ctx context.Context, e *model.Exercise) error
	FindByID(ctx context.Context, id string) (*model.Exercise, error)
	ListByAssignment(ctx context.Context, assignmentID string) ([]model.Exercise, error)
	Update(ctx context.Context, e *model.Exercise) error
	Delete(ctx context.Context, tx *sql.Tx, id string) error
	DeleteByAssignment(ctx context.Context, tx *sql.Tx, assignmentID string) error
}

type StudentExerciseRepository interface {
	Create(ctx context.Context, se *model.StudentExercise) error
	Find(ctx context.Context, studentID, exerciseID string) (*model.StudentExercise, error)
	ListByStudent(ctx context.Context, studentID string) ([]model.StudentExercise, error)
	ListByExercise(ctx context.Context, exerciseID string) ([]model.StudentExercise, error)
	Delete(ctx context.Context, id string) error
	DeleteByExercise(ctx context.Context, tx *sql.Tx, exerciseID string) error
}

type pgExerciseRepository struct {
	db *sql.DB
}

func NewPgExerciseRepository(db *sql.DB) ExerciseRepository {
	return &pgExerciseRepository{db: db}
}

const exerciseColumns = `id, name, cf_code, assignment_id, created_at, updated_at`

func (r *pgExerciseRepository) Create(ctx context.Context, e *model.Exercise) error {
	query := `INSERT INTO exercises (id, name, cf_code, assignment_id) VALUES ($1, $2, $3, $4)`
	_, err := r.db.ExecContext(ctx, query, e.ID, e.Name, e.CFCode, e.AssignmentID)
	if err != nil {
		return fmt.Errorf("pgExerciseRepository.Create: %w", err)
	}
	return nil
}

func (r *pgExerciseRepository) FindByID(ctx context.Context, id string) (*model.Exercise, error) {
	query := `SELECT ` + exerciseColumns + ` FROM exercises WHERE id = $1`
	e := &model.Exercise{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&e.ID, &e.Name, &e.CFCode, &e.AssignmentID, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgExerciseRepository.FindByID: %w", err)
	}
	return e, nil
}

func (r *pgExerciseRepository) ListByAssignment(ctx context.Context, assignmentID string) ([]model.Exercise, error) {
	query := `SELECT ` + exerciseColumns + ` FROM exercises WHERE assignment_id = $1 ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("pgExerciseRepository.ListByAssignment query: %w", err)
	}
	defer rows.Close()

	exercises := []model.Exercise{}
	for rows.Next() {
		var e model.Exercise
		if err := rows.Scan(&e.ID, &e.Name, &e.CFCode, &e.AssignmentID, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("pgExerciseRepository.ListByAssignment scan: %w", err)
		}
		exercises = append(exercises, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgExerciseRepository.ListByAssignment rows.Err: %w", err)
	}
	return exercises, nil
}

// Update never touches cf_code or assignment_id: both are immutable.
func (r *pgExerciseRepository) Update(ctx context.Context, e *model.Exercise) error {
	query := `UPDATE exercises SET name = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, e.Name, e.ID)
	if err != nil {
		return fmt.Errorf("pgExerciseRepository.Update: %w", err)
	}
	return nil
}

func (r *pgExerciseRepository) Delete(ctx context.Context, tx *sql.Tx, id string) error {
	query := `DELETE FROM exercises WHERE id = $1`
	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, id)
	} else {
		_, err = r.db.ExecContext(ctx, query, id)
	}
	if err != nil {
		return fmt.Errorf("pgExerciseRepository.Delete: %w", err)
	}
	return nil
}

func (r *pgExerciseRepository) DeleteByAssignment(ctx context.Context, tx *sql.Tx, assignmentID string) error {
	query := `DELETE FROM exercises WHERE assignment_id = $1`
	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, assignmentID)
	} else {
		_, err = r.db.ExecContext(ctx, query, assignmentID)
	}
	if err != nil {
		return fmt.Errorf("pgExerciseRepository.DeleteByAssignment: %w", err)
	}
	return nil
}

type pgStudentExerciseRepository struct {
	db *sql.DB
}

func NewPgStudentExerciseRepository(db *sql.DB) StudentExerciseRepository {
	return &pgStudentExerciseRepository{db: db}
}

func (r *pgStudentExerciseRepository) Create(ctx context.Context, se *model.StudentExercise) error {
	query := `INSERT INTO student_exercises (id, student_id, exercise_id, completion_type)
	          VALUES ($1, $2, $3, $4)`
	_, err := r.db.ExecContext(ctx, query, se.ID, se.StudentID, se.ExerciseID, se.CompletionType)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("completion already recorded for this exercise: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgStudentExerciseRepository.Create: %w", err)
	}
	return nil
}

func (r *pgStudentExerciseRepository) Find(ctx context.Context, studentID, exerciseID string) (*model.StudentExercise, error) {
	query := `SELECT id, student_id, exercise_id, completion_type, created_at
	          FROM student_exercises WHERE student_id = $1 AND exercise_id = $2`
	se := &model.StudentExercise{}
	err := r.db.QueryRowContext(ctx, query, studentID, exerciseID).Scan(
		&se.ID, &se.StudentID, &se.ExerciseID, &se.CompletionType, &se.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgStudentExerciseRepository.Find: %w", err)
	}
	return se, nil
}

func (r *pgStudentExerciseRepository) ListByStudent(ctx context.Context, studentID string) ([]model.StudentExercise, error) {
	return r.list(ctx, "student_id", studentID)
}

func (r *pgStudentExerciseRepository) ListByExercise(ctx context.Context, exerciseID string) ([]model.StudentExercise, error) {
	return r.list(ctx, "exercise_id", exerciseID)
}

func (r *pgStudentExerciseRepository) list(ctx context.Context, column, value string) ([]model.StudentExercise, error) {
	query := `SELECT id, student_id, exercise_id, completion_type, created_at
	          FROM student_exercises WHERE ` + column + ` = $1 ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query, value)
	if err != nil {
		return nil, fmt.Errorf("pgStudentExerciseRepository.list query: %w", err)
	}
	defer rows.Close()

	records := []model.StudentExercise{}
	for rows.Next() {
		var se model.StudentExercise
		if err := rows.Scan(&se.ID, &se.StudentID, &se.ExerciseID, &se.CompletionType, &se.CreatedAt); err != nil {
			return nil, fmt.Errorf("pgStudentExerciseRepository.list scan: %w", err)
		}
		records = append(records, se)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgStudentExerciseRepository.list rows.Err: %w", err)
	}
	return records, nil
}

func (r *pgStudentExerciseRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM student_exercises WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("pgStudentExerciseRepository.Delete: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgStudentExerciseRepository) DeleteByExercise(ctx context.Context, tx *sql.Tx, exerciseID string) error {
	query := `DELETE FROM student_exercises WHERE exercise_id = $1`
	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, exerciseID)
	} else {
		_, err = r.db.ExecContext(ctx, query, exerciseID)
	}
	if err != nil {
		return fmt.Errorf("pgStudentExerciseRepository.DeleteByExercise: %w", err)
	}
	return nil
}
