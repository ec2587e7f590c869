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

type GroupRepository interface {
	Create(ctx context.Context, group *model.Group) error
	FindByID(ctx context.Context, id string) (*model.Group, error)
	FindByInviteCode(ctx context.Context, code string) (*model.Group, error)
	ListByOwner(ctx context.Context, coachID string) ([]model.Group, error)
	ListByMember(ctx context.Context, studentID string) ([]model.Group, error)
	ListAll(ctx context.Context) ([]model.Group, error)
	Update(ctx context.Context, group *model.Group) error
	Delete(ctx context.Context, tx *sql.Tx, id string) error
}

type MembershipRepository interface {
	Create(ctx context.Context, m *model.GroupMembership) error
	Exists(ctx context.Context, studentID, groupID string) (bool, error)
	ListByGroup(ctx context.Context, groupID string) ([]model.GroupMembership, error)
	Delete(ctx context.Context, studentID, groupID string) error
	DeleteByGroup(ctx context.Context, tx *sql.Tx, groupID string) error
}

type pgGroupRepository struct {
	db *sql.DB
}

func NewPgGroupRepository(db *sql.DB) GroupRepository {
	return &pgGroupRepository{db: db}
}

const groupColumns = `id, name, slug, description, owner_coach_id, invite_code, created_at, updated_at`

func (r *pgGroupRepository) Create(ctx context.Context, g *model.Group) error {
	query := `INSERT INTO groups (id, name, slug, description, owner_coach_id, invite_code)
	          VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.ExecContext(ctx, query, g.ID, g.Name, g.Slug, g.Description, g.OwnerCoachID, g.InviteCode)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("group with this slug already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgGroupRepository.Create: %w", err)
	}
	return nil
}

func (r *pgGroupRepository) FindByID(ctx context.Context, id string) (*model.Group, error) {
	return r.findBy(ctx, "id", id)
}

func (r *pgGroupRepository) FindByInviteCode(ctx context.Context, code string) (*model.Group, error) {
	return r.findBy(ctx, "invite_code", code)
}

func (r *pgGroupRepository) findBy(ctx context.Context, column, value string) (*model.Group, error) {
	query := `SELECT ` + groupColumns + ` FROM groups WHERE ` + column + ` = $1`
	g := &model.Group{}
	err := r.db.QueryRowContext(ctx, query, value).Scan(
		&g.ID, &g.Name, &g.Slug, &g.Description, &g.OwnerCoachID, &g.InviteCode, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgGroupRepository.findBy %s: %w", column, err)
	}
	return g, nil
}

func (r *pgGroupRepository) ListByOwner(ctx context.Context, coachID string) ([]model.Group, error) {
	query := `SELECT ` + groupColumns + ` FROM groups WHERE owner_coach_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, coachID)
}

func (r *pgGroupRepository) ListByMember(ctx context.Context, studentID string) ([]model.Group, error) {
	query := `SELECT g.id, g.name, g.slug, g.description, g.owner_coach_id, g.invite_code, g.created_at, g.updated_at
	          FROM groups g
	          JOIN group_memberships gm ON gm.group_id = g.id
	          WHERE gm.student_id = $1 ORDER BY g.created_at DESC`
	return r.list(ctx, query, studentID)
}

func (r *pgGroupRepository) ListAll(ctx context.Context) ([]model.Group, error) {
	query := `SELECT ` + groupColumns + ` FROM groups ORDER BY created_at DESC`
	return r.list(ctx, query)
}

func (r *pgGroupRepository) list(ctx context.Context, query string, args ...interface{}) ([]model.Group, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("pgGroupRepository.list query: %w", err)
	}
	defer rows.Close()

	groups := []model.Group{}
	for rows.Next() {
		var g model.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.Slug, &g.Description, &g.OwnerCoachID, &g.InviteCode, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, fmt.Errorf("pgGroupRepository.list scan: %w", err)
		}
		groups = append(groups, g)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgGroupRepository.list rows.Err: %w", err)
	}
	return groups, nil
}

func (r *pgGroupRepository) Update(ctx context.Context, g *model.Group) error {
	query := `UPDATE groups SET name = $1, description = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, g.Name, g.Description, g.ID)
	if err != nil {
		return fmt.Errorf("pgGroupRepository.Update: %w", err)
	}
	return nil
}

func (r *pgGroupRepository) Delete(ctx context.Context, tx *sql.Tx, id string) error {
	query := `DELETE FROM groups WHERE id = $1`
	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, id)
	} else {
		_, err = r.db.ExecContext(ctx, query, id)
	}
	if err != nil {
		return fmt.Errorf("pgGroupRepository.Delete: %w", err)
	}
	return nil
}

type pgMembershipRepository struct {
	db *sql.DB
}

func NewPgMembershipRepository(db *sql.DB) MembershipRepository {
	return &pgMembershipRepository{db: db}
}

func (r *pgMembershipRepository) Create(ctx context.Context, m *model.GroupMembership) error {
	query := `INSERT INTO group_memberships (id, student_id, group_id) VALUES ($1, $2, $3)`
	_, err := r.db.ExecContext(ctx, query, m.ID, m.StudentID, m.GroupID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("student is already a member of this group: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgMembershipRepository.Create: %w", err)
	}
	return nil
}

func (r *pgMembershipRepository) Exists(ctx context.Context, studentID, groupID string) (bool, error) {
	query := `SELECT 1 FROM group_memberships WHERE student_id = $1 AND group_id = $2`
	var n int
	err := r.db.QueryRowContext(ctx, query, studentID, groupID).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("pgMembershipRepository.Exists: %w", err)
	}
	return true, nil
}

func (r *pgMembershipRepository) ListByGroup(ctx context.Context, groupID string) ([]model.GroupMembership, error) {
	query := `SELECT id, student_id, group_id, created_at FROM group_memberships WHERE group_id = $1 ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("pgMembershipRepository.ListByGroup query: %w", err)
	}
	defer rows.Close()

	members := []model.GroupMembership{}
	for rows.Next() {
		var m model.GroupMembership
		if err := rows.Scan(&m.ID, &m.StudentID, &m.GroupID, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("pgMembershipRepository.ListByGroup scan: %w", err)
		}
		members = append(members, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgMembershipRepository.ListByGroup rows.Err: %w", err)
	}
	return members, nil
}

func (r *pgMembershipRepository) Delete(ctx context.Context, studentID, groupID string) error {
	query := `DELETE FROM group_memberships WHERE student_id = $1 AND group_id = $2`
	res, err := r.db.ExecContext(ctx, query, studentID, groupID)
	if err != nil {
		return fmt.Errorf("pgMembershipRepository.Delete: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgMembershipRepository) DeleteByGroup(ctx context.Context, tx *sql.Tx, groupID string) error {
	query := `DELETE FROM group_memberships WHERE group_id = $1`
	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, groupID)
	} else {
		_, err = r.db.ExecContext(ctx, query, groupID)
	}
	if err != nil {
		return fmt.Errorf("pgMembershipRepository.DeleteByGroup: %w", err)
	}
	return nil
}
