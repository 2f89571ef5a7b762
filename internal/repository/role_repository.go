package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/opsdeck/support-portal/internal/domain"
)

// RoleRepository stores (user, role) pairs.
type RoleRepository interface {
	GetRoles(ctx context.Context, userID string) (domain.RoleSet, error)
	Assign(ctx context.Context, userID string, role domain.Role) error
	Revoke(ctx context.Context, userID string, role domain.Role) error
	ListUsersWithRoles(ctx context.Context, roles ...domain.Role) ([]domain.User, error)
}

type roleRepository struct {
	pool *pgxpool.Pool
}

// NewRoleRepository returns a Postgres-backed implementation.
func NewRoleRepository(pool *pgxpool.Pool) RoleRepository {
	return &roleRepository{pool: pool}
}

func (r *roleRepository) GetRoles(ctx context.Context, userID string) (domain.RoleSet, error) {
	const query = `SELECT role FROM user_roles WHERE user_id=$1 ORDER BY role`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	roles := domain.RoleSet{}
	for rows.Next() {
		var role domain.Role
		if err := rows.Scan(&role); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func (r *roleRepository) Assign(ctx context.Context, userID string, role domain.Role) error {
	const query = `
        INSERT INTO user_roles (user_id, role) VALUES ($1, $2)
        ON CONFLICT (user_id, role) DO NOTHING`
	_, err := r.pool.Exec(ctx, query, userID, role)
	return err
}

func (r *roleRepository) Revoke(ctx context.Context, userID string, role domain.Role) error {
	const query = `DELETE FROM user_roles WHERE user_id=$1 AND role=$2`
	cmd, err := r.pool.Exec(ctx, query, userID, role)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ListUsersWithRoles returns active users holding any of the given roles,
// e.g. the assignable staff pool.
func (r *roleRepository) ListUsersWithRoles(ctx context.Context, roles ...domain.Role) ([]domain.User, error) {
	roleStrings := make([]string, 0, len(roles))
	for _, role := range roles {
		roleStrings = append(roleStrings, string(role))
	}
	const query = `
        SELECT DISTINCT u.id, u.name, u.email, u.password_hash, u.is_active, u.created_at, u.updated_at
        FROM users u
        JOIN user_roles ur ON ur.user_id = u.id
        WHERE ur.role = ANY($1) AND u.is_active
        ORDER BY u.name`
	rows, err := r.pool.Query(ctx, query, roleStrings)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanUsers(rows)
}
