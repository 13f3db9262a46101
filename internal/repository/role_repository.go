package repository

import (
	"context"

	"github.com/spec-kit/case-service/internal/domain"
)

// RoleRepository manages roles, permissions and user-role assignments.
type RoleRepository interface {
	ListRoles(ctx context.Context) ([]domain.Role, error)
	GetRoleByName(ctx context.Context, name string) (*domain.Role, error)
	ListUserRoles(ctx context.Context, userID string) ([]domain.Role, error)
	ReplaceUserRoles(ctx context.Context, userID string, roleIDs []string) error
	EnsurePermission(ctx context.Context, codename, name string) error
	EnsureRole(ctx context.Context, name string, permCodenames []string) error
}

type roleRepository struct {
	q Querier
}

// NewRoleRepository builds repository.
func NewRoleRepository(q Querier) RoleRepository {
	return &roleRepository{q: q}
}

func (r *roleRepository) ListRoles(ctx context.Context) ([]domain.Role, error) {
	rows, err := r.q.Query(ctx, `SELECT id, name FROM roles ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []domain.Role
	for rows.Next() {
		var role domain.Role
		if err := rows.Scan(&role.ID, &role.Name); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range roles {
		perms, err := r.listRolePermissions(ctx, roles[i].ID)
		if err != nil {
			return nil, err
		}
		roles[i].Permissions = perms
	}
	return roles, nil
}

func (r *roleRepository) GetRoleByName(ctx context.Context, name string) (*domain.Role, error) {
	var role domain.Role
	if err := r.q.QueryRow(ctx, `SELECT id, name FROM roles WHERE name=$1`, name).Scan(&role.ID, &role.Name); err != nil {
		return nil, err
	}
	perms, err := r.listRolePermissions(ctx, role.ID)
	if err != nil {
		return nil, err
	}
	role.Permissions = perms
	return &role, nil
}

func (r *roleRepository) listRolePermissions(ctx context.Context, roleID string) ([]domain.Permission, error) {
	const query = `
        SELECT p.id, p.codename, p.name
        FROM permissions p
        JOIN role_permissions rp ON rp.permission_id = p.id
        WHERE rp.role_id=$1 ORDER BY p.codename ASC`
	rows, err := r.q.Query(ctx, query, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var perms []domain.Permission
	for rows.Next() {
		var perm domain.Permission
		if err := rows.Scan(&perm.ID, &perm.Codename, &perm.Name); err != nil {
			return nil, err
		}
		perms = append(perms, perm)
	}
	return perms, rows.Err()
}

func (r *roleRepository) ListUserRoles(ctx context.Context, userID string) ([]domain.Role, error) {
	const query = `
        SELECT r.id, r.name
        FROM roles r
        JOIN user_roles ur ON ur.role_id = r.id
        WHERE ur.user_id=$1 ORDER BY r.name ASC`
	rows, err := r.q.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []domain.Role
	for rows.Next() {
		var role domain.Role
		if err := rows.Scan(&role.ID, &role.Name); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func (r *roleRepository) ReplaceUserRoles(ctx context.Context, userID string, roleIDs []string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM user_roles WHERE user_id=$1`, userID); err != nil {
		return err
	}
	for _, roleID := range roleIDs {
		if _, err := r.q.Exec(ctx,
			`INSERT INTO user_roles (user_id, role_id) VALUES ($1,$2) ON CONFLICT DO NOTHING`,
			userID, roleID,
		); err != nil {
			return err
		}
	}
	return nil
}

func (r *roleRepository) EnsurePermission(ctx context.Context, codename, name string) error {
	const query = `
        INSERT INTO permissions (codename, name)
        VALUES ($1,$2)
        ON CONFLICT (codename) DO NOTHING`
	_, err := r.q.Exec(ctx, query, codename, name)
	return err
}

func (r *roleRepository) EnsureRole(ctx context.Context, name string, permCodenames []string) error {
	var roleID string
	const upsert = `
        INSERT INTO roles (name)
        VALUES ($1)
        ON CONFLICT (name) DO UPDATE SET name=EXCLUDED.name
        RETURNING id`
	if err := r.q.QueryRow(ctx, upsert, name).Scan(&roleID); err != nil {
		return err
	}
	for _, codename := range permCodenames {
		const link = `
            INSERT INTO role_permissions (role_id, permission_id)
            SELECT $1, p.id FROM permissions p WHERE p.codename=$2
            ON CONFLICT DO NOTHING`
		if _, err := r.q.Exec(ctx, link, roleID, codename); err != nil {
			return err
		}
	}
	return nil
}
