package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// DirectoryRepository answers identity questions for the workflow engine and
// permission middleware: capability checks, role membership and the
// escalation chain. All answers reflect the tables at the instant of the
// call; nothing is cached.
type DirectoryRepository interface {
	HasCapability(ctx context.Context, userID, codename string) (bool, error)
	HasRole(ctx context.Context, userID, roleName string) (bool, error)
	ReportsTo(ctx context.Context, userID string) (*string, error)
	MembersOfRole(ctx context.Context, roleName string) ([]string, error)
}

type directoryRepository struct {
	q Querier
}

// NewDirectoryRepository builds the pgx-backed directory.
func NewDirectoryRepository(q Querier) DirectoryRepository {
	return &directoryRepository{q: q}
}

// HasCapability reports whether any of the user's roles grants the
// capability. Members of the admin role pass every check.
func (r *directoryRepository) HasCapability(ctx context.Context, userID, codename string) (bool, error) {
	const query = `
        SELECT EXISTS (
            SELECT 1
            FROM user_roles ur
            JOIN roles r ON r.id = ur.role_id
            LEFT JOIN role_permissions rp ON rp.role_id = r.id
            LEFT JOIN permissions p ON p.id = rp.permission_id
            WHERE ur.user_id=$1 AND (p.codename=$2 OR r.name='admin')
        )`
	var ok bool
	err := r.q.QueryRow(ctx, query, userID, codename).Scan(&ok)
	return ok, err
}

func (r *directoryRepository) HasRole(ctx context.Context, userID, roleName string) (bool, error) {
	const query = `
        SELECT EXISTS (
            SELECT 1
            FROM user_roles ur
            JOIN roles r ON r.id = ur.role_id
            WHERE ur.user_id=$1 AND r.name=$2
        )`
	var ok bool
	err := r.q.QueryRow(ctx, query, userID, roleName).Scan(&ok)
	return ok, err
}

func (r *directoryRepository) ReportsTo(ctx context.Context, userID string) (*string, error) {
	var superior *string
	err := r.q.QueryRow(ctx, `SELECT reports_to FROM users WHERE id=$1`, userID).Scan(&superior)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return superior, nil
}

func (r *directoryRepository) MembersOfRole(ctx context.Context, roleName string) ([]string, error) {
	const query = `
        SELECT ur.user_id
        FROM user_roles ur
        JOIN roles r ON r.id = ur.role_id
        WHERE r.name=$1 ORDER BY ur.user_id ASC`
	rows, err := r.q.Query(ctx, query, roleName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		members = append(members, id)
	}
	return members, rows.Err()
}
