package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/case-service/internal/domain"
)

// CaseFilter captures case listing parameters.
type CaseFilter struct {
	CreatedBy   *string
	Statuses    []domain.CaseStatus
	Levels      []domain.CrimeLevel
	SearchTerm  *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// CaseRepository encapsulates case persistence.
type CaseRepository interface {
	Create(ctx context.Context, c *domain.Case) error
	Update(ctx context.Context, c *domain.Case) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Case, error)
	// GetByIDForUpdate locks the case row for the duration of the
	// surrounding transaction, serializing concurrent workflow advances.
	GetByIDForUpdate(ctx context.Context, id string) (*domain.Case, error)
	ListWithFilter(ctx context.Context, filter CaseFilter) ([]domain.Case, error)
	CountByStatus(ctx context.Context, status domain.CaseStatus) (int64, error)
	CountNotInStatus(ctx context.Context, status domain.CaseStatus) (int64, error)
	AddComplainant(ctx context.Context, caseID, userID string) error
	ListComplainants(ctx context.Context, caseID string) ([]domain.Complainant, error)
}

type caseRepository struct {
	q Querier
}

// NewCaseRepository instantiates repository.
func NewCaseRepository(q Querier) CaseRepository {
	return &caseRepository{q: q}
}

func (r *caseRepository) Create(ctx context.Context, c *domain.Case) error {
	const query = `
        INSERT INTO cases (title, description, level, status, created_by)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	return r.q.QueryRow(ctx, query,
		c.Title,
		c.Description,
		c.Level,
		c.Status,
		c.CreatedBy,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

func (r *caseRepository) Update(ctx context.Context, c *domain.Case) error {
	const query = `
        UPDATE cases SET title=$1, description=$2, level=$3, status=$4, closed_at=$5, updated_at=NOW()
        WHERE id=$6`
	cmd, err := r.q.Exec(ctx, query,
		c.Title,
		c.Description,
		c.Level,
		c.Status,
		c.ClosedAt,
		c.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *caseRepository) Delete(ctx context.Context, id string) error {
	// workflow_history and case_complainants cascade with the case row
	cmd, err := r.q.Exec(ctx, `DELETE FROM cases WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

const caseColumns = `id, title, description, level, status, created_by, created_at, updated_at, closed_at`

func (r *caseRepository) GetByID(ctx context.Context, id string) (*domain.Case, error) {
	query := fmt.Sprintf(`SELECT %s FROM cases WHERE id=$1`, caseColumns)
	return r.fetchSingle(ctx, query, id)
}

func (r *caseRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Case, error) {
	query := fmt.Sprintf(`SELECT %s FROM cases WHERE id=$1 FOR UPDATE`, caseColumns)
	return r.fetchSingle(ctx, query, id)
}

func (r *caseRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Case, error) {
	var c domain.Case
	if err := r.q.QueryRow(ctx, query, arg).Scan(
		&c.ID,
		&c.Title,
		&c.Description,
		&c.Level,
		&c.Status,
		&c.CreatedBy,
		&c.CreatedAt,
		&c.UpdatedAt,
		&c.ClosedAt,
	); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *caseRepository) ListWithFilter(ctx context.Context, filter CaseFilter) ([]domain.Case, error) {
	base := fmt.Sprintf(`SELECT %s FROM cases`, caseColumns)
	clauses := []string{"1=1"}
	args := []any{}

	if filter.CreatedBy != nil {
		args = append(args, *filter.CreatedBy)
		clauses = append(clauses, fmt.Sprintf("created_by=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Levels) > 0 {
		placeholders := make([]string, len(filter.Levels))
		for i, level := range filter.Levels {
			args = append(args, level)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("level IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(title) LIKE %s OR LOWER(description) LIKE %s)", placeholder, placeholder))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCases(rows)
}

func (r *caseRepository) CountByStatus(ctx context.Context, status domain.CaseStatus) (int64, error) {
	var count int64
	err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM cases WHERE status=$1`, status).Scan(&count)
	return count, err
}

func (r *caseRepository) CountNotInStatus(ctx context.Context, status domain.CaseStatus) (int64, error) {
	var count int64
	err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM cases WHERE status<>$1`, status).Scan(&count)
	return count, err
}

func (r *caseRepository) AddComplainant(ctx context.Context, caseID, userID string) error {
	const query = `
        INSERT INTO case_complainants (case_id, user_id)
        VALUES ($1,$2)
        ON CONFLICT (case_id, user_id) DO NOTHING`
	_, err := r.q.Exec(ctx, query, caseID, userID)
	return err
}

func (r *caseRepository) ListComplainants(ctx context.Context, caseID string) ([]domain.Complainant, error) {
	const query = `
        SELECT id, case_id, user_id, verified
        FROM case_complainants WHERE case_id=$1`
	rows, err := r.q.Query(ctx, query, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Complainant
	for rows.Next() {
		var c domain.Complainant
		if err := rows.Scan(&c.ID, &c.CaseID, &c.UserID, &c.Verified); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func scanCases(rows pgx.Rows) ([]domain.Case, error) {
	var result []domain.Case
	for rows.Next() {
		var c domain.Case
		if err := rows.Scan(
			&c.ID,
			&c.Title,
			&c.Description,
			&c.Level,
			&c.Status,
			&c.CreatedBy,
			&c.CreatedAt,
			&c.UpdatedAt,
			&c.ClosedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}
