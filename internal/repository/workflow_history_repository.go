package repository

import (
	"context"

	"github.com/spec-kit/case-service/internal/domain"
)

// WorkflowHistoryRepository stores the append-only routing log.
type WorkflowHistoryRepository interface {
	Create(ctx context.Context, entry *domain.WorkflowHistory) error
	ListByCase(ctx context.Context, caseID string) ([]domain.WorkflowHistory, error)
	CountByRecipient(ctx context.Context, caseID, userID string) (int64, error)
}

type workflowHistoryRepository struct {
	q Querier
}

// NewWorkflowHistoryRepository builds repository.
func NewWorkflowHistoryRepository(q Querier) WorkflowHistoryRepository {
	return &workflowHistoryRepository{q: q}
}

func (r *workflowHistoryRepository) Create(ctx context.Context, entry *domain.WorkflowHistory) error {
	const query = `
        INSERT INTO workflow_history (case_id, recipient_id, message)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	return r.q.QueryRow(ctx, query,
		entry.CaseID,
		entry.RecipientID,
		entry.Message,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *workflowHistoryRepository) ListByCase(ctx context.Context, caseID string) ([]domain.WorkflowHistory, error) {
	const query = `
        SELECT id, case_id, recipient_id, message, created_at
        FROM workflow_history WHERE case_id=$1 ORDER BY created_at ASC`
	rows, err := r.q.Query(ctx, query, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.WorkflowHistory
	for rows.Next() {
		var entry domain.WorkflowHistory
		if err := rows.Scan(
			&entry.ID,
			&entry.CaseID,
			&entry.RecipientID,
			&entry.Message,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

func (r *workflowHistoryRepository) CountByRecipient(ctx context.Context, caseID, userID string) (int64, error) {
	var count int64
	err := r.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM workflow_history WHERE case_id=$1 AND recipient_id=$2`,
		caseID, userID,
	).Scan(&count)
	return count, err
}
