package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/case-service/internal/domain"
	"github.com/spec-kit/case-service/internal/workflow"
)

// workflowStore adapts the tx-bound repositories and directory to the
// engine's Store interface.
type workflowStore struct {
	DirectoryRepository

	cases   CaseRepository
	history WorkflowHistoryRepository
}

func (s *workflowStore) GetCaseForUpdate(ctx context.Context, caseID string) (*domain.Case, error) {
	return s.cases.GetByIDForUpdate(ctx, caseID)
}

func (s *workflowStore) UpdateCase(ctx context.Context, c *domain.Case) error {
	return s.cases.Update(ctx, c)
}

func (s *workflowStore) AppendHistory(ctx context.Context, entry *domain.WorkflowHistory) error {
	return s.history.Create(ctx, entry)
}

func (s *workflowStore) ListHistory(ctx context.Context, caseID string) ([]domain.WorkflowHistory, error) {
	return s.history.ListByCase(ctx, caseID)
}

// WorkflowRunner runs engine units of work inside a single pgx transaction,
// so the status write, the history append and every directory read commit or
// roll back together.
type WorkflowRunner struct {
	pool *pgxpool.Pool
}

// NewWorkflowRunner builds the runner.
func NewWorkflowRunner(pool *pgxpool.Pool) *WorkflowRunner {
	return &WorkflowRunner{pool: pool}
}

// InTx implements workflow.Runner.
func (r *WorkflowRunner) InTx(ctx context.Context, fn func(ctx context.Context, store workflow.Store) error) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		store := &workflowStore{
			DirectoryRepository: NewDirectoryRepository(tx),
			cases:               NewCaseRepository(tx),
			history:             NewWorkflowHistoryRepository(tx),
		}
		return fn(ctx, store)
	})
}
