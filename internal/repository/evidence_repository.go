package repository

import (
	"context"

	"github.com/spec-kit/case-service/internal/domain"
)

// EvidenceRepository persists evidence records attached to cases.
type EvidenceRepository interface {
	Create(ctx context.Context, evidence *domain.Evidence) error
	GetByID(ctx context.Context, id string) (*domain.Evidence, error)
	ListByCase(ctx context.Context, caseID string) ([]domain.Evidence, error)
}

type evidenceRepository struct {
	q Querier
}

// NewEvidenceRepository instantiates repository.
func NewEvidenceRepository(q Querier) EvidenceRepository {
	return &evidenceRepository{q: q}
}

func (r *evidenceRepository) Create(ctx context.Context, evidence *domain.Evidence) error {
	const query = `
        INSERT INTO evidences (case_id, type, title, description, metadata, recorded_by)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, recorded_at`
	return r.q.QueryRow(ctx, query,
		evidence.CaseID,
		evidence.Type,
		evidence.Title,
		evidence.Description,
		evidence.Metadata,
		evidence.RecordedBy,
	).Scan(&evidence.ID, &evidence.RecordedAt)
}

func (r *evidenceRepository) GetByID(ctx context.Context, id string) (*domain.Evidence, error) {
	const query = `
        SELECT id, case_id, type, title, description, metadata, recorded_by, recorded_at
        FROM evidences WHERE id=$1`
	var evidence domain.Evidence
	if err := r.q.QueryRow(ctx, query, id).Scan(
		&evidence.ID,
		&evidence.CaseID,
		&evidence.Type,
		&evidence.Title,
		&evidence.Description,
		&evidence.Metadata,
		&evidence.RecordedBy,
		&evidence.RecordedAt,
	); err != nil {
		return nil, err
	}
	return &evidence, nil
}

func (r *evidenceRepository) ListByCase(ctx context.Context, caseID string) ([]domain.Evidence, error) {
	const query = `
        SELECT id, case_id, type, title, description, metadata, recorded_by, recorded_at
        FROM evidences WHERE case_id=$1 ORDER BY recorded_at ASC`
	rows, err := r.q.Query(ctx, query, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Evidence
	for rows.Next() {
		var evidence domain.Evidence
		if err := rows.Scan(
			&evidence.ID,
			&evidence.CaseID,
			&evidence.Type,
			&evidence.Title,
			&evidence.Description,
			&evidence.Metadata,
			&evidence.RecordedBy,
			&evidence.RecordedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, evidence)
	}
	return result, rows.Err()
}
