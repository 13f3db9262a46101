package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/case-service/internal/domain"
)

// SuspectRepository persists suspects and their investigation scores.
type SuspectRepository interface {
	Create(ctx context.Context, suspect *domain.Suspect) error
	Update(ctx context.Context, suspect *domain.Suspect) error
	GetByID(ctx context.Context, id string) (*domain.Suspect, error)
	ListByCase(ctx context.Context, caseID string) ([]domain.Suspect, error)
	CreateInvestigation(ctx context.Context, inv *domain.Investigation) error
	ListInvestigations(ctx context.Context, suspectID string) ([]domain.Investigation, error)
	// ListMostWanted returns suspects whose case has been open longer than
	// thresholdDays, with the days at large and the case crime level.
	ListMostWanted(ctx context.Context, thresholdDays int) ([]domain.MostWanted, error)
}

type suspectRepository struct {
	q Querier
}

// NewSuspectRepository instantiates repository.
func NewSuspectRepository(q Querier) SuspectRepository {
	return &suspectRepository{q: q}
}

func (r *suspectRepository) Create(ctx context.Context, suspect *domain.Suspect) error {
	const query = `
        INSERT INTO suspects (case_id, national_id, full_name, status, wanted_level)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id`
	return r.q.QueryRow(ctx, query,
		suspect.CaseID,
		suspect.NationalID,
		suspect.FullName,
		suspect.Status,
		suspect.WantedLevel,
	).Scan(&suspect.ID)
}

func (r *suspectRepository) Update(ctx context.Context, suspect *domain.Suspect) error {
	const query = `
        UPDATE suspects SET national_id=$1, full_name=$2, status=$3, wanted_level=$4
        WHERE id=$5`
	cmd, err := r.q.Exec(ctx, query,
		suspect.NationalID,
		suspect.FullName,
		suspect.Status,
		suspect.WantedLevel,
		suspect.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *suspectRepository) GetByID(ctx context.Context, id string) (*domain.Suspect, error) {
	const query = `
        SELECT id, case_id, national_id, full_name, status, wanted_level
        FROM suspects WHERE id=$1`
	var suspect domain.Suspect
	if err := r.q.QueryRow(ctx, query, id).Scan(
		&suspect.ID,
		&suspect.CaseID,
		&suspect.NationalID,
		&suspect.FullName,
		&suspect.Status,
		&suspect.WantedLevel,
	); err != nil {
		return nil, err
	}
	return &suspect, nil
}

func (r *suspectRepository) ListByCase(ctx context.Context, caseID string) ([]domain.Suspect, error) {
	const query = `
        SELECT id, case_id, national_id, full_name, status, wanted_level
        FROM suspects WHERE case_id=$1 ORDER BY full_name ASC`
	rows, err := r.q.Query(ctx, query, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Suspect
	for rows.Next() {
		var suspect domain.Suspect
		if err := rows.Scan(
			&suspect.ID,
			&suspect.CaseID,
			&suspect.NationalID,
			&suspect.FullName,
			&suspect.Status,
			&suspect.WantedLevel,
		); err != nil {
			return nil, err
		}
		result = append(result, suspect)
	}
	return result, rows.Err()
}

func (r *suspectRepository) CreateInvestigation(ctx context.Context, inv *domain.Investigation) error {
	const query = `
        INSERT INTO investigations (suspect_id, investigator_id, score)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	return r.q.QueryRow(ctx, query,
		inv.SuspectID,
		inv.InvestigatorID,
		inv.Score,
	).Scan(&inv.ID, &inv.CreatedAt)
}

func (r *suspectRepository) ListInvestigations(ctx context.Context, suspectID string) ([]domain.Investigation, error) {
	const query = `
        SELECT id, suspect_id, investigator_id, score, created_at
        FROM investigations WHERE suspect_id=$1 ORDER BY created_at ASC`
	rows, err := r.q.Query(ctx, query, suspectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Investigation
	for rows.Next() {
		var inv domain.Investigation
		if err := rows.Scan(&inv.ID, &inv.SuspectID, &inv.InvestigatorID, &inv.Score, &inv.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, inv)
	}
	return result, rows.Err()
}

func (r *suspectRepository) ListMostWanted(ctx context.Context, thresholdDays int) ([]domain.MostWanted, error) {
	// open cases use NOW() as the running end of the interrogation window
	const query = `
        SELECT s.id, s.case_id, s.national_id, s.full_name, s.status, s.wanted_level,
               EXTRACT(DAY FROM COALESCE(c.closed_at, NOW()) - c.created_at)::int AS days_at_large,
               c.level
        FROM suspects s
        JOIN cases c ON c.id = s.case_id
        WHERE COALESCE(c.closed_at, NOW()) - c.created_at > make_interval(days => $1)
        ORDER BY days_at_large DESC`
	rows, err := r.q.Query(ctx, query, thresholdDays)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.MostWanted
	for rows.Next() {
		var entry domain.MostWanted
		var level domain.CrimeLevel
		if err := rows.Scan(
			&entry.Suspect.ID,
			&entry.Suspect.CaseID,
			&entry.Suspect.NationalID,
			&entry.Suspect.FullName,
			&entry.Suspect.Status,
			&entry.Suspect.WantedLevel,
			&entry.DaysAtLarge,
			&level,
		); err != nil {
			return nil, err
		}
		entry.RewardPrice = domain.RewardPriceFor(entry.DaysAtLarge, level)
		result = append(result, entry)
	}
	return result, rows.Err()
}
