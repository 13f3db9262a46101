package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/case-service/internal/domain"
	"github.com/spec-kit/case-service/internal/events"
	"github.com/spec-kit/case-service/internal/repository"
	apperrors "github.com/spec-kit/case-service/pkg/util"
)

// EvidenceService records and lists evidence attached to cases.
type EvidenceService struct {
	evidences  repository.EvidenceRepository
	cases      repository.CaseRepository
	dispatcher events.Dispatcher
}

// EvidenceDependencies bundles collaborators.
type EvidenceDependencies struct {
	EvidenceRepo repository.EvidenceRepository
	CaseRepo     repository.CaseRepository
	Dispatcher   events.Dispatcher
}

// EvidenceInput describes an evidence submission.
type EvidenceInput struct {
	Type        domain.EvidenceType
	Title       string
	Description string
	Metadata    map[string]any
}

// NewEvidenceService constructs the service.
func NewEvidenceService(deps EvidenceDependencies) *EvidenceService {
	return &EvidenceService{
		evidences:  deps.EvidenceRepo,
		cases:      deps.CaseRepo,
		dispatcher: deps.Dispatcher,
	}
}

// Record attaches a piece of evidence to a case. Terminal cases refuse new
// evidence.
func (s *EvidenceService) Record(ctx context.Context, actorID, caseID string, input EvidenceInput) (*domain.Evidence, error) {
	if !domain.ValidEvidenceType(input.Type) {
		return nil, apperrors.NewValidationError("invalid evidence type", map[string]any{"type": input.Type})
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("title required", nil)
	}

	c, err := s.cases.GetByID(ctx, caseID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("case", map[string]any{"case_id": caseID})
		}
		return nil, apperrors.MapError(err)
	}
	if c.Status.Terminal() {
		return nil, apperrors.NewConflict("case is terminal, cannot be updated", map[string]any{"case_id": caseID})
	}

	evidence := &domain.Evidence{
		CaseID:      caseID,
		Type:        input.Type,
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Metadata:    input.Metadata,
		RecordedBy:  actorID,
	}
	if err := s.evidences.Create(ctx, evidence); err != nil {
		return nil, apperrors.MapError(err)
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventEvidenceRecorded,
			CaseID:    caseID,
			ActorID:   actorID,
			Timestamp: time.Now(),
			Payload: events.EvidenceRecordedPayload{

				EvidenceID: evidence.ID,
				Type:       evidence.Type,
				Title:      evidence.Title,
			},
		})
	}
	return evidence, nil
}

// ListByCase returns the evidence log for a case in recording order.
func (s *EvidenceService) ListByCase(ctx context.Context, caseID string) ([]domain.Evidence, error) {
	if _, err := s.cases.GetByID(ctx, caseID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("case", map[string]any{"case_id": caseID})
		}
		return nil, apperrors.MapError(err)
	}
	return s.evidences.ListByCase(ctx, caseID)
}

// Get fetches a single evidence record.
func (s *EvidenceService) Get(ctx context.Context, id string) (*domain.Evidence, error) {
	evidence, err := s.evidences.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("evidence", map[string]any{"evidence_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return evidence, nil
}
