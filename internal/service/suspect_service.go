package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/case-service/internal/domain"
	"github.com/spec-kit/case-service/internal/repository"
	apperrors "github.com/spec-kit/case-service/pkg/util"
)

// mostWantedThresholdDays is how long a case must have been running before
// its suspects surface on the most-wanted board.
const mostWantedThresholdDays = 30

// SuspectService manages suspects, investigation scores and the most-wanted
// board.
type SuspectService struct {
	suspects  repository.SuspectRepository
	cases     repository.CaseRepository
	directory repository.DirectoryRepository
}

// SuspectDependencies bundles collaborators.
type SuspectDependencies struct {
	SuspectRepo   repository.SuspectRepository
	CaseRepo      repository.CaseRepository
	DirectoryRepo repository.DirectoryRepository
}

// SuspectInput describes a suspect registration.
type SuspectInput struct {
	NationalID string
	FullName   string
}

// NewSuspectService constructs the service.
func NewSuspectService(deps SuspectDependencies) *SuspectService {
	return &SuspectService{
		suspects:  deps.SuspectRepo,
		cases:     deps.CaseRepo,
		directory: deps.DirectoryRepo,
	}
}

// Register adds a suspect to an active case in under_interrogation status.
func (s *SuspectService) Register(ctx context.Context, caseID string, input SuspectInput) (*domain.Suspect, error) {
	fullName := strings.TrimSpace(input.FullName)
	if fullName == "" {
		return nil, apperrors.NewValidationError("full name required", nil)
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

	suspect := &domain.Suspect{
		CaseID:      caseID,
		NationalID:  strings.TrimSpace(input.NationalID),
		FullName:    fullName,
		Status:      domain.SuspectUnderInterrogation,
		WantedLevel: "normal",
	}
	if err := s.suspects.Create(ctx, suspect); err != nil {
		return nil, apperrors.MapError(err)
	}
	return suspect, nil
}

// Get fetches a suspect by ID.
func (s *SuspectService) Get(ctx context.Context, id string) (*domain.Suspect, error) {
	suspect, err := s.suspects.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("suspect", map[string]any{"suspect_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return suspect, nil
}

// ListByCase lists a case's suspects.
func (s *SuspectService) ListByCase(ctx context.Context, caseID string) ([]domain.Suspect, error) {
	if _, err := s.cases.GetByID(ctx, caseID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("case", map[string]any{"case_id": caseID})
		}
		return nil, apperrors.MapError(err)
	}
	return s.suspects.ListByCase(ctx, caseID)
}

// SubmitInvestigation records an investigator's score for a suspect still
// under interrogation. Each investigator scores a suspect once.
func (s *SuspectService) SubmitInvestigation(ctx context.Context, investigatorID, suspectID string, score int) (*domain.Investigation, error) {
	allowed, err := s.directory.HasCapability(ctx, investigatorID, domain.CapInvestigationSubmit)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !allowed {
		return nil, apperrors.NewForbidden("access denied")
	}
	if score < 0 || score > 10 {
		return nil, apperrors.NewValidationError("score must be between 0 and 10", map[string]any{"score": score})
	}

	suspect, err := s.suspects.GetByID(ctx, suspectID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("suspect", map[string]any{"suspect_id": suspectID})
		}
		return nil, apperrors.MapError(err)
	}
	if suspect.Status != domain.SuspectUnderInterrogation {
		return nil, apperrors.NewConflict("suspect is no longer under interrogation", map[string]any{"status": suspect.Status})
	}

	existing, err := s.suspects.ListInvestigations(ctx, suspectID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	for _, inv := range existing {
		if inv.InvestigatorID == investigatorID {
			return nil, apperrors.NewConflict("investigator already scored this suspect", nil)
		}
	}

	inv := &domain.Investigation{
		SuspectID:      suspectID,
		InvestigatorID: investigatorID,
		Score:          score,
	}
	if err := s.suspects.CreateInvestigation(ctx, inv); err != nil {
		return nil, apperrors.MapError(err)
	}
	return inv, nil
}

// ListInvestigations returns the scoring history for a suspect.
func (s *SuspectService) ListInvestigations(ctx context.Context, suspectID string) ([]domain.Investigation, error) {
	if _, err := s.suspects.GetByID(ctx, suspectID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("suspect", map[string]any{"suspect_id": suspectID})
		}
		return nil, apperrors.MapError(err)
	}
	return s.suspects.ListInvestigations(ctx, suspectID)
}

// SetVerdict moves a suspect to a terminal verdict. Captains rule on normal
// suspects, the chief on high wanted levels.
func (s *SuspectService) SetVerdict(ctx context.Context, actorID, suspectID string, guilty bool) (*domain.Suspect, error) {
	suspect, err := s.suspects.GetByID(ctx, suspectID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("suspect", map[string]any{"suspect_id": suspectID})
		}
		return nil, apperrors.MapError(err)
	}
	if suspect.Status == domain.SuspectGuilty || suspect.Status == domain.SuspectNotGuilty {
		return nil, apperrors.NewConflict("suspect already has a verdict", map[string]any{"status": suspect.Status})
	}

	requiredRole := domain.RoleCaptain
	if suspect.WantedLevel == "high" {
		requiredRole = domain.RoleChiefPolice
	}
	holds, err := s.directory.HasRole(ctx, actorID, requiredRole)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !holds {
		isAdmin, err := s.directory.HasRole(ctx, actorID, domain.RoleAdmin)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		if !isAdmin {
			return nil, apperrors.NewForbidden("access denied")
		}
	}

	if guilty {
		suspect.Status = domain.SuspectGuilty
	} else {
		suspect.Status = domain.SuspectNotGuilty
	}
	if err := s.suspects.Update(ctx, suspect); err != nil {
		return nil, apperrors.MapError(err)
	}
	return suspect, nil
}

// MostWanted lists suspects whose case has run longer than the threshold,
// each annotated with days at large and the offered reward.
func (s *SuspectService) MostWanted(ctx context.Context) ([]domain.MostWanted, error) {
	return s.suspects.ListMostWanted(ctx, mostWantedThresholdDays)
}
