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
	"github.com/spec-kit/case-service/internal/workflow"
	apperrors "github.com/spec-kit/case-service/pkg/util"
)

// CaseService coordinates case CRUD, visibility and the workflow engine.
type CaseService struct {
	cases      repository.CaseRepository
	history    repository.WorkflowHistoryRepository
	directory  repository.DirectoryRepository
	engine     *workflow.Engine
	dispatcher events.Dispatcher
}

// CaseDependencies bundles collaborators for the case service.
type CaseDependencies struct {
	CaseRepo      repository.CaseRepository
	HistoryRepo   repository.WorkflowHistoryRepository
	DirectoryRepo repository.DirectoryRepository
	Engine        *workflow.Engine
	Dispatcher    events.Dispatcher
}

// CaseCreateInput describes case creation payload.
type CaseCreateInput struct {
	Title          string
	Description    string
	Level          domain.CrimeLevel
	ComplainantIDs []string
}

// CaseUpdateInput describes editable case fields.
type CaseUpdateInput struct {
	Title       *string
	Description *string
	Level       *domain.CrimeLevel
}

// CaseListFilter describes listing filters on top of visibility.
type CaseListFilter struct {
	Statuses    []domain.CaseStatus
	Levels      []domain.CrimeLevel
	SearchTerm  *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// NewCaseService constructs the service.
func NewCaseService(deps CaseDependencies) *CaseService {
	return &CaseService{
		cases:      deps.CaseRepo,
		history:    deps.HistoryRepo,
		directory:  deps.DirectoryRepo,
		engine:     deps.Engine,
		dispatcher: deps.Dispatcher,
	}
}

// CreateCase files a new case in CREATED status. Routing happens only when
// the workflow endpoint is invoked, never here.
func (s *CaseService) CreateCase(ctx context.Context, creatorID string, input CaseCreateInput) (*domain.Case, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("title required", nil)
	}
	level := input.Level
	if level < domain.CrimeLevelCritical || level > domain.CrimeLevel3 {
		level = domain.CrimeLevel3
	}

	c := &domain.Case{
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Level:       level,
		Status:      domain.CaseStatusCreated,
		CreatedBy:   creatorID,
	}
	if err := s.cases.Create(ctx, c); err != nil {
		return nil, apperrors.MapError(err)
	}
	for _, userID := range input.ComplainantIDs {
		if err := s.cases.AddComplainant(ctx, c.ID, userID); err != nil {
			return nil, apperrors.MapError(err)
		}
	}

	s.publish(ctx, events.Event{
		Type:    events.EventCaseCreated,
		CaseID:  c.ID,
		ActorID: creatorID,
		Payload: events.CaseCreatedPayload{Title: c.Title, Level: c.Level},
	})
	return c, nil
}

// Advance pushes the case one workflow step forward on behalf of actorID.
func (s *CaseService) Advance(ctx context.Context, caseID, actorID string, verdict *workflow.Verdict, message string) (*workflow.Result, error) {
	result, err := s.engine.Advance(ctx, caseID, actorID, verdict, message)
	if err != nil {
		return nil, err
	}

	switch result.Outcome {
	case workflow.OutcomeOpened:
		s.publish(ctx, events.Event{
			Type:    events.EventCaseOpened,
			CaseID:  caseID,
			ActorID: actorID,
		})
	case workflow.OutcomeCancelled:
		s.publish(ctx, events.Event{
			Type:    events.EventCaseCancelled,
			CaseID:  caseID,
			ActorID: actorID,
			Payload: events.CaseCancelledPayload{Reason: "rejected 3 times"},
		})
	case workflow.OutcomeAlreadyOpen:
		// nothing happened, nothing to announce
	default:
		payload := events.CaseRoutedPayload{NewStatus: result.Case.Status}
		if result.Entry != nil {
			payload.RecipientID = result.Entry.RecipientID
			payload.Message = result.Entry.Message
		}
		s.publish(ctx, events.Event{
			Type:    events.EventCaseRouted,
			CaseID:  caseID,
			ActorID: actorID,
			Payload: payload,
		})
	}
	return result, nil
}

// ListVisible returns cases the requesting user may see: case_read holders
// (and admins) see everything, everyone else only their own submissions.
func (s *CaseService) ListVisible(ctx context.Context, userID string, filter CaseListFilter) ([]domain.Case, error) {
	repoFilter := repository.CaseFilter{
		Statuses:    filter.Statuses,
		Levels:      filter.Levels,
		SearchTerm:  filter.SearchTerm,
		CreatedFrom: filter.CreatedFrom,
		CreatedTo:   filter.CreatedTo,
		Limit:       filter.Limit,
		Offset:      filter.Offset,
	}
	canReadAll, err := s.directory.HasCapability(ctx, userID, domain.CapCaseRead)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !canReadAll {
		repoFilter.CreatedBy = &userID
	}
	return s.cases.ListWithFilter(ctx, repoFilter)
}

// GetCase fetches one case with the same visibility rule as ListVisible.
func (s *CaseService) GetCase(ctx context.Context, userID, caseID string) (*domain.Case, []domain.Complainant, error) {
	c, err := s.cases.GetByID(ctx, caseID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewNotFound("case", map[string]any{"case_id": caseID})
		}
		return nil, nil, apperrors.MapError(err)
	}
	if err := s.requireVisible(ctx, userID, c); err != nil {
		return nil, nil, err
	}
	complainants, err := s.cases.ListComplainants(ctx, caseID)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	return c, complainants, nil
}

// ListHistory returns the routing log for a visible case.
func (s *CaseService) ListHistory(ctx context.Context, userID, caseID string) ([]domain.WorkflowHistory, error) {
	c, err := s.cases.GetByID(ctx, caseID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("case", map[string]any{"case_id": caseID})
		}
		return nil, apperrors.MapError(err)
	}
	if err := s.requireVisible(ctx, userID, c); err != nil {
		return nil, err
	}
	return s.history.ListByCase(ctx, caseID)
}

// UpdateCase edits descriptive fields. Workflow status is untouchable here.
func (s *CaseService) UpdateCase(ctx context.Context, actorID, caseID string, input CaseUpdateInput) (*domain.Case, error) {
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
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, apperrors.NewValidationError("title cannot be empty", nil)
		}
		c.Title = title
	}
	if input.Description != nil {
		c.Description = strings.TrimSpace(*input.Description)
	}
	if input.Level != nil {
		if *input.Level < domain.CrimeLevelCritical || *input.Level > domain.CrimeLevel3 {
			return nil, apperrors.NewValidationError("invalid crime level", nil)
		}
		c.Level = *input.Level
	}
	if err := s.cases.Update(ctx, c); err != nil {
		return nil, apperrors.MapError(err)
	}
	return c, nil
}

// CloseCase marks an open case solved.
func (s *CaseService) CloseCase(ctx context.Context, actorID, caseID string) (*domain.Case, error) {
	c, err := s.cases.GetByID(ctx, caseID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("case", map[string]any{"case_id": caseID})
		}
		return nil, apperrors.MapError(err)
	}
	if c.Status != domain.CaseStatusOpen {
		return nil, apperrors.NewConflict("only open cases can be closed", map[string]any{"status": c.Status})
	}
	now := time.Now()
	c.Status = domain.CaseStatusClosed
	c.ClosedAt = &now
	if err := s.cases.Update(ctx, c); err != nil {
		return nil, apperrors.MapError(err)
	}
	return c, nil
}

// DeleteCase removes a case and its history.
func (s *CaseService) DeleteCase(ctx context.Context, caseID string) error {
	if err := s.cases.Delete(ctx, caseID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("case", map[string]any{"case_id": caseID})
		}
		return apperrors.MapError(err)
	}
	return nil
}

// CountSolved counts closed cases.
func (s *CaseService) CountSolved(ctx context.Context) (int64, error) {
	return s.cases.CountByStatus(ctx, domain.CaseStatusClosed)
}

// CountActive counts everything not yet closed.
func (s *CaseService) CountActive(ctx context.Context) (int64, error) {
	return s.cases.CountNotInStatus(ctx, domain.CaseStatusClosed)
}

func (s *CaseService) requireVisible(ctx context.Context, userID string, c *domain.Case) error {
	if c.CreatedBy == userID {
		return nil
	}
	canReadAll, err := s.directory.HasCapability(ctx, userID, domain.CapCaseRead)
	if err != nil {
		return apperrors.MapError(err)
	}
	if !canReadAll {
		return apperrors.NewForbidden("access denied")
	}
	return nil
}

func (s *CaseService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
