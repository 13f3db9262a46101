package workflow

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/case-service/internal/domain"
	apperrors "github.com/spec-kit/case-service/pkg/util"
)

// Verdict is a reviewer's decision submitted with an advance call.
type Verdict string

const (
	VerdictPass Verdict = "pass"
	VerdictFail Verdict = "fail"
)

// Outcome reports what one advance call did to the case.
type Outcome string

const (
	// OutcomeRoutedToApproval: the case was sent to a cadet for approval.
	OutcomeRoutedToApproval Outcome = "routed_to_approval"
	// OutcomeRoutedToVerification: the case was sent up the escalation
	// chain for officer verification.
	OutcomeRoutedToVerification Outcome = "routed_to_verification"
	// OutcomeOpened: the case passed review and is now under investigation.
	OutcomeOpened Outcome = "opened"
	// OutcomeReturnedToCreator: rejected back to the creator for rework.
	OutcomeReturnedToCreator Outcome = "returned_to_creator"
	// OutcomeAlreadyOpen: no-op; the case is already open.
	OutcomeAlreadyOpen Outcome = "already_open"
	// OutcomeCancelled: third rejection back to the creator, case
	// force-terminated.
	OutcomeCancelled Outcome = "cancelled"
)

// maxCreatorReturns is the number of prior creator-directed history entries
// after which the next rejection cancels the case instead of returning it.
// Only creator-directed entries count; rejections back to the cadet stage do
// not advance this counter.
const maxCreatorReturns = 2

// Result describes a completed transition.
type Result struct {
	Outcome Outcome
	Case    *domain.Case
	// Entry is the history entry appended by this transition, nil when the
	// transition writes none (direct open).
	Entry *domain.WorkflowHistory
}

// Directory resolves identity questions at the instant of the call. The
// engine never embeds authorization logic; it asks.
type Directory interface {
	HasCapability(ctx context.Context, userID, codename string) (bool, error)
	HasRole(ctx context.Context, userID, roleName string) (bool, error)
	ReportsTo(ctx context.Context, userID string) (*string, error)
	MembersOfRole(ctx context.Context, roleName string) ([]string, error)
}

// Store bundles the case state, routing log and directory reads available
// inside one atomic unit of work.
type Store interface {
	Directory

	// GetCaseForUpdate loads the case and serializes concurrent advances
	// on the same row until the unit of work completes.
	GetCaseForUpdate(ctx context.Context, caseID string) (*domain.Case, error)
	UpdateCase(ctx context.Context, c *domain.Case) error
	AppendHistory(ctx context.Context, entry *domain.WorkflowHistory) error
	ListHistory(ctx context.Context, caseID string) ([]domain.WorkflowHistory, error)
}

// Runner executes a function inside one atomic transaction. When fn returns
// an error nothing it did is visible; a transition is never half-applied.
type Runner interface {
	InTx(ctx context.Context, fn func(ctx context.Context, store Store) error) error
}

// Picker chooses one approver among role members. Injectable so tests can
// pin the choice; production uses uniform random selection.
type Picker interface {
	Pick(candidates []string) string
}

// Engine is the case workflow state machine.
type Engine struct {
	runner Runner
	picker Picker
	logger *zap.Logger
}

// NewEngine constructs the engine.
func NewEngine(runner Runner, picker Picker, logger *zap.Logger) *Engine {
	if picker == nil {
		picker = NewRandomPicker()
	}
	return &Engine{runner: runner, picker: picker, logger: logger}
}

// Advance computes and applies the single next workflow step for a case.
// verdict is required in the review stages and ignored in CREATED; message
// travels with rejections. All validation happens before any write.
func (e *Engine) Advance(ctx context.Context, caseID, actorID string, verdict *Verdict, message string) (*Result, error) {
	var result *Result
	err := e.runner.InTx(ctx, func(ctx context.Context, store Store) error {
		c, err := store.GetCaseForUpdate(ctx, caseID)
		if err != nil {
			return err
		}

		switch c.Status {
		case domain.CaseStatusCreated:
			result, err = e.advanceCreated(ctx, store, c)
		case domain.CaseStatusPendingApproval:
			result, err = e.advanceApproval(ctx, store, c, actorID, verdict, message)
		case domain.CaseStatusPendingVerification:
			result, err = e.advanceVerification(ctx, store, c, actorID, verdict, message)
		case domain.CaseStatusOpen:
			result = &Result{Outcome: OutcomeAlreadyOpen, Case: c}
		default:
			return apperrors.NewConflict("case is terminal, cannot be updated", map[string]any{
				"case_id": c.ID,
				"status":  c.Status,
			})
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	e.logTransition(caseID, actorID, result)
	return result, nil
}

// advanceCreated routes a freshly created (or reworked) case based on the
// creator's rank. Junior submitters go through cadet approval; a chief's own
// case opens immediately; every other rank goes straight to verification by
// their superior.
func (e *Engine) advanceCreated(ctx context.Context, store Store, c *domain.Case) (*Result, error) {
	junior, err := e.isJunior(ctx, store, c.CreatedBy)
	if err != nil {
		return nil, err
	}
	if junior {
		cadetID, err := e.resolveCadet(ctx, store, c)
		if err != nil {
			return nil, err
		}
		return e.route(ctx, store, c, domain.CaseStatusPendingApproval, OutcomeRoutedToApproval, cadetID, nil)
	}

	chief, err := store.HasRole(ctx, c.CreatedBy, domain.RoleChiefPolice)
	if err != nil {
		return nil, err
	}
	if chief {
		// the chief's own cases skip review entirely, no history entry
		c.Status = domain.CaseStatusOpen
		if err := store.UpdateCase(ctx, c); err != nil {
			return nil, err
		}
		return &Result{Outcome: OutcomeOpened, Case: c}, nil
	}

	superior, err := e.escalationTarget(ctx, store, c.CreatedBy)
	if err != nil {
		return nil, err
	}
	return e.route(ctx, store, c, domain.CaseStatusPendingVerification, OutcomeRoutedToVerification, superior, nil)
}

// advanceApproval handles the cadet review stage.
func (e *Engine) advanceApproval(ctx context.Context, store Store, c *domain.Case, actorID string, verdict *Verdict, message string) (*Result, error) {
	if err := e.requireCapability(ctx, store, actorID, domain.CapCaseApprove); err != nil {
		return nil, err
	}

	switch verdictOf(verdict) {
	case VerdictPass:
		superior, err := e.escalationTarget(ctx, store, actorID)
		if err != nil {
			return nil, err
		}
		return e.route(ctx, store, c, domain.CaseStatusPendingVerification, OutcomeRoutedToVerification, superior, nil)
	case VerdictFail:
		returns, err := e.creatorReturns(ctx, store, c)
		if err != nil {
			return nil, err
		}
		if returns >= maxCreatorReturns {
			// third strike: cancel instead of another rework loop
			return e.route(ctx, store, c, domain.CaseStatusCancelled, OutcomeCancelled, c.CreatedBy, nil)
		}
		return e.route(ctx, store, c, domain.CaseStatusCreated, OutcomeReturnedToCreator, c.CreatedBy, &message)
	default:
		return nil, apperrors.NewValidationError("invalid verdict", map[string]any{"expected": []string{string(VerdictPass), string(VerdictFail)}})
	}
}

// advanceVerification handles the officer review stage.
func (e *Engine) advanceVerification(ctx context.Context, store Store, c *domain.Case, actorID string, verdict *Verdict, message string) (*Result, error) {
	if err := e.requireCapability(ctx, store, actorID, domain.CapCaseVerify); err != nil {
		return nil, err
	}

	switch verdictOf(verdict) {
	case VerdictPass:
		c.Status = domain.CaseStatusOpen
		if err := store.UpdateCase(ctx, c); err != nil {
			return nil, err
		}
		return &Result{Outcome: OutcomeOpened, Case: c}, nil
	case VerdictFail:
		junior, err := e.isJunior(ctx, store, c.CreatedBy)
		if err != nil {
			return nil, err
		}
		if junior {
			cadetID, err := e.resolveCadet(ctx, store, c)
			if err != nil {
				return nil, err
			}
			return e.route(ctx, store, c, domain.CaseStatusPendingApproval, OutcomeRoutedToApproval, cadetID, &message)
		}
		return e.route(ctx, store, c, domain.CaseStatusCreated, OutcomeReturnedToCreator, c.CreatedBy, &message)
	default:
		return nil, apperrors.NewValidationError("invalid verdict", map[string]any{"expected": []string{string(VerdictPass), string(VerdictFail)}})
	}
}

// route applies a status change plus its history entry in one step.
func (e *Engine) route(ctx context.Context, store Store, c *domain.Case, status domain.CaseStatus, outcome Outcome, recipientID string, message *string) (*Result, error) {
	c.Status = status
	if err := store.UpdateCase(ctx, c); err != nil {
		return nil, err
	}
	entry := &domain.WorkflowHistory{
		CaseID:      c.ID,
		RecipientID: &recipientID,
		Message:     message,
	}
	if err := store.AppendHistory(ctx, entry); err != nil {
		return nil, err
	}
	return &Result{Outcome: outcome, Case: c, Entry: entry}, nil
}

// resolveCadet picks the approver for the cadet stage. Continuity first: the
// most recent history recipient who still holds the cadet role keeps the
// case. Otherwise a random current cadet is chosen.
func (e *Engine) resolveCadet(ctx context.Context, store Store, c *domain.Case) (string, error) {
	entries, err := store.ListHistory(ctx, c.ID)
	if err != nil {
		return "", err
	}
	for i := len(entries) - 1; i >= 0; i-- {
		recipient := entries[i].RecipientID
		if recipient == nil {
			continue
		}
		isCadet, err := store.HasRole(ctx, *recipient, domain.RoleCadet)
		if err != nil {
			return "", err
		}
		if isCadet {
			return *recipient, nil
		}
	}

	members, err := store.MembersOfRole(ctx, domain.RoleCadet)
	if err != nil {
		return "", err
	}
	if len(members) == 0 {
		return "", apperrors.NewConfigurationError("no cadet available", map[string]any{"role": domain.RoleCadet})
	}
	return e.picker.Pick(members), nil
}

// escalationTarget resolves who the identity reports to. A missing link is a
// data-integrity problem, never a silent no-op.
func (e *Engine) escalationTarget(ctx context.Context, store Store, userID string) (string, error) {
	superior, err := store.ReportsTo(ctx, userID)
	if err != nil {
		return "", err
	}
	if superior == nil {
		return "", apperrors.NewConfigurationError("user has no escalation target", map[string]any{"user_id": userID})
	}
	return *superior, nil
}

func (e *Engine) requireCapability(ctx context.Context, store Store, userID, codename string) error {
	ok, err := store.HasCapability(ctx, userID, codename)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NewForbidden("missing capability: " + codename)
	}
	return nil
}

func (e *Engine) isJunior(ctx context.Context, store Store, userID string) (bool, error) {
	for _, role := range domain.JuniorRoles {
		ok, err := store.HasRole(ctx, userID, role)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// creatorReturns counts history entries already directed at the creator.
func (e *Engine) creatorReturns(ctx context.Context, store Store, c *domain.Case) (int, error) {
	entries, err := store.ListHistory(ctx, c.ID)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, entry := range entries {
		if entry.RecipientID != nil && *entry.RecipientID == c.CreatedBy {
			count++
		}
	}
	return count, nil
}

func (e *Engine) logTransition(caseID, actorID string, result *Result) {
	if e.logger == nil || result == nil {
		return
	}
	fields := []zap.Field{
		zap.String("case_id", caseID),
		zap.String("actor_id", actorID),
		zap.String("outcome", string(result.Outcome)),
		zap.String("status", string(result.Case.Status)),
	}
	if result.Entry != nil && result.Entry.RecipientID != nil {
		fields = append(fields, zap.String("recipient_id", *result.Entry.RecipientID))
	}
	e.logger.Info("case workflow advanced", fields...)
}

func verdictOf(v *Verdict) Verdict {
	if v == nil {
		return ""
	}
	return *v
}
