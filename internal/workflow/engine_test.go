package workflow

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/spec-kit/case-service/internal/domain"
	apperrors "github.com/spec-kit/case-service/pkg/util"
)

// memStore is an in-memory Store double. Capability resolution follows the
// seeded role/permission tables.
type memStore struct {
	cases   map[string]*domain.Case
	history []domain.WorkflowHistory
	roles   map[string][]string
	reports map[string]string
	nextID  int
}

func newMemStore() *memStore {
	return &memStore{
		cases:   map[string]*domain.Case{},
		roles:   map[string][]string{},
		reports: map[string]string{},
	}
}

func (s *memStore) addUser(id string, roles ...string) {
	s.roles[id] = roles
}

func (s *memStore) addCase(id, createdBy string, status domain.CaseStatus) *domain.Case {
	c := &domain.Case{ID: id, Title: "t", Status: status, CreatedBy: createdBy}
	s.cases[id] = c
	return c
}

func (s *memStore) appendEntry(caseID, recipientID string, message *string) {
	s.nextID++
	rid := recipientID
	s.history = append(s.history, domain.WorkflowHistory{
		ID:          fmt.Sprintf("h%d", s.nextID),
		CaseID:      caseID,
		RecipientID: &rid,
		Message:     message,
		CreatedAt:   time.Now(),
	})
}

func (s *memStore) HasCapability(_ context.Context, userID, codename string) (bool, error) {
	for _, role := range s.roles[userID] {
		if role == domain.RoleAdmin {
			return true, nil
		}
		for _, perm := range domain.DefaultRoles[role] {
			if perm == codename {
				return true, nil
			}
		}
	}
	return false, nil
}

func (s *memStore) HasRole(_ context.Context, userID, roleName string) (bool, error) {
	for _, role := range s.roles[userID] {
		if role == roleName {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) ReportsTo(_ context.Context, userID string) (*string, error) {
	superior, ok := s.reports[userID]
	if !ok {
		return nil, nil
	}
	return &superior, nil
}

func (s *memStore) MembersOfRole(_ context.Context, roleName string) ([]string, error) {
	var members []string
	for userID, roles := range s.roles {
		for _, role := range roles {
			if role == roleName {
				members = append(members, userID)
			}
		}
	}
	sort.Strings(members)
	return members, nil
}

func (s *memStore) GetCaseForUpdate(_ context.Context, caseID string) (*domain.Case, error) {
	c, ok := s.cases[caseID]
	if !ok {
		return nil, apperrors.NewNotFound("case", nil)
	}
	copied := *c
	return &copied, nil
}

func (s *memStore) UpdateCase(_ context.Context, c *domain.Case) error {
	stored, ok := s.cases[c.ID]
	if !ok {
		return apperrors.NewNotFound("case", nil)
	}
	*stored = *c
	return nil
}

func (s *memStore) AppendHistory(_ context.Context, entry *domain.WorkflowHistory) error {
	s.nextID++
	entry.ID = fmt.Sprintf("h%d", s.nextID)
	entry.CreatedAt = time.Now()
	s.history = append(s.history, *entry)
	return nil
}

func (s *memStore) ListHistory(_ context.Context, caseID string) ([]domain.WorkflowHistory, error) {
	var entries []domain.WorkflowHistory
	for _, entry := range s.history {
		if entry.CaseID == caseID {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

func (s *memStore) entriesFor(caseID string) []domain.WorkflowHistory {
	entries, _ := s.ListHistory(context.Background(), caseID)
	return entries
}

// memRunner executes units of work directly against the shared store.
type memRunner struct {
	store *memStore
}

func (r *memRunner) InTx(_ context.Context, fn func(ctx context.Context, store Store) error) error {
	return fn(context.Background(), r.store)
}

// pinnedPicker returns a fixed choice and records how often it was consulted.
type pinnedPicker struct {
	choice string
	calls  int
}

func (p *pinnedPicker) Pick(candidates []string) string {
	p.calls++
	if p.choice != "" {
		return p.choice
	}
	return candidates[0]
}

func newTestEngine(store *memStore, picker Picker) *Engine {
	return NewEngine(&memRunner{store: store}, picker, nil)
}

func verdict(v Verdict) *Verdict {
	return &v
}

func assertErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	var de *apperrors.DomainError
	if !errors.As(err, &de) {
		t.Fatalf("expected DomainError, got %v", err)
	}
	if de.Code != code {
		t.Fatalf("expected code %s, got %s (%v)", code, de.Code, err)
	}
}

func TestAdvanceCreatedByComplainant(t *testing.T) {
	store := newMemStore()
	store.addUser("complainant", domain.RoleComplainant)
	store.addUser("cadet", domain.RoleCadet)
	store.addCase("c1", "complainant", domain.CaseStatusCreated)

	picker := &pinnedPicker{choice: "cadet"}
	engine := newTestEngine(store, picker)

	result, err := engine.Advance(context.Background(), "c1", "complainant", nil, "")
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if result.Outcome != OutcomeRoutedToApproval {
		t.Fatalf("expected routed_to_approval, got %s", result.Outcome)
	}
	if store.cases["c1"].Status != domain.CaseStatusPendingApproval {
		t.Fatalf("expected pending_approval, got %s", store.cases["c1"].Status)
	}
	entries := store.entriesFor("c1")
	if len(entries) != 1 {
		t.Fatalf("expected exactly one history entry, got %d", len(entries))
	}
	if entries[0].RecipientID == nil || *entries[0].RecipientID != "cadet" {
		t.Fatalf("expected entry routed to cadet, got %v", entries[0].RecipientID)
	}
}

func TestAdvanceCreatedByChiefOpensDirectly(t *testing.T) {
	store := newMemStore()
	store.addUser("chief", domain.RoleChiefPolice)
	store.addCase("c1", "chief", domain.CaseStatusCreated)

	engine := newTestEngine(store, &pinnedPicker{})

	result, err := engine.Advance(context.Background(), "c1", "chief", nil, "")
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if result.Outcome != OutcomeOpened {
		t.Fatalf("expected opened, got %s", result.Outcome)
	}
	if store.cases["c1"].Status != domain.CaseStatusOpen {
		t.Fatalf("expected open, got %s", store.cases["c1"].Status)
	}
	if len(store.entriesFor("c1")) != 0 {
		t.Fatalf("chief-created case must not write history, got %d entries", len(store.entriesFor("c1")))
	}
}

func TestAdvanceCreatedByOfficerRoutesToSuperior(t *testing.T) {
	store := newMemStore()
	store.addUser("officer", domain.RolePoliceOfficer)
	store.addUser("chief", domain.RoleChiefPolice)
	store.reports["officer"] = "chief"
	store.addCase("c1", "officer", domain.CaseStatusCreated)

	engine := newTestEngine(store, &pinnedPicker{})

	result, err := engine.Advance(context.Background(), "c1", "officer", nil, "")
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if result.Outcome != OutcomeRoutedToVerification {
		t.Fatalf("expected routed_to_verification, got %s", result.Outcome)
	}
	if store.cases["c1"].Status != domain.CaseStatusPendingVerification {
		t.Fatalf("expected pending_verification, got %s", store.cases["c1"].Status)
	}
	entries := store.entriesFor("c1")
	if len(entries) != 1 || *entries[0].RecipientID != "chief" {
		t.Fatalf("expected single entry routed to chief, got %+v", entries)
	}
}

func TestAdvanceCreatedWithoutEscalationTarget(t *testing.T) {
	store := newMemStore()
	store.addUser("officer", domain.RolePoliceOfficer)
	store.addCase("c1", "officer", domain.CaseStatusCreated)

	engine := newTestEngine(store, &pinnedPicker{})

	_, err := engine.Advance(context.Background(), "c1", "officer", nil, "")
	assertErrorCode(t, err, "CONFIGURATION_ERROR")
	if store.cases["c1"].Status != domain.CaseStatusCreated {
		t.Fatalf("case must stay created, got %s", store.cases["c1"].Status)
	}
	if len(store.entriesFor("c1")) != 0 {
		t.Fatal("no history may be written on configuration failure")
	}
}

func TestAdvanceCreatedNoCadetAvailable(t *testing.T) {
	store := newMemStore()
	store.addUser("complainant", domain.RoleComplainant)
	store.addCase("c1", "complainant", domain.CaseStatusCreated)

	engine := newTestEngine(store, &pinnedPicker{})

	_, err := engine.Advance(context.Background(), "c1", "complainant", nil, "")
	assertErrorCode(t, err, "CONFIGURATION_ERROR")
}

func TestApprovalPassRoutesToApproverSuperior(t *testing.T) {
	store := newMemStore()
	store.addUser("complainant", domain.RoleComplainant)
	store.addUser("cadet", domain.RoleCadet)
	store.addUser("officer", domain.RolePoliceOfficer)
	store.reports["cadet"] = "officer"
	store.addCase("c1", "complainant", domain.CaseStatusPendingApproval)
	store.appendEntry("c1", "cadet", nil)

	engine := newTestEngine(store, &pinnedPicker{})

	result, err := engine.Advance(context.Background(), "c1", "cadet", verdict(VerdictPass), "")
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if result.Outcome != OutcomeRoutedToVerification {
		t.Fatalf("expected routed_to_verification, got %s", result.Outcome)
	}
	entries := store.entriesFor("c1")
	last := entries[len(entries)-1]
	if *last.RecipientID != "officer" {
		t.Fatalf("expected routing to cadet's superior, got %s", *last.RecipientID)
	}
}

func TestApprovalRequiresCapability(t *testing.T) {
	store := newMemStore()
	store.addUser("complainant", domain.RoleComplainant)
	store.addUser("witness", domain.RoleWitness)
	store.addCase("c1", "complainant", domain.CaseStatusPendingApproval)

	engine := newTestEngine(store, &pinnedPicker{})

	_, err := engine.Advance(context.Background(), "c1", "witness", verdict(VerdictPass), "")
	assertErrorCode(t, err, "FORBIDDEN")
	if store.cases["c1"].Status != domain.CaseStatusPendingApproval {
		t.Fatal("forbidden advance must not mutate the case")
	}
}

func TestApprovalInvalidVerdict(t *testing.T) {
	store := newMemStore()
	store.addUser("complainant", domain.RoleComplainant)
	store.addUser("cadet", domain.RoleCadet)
	store.addCase("c1", "complainant", domain.CaseStatusPendingApproval)

	engine := newTestEngine(store, &pinnedPicker{})

	for name, v := range map[string]*Verdict{
		"missing": nil,
		"unknown": verdict(Verdict("maybe")),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := engine.Advance(context.Background(), "c1", "cadet", v, "")
			assertErrorCode(t, err, "VALIDATION_FAILED")
		})
	}
}

func TestApprovalFailReturnsToCreatorWithMessage(t *testing.T) {
	store := newMemStore()
	store.addUser("complainant", domain.RoleComplainant)
	store.addUser("cadet", domain.RoleCadet)
	store.addCase("c1", "complainant", domain.CaseStatusPendingApproval)
	store.appendEntry("c1", "cadet", nil)

	engine := newTestEngine(store, &pinnedPicker{})

	result, err := engine.Advance(context.Background(), "c1", "cadet", verdict(VerdictFail), "missing info")
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if result.Outcome != OutcomeReturnedToCreator {
		t.Fatalf("expected returned_to_creator, got %s", result.Outcome)
	}
	if store.cases["c1"].Status != domain.CaseStatusCreated {
		t.Fatalf("expected created, got %s", store.cases["c1"].Status)
	}
	entries := store.entriesFor("c1")
	last := entries[len(entries)-1]
	if *last.RecipientID != "complainant" || last.Message == nil || *last.Message != "missing info" {
		t.Fatalf("unexpected rejection entry: %+v", last)
	}
}

func TestThirdRejectionCancelsCase(t *testing.T) {
	store := newMemStore()
	store.addUser("complainant", domain.RoleComplainant)
	store.addUser("cadet", domain.RoleCadet)
	store.addCase("c1", "complainant", domain.CaseStatusCreated)

	engine := newTestEngine(store, &pinnedPicker{choice: "cadet"})
	ctx := context.Background()

	// two full submit/reject loops
	for i := 0; i < 2; i++ {
		if _, err := engine.Advance(ctx, "c1", "complainant", nil, ""); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
		if _, err := engine.Advance(ctx, "c1", "cadet", verdict(VerdictFail), "rework"); err != nil {
			t.Fatalf("reject %d: %v", i, err)
		}
	}

	if _, err := engine.Advance(ctx, "c1", "complainant", nil, ""); err != nil {
		t.Fatalf("third submit: %v", err)
	}
	result, err := engine.Advance(ctx, "c1", "cadet", verdict(VerdictFail), "rework")
	if err != nil {
		t.Fatalf("third reject: %v", err)
	}
	if result.Outcome != OutcomeCancelled {
		t.Fatalf("expected cancelled outcome, got %s", result.Outcome)
	}
	if store.cases["c1"].Status != domain.CaseStatusCancelled {
		t.Fatalf("expected cancelled, got %s", store.cases["c1"].Status)
	}

	creatorEntries := 0
	for _, entry := range store.entriesFor("c1") {
		if entry.RecipientID != nil && *entry.RecipientID == "complainant" {
			creatorEntries++
		}
	}
	// two rework returns plus one cancellation entry, nothing beyond
	if creatorEntries != 3 {
		t.Fatalf("expected 3 creator-directed entries, got %d", creatorEntries)
	}
	last := store.entriesFor("c1")[len(store.entriesFor("c1"))-1]
	if last.Message != nil {
		t.Fatalf("cancellation entry must carry no message, got %q", *last.Message)
	}
}

func TestVerificationPassOpensCase(t *testing.T) {
	store := newMemStore()
	store.addUser("complainant", domain.RoleComplainant)
	store.addUser("officer", domain.RolePoliceOfficer)
	store.addCase("c1", "complainant", domain.CaseStatusPendingVerification)
	store.appendEntry("c1", "officer", nil)

	engine := newTestEngine(store, &pinnedPicker{})

	result, err := engine.Advance(context.Background(), "c1", "officer", verdict(VerdictPass), "")
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if result.Outcome != OutcomeOpened {
		t.Fatalf("expected opened, got %s", result.Outcome)
	}
	if store.cases["c1"].Status != domain.CaseStatusOpen {
		t.Fatalf("expected open, got %s", store.cases["c1"].Status)
	}
	// opening writes no additional history
	if len(store.entriesFor("c1")) != 1 {
		t.Fatalf("expected history unchanged, got %d entries", len(store.entriesFor("c1")))
	}
}

func TestVerificationFailJuniorReturnsToSameCadet(t *testing.T) {
	store := newMemStore()
	store.addUser("complainant", domain.RoleComplainant)
	store.addUser("cadet-a", domain.RoleCadet)
	store.addUser("cadet-b", domain.RoleCadet)
	store.addUser("officer", domain.RolePoliceOfficer)
	store.addCase("c1", "complainant", domain.CaseStatusPendingVerification)
	store.appendEntry("c1", "cadet-b", nil)
	store.appendEntry("c1", "officer", nil)

	picker := &pinnedPicker{choice: "cadet-a"}
	engine := newTestEngine(store, picker)

	result, err := engine.Advance(context.Background(), "c1", "officer", verdict(VerdictFail), "needs detail")
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if result.Outcome != OutcomeRoutedToApproval {
		t.Fatalf("expected routed_to_approval, got %s", result.Outcome)
	}
	entries := store.entriesFor("c1")
	last := entries[len(entries)-1]
	if *last.RecipientID != "cadet-b" {
		t.Fatalf("continuity broken: expected cadet-b, got %s", *last.RecipientID)
	}
	if last.Message == nil || *last.Message != "needs detail" {
		t.Fatalf("rejection message lost: %+v", last)
	}
	if picker.calls != 0 {
		t.Fatalf("picker must not be consulted when a prior cadet exists, called %d times", picker.calls)
	}
}

func TestVerificationFailOfficerCaseReturnsToCreator(t *testing.T) {
	store := newMemStore()
	store.addUser("officer", domain.RolePoliceOfficer)
	store.addUser("chief", domain.RoleChiefPolice)
	store.addCase("c1", "officer", domain.CaseStatusPendingVerification)
	store.appendEntry("c1", "chief", nil)

	engine := newTestEngine(store, &pinnedPicker{})

	result, err := engine.Advance(context.Background(), "c1", "chief", verdict(VerdictFail), "not enough data")
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if result.Outcome != OutcomeReturnedToCreator {
		t.Fatalf("expected returned_to_creator, got %s", result.Outcome)
	}
	if store.cases["c1"].Status != domain.CaseStatusCreated {
		t.Fatalf("expected created, got %s", store.cases["c1"].Status)
	}
	entries := store.entriesFor("c1")
	last := entries[len(entries)-1]
	if *last.RecipientID != "officer" || *last.Message != "not enough data" {
		t.Fatalf("unexpected rejection entry: %+v", last)
	}
}

func TestContinuitySkipsFormerCadets(t *testing.T) {
	store := newMemStore()
	store.addUser("complainant", domain.RoleComplainant)
	// handled the case as a cadet once, promoted since
	store.addUser("promoted", domain.RolePoliceOfficer)
	store.addUser("cadet", domain.RoleCadet)
	store.addCase("c1", "complainant", domain.CaseStatusCreated)
	store.appendEntry("c1", "promoted", nil)
	store.appendEntry("c1", "complainant", nil)

	picker := &pinnedPicker{choice: "cadet"}
	engine := newTestEngine(store, picker)

	result, err := engine.Advance(context.Background(), "c1", "complainant", nil, "")
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if *result.Entry.RecipientID != "cadet" {
		t.Fatalf("expected fresh cadet, got %s", *result.Entry.RecipientID)
	}
	if picker.calls != 1 {
		t.Fatalf("expected picker fallback exactly once, got %d", picker.calls)
	}
}

func TestContinuityReusesSameCadetAcrossLoops(t *testing.T) {
	store := newMemStore()
	store.addUser("complainant", domain.RoleComplainant)
	store.addUser("cadet-a", domain.RoleCadet)
	store.addUser("cadet-b", domain.RoleCadet)
	store.addCase("c1", "complainant", domain.CaseStatusCreated)

	picker := &pinnedPicker{choice: "cadet-b"}
	engine := newTestEngine(store, picker)
	ctx := context.Background()

	if _, err := engine.Advance(ctx, "c1", "complainant", nil, ""); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := engine.Advance(ctx, "c1", "cadet-b", verdict(VerdictFail), "rework"); err != nil {
		t.Fatalf("reject: %v", err)
	}
	result, err := engine.Advance(ctx, "c1", "complainant", nil, "")
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if *result.Entry.RecipientID != "cadet-b" {
		t.Fatalf("resubmission must return to the same cadet, got %s", *result.Entry.RecipientID)
	}
	if picker.calls != 1 {
		t.Fatalf("picker must only run on the first routing, got %d calls", picker.calls)
	}
}

func TestAdvanceOpenIsIdempotentNoOp(t *testing.T) {
	store := newMemStore()
	store.addUser("officer", domain.RolePoliceOfficer)
	store.addCase("c1", "officer", domain.CaseStatusOpen)

	engine := newTestEngine(store, &pinnedPicker{})

	result, err := engine.Advance(context.Background(), "c1", "officer", verdict(VerdictPass), "")
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if result.Outcome != OutcomeAlreadyOpen {
		t.Fatalf("expected already_open, got %s", result.Outcome)
	}
	if len(store.entriesFor("c1")) != 0 {
		t.Fatal("already-open advance must not write history")
	}
}

func TestAdvanceTerminalCaseFails(t *testing.T) {
	for _, status := range []domain.CaseStatus{domain.CaseStatusClosed, domain.CaseStatusCancelled} {
		t.Run(string(status), func(t *testing.T) {
			store := newMemStore()
			store.addUser("chief", domain.RoleChiefPolice)
			store.addCase("c1", "chief", status)

			engine := newTestEngine(store, &pinnedPicker{})

			_, err := engine.Advance(context.Background(), "c1", "chief", verdict(VerdictPass), "")
			assertErrorCode(t, err, "CONFLICT")
			if store.cases["c1"].Status != status {
				t.Fatalf("terminal case mutated to %s", store.cases["c1"].Status)
			}
			if len(store.entriesFor("c1")) != 0 {
				t.Fatal("terminal advance must not write history")
			}
		})
	}
}

func TestFullComplainantHappyPath(t *testing.T) {
	store := newMemStore()
	store.addUser("complainant", domain.RoleComplainant)
	store.addUser("cadet", domain.RoleCadet)
	store.addUser("officer", domain.RolePoliceOfficer)
	store.reports["cadet"] = "officer"
	store.addCase("c1", "complainant", domain.CaseStatusCreated)

	engine := newTestEngine(store, &pinnedPicker{choice: "cadet"})
	ctx := context.Background()

	if _, err := engine.Advance(ctx, "c1", "complainant", nil, ""); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := engine.Advance(ctx, "c1", "cadet", verdict(VerdictPass), ""); err != nil {
		t.Fatalf("approve: %v", err)
	}
	result, err := engine.Advance(ctx, "c1", "officer", verdict(VerdictPass), "")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if result.Outcome != OutcomeOpened || store.cases["c1"].Status != domain.CaseStatusOpen {
		t.Fatalf("expected opened case, got %s / %s", result.Outcome, store.cases["c1"].Status)
	}

	entries := store.entriesFor("c1")
	if len(entries) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(entries))
	}
	if *entries[0].RecipientID != "cadet" || *entries[1].RecipientID != "officer" {
		t.Fatalf("unexpected routing: %+v", entries)
	}
}

func TestRandomPickerStaysWithinCandidates(t *testing.T) {
	picker := NewRandomPicker()
	candidates := []string{"a", "b", "c"}
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		choice := picker.Pick(candidates)
		seen[choice] = true
		if choice != "a" && choice != "b" && choice != "c" {
			t.Fatalf("picker escaped candidate set: %q", choice)
		}
	}
	if len(seen) < 2 {
		t.Fatal("picker never varied its choice across 100 draws")
	}
	if got := picker.Pick(nil); got != "" {
		t.Fatalf("empty candidate set must yield empty choice, got %q", got)
	}
}
