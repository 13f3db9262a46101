package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/case-service/internal/domain"
	"github.com/spec-kit/case-service/internal/events"
	"github.com/spec-kit/case-service/internal/repository"
	apperrors "github.com/spec-kit/case-service/pkg/util"
)

type fakeCaseRepo struct {
	cases        map[string]*domain.Case
	complainants map[string][]domain.Complainant
	lastFilter   repository.CaseFilter
	nextID       int
}

func newFakeCaseRepo() *fakeCaseRepo {
	return &fakeCaseRepo{
		cases:        make(map[string]*domain.Case),
		complainants: make(map[string][]domain.Complainant),
	}
}

func (f *fakeCaseRepo) Create(_ context.Context, c *domain.Case) error {
	f.nextID++
	c.ID = fmt.Sprintf("case-%d", f.nextID)
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	copied := *c
	f.cases[c.ID] = &copied
	return nil
}

func (f *fakeCaseRepo) Update(_ context.Context, c *domain.Case) error {
	if _, ok := f.cases[c.ID]; !ok {
		return pgx.ErrNoRows
	}
	c.UpdatedAt = time.Now()
	copied := *c
	f.cases[c.ID] = &copied
	return nil
}

func (f *fakeCaseRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.cases[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.cases, id)
	return nil
}

func (f *fakeCaseRepo) GetByID(_ context.Context, id string) (*domain.Case, error) {
	c, ok := f.cases[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *c
	return &copied, nil
}

func (f *fakeCaseRepo) GetByIDForUpdate(ctx context.Context, id string) (*domain.Case, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeCaseRepo) ListWithFilter(_ context.Context, filter repository.CaseFilter) ([]domain.Case, error) {
	f.lastFilter = filter
	var result []domain.Case
	for _, c := range f.cases {
		if filter.CreatedBy != nil && c.CreatedBy != *filter.CreatedBy {
			continue
		}
		result = append(result, *c)
	}
	return result, nil
}

func (f *fakeCaseRepo) CountByStatus(_ context.Context, status domain.CaseStatus) (int64, error) {
	var n int64
	for _, c := range f.cases {
		if c.Status == status {
			n++
		}
	}
	return n, nil
}

func (f *fakeCaseRepo) CountNotInStatus(_ context.Context, status domain.CaseStatus) (int64, error) {
	var n int64
	for _, c := range f.cases {
		if c.Status != status {
			n++
		}
	}
	return n, nil
}

func (f *fakeCaseRepo) AddComplainant(_ context.Context, caseID, userID string) error {
	f.complainants[caseID] = append(f.complainants[caseID], domain.Complainant{CaseID: caseID, UserID: userID})
	return nil
}

func (f *fakeCaseRepo) ListComplainants(_ context.Context, caseID string) ([]domain.Complainant, error) {
	return f.complainants[caseID], nil
}

type fakeHistoryRepo struct {
	entries []domain.WorkflowHistory
}

func (f *fakeHistoryRepo) Create(_ context.Context, entry *domain.WorkflowHistory) error {
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeHistoryRepo) ListByCase(_ context.Context, caseID string) ([]domain.WorkflowHistory, error) {
	var result []domain.WorkflowHistory
	for _, entry := range f.entries {
		if entry.CaseID == caseID {
			result = append(result, entry)
		}
	}
	return result, nil
}

func (f *fakeHistoryRepo) CountByRecipient(_ context.Context, caseID, userID string) (int64, error) {
	var n int64
	for _, entry := range f.entries {
		if entry.CaseID == caseID && entry.RecipientID != nil && *entry.RecipientID == userID {
			n++
		}
	}
	return n, nil
}

type fakeDirectory struct {
	capabilities map[string][]string
}

func (f *fakeDirectory) HasCapability(_ context.Context, userID, codename string) (bool, error) {
	for _, c := range f.capabilities[userID] {
		if c == codename {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeDirectory) HasRole(context.Context, string, string) (bool, error) {
	return false, nil
}

func (f *fakeDirectory) ReportsTo(context.Context, string) (*string, error) {
	return nil, nil
}

func (f *fakeDirectory) MembersOfRole(context.Context, string) ([]string, error) {
	return nil, nil
}

func newCaseServiceForTest() (*CaseService, *fakeCaseRepo, *fakeDirectory, *[]events.Event) {
	caseRepo := newFakeCaseRepo()
	directory := &fakeDirectory{capabilities: make(map[string][]string)}
	dispatcher := events.NewInMemoryDispatcher()
	var published []events.Event
	for _, eventType := range []events.EventType{events.EventCaseCreated, events.EventCaseRouted, events.EventCaseOpened, events.EventCaseCancelled} {
		dispatcher.Subscribe(eventType, func(_ context.Context, event events.Event) error {
			published = append(published, event)
			return nil
		})
	}
	svc := NewCaseService(CaseDependencies{
		CaseRepo:      caseRepo,
		HistoryRepo:   &fakeHistoryRepo{},
		DirectoryRepo: directory,
		Dispatcher:    dispatcher,
	})
	return svc, caseRepo, directory, &published
}

func errCode(t *testing.T, err error) string {
	t.Helper()
	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) {
		t.Fatalf("expected DomainError, got %v", err)
	}
	return domainErr.Code
}

func TestCreateCase(t *testing.T) {
	t.Run("files case in created status", func(t *testing.T) {
		svc, repo, _, published := newCaseServiceForTest()
		created, err := svc.CreateCase(context.Background(), "user-1", CaseCreateInput{
			Title:          "  burglary on 5th  ",
			Description:    "window broken",
			Level:          domain.CrimeLevel2,
			ComplainantIDs: []string{"user-1", "user-2"},
		})
		if err != nil {
			t.Fatalf("CreateCase: %v", err)
		}
		if created.Status != domain.CaseStatusCreated {
			t.Fatalf("expected created status, got %s", created.Status)
		}
		if created.Title != "burglary on 5th" {
			t.Fatalf("title not trimmed: %q", created.Title)
		}
		if len(repo.complainants[created.ID]) != 2 {
			t.Fatalf("expected 2 complainants, got %d", len(repo.complainants[created.ID]))
		}
		if len(*published) != 1 || (*published)[0].Type != events.EventCaseCreated {
			t.Fatalf("expected one case_created event, got %v", *published)
		}
	})

	t.Run("defaults out-of-range level to level 3", func(t *testing.T) {
		svc, _, _, _ := newCaseServiceForTest()
		created, err := svc.CreateCase(context.Background(), "user-1", CaseCreateInput{Title: "noise", Level: domain.CrimeLevel(9)})
		if err != nil {
			t.Fatalf("CreateCase: %v", err)
		}
		if created.Level != domain.CrimeLevel3 {
			t.Fatalf("expected level 3, got %d", created.Level)
		}
	})

	t.Run("rejects empty title", func(t *testing.T) {
		svc, _, _, _ := newCaseServiceForTest()
		_, err := svc.CreateCase(context.Background(), "user-1", CaseCreateInput{Title: "   "})
		if code := errCode(t, err); code != "VALIDATION_FAILED" {
			t.Fatalf("expected VALIDATION_FAILED, got %s", code)
		}
	})
}

func TestListVisible(t *testing.T) {
	t.Run("restricts to own cases without read capability", func(t *testing.T) {
		svc, repo, _, _ := newCaseServiceForTest()
		seedCase(repo, "user-1")
		seedCase(repo, "user-2")

		cases, err := svc.ListVisible(context.Background(), "user-1", CaseListFilter{})
		if err != nil {
			t.Fatalf("ListVisible: %v", err)
		}
		if len(cases) != 1 || cases[0].CreatedBy != "user-1" {
			t.Fatalf("expected only own case, got %v", cases)
		}
		if repo.lastFilter.CreatedBy == nil {
			t.Fatal("expected creator filter to be applied")
		}
	})

	t.Run("read capability sees everything", func(t *testing.T) {
		svc, repo, directory, _ := newCaseServiceForTest()
		directory.capabilities["officer-1"] = []string{domain.CapCaseRead}
		seedCase(repo, "user-1")
		seedCase(repo, "user-2")

		cases, err := svc.ListVisible(context.Background(), "officer-1", CaseListFilter{})
		if err != nil {
			t.Fatalf("ListVisible: %v", err)
		}
		if len(cases) != 2 {
			t.Fatalf("expected all cases, got %d", len(cases))
		}
		if repo.lastFilter.CreatedBy != nil {
			t.Fatal("expected no creator filter for read capability")
		}
	})
}

func TestGetCaseVisibility(t *testing.T) {
	svc, repo, _, _ := newCaseServiceForTest()
	id := seedCase(repo, "user-1")

	if _, _, err := svc.GetCase(context.Background(), "user-1", id); err != nil {
		t.Fatalf("creator should see own case: %v", err)
	}

	_, _, err := svc.GetCase(context.Background(), "stranger", id)
	if code := errCode(t, err); code != "FORBIDDEN" {
		t.Fatalf("expected FORBIDDEN, got %s", code)
	}
}

func TestUpdateCase(t *testing.T) {
	t.Run("terminal case cannot be updated", func(t *testing.T) {
		svc, repo, _, _ := newCaseServiceForTest()
		id := seedCase(repo, "user-1")
		repo.cases[id].Status = domain.CaseStatusCancelled

		title := "new title"
		_, err := svc.UpdateCase(context.Background(), "user-1", id, CaseUpdateInput{Title: &title})
		if code := errCode(t, err); code != "CONFLICT" {
			t.Fatalf("expected CONFLICT, got %s", code)
		}
	})

	t.Run("edits descriptive fields", func(t *testing.T) {
		svc, repo, _, _ := newCaseServiceForTest()
		id := seedCase(repo, "user-1")

		title := "updated"
		level := domain.CrimeLevel1
		updated, err := svc.UpdateCase(context.Background(), "user-1", id, CaseUpdateInput{Title: &title, Level: &level})
		if err != nil {
			t.Fatalf("UpdateCase: %v", err)
		}
		if updated.Title != "updated" || updated.Level != domain.CrimeLevel1 {
			t.Fatalf("unexpected update result: %+v", updated)
		}
	})
}

func TestCloseCase(t *testing.T) {
	svc, repo, _, _ := newCaseServiceForTest()
	id := seedCase(repo, "user-1")

	_, err := svc.CloseCase(context.Background(), "officer-1", id)
	if code := errCode(t, err); code != "CONFLICT" {
		t.Fatalf("closing a non-open case should conflict, got %s", code)
	}

	repo.cases[id].Status = domain.CaseStatusOpen
	closed, err := svc.CloseCase(context.Background(), "officer-1", id)
	if err != nil {
		t.Fatalf("CloseCase: %v", err)
	}
	if closed.Status != domain.CaseStatusClosed || closed.ClosedAt == nil {
		t.Fatalf("expected closed case with timestamp, got %+v", closed)
	}
}

func TestCaseCounts(t *testing.T) {
	svc, repo, _, _ := newCaseServiceForTest()
	open := seedCase(repo, "user-1")
	repo.cases[open].Status = domain.CaseStatusOpen
	closed := seedCase(repo, "user-1")
	repo.cases[closed].Status = domain.CaseStatusClosed

	solved, err := svc.CountSolved(context.Background())
	if err != nil {
		t.Fatalf("CountSolved: %v", err)
	}
	active, err := svc.CountActive(context.Background())
	if err != nil {
		t.Fatalf("CountActive: %v", err)
	}
	if solved != 1 || active != 1 {
		t.Fatalf("expected 1 solved and 1 active, got %d and %d", solved, active)
	}
}

func seedCase(repo *fakeCaseRepo, creator string) string {
	c := &domain.Case{
		Title:     "seeded",
		Level:     domain.CrimeLevel3,
		Status:    domain.CaseStatusCreated,
		CreatedBy: creator,
	}
	_ = repo.Create(context.Background(), c)
	return c.ID
}
