package service

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/case-service/internal/domain"
	"github.com/spec-kit/case-service/internal/events"
)

type fakeRewardRepo struct {
	rewards map[string]*domain.Reward
	nextID  int
}

func newFakeRewardRepo() *fakeRewardRepo {
	return &fakeRewardRepo{rewards: make(map[string]*domain.Reward)}
}

func (f *fakeRewardRepo) Create(_ context.Context, reward *domain.Reward) error {
	f.nextID++
	reward.ID = "reward-" + string(rune('0'+f.nextID))
	copied := *reward
	f.rewards[reward.ID] = &copied
	return nil
}

func (f *fakeRewardRepo) GetByCode(_ context.Context, code string) (*domain.Reward, error) {
	for _, reward := range f.rewards {
		if reward.UniqueCode == code {
			copied := *reward
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeRewardRepo) MarkClaimed(_ context.Context, rewardID, userID string) error {
	reward, ok := f.rewards[rewardID]
	if !ok || reward.Claimed {
		return pgx.ErrNoRows
	}
	reward.UserID = &userID
	reward.Claimed = true
	return nil
}

func (f *fakeRewardRepo) ListClaimedByUser(_ context.Context, userID string) ([]domain.Reward, error) {
	var result []domain.Reward
	for _, reward := range f.rewards {
		if reward.Claimed && reward.UserID != nil && *reward.UserID == userID {
			result = append(result, *reward)
		}
	}
	return result, nil
}

func newRewardServiceForTest() (*RewardService, *fakeRewardRepo, *[]events.Event) {
	repo := newFakeRewardRepo()
	dispatcher := events.NewInMemoryDispatcher()
	var published []events.Event
	dispatcher.Subscribe(events.EventRewardClaimed, func(_ context.Context, event events.Event) error {
		published = append(published, event)
		return nil
	})
	svc := NewRewardService(RewardDependencies{RewardRepo: repo, Dispatcher: dispatcher})
	return svc, repo, &published
}

func TestIssueReward(t *testing.T) {
	svc, _, _ := newRewardServiceForTest()

	reward, err := svc.Issue(context.Background(), 40_000_000)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if reward.UniqueCode == "" {
		t.Fatal("expected a unique code")
	}
	if reward.Claimed {
		t.Fatal("fresh reward must be unclaimed")
	}

	if _, err := svc.Issue(context.Background(), 0); err == nil {
		t.Fatal("zero amount should be rejected")
	}
}

func TestClaimReward(t *testing.T) {
	t.Run("claims by code once", func(t *testing.T) {
		svc, _, published := newRewardServiceForTest()
		issued, err := svc.Issue(context.Background(), 20_000_000)
		if err != nil {
			t.Fatalf("Issue: %v", err)
		}

		claimed, err := svc.Claim(context.Background(), "tipster-1", issued.UniqueCode)
		if err != nil {
			t.Fatalf("Claim: %v", err)
		}
		if claimed.UserID == nil || *claimed.UserID != "tipster-1" {
			t.Fatalf("reward not attributed to claimant: %+v", claimed)
		}
		if len(*published) != 1 || (*published)[0].Type != events.EventRewardClaimed {
			t.Fatalf("expected reward_claimed event, got %v", *published)
		}

		_, err = svc.Claim(context.Background(), "tipster-2", issued.UniqueCode)
		if code := errCode(t, err); code != "CONFLICT" {
			t.Fatalf("second claim should conflict, got %s", code)
		}
	})

	t.Run("unknown code is not found", func(t *testing.T) {
		svc, _, _ := newRewardServiceForTest()
		_, err := svc.Claim(context.Background(), "tipster-1", "no-such-code")
		if code := errCode(t, err); code != "NOT_FOUND" {
			t.Fatalf("expected NOT_FOUND, got %s", code)
		}
	})

	t.Run("blank code is rejected", func(t *testing.T) {
		svc, _, _ := newRewardServiceForTest()
		_, err := svc.Claim(context.Background(), "tipster-1", "  ")
		if code := errCode(t, err); code != "VALIDATION_FAILED" {
			t.Fatalf("expected VALIDATION_FAILED, got %s", code)
		}
	})
}

func TestRewardHistory(t *testing.T) {
	svc, _, _ := newRewardServiceForTest()
	first, _ := svc.Issue(context.Background(), 20_000_000)
	second, _ := svc.Issue(context.Background(), 60_000_000)

	if _, err := svc.Claim(context.Background(), "tipster-1", first.UniqueCode); err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if _, err := svc.Claim(context.Background(), "tipster-2", second.UniqueCode); err != nil {
		t.Fatalf("Claim: %v", err)
	}

	history, err := svc.History(context.Background(), "tipster-1")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 1 || history[0].Amount != 20_000_000 {
		t.Fatalf("unexpected history: %v", history)
	}
}
