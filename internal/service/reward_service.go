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

// RewardService issues and settles tip rewards identified by unique codes.
type RewardService struct {
	rewards    repository.RewardRepository
	dispatcher events.Dispatcher
}

// RewardDependencies bundles collaborators.
type RewardDependencies struct {
	RewardRepo repository.RewardRepository
	Dispatcher events.Dispatcher
}

// NewRewardService constructs the service.
func NewRewardService(deps RewardDependencies) *RewardService {
	return &RewardService{rewards: deps.RewardRepo, dispatcher: deps.Dispatcher}
}

// Issue creates an unclaimed reward with a fresh unique code. The code is the
// only credential needed to claim, so it is handed to the tipster out of band.
func (s *RewardService) Issue(ctx context.Context, amount int64) (*domain.Reward, error) {
	if amount <= 0 {
		return nil, apperrors.NewValidationError("amount must be positive", map[string]any{"amount": amount})
	}
	reward := &domain.Reward{
		UniqueCode: uuid.NewString(),
		Amount:     amount,
	}
	if err := s.rewards.Create(ctx, reward); err != nil {
		return nil, apperrors.MapError(err)
	}
	return reward, nil
}

// Claim settles a reward onto the claiming user's account. A code can be
// claimed exactly once.
func (s *RewardService) Claim(ctx context.Context, userID, code string) (*domain.Reward, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, apperrors.NewValidationError("code required", nil)
	}

	reward, err := s.rewards.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("reward", nil)
		}
		return nil, apperrors.MapError(err)
	}
	if reward.Claimed {
		return nil, apperrors.NewConflict("reward already claimed", nil)
	}

	if err := s.rewards.MarkClaimed(ctx, reward.ID, userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// lost the race to another claimant
			return nil, apperrors.NewConflict("reward already claimed", nil)
		}
		return nil, apperrors.MapError(err)
	}
	reward.UserID = &userID
	reward.Claimed = true

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventRewardClaimed,
			ActorID:   userID,
			Timestamp: time.Now(),
			Payload: events.RewardClaimedPayload{
				RewardID: reward.ID,
				Amount:   reward.Amount,
			},
		})
	}
	return reward, nil
}

// History lists the rewards a user has claimed, newest first.
func (s *RewardService) History(ctx context.Context, userID string) ([]domain.Reward, error) {
	return s.rewards.ListClaimedByUser(ctx, userID)
}
