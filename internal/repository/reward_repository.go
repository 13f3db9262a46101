package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/case-service/internal/domain"
)

// RewardRepository persists tip rewards and claims.
type RewardRepository interface {
	Create(ctx context.Context, reward *domain.Reward) error
	GetByCode(ctx context.Context, code string) (*domain.Reward, error)
	MarkClaimed(ctx context.Context, rewardID, userID string) error
	ListClaimedByUser(ctx context.Context, userID string) ([]domain.Reward, error)
}

type rewardRepository struct {
	q Querier
}

// NewRewardRepository instantiates repository.
func NewRewardRepository(q Querier) RewardRepository {
	return &rewardRepository{q: q}
}

func (r *rewardRepository) Create(ctx context.Context, reward *domain.Reward) error {
	const query = `
        INSERT INTO rewards (user_id, unique_code, amount, claimed)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.q.QueryRow(ctx, query,
		reward.UserID,
		reward.UniqueCode,
		reward.Amount,
		reward.Claimed,
	).Scan(&reward.ID, &reward.CreatedAt)
}

func (r *rewardRepository) GetByCode(ctx context.Context, code string) (*domain.Reward, error) {
	const query = `
        SELECT id, user_id, unique_code, amount, claimed, created_at
        FROM rewards WHERE unique_code=$1`
	var reward domain.Reward
	if err := r.q.QueryRow(ctx, query, code).Scan(
		&reward.ID,
		&reward.UserID,
		&reward.UniqueCode,
		&reward.Amount,
		&reward.Claimed,
		&reward.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &reward, nil
}

func (r *rewardRepository) MarkClaimed(ctx context.Context, rewardID, userID string) error {
	// claimed=FALSE guard makes the claim first-wins under concurrency
	const query = `
        UPDATE rewards SET user_id=$1, claimed=TRUE
        WHERE id=$2 AND claimed=FALSE`
	cmd, err := r.q.Exec(ctx, query, userID, rewardID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *rewardRepository) ListClaimedByUser(ctx context.Context, userID string) ([]domain.Reward, error) {
	const query = `
        SELECT id, user_id, unique_code, amount, claimed, created_at
        FROM rewards WHERE user_id=$1 AND claimed=TRUE ORDER BY created_at DESC`
	rows, err := r.q.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Reward
	for rows.Next() {
		var reward domain.Reward
		if err := rows.Scan(
			&reward.ID,
			&reward.UserID,
			&reward.UniqueCode,
			&reward.Amount,
			&reward.Claimed,
			&reward.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, reward)
	}
	return result, rows.Err()
}
