package dto

import "time"

// IssueRewardRequest payload.
type IssueRewardRequest struct {
	Amount int64 `json:"amount"`
}

// ClaimRewardRequest payload.
type ClaimRewardRequest struct {
	Code string `json:"code"`
}

// RewardResponse represents a reward.
type RewardResponse struct {
	ID         string    `json:"id"`
	UniqueCode string    `json:"unique_code,omitempty"`
	Amount     int64     `json:"amount"`
	Claimed    bool      `json:"claimed"`
	CreatedAt  time.Time `json:"created_at"`
}
