package domain

import "time"

// RewardPricePerDay is the base rate used when pricing a most-wanted tip.
const RewardPricePerDay = 20_000_000

// RewardPriceFor prices a tip for a suspect at large: days held open times
// the case crime level times the base rate. Critical cases carry level 0 and
// price to 0; their rewards are set by hand.
func RewardPriceFor(days int, level CrimeLevel) int64 {
	if days <= 0 {
		return 0
	}
	return int64(days) * int64(level) * RewardPricePerDay
}

// Reward is a claimable tip payout identified by a unique code. Codes are
// provisioned out of band; this service only records claims.
type Reward struct {
	ID         string
	UserID     *string
	UniqueCode string
	Amount     int64
	Claimed    bool
	CreatedAt  time.Time
}
