package dto

import (
	"time"

	"github.com/spec-kit/case-service/internal/domain"
)

// CreateSuspectRequest payload.
type CreateSuspectRequest struct {
	NationalID string `json:"national_id"`
	FullName   string `json:"full_name"`
}

// SubmitInvestigationRequest payload.
type SubmitInvestigationRequest struct {
	Score int `json:"score"`
}

// SuspectVerdictRequest payload.
type SuspectVerdictRequest struct {
	Guilty bool `json:"guilty"`
}

// SuspectResponse represents a suspect.
type SuspectResponse struct {
	ID          string               `json:"id"`
	CaseID      string               `json:"case_id"`
	NationalID  string               `json:"national_id"`
	FullName    string               `json:"full_name"`
	Status      domain.SuspectStatus `json:"status"`
	WantedLevel string               `json:"wanted_level"`
}

// InvestigationResponse represents one investigator's score.
type InvestigationResponse struct {
	ID             string    `json:"id"`
	SuspectID      string    `json:"suspect_id"`
	InvestigatorID string    `json:"investigator_id"`
	Score          int       `json:"score"`
	CreatedAt      time.Time `json:"created_at"`
}

// MostWantedResponse is one most-wanted board entry.
type MostWantedResponse struct {
	Suspect     SuspectResponse `json:"suspect"`
	DaysAtLarge int             `json:"days_at_large"`
	RewardPrice int64           `json:"reward_price"`
}
