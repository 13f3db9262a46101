package events

import (
	"time"

	"github.com/spec-kit/case-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventCaseCreated      EventType = "case_created"
	EventCaseRouted       EventType = "case_routed"
	EventCaseCancelled    EventType = "case_cancelled"
	EventCaseOpened       EventType = "case_opened"
	EventEvidenceRecorded EventType = "evidence_recorded"
	EventRewardClaimed    EventType = "reward_claimed"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	CaseID    string      `json:"case_id,omitempty"`
	ActorID   string      `json:"actor_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// CaseCreatedPayload payload.
type CaseCreatedPayload struct {
	Title string            `json:"title"`
	Level domain.CrimeLevel `json:"level"`
}

// CaseRoutedPayload payload.
type CaseRoutedPayload struct {
	OldStatus   domain.CaseStatus `json:"old_status"`
	NewStatus   domain.CaseStatus `json:"new_status"`
	RecipientID *string           `json:"recipient_id,omitempty"`
	Message     *string           `json:"message,omitempty"`
}

// CaseCancelledPayload payload.
type CaseCancelledPayload struct {
	Reason string `json:"reason"`
}

// EvidenceRecordedPayload payload.
type EvidenceRecordedPayload struct {
	EvidenceID string              `json:"evidence_id"`
	Type       domain.EvidenceType `json:"type"`
	Title      string              `json:"title"`
}

// RewardClaimedPayload payload.
type RewardClaimedPayload struct {
	RewardID string `json:"reward_id"`
	Amount   int64  `json:"amount"`
}
