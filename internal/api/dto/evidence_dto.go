package dto

import (
	"time"

	"github.com/spec-kit/case-service/internal/domain"
)

// CreateEvidenceRequest payload.
type CreateEvidenceRequest struct {
	Type        domain.EvidenceType `json:"type"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Metadata    map[string]any      `json:"metadata"`
}

// EvidenceResponse represents a recorded piece of evidence.
type EvidenceResponse struct {
	ID          string              `json:"id"`
	CaseID      string              `json:"case_id"`
	Type        domain.EvidenceType `json:"type"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Metadata    map[string]any      `json:"metadata,omitempty"`
	RecordedBy  string              `json:"recorded_by"`
	RecordedAt  time.Time           `json:"recorded_at"`
}
