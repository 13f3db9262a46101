package dto

import (
	"time"

	"github.com/spec-kit/case-service/internal/domain"
)

// CreateCaseRequest payload.
type CreateCaseRequest struct {
	Title          string            `json:"title"`
	Description    string            `json:"description"`
	Level          domain.CrimeLevel `json:"level"`
	ComplainantIDs []string          `json:"complainant_ids"`
}

// UpdateCaseRequest payload.
type UpdateCaseRequest struct {
	Title       *string            `json:"title"`
	Description *string            `json:"description"`
	Level       *domain.CrimeLevel `json:"level"`
}

// WorkflowActionRequest payload for pushing a case forward.
type WorkflowActionRequest struct {
	Verdict *string `json:"verdict,omitempty"`
	Message string  `json:"message,omitempty"`
}

// CaseSummary response.
type CaseSummary struct {
	ID        string            `json:"id"`
	Title     string            `json:"title"`
	Level     domain.CrimeLevel `json:"level"`
	Status    domain.CaseStatus `json:"status"`
	CreatedBy string            `json:"created_by"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// CaseDetailResponse provides full case info.
type CaseDetailResponse struct {
	ID           string                `json:"id"`
	Title        string                `json:"title"`
	Description  string                `json:"description"`
	Level        domain.CrimeLevel     `json:"level"`
	Status       domain.CaseStatus     `json:"status"`
	CreatedBy    string                `json:"created_by"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
	ClosedAt     *time.Time            `json:"closed_at"`
	Complainants []ComplainantResponse `json:"complainants"`
}

// ComplainantResponse lists a case complainant.
type ComplainantResponse struct {
	UserID   string `json:"user_id"`
	Verified bool   `json:"verified"`
}

// WorkflowHistoryResponse represents one routing log entry.
type WorkflowHistoryResponse struct {
	ID          string    `json:"id"`
	RecipientID *string   `json:"recipient_id"`
	Message     *string   `json:"message,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// WorkflowResultResponse reports the outcome of a workflow step.
type WorkflowResultResponse struct {
	Outcome string      `json:"outcome"`
	Case    CaseSummary `json:"case"`
}

// StatsResponse aggregates department statistics.
type StatsResponse struct {
	SolvedCases   int64 `json:"solved_cases"`
	ActiveCases   int64 `json:"active_cases"`
	EmployeeCount int64 `json:"employee_count"`
}
