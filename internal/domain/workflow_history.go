package domain

import "time"

// WorkflowHistory is an append-only record of one routing decision.
// RecipientID is a weak reference: when the recipient account is removed the
// column degrades to NULL but the entry itself persists.
type WorkflowHistory struct {
	ID          string
	CaseID      string
	RecipientID *string
	Message     *string
	CreatedAt   time.Time
}
