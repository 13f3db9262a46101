package domain

import "time"

// CaseStatus enumerates workflow states for cases.
type CaseStatus string

const (
	CaseStatusCreated             CaseStatus = "created"
	CaseStatusPendingApproval     CaseStatus = "pending_approval"
	CaseStatusPendingVerification CaseStatus = "pending_verification"
	CaseStatusOpen                CaseStatus = "open"
	CaseStatusClosed              CaseStatus = "closed"
	CaseStatusCancelled           CaseStatus = "cancelled"
)

// Terminal reports whether the status admits no further workflow transitions.
func (s CaseStatus) Terminal() bool {
	return s == CaseStatusClosed || s == CaseStatusCancelled
}

// CrimeLevel grades case severity. Lower value means more severe.
type CrimeLevel int

const (
	CrimeLevelCritical CrimeLevel = 0
	CrimeLevel1        CrimeLevel = 1
	CrimeLevel2        CrimeLevel = 2
	CrimeLevel3        CrimeLevel = 3
)

// MoreSevereThan compares two crime levels.
func (l CrimeLevel) MoreSevereThan(other CrimeLevel) bool {
	return l < other
}

// Case is the aggregate routed through the approval workflow.
type Case struct {
	ID          string
	Title       string
	Description string
	Level       CrimeLevel
	Status      CaseStatus
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ClosedAt    *time.Time
}

// Complainant links a user to a case they reported.
type Complainant struct {
	ID       string
	CaseID   string
	UserID   string
	Verified bool
}
