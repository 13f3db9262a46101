package domain

import "time"

// EvidenceType categorizes recorded evidence.
type EvidenceType string

const (
	EvidenceTypeTestimony EvidenceType = "testimony"
	EvidenceTypeMedical   EvidenceType = "medical"
	EvidenceTypeVehicle   EvidenceType = "vehicle"
	EvidenceTypeID        EvidenceType = "id"
	EvidenceTypeOther     EvidenceType = "other"
)

// ValidEvidenceType reports whether t is a known evidence category.
func ValidEvidenceType(t EvidenceType) bool {
	switch t {
	case EvidenceTypeTestimony, EvidenceTypeMedical, EvidenceTypeVehicle, EvidenceTypeID, EvidenceTypeOther:
		return true
	}
	return false
}

// Evidence is a typed record attached to a case. File attachments are handled
// by external storage; only metadata lives here.
type Evidence struct {
	ID          string
	CaseID      string
	Type        EvidenceType
	Title       string
	Description string
	Metadata    map[string]any
	RecordedBy  string
	RecordedAt  time.Time
}
