package domain

import "time"

// SuspectStatus tracks a suspect through interrogation and verdicts.
type SuspectStatus string

const (
	SuspectUnderInterrogation     SuspectStatus = "under_interrogation"
	SuspectAwaitingCaptainVerdict SuspectStatus = "awaiting_captain_verdict"
	SuspectAwaitingChiefVerdict   SuspectStatus = "awaiting_chief_verdict"
	SuspectGuilty                 SuspectStatus = "guilty"
	SuspectNotGuilty              SuspectStatus = "not_guilty"
)

// Suspect is a person under investigation in a case.
type Suspect struct {
	ID          string
	CaseID      string
	NationalID  string
	FullName    string
	Status      SuspectStatus
	WantedLevel string // normal, high
}

// Investigation is one investigator's score for a suspect.
type Investigation struct {
	ID             string
	SuspectID      string
	InvestigatorID string
	Score          int
	CreatedAt      time.Time
}

// MostWanted is a suspect whose open case has run past the interrogation
// threshold, annotated with the tip reward offered for them.
type MostWanted struct {
	Suspect     Suspect
	DaysAtLarge int
	RewardPrice int64
}
