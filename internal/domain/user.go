package domain

import "time"

// User is any account in the system: complainants, cadets, officers, chiefs.
// Rank is expressed through role membership, not a column here.
type User struct {
	ID           string
	Username     string
	FirstName    string
	LastName     string
	NationalID   string
	Phone        string
	PasswordHash string
	// ReportsTo points at the user's direct superior in the escalation
	// chain. Optional; the relation forms a forest.
	ReportsTo *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// FullName joins first and last name for display.
func (u *User) FullName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
