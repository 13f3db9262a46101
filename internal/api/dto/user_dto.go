package dto

import "time"

// RegisterRequest payload.
type RegisterRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	NationalID string `json:"national_id"`
	Phone      string `json:"phone"`
}

// LoginRequest payload.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse returns a bearer token.
type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// UserResponse represents an account.
type UserResponse struct {
	ID         string   `json:"id"`
	Username   string   `json:"username"`
	FirstName  string   `json:"first_name"`
	LastName   string   `json:"last_name"`
	NationalID string   `json:"national_id"`
	Phone      string   `json:"phone"`
	ReportsTo  *string  `json:"reports_to"`
	Roles      []string `json:"roles,omitempty"`
}

// RoleResponse represents a role with its permissions.
type RoleResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

// ReplaceRolesRequest payload.
type ReplaceRolesRequest struct {
	RoleIDs []string `json:"role_ids"`
}

// SetReportsToRequest payload. A null superior clears the escalation link.
type SetReportsToRequest struct {
	SuperiorID *string `json:"superior_id"`
}

// PasswordResetRequest payload.
type PasswordResetRequest struct {
	Username string `json:"username"`
}

// PasswordResetConfirmRequest payload.
type PasswordResetConfirmRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// PasswordChangeRequest payload.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}
