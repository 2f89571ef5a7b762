package dto

import "time"

// StaffLoginRequest payload.
type StaffLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// MagicLinkRequest payload.
type MagicLinkRequest struct {
	Email string `json:"email"`
}

// MagicLinkVerifyRequest payload.
type MagicLinkVerifyRequest struct {
	Token string `json:"token"`
}

// SessionResponse is the issued token plus the caller snapshot.
type SessionResponse struct {
	Token          string    `json:"token"`
	ExpiresAt      time.Time `json:"expires_at"`
	UserID         string    `json:"user_id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Roles          []string  `json:"roles"`
	OrganizationID *string   `json:"organization_id,omitempty"`
}

// RegisterRequest payload for account signup.
type RegisterRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UserResponse is an account projection.
type UserResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Roles     []string  `json:"roles,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// AssignRoleRequest payload.
type AssignRoleRequest struct {
	Role           string  `json:"role"`
	OrganizationID *string `json:"organization_id,omitempty"`
}

// SetPasswordRequest payload for staff credential provisioning.
type SetPasswordRequest struct {
	Password string `json:"password"`
}
