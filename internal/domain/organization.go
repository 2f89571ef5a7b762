package domain

import "time"

// AccountStatus enumerates the billing standing of a client organization.
type AccountStatus string

const (
	AccountStatusActive    AccountStatus = "active"
	AccountStatusPaused    AccountStatus = "paused"
	AccountStatusSuspended AccountStatus = "suspended"
	AccountStatusOverdue   AccountStatus = "overdue"
)

// ParseAccountStatus validates an account status string.
func ParseAccountStatus(s string) (AccountStatus, bool) {
	switch AccountStatus(s) {
	case AccountStatusActive, AccountStatusPaused, AccountStatusSuspended, AccountStatusOverdue:
		return AccountStatus(s), true
	}
	return "", false
}

// Organization is a client tenant. Organizations are never hard-deleted.
type Organization struct {
	ID                  string
	Name                string
	Website             string
	BillingEmail        string
	AccountStatus       AccountStatus
	PaymentOverdueSince *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// OrganizationMember joins a user to exactly one organization. The single
// membership rule is backed by a unique index on user_id.
type OrganizationMember struct {
	ID               string
	OrganizationID   string
	UserID           string
	IsPrimaryContact bool
	CreatedAt        time.Time
}
