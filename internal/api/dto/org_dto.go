package dto

import "time"

// OrganizationRequest payload for create/update.
type OrganizationRequest struct {
	Name          string `json:"name"`
	Website       string `json:"website"`
	BillingEmail  string `json:"billing_email"`
	AccountStatus string `json:"account_status"`
}

// OrganizationResponse projection.
type OrganizationResponse struct {
	ID                  string     `json:"id"`
	Name                string     `json:"name"`
	Website             string     `json:"website,omitempty"`
	BillingEmail        string     `json:"billing_email,omitempty"`
	AccountStatus       string     `json:"account_status"`
	PaymentOverdueSince *time.Time `json:"payment_overdue_since,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
}

// MemberResponse is a membership with its account.
type MemberResponse struct {
	UserID           string `json:"user_id"`
	Name             string `json:"name"`
	Email            string `json:"email"`
	IsPrimaryContact bool   `json:"is_primary_contact"`
}
