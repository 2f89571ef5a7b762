package dto

import "time"

// NotificationResponse is one inbox row.
type NotificationResponse struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	TicketID  *string   `json:"ticket_id,omitempty"`
	Link      string    `json:"link,omitempty"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// UnreadCountResponse is the bell badge.
type UnreadCountResponse struct {
	Count int `json:"count"`
}

// PreferencesPayload carries the six channel booleans both ways.
type PreferencesPayload struct {
	AssignedInApp      bool `json:"assigned_in_app"`
	AssignedEmail      bool `json:"assigned_email"`
	StatusChangedInApp bool `json:"status_changed_in_app"`
	StatusChangedEmail bool `json:"status_changed_email"`
	ReplyInApp         bool `json:"reply_in_app"`
	ReplyEmail         bool `json:"reply_email"`
}
