package dto

import (
	"time"

	"github.com/opsdeck/support-portal/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	OrganizationID string `json:"organization_id,omitempty"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	Category       string `json:"category"`
	Priority       string `json:"priority"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// UpdatePriorityRequest payload.
type UpdatePriorityRequest struct {
	Priority string `json:"priority"`
}

// AssignRequest payload. A null assignee unassigns.
type AssignRequest struct {
	AssigneeUserID *string `json:"assignee_user_id"`
}

// BulkStatusRequest payload.
type BulkStatusRequest struct {
	TicketIDs []string `json:"ticket_ids"`
	Status    string   `json:"status"`
}

// BulkAssignRequest payload.
type BulkAssignRequest struct {
	TicketIDs      []string `json:"ticket_ids"`
	AssigneeUserID *string  `json:"assignee_user_id"`
}

// BulkResultResponse reports which tickets changed.
type BulkResultResponse struct {
	Updated []string `json:"updated"`
	Skipped []string `json:"skipped"`
}

// CreateMessageRequest payload.
type CreateMessageRequest struct {
	Body       string `json:"body"`
	IsInternal bool   `json:"is_internal,omitempty"`
}

// RegisterAttachmentRequest payload for the pending-metadata step.
type RegisterAttachmentRequest struct {
	FileName  string `json:"file_name"`
	MimeType  string `json:"mime_type"`
	SizeBytes int64  `json:"size_bytes"`
}

// SLABadgeResponse is the read-time deadline classification.
type SLABadgeResponse struct {
	State            domain.SLAState `json:"state"`
	RemainingSeconds int64           `json:"remaining_seconds"`
}

// TicketSummary response. Status carries the raw lifecycle value;
// DisplayStatus carries the collapsed client-facing label.
type TicketSummary struct {
	ID               string           `json:"id"`
	OrganizationID   string           `json:"organization_id"`
	Title            string           `json:"title"`
	Category         string           `json:"category,omitempty"`
	Status           string           `json:"status"`
	DisplayStatus    string           `json:"display_status"`
	Priority         string           `json:"priority"`
	AssignedToUserID *string          `json:"assigned_to_user_id,omitempty"`
	SLA              SLABadgeResponse `json:"sla"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// TicketMessageResponse represents one thread entry.
type TicketMessageResponse struct {
	ID           string    `json:"id"`
	AuthorUserID string    `json:"author_user_id"`
	IsInternal   bool      `json:"is_internal"`
	Body         string    `json:"body"`
	CreatedAt    time.Time `json:"created_at"`
}

// AttachmentResponse metadata.
type AttachmentResponse struct {
	ID         string `json:"id"`
	FileName   string `json:"file_name"`
	MimeType   string `json:"mime_type"`
	SizeBytes  int64  `json:"size_bytes"`
	StorageKey string `json:"storage_key"`
	Status     string `json:"status"`
	UploadURL  string `json:"upload_url,omitempty"`
}

// TicketDetailResponse provides full ticket info.
type TicketDetailResponse struct {
	TicketSummary
	Description string                  `json:"description"`
	CreatedBy   string                  `json:"created_by_user_id"`
	Messages    []TicketMessageResponse `json:"messages"`
	Attachments []AttachmentResponse    `json:"attachments"`
}

// TimeLogRequest payload.
type TimeLogRequest struct {
	Hours       string     `json:"hours"`
	Description string     `json:"description"`
	LoggedAt    *time.Time `json:"logged_at,omitempty"`
}

// TimeLogResponse is one work entry.
type TimeLogResponse struct {
	ID          string    `json:"id"`
	TicketID    string    `json:"ticket_id"`
	UserID      string    `json:"user_id"`
	Hours       string    `json:"hours"`
	Description string    `json:"description"`
	LoggedAt    time.Time `json:"logged_at"`
	CreatedAt   time.Time `json:"created_at"`
}
