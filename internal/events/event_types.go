package events

import (
	"time"

	"github.com/opsdeck/support-portal/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketAssigned      EventType = "ticket_assigned"
	EventTicketReply         EventType = "ticket_reply"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID          string      `json:"id"`
	Type        EventType   `json:"type"`
	TicketID    string      `json:"ticket_id"`
	ActorUserID string      `json:"actor_user_id"`
	Timestamp   time.Time   `json:"timestamp"`
	Payload     interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	OrganizationID string                `json:"organization_id"`
	Title          string                `json:"title"`
	Priority       domain.TicketPriority `json:"priority"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OrganizationID string              `json:"organization_id"`
	OldStatus      domain.TicketStatus `json:"old_status"`
	NewStatus      domain.TicketStatus `json:"new_status"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	OrganizationID string  `json:"organization_id"`
	AssigneeUserID *string `json:"assignee_user_id,omitempty"`
}

// TicketReplyPayload payload. Internal notes never produce this event.
type TicketReplyPayload struct {
	OrganizationID string `json:"organization_id"`
	MessageID      string `json:"message_id"`
	AuthorIsStaff  bool   `json:"author_is_staff"`
	BodyPreview    string `json:"body_preview"`
}
