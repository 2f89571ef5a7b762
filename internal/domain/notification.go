package domain

import "time"

// NotificationType enumerates notifiable ticket events.
type NotificationType string

const (
	NotificationTicketAssigned      NotificationType = "ticket_assigned"
	NotificationTicketStatusChanged NotificationType = "ticket_status_changed"
	NotificationTicketReply         NotificationType = "ticket_reply"
)

// NotificationChannel selects the delivery path a preference gates.
type NotificationChannel string

const (
	ChannelInApp NotificationChannel = "inapp"
	ChannelEmail NotificationChannel = "email"
)

// Notification is one bell/inbox row. Read and mutated by the recipient
// only.
type Notification struct {
	ID        string
	UserID    string
	Type      NotificationType
	Title     string
	Body      string
	TicketID  *string
	IsRead    bool
	CreatedAt time.Time
}

// NotificationPreferences holds the six per-user booleans gating future
// notification creation. Preferences never filter already-created rows.
type NotificationPreferences struct {
	UserID             string
	AssignedInApp      bool
	AssignedEmail      bool
	StatusChangedInApp bool
	StatusChangedEmail bool
	ReplyInApp         bool
	ReplyEmail         bool
	UpdatedAt          time.Time
}

// DefaultPreferences opts a user into every channel.
func DefaultPreferences(userID string) NotificationPreferences {
	return NotificationPreferences{
		UserID:             userID,
		AssignedInApp:      true,
		AssignedEmail:      true,
		StatusChangedInApp: true,
		StatusChangedEmail: true,
		ReplyInApp:         true,
		ReplyEmail:         true,
	}
}

// Allows reports whether the given event type may be delivered on the
// given channel.
func (p NotificationPreferences) Allows(t NotificationType, ch NotificationChannel) bool {
	switch t {
	case NotificationTicketAssigned:
		if ch == ChannelInApp {
			return p.AssignedInApp
		}
		return p.AssignedEmail
	case NotificationTicketStatusChanged:
		if ch == ChannelInApp {
			return p.StatusChangedInApp
		}
		return p.StatusChangedEmail
	case NotificationTicketReply:
		if ch == ChannelInApp {
			return p.ReplyInApp
		}
		return p.ReplyEmail
	}
	return false
}

// TicketPath resolves the role-appropriate deep link for a notification
// that references a ticket. Admin resolves to the ticket list rather than
// a deep link; admin triage starts from the list.
func TicketPath(roles RoleSet, ticketID string) string {
	switch {
	case roles.Has(RoleAdmin):
		return "/admin/tickets"
	case roles.IsStaff():
		return "/support/tickets/" + ticketID
	default:
		return "/client/tickets/" + ticketID
	}
}
