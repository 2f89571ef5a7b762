package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen            TicketStatus = "open"
	TicketStatusInProgress      TicketStatus = "in_progress"
	TicketStatusWaitingOnClient TicketStatus = "waiting_on_client"
	TicketStatusResolved        TicketStatus = "resolved"
	TicketStatusClosed          TicketStatus = "closed"
)

// ParseTicketStatus validates a status string.
func ParseTicketStatus(s string) (TicketStatus, bool) {
	switch TicketStatus(s) {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusWaitingOnClient,
		TicketStatusResolved, TicketStatusClosed:
		return TicketStatus(s), true
	}
	return "", false
}

// IsTerminal reports whether the ticket has reached a resting state.
// Terminal tickets stop accruing SLA pressure and new open work.
func (s TicketStatus) IsTerminal() bool {
	return s == TicketStatusResolved || s == TicketStatusClosed
}

// ClientDisplay collapses the five-state machine for client-facing views:
// in_progress reads as "Open" and resolved as "Closed". Storage keeps the
// full state machine.
func (s TicketStatus) ClientDisplay() string {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress:
		return "Open"
	case TicketStatusWaitingOnClient:
		return "Waiting on you"
	case TicketStatusResolved, TicketStatusClosed:
		return "Closed"
	}
	return string(s)
}

// TicketPriority enumerates urgency levels.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
	TicketPriorityUrgent TicketPriority = "urgent"
)

// ParseTicketPriority validates a priority string.
func ParseTicketPriority(s string) (TicketPriority, bool) {
	switch TicketPriority(s) {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityUrgent:
		return TicketPriority(s), true
	}
	return "", false
}

// Ticket is the central aggregate for support requests.
type Ticket struct {
	ID               string
	OrganizationID   string
	CreatedByUserID  string
	AssignedToUserID *string
	Title            string
	Description      string
	Category         string
	Status           TicketStatus
	Priority         TicketPriority
	SLADueAt         *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// staffTransitions is the allow-list for support/ops roles: the suggested
// forward flow plus the reopen paths out of waiting_on_client and resolved.
var staffTransitions = map[TicketStatus][]TicketStatus{
	TicketStatusOpen:            {TicketStatusInProgress, TicketStatusWaitingOnClient, TicketStatusResolved, TicketStatusClosed},
	TicketStatusInProgress:      {TicketStatusOpen, TicketStatusWaitingOnClient, TicketStatusResolved, TicketStatusClosed},
	TicketStatusWaitingOnClient: {TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed},
	TicketStatusResolved:        {TicketStatusOpen, TicketStatusInProgress, TicketStatusClosed},
	TicketStatusClosed:          {},
}

// clientTransitions restricts clients to closing their own resolved or
// stalled tickets.
var clientTransitions = map[TicketStatus][]TicketStatus{
	TicketStatusResolved:        {TicketStatusClosed},
	TicketStatusWaitingOnClient: {TicketStatusClosed},
}

// CanTransition reports whether the role set may move a ticket between the
// two statuses. Admins additionally get the closed -> open reopen path.
func CanTransition(roles RoleSet, from, to TicketStatus) bool {
	if from == to {
		return false
	}
	if roles.Has(RoleAdmin) {
		if from == TicketStatusClosed {
			return to == TicketStatusOpen
		}
		return contains(staffTransitions[from], to)
	}
	if roles.HasAny(RoleSupport, RoleOps) {
		return contains(staffTransitions[from], to)
	}
	if roles.Has(RoleClient) {
		return contains(clientTransitions[from], to)
	}
	return false
}

func contains(list []TicketStatus, status TicketStatus) bool {
	for _, s := range list {
		if s == status {
			return true
		}
	}
	return false
}
