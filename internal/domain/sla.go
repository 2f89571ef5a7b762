package domain

import "time"

// SLAState classifies how close a ticket is to its deadline. It is a pure
// read-time computation; no breached flag is stored.
type SLAState string

const (
	SLANone     SLAState = "none"
	SLAOk       SLAState = "ok"
	SLAWarning  SLAState = "warning"
	SLAUrgent   SLAState = "urgent"
	SLABreached SLAState = "breached"
)

const (
	slaUrgentWindow  = 2 * time.Hour
	slaWarningWindow = 8 * time.Hour
)

// SLABadge carries the classification plus the remaining time so views can
// render a countdown. Remaining is negative once breached.
type SLABadge struct {
	State     SLAState
	Remaining time.Duration
}

// ClassifySLA evaluates a ticket's deadline against now. Terminal tickets
// and tickets without a deadline classify as SLANone.
func ClassifySLA(dueAt *time.Time, status TicketStatus, now time.Time) SLABadge {
	if dueAt == nil || status.IsTerminal() {
		return SLABadge{State: SLANone}
	}
	remaining := dueAt.Sub(now)
	switch {
	case remaining < 0:
		return SLABadge{State: SLABreached, Remaining: remaining}
	case remaining < slaUrgentWindow:
		return SLABadge{State: SLAUrgent, Remaining: remaining}
	case remaining < slaWarningWindow:
		return SLABadge{State: SLAWarning, Remaining: remaining}
	}
	return SLABadge{State: SLAOk, Remaining: remaining}
}
