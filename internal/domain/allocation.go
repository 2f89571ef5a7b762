package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// HourAllocation is a billing-period bucket of purchased retainer hours.
// UsedHours is recomputed transactionally from the time-log sum whenever a
// log changes, so it tracks the source rows instead of drifting.
type HourAllocation struct {
	ID               string
	OrganizationID   string
	Title            *string
	PeriodStart      time.Time
	PeriodEnd        time.Time
	TotalHours       decimal.Decimal
	UsedHours        decimal.Decimal
	AgreedHourlyRate *decimal.Decimal
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Contains reports whether the inclusive period covers the given date.
func (a HourAllocation) Contains(date time.Time) bool {
	d := date.Truncate(24 * time.Hour)
	start := a.PeriodStart.Truncate(24 * time.Hour)
	end := a.PeriodEnd.Truncate(24 * time.Hour)
	return !d.Before(start) && !d.After(end)
}

// RemainingHours returns total minus used. Negative when overrun.
func (a HourAllocation) RemainingHours() decimal.Decimal {
	return a.TotalHours.Sub(a.UsedHours)
}

// UsagePercent returns used/total*100 truncated to a whole percent. A zero
// total yields 0 rather than a division fault. Values above 100 are
// reported as-is; clamping is a display concern.
func (a HourAllocation) UsagePercent() int {
	if a.TotalHours.IsZero() {
		return 0
	}
	pct := a.UsedHours.Div(a.TotalHours).Mul(decimal.NewFromInt(100))
	return int(pct.IntPart())
}

// TicketTimeLog is a staff work entry against a ticket. Append-only except
// for same-author edits to hours and description.
type TicketTimeLog struct {
	ID          string
	TicketID    string
	UserID      string
	Hours       decimal.Decimal
	Description string
	LoggedAt    time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
