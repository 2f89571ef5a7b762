package dto

import "time"

// AllocationCreateRequest payload. Hours and rate travel as strings to
// keep decimal precision out of float64.
type AllocationCreateRequest struct {
	OrganizationID   string  `json:"organization_id"`
	Title            *string `json:"title,omitempty"`
	PeriodStart      string  `json:"period_start"`
	PeriodEnd        string  `json:"period_end"`
	TotalHours       string  `json:"total_hours"`
	AgreedHourlyRate *string `json:"agreed_hourly_rate,omitempty"`
}

// AdjustHoursRequest payload. Delta may be negative.
type AdjustHoursRequest struct {
	DeltaHours string `json:"delta_hours"`
}

// AllocationResponse projection with derived usage.
type AllocationResponse struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	Title          *string   `json:"title,omitempty"`
	PeriodStart    time.Time `json:"period_start"`
	PeriodEnd      time.Time `json:"period_end"`
	TotalHours     string    `json:"total_hours"`
	UsedHours      string    `json:"used_hours"`
	RemainingHours string    `json:"remaining_hours"`
	UsagePercent   int       `json:"usage_percent"`
	NearLimit      bool      `json:"near_limit"`
}
