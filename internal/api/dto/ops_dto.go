package dto

import "time"

// OrgHealthResponse is one row of the ops dashboard.
type OrgHealthResponse struct {
	Organization   OrganizationResponse `json:"organization"`
	Allocation     *AllocationResponse  `json:"allocation,omitempty"`
	OpenTickets    int                  `json:"open_tickets"`
	BreachedSLA    int                  `json:"breached_sla"`
	ChurnRisk      string               `json:"churn_risk"`
	ChurnSignals   []string             `json:"churn_signals,omitempty"`
	MonthlyRevenue string               `json:"monthly_revenue"`
}

// RevenueProjectionResponse is the fleet-wide projection.
type RevenueProjectionResponse struct {
	ProjectedRevenue string `json:"projected_revenue"`
}

// HoursUsedResponse reports logged hours over a window.
type HoursUsedResponse struct {
	OrganizationID string    `json:"organization_id"`
	From           time.Time `json:"from"`
	To             time.Time `json:"to"`
	TotalHours     string    `json:"total_hours"`
}
