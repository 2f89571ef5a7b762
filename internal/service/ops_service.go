package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/opsdeck/support-portal/internal/billing"
	"github.com/opsdeck/support-portal/internal/domain"
	"github.com/opsdeck/support-portal/internal/repository"
	"github.com/opsdeck/support-portal/pkg/util"
)

// ChurnRisk buckets the churn heuristic.
type ChurnRisk string

const (
	ChurnRiskLow    ChurnRisk = "low"
	ChurnRiskMedium ChurnRisk = "medium"
	ChurnRiskHigh   ChurnRisk = "high"
)

const churnUtilizationThreshold = 90

// OrgHealth is one organization's rollup row on the ops dashboard.
type OrgHealth struct {
	Organization   domain.Organization
	Allocation     *AllocationView
	OpenTickets    int
	BreachedSLA    int
	ChurnRisk      ChurnRisk
	ChurnSignals   []string
	MonthlyRevenue decimal.Decimal
}

// OpsService computes read-only dashboards for the ops role.
type OpsService struct {
	orgs        repository.OrganizationRepository
	tickets     repository.TicketRepository
	timeLogs    repository.TimeLogRepository
	allocations *AllocationService
	billing     billing.Client
}

// NewOpsService constructs the service. The billing client may be nil
// when integration is not configured.
func NewOpsService(orgs repository.OrganizationRepository, tickets repository.TicketRepository, timeLogs repository.TimeLogRepository, allocations *AllocationService, billingClient billing.Client) *OpsService {
	return &OpsService{orgs: orgs, tickets: tickets, timeLogs: timeLogs, allocations: allocations, billing: billingClient}
}

// OrgHealthOverview rolls up every organization: allocation utilization,
// ticket pressure, churn-risk bucket, and projected revenue for the
// active period.
func (s *OpsService) OrgHealthOverview(ctx context.Context, limit, offset int) ([]OrgHealth, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	orgs, err := s.orgs.List(ctx, limit, offset)
	if err != nil {
		return nil, util.MapError(err)
	}

	now := time.Now()
	out := make([]OrgHealth, 0, len(orgs))
	for _, org := range orgs {
		health := OrgHealth{Organization: org, MonthlyRevenue: decimal.Zero}

		alloc, err := s.allocations.CurrentForOrg(ctx, org.ID)
		if err != nil {
			return nil, err
		}
		health.Allocation = alloc
		if alloc != nil && alloc.AgreedHourlyRate != nil {
			health.MonthlyRevenue = alloc.TotalHours.Mul(*alloc.AgreedHourlyRate)
		}

		open, breached, err := s.ticketPressure(ctx, org.ID, now)
		if err != nil {
			return nil, err
		}
		health.OpenTickets = open
		health.BreachedSLA = breached

		health.ChurnRisk, health.ChurnSignals = classifyChurn(org, alloc, breached)
		out = append(out, health)
	}
	return out, nil
}

// RevenueProjection sums total_hours x agreed_hourly_rate over every
// active allocation period.
func (s *OpsService) RevenueProjection(ctx context.Context) (decimal.Decimal, error) {
	active, err := s.allocations.ListActive(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, a := range active {
		if a.AgreedHourlyRate == nil {
			continue
		}
		total = total.Add(a.TotalHours.Mul(*a.AgreedHourlyRate))
	}
	return total, nil
}

// HoursUsed sums logged staff hours for an organization over an
// arbitrary window, independent of allocation period boundaries.
func (s *OpsService) HoursUsed(ctx context.Context, orgID string, from, to time.Time) (decimal.Decimal, error) {
	if to.Before(from) {
		return decimal.Zero, util.NewValidationError("window end before window start", nil)
	}
	if _, err := s.orgs.GetByID(ctx, orgID); err != nil {
		return decimal.Zero, util.MapError(err)
	}
	total, err := s.timeLogs.SumForOrgPeriod(ctx, orgID, from, to)
	if err != nil {
		return decimal.Zero, util.MapError(err)
	}
	return total, nil
}

// GetSubscription proxies the billing subscription read.
func (s *OpsService) GetSubscription(ctx context.Context, orgID string) (*billing.Subscription, error) {
	if s.billing == nil {
		return nil, util.NewValidationError("billing integration is not configured", nil)
	}
	return s.billing.GetSubscription(ctx, orgID)
}

// ListInvoices proxies the billing invoice read.
func (s *OpsService) ListInvoices(ctx context.Context, orgID string) ([]billing.Invoice, error) {
	if s.billing == nil {
		return nil, util.NewValidationError("billing integration is not configured", nil)
	}
	return s.billing.ListInvoices(ctx, orgID)
}

func (s *OpsService) ticketPressure(ctx context.Context, orgID string, now time.Time) (open, breached int, err error) {
	tickets, err := s.tickets.ListWithFilter(ctx, repository.TicketFilter{
		OrganizationID: &orgID,
		Statuses: []domain.TicketStatus{
			domain.TicketStatusOpen,
			domain.TicketStatusInProgress,
			domain.TicketStatusWaitingOnClient,
		},
		Limit: 500,
	})
	if err != nil {
		return 0, 0, util.MapError(err)
	}
	for _, t := range tickets {
		open++
		if domain.ClassifySLA(t.SLADueAt, t.Status, now).State == domain.SLABreached {
			breached++
		}
	}
	return open, breached, nil
}

// classifyChurn scores the three signals: overdue payment, utilization
// above 90%, and any breached SLA. Two or more signals is high risk,
// one is medium, none is low.
func classifyChurn(org domain.Organization, alloc *AllocationView, breached int) (ChurnRisk, []string) {
	var signals []string
	if org.AccountStatus == domain.AccountStatusOverdue {
		signals = append(signals, "payment_overdue")
	}
	if alloc != nil && alloc.UsagePercent > churnUtilizationThreshold {
		signals = append(signals, "high_utilization")
	}
	if breached > 0 {
		signals = append(signals, "sla_breaches")
	}

	switch {
	case len(signals) >= 2:
		return ChurnRiskHigh, signals
	case len(signals) == 1:
		return ChurnRiskMedium, signals
	}
	return ChurnRiskLow, signals
}
