package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/opsdeck/support-portal/internal/config"
	"github.com/opsdeck/support-portal/internal/domain"
	"github.com/opsdeck/support-portal/internal/repository"
	"github.com/opsdeck/support-portal/pkg/util"
)

// AllocationService manages retainer-hour buckets per organization.
type AllocationService struct {
	allocations repository.AllocationRepository
	orgs        repository.OrganizationRepository
	cfg         config.AllocationConfig
}

// NewAllocationService constructs the service.
func NewAllocationService(allocations repository.AllocationRepository, orgs repository.OrganizationRepository, cfg config.AllocationConfig) *AllocationService {
	return &AllocationService{allocations: allocations, orgs: orgs, cfg: cfg}
}

// AllocationCreateInput describes a new hour bucket.
type AllocationCreateInput struct {
	OrganizationID   string
	Title            *string
	PeriodStart      time.Time
	PeriodEnd        time.Time
	TotalHours       decimal.Decimal
	AgreedHourlyRate *decimal.Decimal
}

// AllocationView is an allocation with derived usage figures.
type AllocationView struct {
	domain.HourAllocation
	RemainingHours decimal.Decimal
	UsagePercent   int
	NearLimit      bool
}

// Create opens a new allocation period for an organization. Periods may
// not overlap an existing bucket; overlap would double-count time logs.
func (s *AllocationService) Create(ctx context.Context, input AllocationCreateInput) (*domain.HourAllocation, error) {
	if _, err := s.orgs.GetByID(ctx, input.OrganizationID); err != nil {
		return nil, util.MapError(err)
	}
	if input.PeriodEnd.Before(input.PeriodStart) {
		return nil, util.NewValidationError("period end before period start", nil)
	}
	if input.TotalHours.IsNegative() {
		return nil, util.NewValidationError("total hours cannot be negative", nil)
	}

	existing, err := s.allocations.ListByOrg(ctx, input.OrganizationID)
	if err != nil {
		return nil, util.MapError(err)
	}
	for _, a := range existing {
		if a.Contains(input.PeriodStart) || a.Contains(input.PeriodEnd) ||
			(input.PeriodStart.Before(a.PeriodStart) && input.PeriodEnd.After(a.PeriodEnd)) {
			return nil, util.NewConflict("allocation period overlaps an existing one", map[string]any{
				"allocation_id": a.ID,
			})
		}
	}

	alloc := &domain.HourAllocation{
		OrganizationID:   input.OrganizationID,
		Title:            input.Title,
		PeriodStart:      input.PeriodStart,
		PeriodEnd:        input.PeriodEnd,
		TotalHours:       input.TotalHours,
		UsedHours:        decimal.Zero,
		AgreedHourlyRate: input.AgreedHourlyRate,
	}
	if err := s.allocations.Create(ctx, alloc); err != nil {
		return nil, util.MapError(err)
	}

	// Time already logged inside the new period counts against it from
	// the start, so derive the counter instead of trusting zero.
	if err := s.allocations.RecomputeUsedForOrg(ctx, alloc.OrganizationID); err != nil {
		return nil, util.MapError(err)
	}
	refreshed, err := s.allocations.GetByID(ctx, alloc.ID)
	if err != nil {
		return nil, util.MapError(err)
	}
	return refreshed, nil
}

// AdjustHours adds (or subtracts) purchased hours on the organization's
// currently active allocation. With no active allocation the ledger is
// left untouched and the caller gets a not-found error.
func (s *AllocationService) AdjustHours(ctx context.Context, orgID string, delta decimal.Decimal) (*AllocationView, error) {
	active, err := s.allocations.GetActiveForOrg(ctx, orgID, time.Now())
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewNotFound("active allocation", map[string]any{"organization_id": orgID})
		}
		return nil, util.MapError(err)
	}

	if active.TotalHours.Add(delta).IsNegative() {
		return nil, util.NewValidationError("adjustment would make total hours negative", map[string]any{
			"total_hours": active.TotalHours,
			"delta":       delta,
		})
	}

	updated, err := s.allocations.AdjustTotalHours(ctx, active.ID, delta)
	if err != nil {
		return nil, util.MapError(err)
	}
	view := s.view(*updated)
	return &view, nil
}

// ListForOrg returns all allocation periods for an organization, newest
// first, with usage figures attached.
func (s *AllocationService) ListForOrg(ctx context.Context, orgID string) ([]AllocationView, error) {
	allocations, err := s.allocations.ListByOrg(ctx, orgID)
	if err != nil {
		return nil, util.MapError(err)
	}
	views := make([]AllocationView, 0, len(allocations))
	for _, a := range allocations {
		views = append(views, s.view(a))
	}
	return views, nil
}

// CurrentForOrg returns the active allocation view, or nil when the
// organization has no bucket covering today.
func (s *AllocationService) CurrentForOrg(ctx context.Context, orgID string) (*AllocationView, error) {
	active, err := s.allocations.GetActiveForOrg(ctx, orgID, time.Now())
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, util.MapError(err)
	}
	view := s.view(*active)
	return &view, nil
}

// ListActive returns every organization's active allocation for ops
// rollups.
func (s *AllocationService) ListActive(ctx context.Context) ([]AllocationView, error) {
	allocations, err := s.allocations.ListActive(ctx, time.Now())
	if err != nil {
		return nil, util.MapError(err)
	}
	views := make([]AllocationView, 0, len(allocations))
	for _, a := range allocations {
		views = append(views, s.view(a))
	}
	return views, nil
}

func (s *AllocationService) view(a domain.HourAllocation) AllocationView {
	pct := a.UsagePercent()
	return AllocationView{
		HourAllocation: a,
		RemainingHours: a.RemainingHours(),
		UsagePercent:   pct,
		NearLimit:      pct > s.cfg.WarnThresholdPercent,
	}
}
