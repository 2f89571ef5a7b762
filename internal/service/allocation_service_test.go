package service

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/opsdeck/support-portal/internal/config"
	"github.com/opsdeck/support-portal/internal/domain"
)

func newAllocationFixture() (*AllocationService, *mockAllocationRepo, *mockOrgRepo) {
	allocations := new(mockAllocationRepo)
	orgs := new(mockOrgRepo)
	svc := NewAllocationService(allocations, orgs, config.AllocationConfig{WarnThresholdPercent: 85})
	return svc, allocations, orgs
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestAllocationCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("period end before start is rejected", func(t *testing.T) {
		svc, allocations, orgs := newAllocationFixture()
		orgs.On("GetByID", ctx, "org-a").Return(&domain.Organization{ID: "org-a"}, nil)

		_, err := svc.Create(ctx, AllocationCreateInput{
			OrganizationID: "org-a",
			PeriodStart:    time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
			PeriodEnd:      time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
			TotalHours:     dec("40"),
		})
		assertCode(t, err, "VALIDATION_FAILED")
		allocations.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("overlapping period is a conflict", func(t *testing.T) {
		svc, allocations, orgs := newAllocationFixture()
		orgs.On("GetByID", ctx, "org-a").Return(&domain.Organization{ID: "org-a"}, nil)
		allocations.On("ListByOrg", ctx, "org-a").Return([]domain.HourAllocation{{
			ID:          "alloc-aug",
			PeriodStart: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
			PeriodEnd:   time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
		}}, nil)

		_, err := svc.Create(ctx, AllocationCreateInput{
			OrganizationID: "org-a",
			PeriodStart:    time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC),
			PeriodEnd:      time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC),
			TotalHours:     dec("40"),
		})
		domainErr := assertCode(t, err, "CONFLICT")
		assert.Equal(t, "alloc-aug", domainErr.Details["allocation_id"])
		allocations.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("new bucket counts time already logged in its period", func(t *testing.T) {
		svc, allocations, orgs := newAllocationFixture()
		orgs.On("GetByID", ctx, "org-a").Return(&domain.Organization{ID: "org-a"}, nil)
		allocations.On("ListByOrg", ctx, "org-a").Return([]domain.HourAllocation{}, nil)
		allocations.On("Create", ctx, mock.AnythingOfType("*domain.HourAllocation")).
			Run(func(args mock.Arguments) {
				args.Get(1).(*domain.HourAllocation).ID = "alloc-1"
			}).Return(nil)
		allocations.On("RecomputeUsedForOrg", ctx, "org-a").Return(nil)
		allocations.On("GetByID", ctx, "alloc-1").Return(&domain.HourAllocation{
			ID: "alloc-1", OrganizationID: "org-a", TotalHours: dec("40"), UsedHours: dec("2.5"),
		}, nil)

		alloc, err := svc.Create(ctx, AllocationCreateInput{
			OrganizationID: "org-a",
			PeriodStart:    time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
			PeriodEnd:      time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC),
			TotalHours:     dec("40"),
		})
		require.NoError(t, err)
		assert.True(t, alloc.UsedHours.Equal(dec("2.5")))
		allocations.AssertExpectations(t)
	})
}

func TestAdjustHours(t *testing.T) {
	ctx := context.Background()

	t.Run("no active allocation leaves the ledger untouched", func(t *testing.T) {
		svc, allocations, _ := newAllocationFixture()
		allocations.On("GetActiveForOrg", ctx, "org-a", mock.AnythingOfType("time.Time")).
			Return(nil, pgx.ErrNoRows)

		_, err := svc.AdjustHours(ctx, "org-a", dec("10"))
		domainErr := assertCode(t, err, "NOT_FOUND")
		assert.Equal(t, "org-a", domainErr.Details["organization_id"])
		allocations.AssertNotCalled(t, "AdjustTotalHours", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("adjustment cannot push total negative", func(t *testing.T) {
		svc, allocations, _ := newAllocationFixture()
		allocations.On("GetActiveForOrg", ctx, "org-a", mock.AnythingOfType("time.Time")).
			Return(&domain.HourAllocation{ID: "alloc-1", TotalHours: dec("10")}, nil)

		_, err := svc.AdjustHours(ctx, "org-a", dec("-15"))
		assertCode(t, err, "VALIDATION_FAILED")
		allocations.AssertNotCalled(t, "AdjustTotalHours", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("successful top-up returns usage figures", func(t *testing.T) {
		svc, allocations, _ := newAllocationFixture()
		allocations.On("GetActiveForOrg", ctx, "org-a", mock.AnythingOfType("time.Time")).
			Return(&domain.HourAllocation{ID: "alloc-1", TotalHours: dec("40"), UsedHours: dec("36")}, nil)
		allocations.On("AdjustTotalHours", ctx, "alloc-1", dec("10")).
			Return(&domain.HourAllocation{ID: "alloc-1", TotalHours: dec("50"), UsedHours: dec("36")}, nil)

		view, err := svc.AdjustHours(ctx, "org-a", dec("10"))
		require.NoError(t, err)
		assert.Equal(t, 72, view.UsagePercent)
		assert.True(t, view.RemainingHours.Equal(dec("14")))
		assert.False(t, view.NearLimit)
	})
}

func TestCurrentForOrg(t *testing.T) {
	ctx := context.Background()

	t.Run("no active bucket is not an error", func(t *testing.T) {
		svc, allocations, _ := newAllocationFixture()
		allocations.On("GetActiveForOrg", ctx, "org-a", mock.AnythingOfType("time.Time")).
			Return(nil, pgx.ErrNoRows)

		view, err := svc.CurrentForOrg(ctx, "org-a")
		require.NoError(t, err)
		assert.Nil(t, view)
	})

	t.Run("usage above the threshold flags near-limit", func(t *testing.T) {
		svc, allocations, _ := newAllocationFixture()
		allocations.On("GetActiveForOrg", ctx, "org-a", mock.AnythingOfType("time.Time")).
			Return(&domain.HourAllocation{ID: "alloc-1", TotalHours: dec("40"), UsedHours: dec("35.5")}, nil)

		view, err := svc.CurrentForOrg(ctx, "org-a")
		require.NoError(t, err)
		require.NotNil(t, view)
		assert.Equal(t, 88, view.UsagePercent)
		assert.True(t, view.NearLimit)
		assert.True(t, view.RemainingHours.Equal(dec("4.5")))
	})
}
