package service

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/opsdeck/support-portal/internal/domain"
)

func TestHoursUsed(t *testing.T) {
	ctx := context.Background()
	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)

	t.Run("sums logged hours over the window", func(t *testing.T) {
		orgs := new(mockOrgRepo)
		timeLogs := new(mockTimeLogRepo)
		svc := NewOpsService(orgs, new(mockTicketRepo), timeLogs, nil, nil)

		orgs.On("GetByID", ctx, "org-a").Return(&domain.Organization{ID: "org-a"}, nil)
		timeLogs.On("SumForOrgPeriod", ctx, "org-a", from, to).Return(dec("12.75"), nil)

		total, err := svc.HoursUsed(ctx, "org-a", from, to)
		require.NoError(t, err)
		assert.True(t, total.Equal(dec("12.75")))
	})

	t.Run("inverted window is rejected", func(t *testing.T) {
		orgs := new(mockOrgRepo)
		timeLogs := new(mockTimeLogRepo)
		svc := NewOpsService(orgs, new(mockTicketRepo), timeLogs, nil, nil)

		_, err := svc.HoursUsed(ctx, "org-a", to, from)
		assertCode(t, err, "VALIDATION_FAILED")
		timeLogs.AssertNotCalled(t, "SumForOrgPeriod", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown org maps to not found", func(t *testing.T) {
		orgs := new(mockOrgRepo)
		svc := NewOpsService(orgs, new(mockTicketRepo), new(mockTimeLogRepo), nil, nil)
		orgs.On("GetByID", ctx, "ghost").Return(nil, pgx.ErrNoRows)

		_, err := svc.HoursUsed(ctx, "ghost", from, to)
		assertCode(t, err, "NOT_FOUND")
	})
}
