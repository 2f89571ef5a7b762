package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestUsagePercent(t *testing.T) {
	t.Run("zero total yields zero instead of dividing", func(t *testing.T) {
		alloc := HourAllocation{TotalHours: decimal.Zero, UsedHours: decimal.NewFromInt(10)}
		assert.Equal(t, 0, alloc.UsagePercent())
	})

	t.Run("forty hour retainer at 35.5 used", func(t *testing.T) {
		alloc := HourAllocation{
			TotalHours: decimal.NewFromInt(40),
			UsedHours:  decimal.RequireFromString("35.5"),
		}
		assert.Equal(t, 88, alloc.UsagePercent())
		assert.True(t, alloc.RemainingHours().Equal(decimal.RequireFromString("4.5")))
	})

	t.Run("overrun reports above one hundred", func(t *testing.T) {
		alloc := HourAllocation{
			TotalHours: decimal.NewFromInt(10),
			UsedHours:  decimal.NewFromInt(12),
		}
		assert.Equal(t, 120, alloc.UsagePercent())
		assert.True(t, alloc.RemainingHours().IsNegative())
	})
}

func TestAllocationContains(t *testing.T) {
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	alloc := HourAllocation{PeriodStart: start, PeriodEnd: end}

	assert.True(t, alloc.Contains(time.Date(2026, 8, 15, 12, 30, 0, 0, time.UTC)))
	assert.True(t, alloc.Contains(start))
	assert.True(t, alloc.Contains(end.Add(10*time.Hour)), "period end is inclusive for the whole day")
	assert.False(t, alloc.Contains(time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)))
	assert.False(t, alloc.Contains(time.Date(2026, 7, 31, 23, 0, 0, 0, time.UTC)))
}
