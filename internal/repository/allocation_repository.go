package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/opsdeck/support-portal/internal/domain"
)

// AllocationRepository manages billing-period hour buckets.
type AllocationRepository interface {
	Create(ctx context.Context, alloc *domain.HourAllocation) error
	GetByID(ctx context.Context, id string) (*domain.HourAllocation, error)
	ListByOrg(ctx context.Context, orgID string) ([]domain.HourAllocation, error)
	ListActive(ctx context.Context, onDate time.Time) ([]domain.HourAllocation, error)
	GetActiveForOrg(ctx context.Context, orgID string, onDate time.Time) (*domain.HourAllocation, error)
	AdjustTotalHours(ctx context.Context, id string, delta decimal.Decimal) (*domain.HourAllocation, error)
	RecomputeUsedForOrg(ctx context.Context, orgID string) error
	RecomputeUsedAll(ctx context.Context) (int64, error)
}

type allocationRepository struct {
	pool *pgxpool.Pool
}

// NewAllocationRepository builds repository.
func NewAllocationRepository(pool *pgxpool.Pool) AllocationRepository {
	return &allocationRepository{pool: pool}
}

const allocationColumns = `id, organization_id, title, period_start, period_end,
               total_hours, used_hours, agreed_hourly_rate, created_at, updated_at`

// recomputeUsedSQL resets used_hours to the sum of time logs landing inside
// each allocation period for the allocation's organization. This is the
// single source of truth for the derived counter.
const recomputeUsedSQL = `
        UPDATE hour_allocations a
        SET used_hours = COALESCE((
                SELECT SUM(l.hours)
                FROM ticket_time_logs l
                JOIN tickets t ON t.id = l.ticket_id
                WHERE t.organization_id = a.organization_id
                  AND l.logged_at::date BETWEEN a.period_start AND a.period_end
        ), 0), updated_at = NOW()`

func (r *allocationRepository) Create(ctx context.Context, alloc *domain.HourAllocation) error {
	const query = `
        INSERT INTO hour_allocations (organization_id, title, period_start, period_end, total_hours, used_hours, agreed_hourly_rate)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		alloc.OrganizationID,
		alloc.Title,
		alloc.PeriodStart,
		alloc.PeriodEnd,
		alloc.TotalHours,
		alloc.UsedHours,
		alloc.AgreedHourlyRate,
	).Scan(&alloc.ID, &alloc.CreatedAt, &alloc.UpdatedAt)
}

func (r *allocationRepository) GetByID(ctx context.Context, id string) (*domain.HourAllocation, error) {
	query := `SELECT ` + allocationColumns + ` FROM hour_allocations WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *allocationRepository) ListByOrg(ctx context.Context, orgID string) ([]domain.HourAllocation, error) {
	query := `SELECT ` + allocationColumns + ` FROM hour_allocations
        WHERE organization_id=$1 ORDER BY period_start DESC`
	rows, err := r.pool.Query(ctx, query, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAllocations(rows)
}

func (r *allocationRepository) ListActive(ctx context.Context, onDate time.Time) ([]domain.HourAllocation, error) {
	query := `SELECT ` + allocationColumns + ` FROM hour_allocations
        WHERE $1::date BETWEEN period_start AND period_end ORDER BY organization_id`
	rows, err := r.pool.Query(ctx, query, onDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAllocations(rows)
}

func (r *allocationRepository) GetActiveForOrg(ctx context.Context, orgID string, onDate time.Time) (*domain.HourAllocation, error) {
	query := `SELECT ` + allocationColumns + ` FROM hour_allocations
        WHERE organization_id=$1 AND $2::date BETWEEN period_start AND period_end
        ORDER BY period_start DESC LIMIT 1`
	return r.fetchSingle(ctx, query, orgID, onDate)
}

// AdjustTotalHours adds delta to total_hours and returns the updated row.
func (r *allocationRepository) AdjustTotalHours(ctx context.Context, id string, delta decimal.Decimal) (*domain.HourAllocation, error) {
	query := `
        UPDATE hour_allocations SET total_hours = total_hours + $1, updated_at = NOW()
        WHERE id=$2
        RETURNING ` + allocationColumns
	return r.fetchSingle(ctx, query, delta, id)
}

func (r *allocationRepository) RecomputeUsedForOrg(ctx context.Context, orgID string) error {
	_, err := r.pool.Exec(ctx, recomputeUsedSQL+` WHERE a.organization_id=$1`, orgID)
	return err
}

// RecomputeUsedAll reconciles every allocation; run periodically so any
// drift is bounded by the sweep interval.
func (r *allocationRepository) RecomputeUsedAll(ctx context.Context) (int64, error) {
	cmd, err := r.pool.Exec(ctx, recomputeUsedSQL)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *allocationRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.HourAllocation, error) {
	var alloc domain.HourAllocation
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&alloc.ID,
		&alloc.OrganizationID,
		&alloc.Title,
		&alloc.PeriodStart,
		&alloc.PeriodEnd,
		&alloc.TotalHours,
		&alloc.UsedHours,
		&alloc.AgreedHourlyRate,
		&alloc.CreatedAt,
		&alloc.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &alloc, nil
}

func scanAllocations(rows pgx.Rows) ([]domain.HourAllocation, error) {
	var result []domain.HourAllocation
	for rows.Next() {
		var alloc domain.HourAllocation
		if err := rows.Scan(
			&alloc.ID,
			&alloc.OrganizationID,
			&alloc.Title,
			&alloc.PeriodStart,
			&alloc.PeriodEnd,
			&alloc.TotalHours,
			&alloc.UsedHours,
			&alloc.AgreedHourlyRate,
			&alloc.CreatedAt,
			&alloc.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, alloc)
	}
	return result, rows.Err()
}
