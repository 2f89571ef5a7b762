package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/opsdeck/support-portal/internal/domain"
)

// TimeLogRepository appends and edits work entries. Every write recomputes
// the owning organization's allocation used_hours in the same transaction
// so the derived counter cannot drift from its source rows.
type TimeLogRepository interface {
	Create(ctx context.Context, orgID string, log *domain.TicketTimeLog) error
	Update(ctx context.Context, orgID string, log *domain.TicketTimeLog) error
	Delete(ctx context.Context, orgID, id string) error
	GetByID(ctx context.Context, id string) (*domain.TicketTimeLog, error)
	ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketTimeLog, error)
	SumForTicket(ctx context.Context, ticketID string) (decimal.Decimal, error)
	SumForOrgPeriod(ctx context.Context, orgID string, from, to time.Time) (decimal.Decimal, error)
}

type timeLogRepository struct {
	pool *pgxpool.Pool
}

// NewTimeLogRepository builds repository.
func NewTimeLogRepository(pool *pgxpool.Pool) TimeLogRepository {
	return &timeLogRepository{pool: pool}
}

func (r *timeLogRepository) Create(ctx context.Context, orgID string, log *domain.TicketTimeLog) error {
	return r.inTx(ctx, orgID, func(tx pgx.Tx) error {
		const query = `
            INSERT INTO ticket_time_logs (ticket_id, user_id, hours, description, logged_at)
            VALUES ($1,$2,$3,$4,$5)
            RETURNING id, created_at, updated_at`
		return tx.QueryRow(ctx, query,
			log.TicketID,
			log.UserID,
			log.Hours,
			log.Description,
			log.LoggedAt,
		).Scan(&log.ID, &log.CreatedAt, &log.UpdatedAt)
	})
}

func (r *timeLogRepository) Update(ctx context.Context, orgID string, log *domain.TicketTimeLog) error {
	return r.inTx(ctx, orgID, func(tx pgx.Tx) error {
		const query = `
            UPDATE ticket_time_logs SET hours=$1, description=$2, logged_at=$3, updated_at=NOW()
            WHERE id=$4`
		cmd, err := tx.Exec(ctx, query, log.Hours, log.Description, log.LoggedAt, log.ID)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		return nil
	})
}

func (r *timeLogRepository) Delete(ctx context.Context, orgID, id string) error {
	return r.inTx(ctx, orgID, func(tx pgx.Tx) error {
		cmd, err := tx.Exec(ctx, `DELETE FROM ticket_time_logs WHERE id=$1`, id)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		return nil
	})
}

// inTx runs the mutation and the used_hours recompute in one transaction.
func (r *timeLogRepository) inTx(ctx context.Context, orgID string, mutate func(pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := mutate(tx); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, recomputeUsedSQL+` WHERE a.organization_id=$1`, orgID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *timeLogRepository) GetByID(ctx context.Context, id string) (*domain.TicketTimeLog, error) {
	const query = `
        SELECT id, ticket_id, user_id, hours, description, logged_at, created_at, updated_at
        FROM ticket_time_logs WHERE id=$1`
	var log domain.TicketTimeLog
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&log.ID,
		&log.TicketID,
		&log.UserID,
		&log.Hours,
		&log.Description,
		&log.LoggedAt,
		&log.CreatedAt,
		&log.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &log, nil
}

func (r *timeLogRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketTimeLog, error) {
	const query = `
        SELECT id, ticket_id, user_id, hours, description, logged_at, created_at, updated_at
        FROM ticket_time_logs WHERE ticket_id=$1 ORDER BY logged_at ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketTimeLog
	for rows.Next() {
		var log domain.TicketTimeLog
		if err := rows.Scan(
			&log.ID,
			&log.TicketID,
			&log.UserID,
			&log.Hours,
			&log.Description,
			&log.LoggedAt,
			&log.CreatedAt,
			&log.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, log)
	}
	return result, rows.Err()
}

func (r *timeLogRepository) SumForTicket(ctx context.Context, ticketID string) (decimal.Decimal, error) {
	const query = `SELECT COALESCE(SUM(hours), 0) FROM ticket_time_logs WHERE ticket_id=$1`
	var sum decimal.Decimal
	if err := r.pool.QueryRow(ctx, query, ticketID).Scan(&sum); err != nil {
		return decimal.Zero, err
	}
	return sum, nil
}

func (r *timeLogRepository) SumForOrgPeriod(ctx context.Context, orgID string, from, to time.Time) (decimal.Decimal, error) {
	const query = `
        SELECT COALESCE(SUM(l.hours), 0)
        FROM ticket_time_logs l
        JOIN tickets t ON t.id = l.ticket_id
        WHERE t.organization_id=$1 AND l.logged_at::date BETWEEN $2 AND $3`
	var sum decimal.Decimal
	if err := r.pool.QueryRow(ctx, query, orgID, from, to).Scan(&sum); err != nil {
		return decimal.Zero, err
	}
	return sum, nil
}
