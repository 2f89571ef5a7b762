package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/opsdeck/support-portal/internal/domain"
)

// AttachmentRepository stores attachment metadata rows. Rows start pending
// and are confirmed once the blob upload succeeds; stale pending rows are
// removed by the orphan sweep.
type AttachmentRepository interface {
	Create(ctx context.Context, att *domain.TicketAttachment) error
	GetByID(ctx context.Context, id string) (*domain.TicketAttachment, error)
	Confirm(ctx context.Context, id string) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketAttachment, error)
	DeletePendingBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type attachmentRepository struct {
	pool *pgxpool.Pool
}

// NewAttachmentRepository builds repository.
func NewAttachmentRepository(pool *pgxpool.Pool) AttachmentRepository {
	return &attachmentRepository{pool: pool}
}

func (r *attachmentRepository) Create(ctx context.Context, att *domain.TicketAttachment) error {
	const query = `
        INSERT INTO ticket_attachments (ticket_id, uploaded_by_user_id, storage_key, file_name, mime_type, size_bytes, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		att.TicketID,
		att.UploadedByUserID,
		att.StorageKey,
		att.FileName,
		att.MimeType,
		att.SizeBytes,
		att.Status,
	).Scan(&att.ID, &att.CreatedAt)
}

func (r *attachmentRepository) GetByID(ctx context.Context, id string) (*domain.TicketAttachment, error) {
	const query = `
        SELECT id, ticket_id, uploaded_by_user_id, storage_key, file_name, mime_type, size_bytes, status, created_at
        FROM ticket_attachments WHERE id=$1`
	var att domain.TicketAttachment
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&att.ID,
		&att.TicketID,
		&att.UploadedByUserID,
		&att.StorageKey,
		&att.FileName,
		&att.MimeType,
		&att.SizeBytes,
		&att.Status,
		&att.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &att, nil
}

func (r *attachmentRepository) Confirm(ctx context.Context, id string) error {
	const query = `UPDATE ticket_attachments SET status=$1 WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, domain.AttachmentStatusConfirmed, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *attachmentRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketAttachment, error) {
	const query = `
        SELECT id, ticket_id, uploaded_by_user_id, storage_key, file_name, mime_type, size_bytes, status, created_at
        FROM ticket_attachments WHERE ticket_id=$1 AND status=$2 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, ticketID, domain.AttachmentStatusConfirmed)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketAttachment
	for rows.Next() {
		var att domain.TicketAttachment
		if err := rows.Scan(
			&att.ID,
			&att.TicketID,
			&att.UploadedByUserID,
			&att.StorageKey,
			&att.FileName,
			&att.MimeType,
			&att.SizeBytes,
			&att.Status,
			&att.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, att)
	}
	return result, rows.Err()
}

// DeletePendingBefore garbage-collects pending rows whose upload never
// confirmed.
func (r *attachmentRepository) DeletePendingBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `DELETE FROM ticket_attachments WHERE status=$1 AND created_at < $2`
	cmd, err := r.pool.Exec(ctx, query, domain.AttachmentStatusPending, cutoff)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
