package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/opsdeck/support-portal/internal/domain"
)

// NotificationRepository stores bell/inbox rows and per-user preferences.
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Notification, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, userID, id string) error
	MarkAllRead(ctx context.Context, userID string) error
	Delete(ctx context.Context, userID, id string) error
	GetPreferences(ctx context.Context, userID string) (*domain.NotificationPreferences, error)
	UpsertPreferences(ctx context.Context, prefs *domain.NotificationPreferences) error
}

type notificationRepository struct {
	pool *pgxpool.Pool
}

// NewNotificationRepository builds repository.
func NewNotificationRepository(pool *pgxpool.Pool) NotificationRepository {
	return &notificationRepository{pool: pool}
}

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	const query = `
        INSERT INTO notifications (user_id, type, title, body, ticket_id)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		n.UserID,
		n.Type,
		n.Title,
		n.Body,
		n.TicketID,
	).Scan(&n.ID, &n.CreatedAt)
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
        SELECT id, user_id, type, title, body, ticket_id, is_read, created_at
        FROM notifications WHERE user_id=$1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(
			&n.ID,
			&n.UserID,
			&n.Type,
			&n.Title,
			&n.Body,
			&n.TicketID,
			&n.IsRead,
			&n.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, n)
	}
	return result, rows.Err()
}

func (r *notificationRepository) UnreadCount(ctx context.Context, userID string) (int, error) {
	const query = `SELECT COUNT(*) FROM notifications WHERE user_id=$1 AND NOT is_read`
	var count int
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// MarkRead is idempotent: marking an already-read notification succeeds.
func (r *notificationRepository) MarkRead(ctx context.Context, userID, id string) error {
	const query = `UPDATE notifications SET is_read=true WHERE id=$1 AND user_id=$2`
	cmd, err := r.pool.Exec(ctx, query, id, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID string) error {
	const query = `UPDATE notifications SET is_read=true WHERE user_id=$1 AND NOT is_read`
	_, err := r.pool.Exec(ctx, query, userID)
	return err
}

func (r *notificationRepository) Delete(ctx context.Context, userID, id string) error {
	const query = `DELETE FROM notifications WHERE id=$1 AND user_id=$2`
	cmd, err := r.pool.Exec(ctx, query, id, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// GetPreferences returns nil when the user has never toggled anything;
// callers fall back to DefaultPreferences.
func (r *notificationRepository) GetPreferences(ctx context.Context, userID string) (*domain.NotificationPreferences, error) {
	const query = `
        SELECT user_id, assigned_inapp, assigned_email, status_changed_inapp, status_changed_email,
               reply_inapp, reply_email, updated_at
        FROM notification_preferences WHERE user_id=$1`
	var prefs domain.NotificationPreferences
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&prefs.UserID,
		&prefs.AssignedInApp,
		&prefs.AssignedEmail,
		&prefs.StatusChangedInApp,
		&prefs.StatusChangedEmail,
		&prefs.ReplyInApp,
		&prefs.ReplyEmail,
		&prefs.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &prefs, nil
}

func (r *notificationRepository) UpsertPreferences(ctx context.Context, prefs *domain.NotificationPreferences) error {
	const query = `
        INSERT INTO notification_preferences
            (user_id, assigned_inapp, assigned_email, status_changed_inapp, status_changed_email, reply_inapp, reply_email, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,NOW())
        ON CONFLICT (user_id) DO UPDATE SET
            assigned_inapp=EXCLUDED.assigned_inapp,
            assigned_email=EXCLUDED.assigned_email,
            status_changed_inapp=EXCLUDED.status_changed_inapp,
            status_changed_email=EXCLUDED.status_changed_email,
            reply_inapp=EXCLUDED.reply_inapp,
            reply_email=EXCLUDED.reply_email,
            updated_at=NOW()
        RETURNING updated_at`
	return r.pool.QueryRow(ctx, query,
		prefs.UserID,
		prefs.AssignedInApp,
		prefs.AssignedEmail,
		prefs.StatusChangedInApp,
		prefs.StatusChangedEmail,
		prefs.ReplyInApp,
		prefs.ReplyEmail,
	).Scan(&prefs.UpdatedAt)
}
