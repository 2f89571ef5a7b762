package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// MagicLinkToken is a single-use sign-in token row.
type MagicLinkToken struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}

// MagicLinkRepository persists sign-in link tokens.
type MagicLinkRepository interface {
	Create(ctx context.Context, token *MagicLinkToken) error
	GetByToken(ctx context.Context, token string) (*MagicLinkToken, error)
	MarkUsed(ctx context.Context, id string) error
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type magicLinkRepository struct {
	pool *pgxpool.Pool
}

// NewMagicLinkRepository builds repository.
func NewMagicLinkRepository(pool *pgxpool.Pool) MagicLinkRepository {
	return &magicLinkRepository{pool: pool}
}

func (r *magicLinkRepository) Create(ctx context.Context, token *MagicLinkToken) error {
	const query = `
        INSERT INTO magic_link_tokens (user_id, token, expires_at)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		token.UserID,
		token.Token,
		token.ExpiresAt,
	).Scan(&token.ID, &token.CreatedAt)
}

func (r *magicLinkRepository) GetByToken(ctx context.Context, token string) (*MagicLinkToken, error) {
	const query = `
        SELECT id, user_id, token, expires_at, used_at, created_at
        FROM magic_link_tokens WHERE token=$1`
	var row MagicLinkToken
	if err := r.pool.QueryRow(ctx, query, token).Scan(
		&row.ID,
		&row.UserID,
		&row.Token,
		&row.ExpiresAt,
		&row.UsedAt,
		&row.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *magicLinkRepository) MarkUsed(ctx context.Context, id string) error {
	const query = `UPDATE magic_link_tokens SET used_at=NOW() WHERE id=$1 AND used_at IS NULL`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}

func (r *magicLinkRepository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `DELETE FROM magic_link_tokens WHERE expires_at < $1`
	cmd, err := r.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
