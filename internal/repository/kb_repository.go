package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/opsdeck/support-portal/internal/domain"
)

// KBFilter narrows article listings.
type KBFilter struct {
	PublishedOnly bool
	CategoryID    *string
	FeaturedOnly  bool
	Limit         int
	Offset        int
}

// KBRepository stores knowledge-base categories and articles.
type KBRepository interface {
	ListCategories(ctx context.Context) ([]domain.KBCategory, error)
	CreateCategory(ctx context.Context, cat *domain.KBCategory) error
	CreateArticle(ctx context.Context, art *domain.KBArticle) error
	UpdateArticle(ctx context.Context, art *domain.KBArticle) error
	GetArticle(ctx context.Context, id string) (*domain.KBArticle, error)
	ListArticles(ctx context.Context, filter KBFilter) ([]domain.KBArticle, error)
	SetPublished(ctx context.Context, id string, published bool) error
	DeleteArticle(ctx context.Context, id string) error
	FindByTitleTokens(ctx context.Context, tokens []string, limit int) ([]domain.KBArticle, error)
}

type kbRepository struct {
	pool *pgxpool.Pool
}

// NewKBRepository builds repository.
func NewKBRepository(pool *pgxpool.Pool) KBRepository {
	return &kbRepository{pool: pool}
}

const articleColumns = `id, category_id, title, excerpt, content, is_published, is_featured, created_at, updated_at`

func (r *kbRepository) ListCategories(ctx context.Context) ([]domain.KBCategory, error) {
	const query = `SELECT id, name, created_at FROM kb_categories ORDER BY name`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.KBCategory
	for rows.Next() {
		var cat domain.KBCategory
		if err := rows.Scan(&cat.ID, &cat.Name, &cat.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, cat)
	}
	return result, rows.Err()
}

func (r *kbRepository) CreateCategory(ctx context.Context, cat *domain.KBCategory) error {
	const query = `INSERT INTO kb_categories (name) VALUES ($1) RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query, cat.Name).Scan(&cat.ID, &cat.CreatedAt)
}

func (r *kbRepository) CreateArticle(ctx context.Context, art *domain.KBArticle) error {
	const query = `
        INSERT INTO kb_articles (category_id, title, excerpt, content, is_published, is_featured)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		art.CategoryID,
		art.Title,
		art.Excerpt,
		art.Content,
		art.IsPublished,
		art.IsFeatured,
	).Scan(&art.ID, &art.CreatedAt, &art.UpdatedAt)
}

func (r *kbRepository) UpdateArticle(ctx context.Context, art *domain.KBArticle) error {
	const query = `
        UPDATE kb_articles SET category_id=$1, title=$2, excerpt=$3, content=$4,
            is_published=$5, is_featured=$6, updated_at=NOW()
        WHERE id=$7`
	cmd, err := r.pool.Exec(ctx, query,
		art.CategoryID,
		art.Title,
		art.Excerpt,
		art.Content,
		art.IsPublished,
		art.IsFeatured,
		art.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *kbRepository) GetArticle(ctx context.Context, id string) (*domain.KBArticle, error) {
	query := `SELECT ` + articleColumns + ` FROM kb_articles WHERE id=$1`
	var art domain.KBArticle
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&art.ID,
		&art.CategoryID,
		&art.Title,
		&art.Excerpt,
		&art.Content,
		&art.IsPublished,
		&art.IsFeatured,
		&art.CreatedAt,
		&art.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &art, nil
}

func (r *kbRepository) ListArticles(ctx context.Context, filter KBFilter) ([]domain.KBArticle, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.PublishedOnly {
		clauses = append(clauses, "is_published")
	}
	if filter.FeaturedOnly {
		clauses = append(clauses, "is_featured")
	}
	if filter.CategoryID != nil {
		args = append(args, *filter.CategoryID)
		clauses = append(clauses, fmt.Sprintf("category_id=$%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM kb_articles WHERE %s ORDER BY updated_at DESC LIMIT %d OFFSET %d`,
		articleColumns, strings.Join(clauses, " AND "), limit, offset)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanArticles(rows)
}

func (r *kbRepository) SetPublished(ctx context.Context, id string, published bool) error {
	const query = `UPDATE kb_articles SET is_published=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, published, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *kbRepository) DeleteArticle(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM kb_articles WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// FindByTitleTokens runs the OR-joined substring search behind the
// duplicate-detection heuristic.
func (r *kbRepository) FindByTitleTokens(ctx context.Context, tokens []string, limit int) ([]domain.KBArticle, error) {
	if len(tokens) == 0 {
		return []domain.KBArticle{}, nil
	}
	if limit <= 0 {
		limit = 5
	}
	clauses := make([]string, 0, len(tokens))
	args := make([]any, 0, len(tokens))
	for _, token := range tokens {
		args = append(args, "%"+strings.ToLower(token)+"%")
		clauses = append(clauses, fmt.Sprintf("LOWER(title) LIKE $%d", len(args)))
	}
	query := fmt.Sprintf(`SELECT %s FROM kb_articles WHERE %s ORDER BY updated_at DESC LIMIT %d`,
		articleColumns, strings.Join(clauses, " OR "), limit)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanArticles(rows)
}

func scanArticles(rows pgx.Rows) ([]domain.KBArticle, error) {
	var result []domain.KBArticle
	for rows.Next() {
		var art domain.KBArticle
		if err := rows.Scan(
			&art.ID,
			&art.CategoryID,
			&art.Title,
			&art.Excerpt,
			&art.Content,
			&art.IsPublished,
			&art.IsFeatured,
			&art.CreatedAt,
			&art.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, art)
	}
	return result, rows.Err()
}
