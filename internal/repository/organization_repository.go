package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/opsdeck/support-portal/internal/domain"
)

// OrganizationRepository encapsulates tenant persistence. Organizations
// are never hard-deleted.
type OrganizationRepository interface {
	Create(ctx context.Context, org *domain.Organization) error
	Update(ctx context.Context, org *domain.Organization) error
	GetByID(ctx context.Context, id string) (*domain.Organization, error)
	List(ctx context.Context, limit, offset int) ([]domain.Organization, error)
	AddMember(ctx context.Context, member *domain.OrganizationMember) error
	RemoveMember(ctx context.Context, orgID, userID string) error
	ListMembers(ctx context.Context, orgID string) ([]domain.OrganizationMember, error)
	GetMembershipByUser(ctx context.Context, userID string) (*domain.OrganizationMember, error)
}

type organizationRepository struct {
	pool *pgxpool.Pool
}

// NewOrganizationRepository returns a Postgres-backed implementation.
func NewOrganizationRepository(pool *pgxpool.Pool) OrganizationRepository {
	return &organizationRepository{pool: pool}
}

func (r *organizationRepository) Create(ctx context.Context, org *domain.Organization) error {
	const query = `
        INSERT INTO organizations (name, website, billing_email, account_status, payment_overdue_since)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		org.Name,
		org.Website,
		org.BillingEmail,
		org.AccountStatus,
		org.PaymentOverdueSince,
	).Scan(&org.ID, &org.CreatedAt, &org.UpdatedAt)
}

func (r *organizationRepository) Update(ctx context.Context, org *domain.Organization) error {
	const query = `
        UPDATE organizations SET name=$1, website=$2, billing_email=$3,
            account_status=$4, payment_overdue_since=$5, updated_at=NOW()
        WHERE id=$6`
	cmd, err := r.pool.Exec(ctx, query,
		org.Name,
		org.Website,
		org.BillingEmail,
		org.AccountStatus,
		org.PaymentOverdueSince,
		org.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *organizationRepository) GetByID(ctx context.Context, id string) (*domain.Organization, error) {
	const query = `
        SELECT id, name, website, billing_email, account_status, payment_overdue_since, created_at, updated_at
        FROM organizations WHERE id=$1`
	var org domain.Organization
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&org.ID,
		&org.Name,
		&org.Website,
		&org.BillingEmail,
		&org.AccountStatus,
		&org.PaymentOverdueSince,
		&org.CreatedAt,
		&org.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &org, nil
}

func (r *organizationRepository) List(ctx context.Context, limit, offset int) ([]domain.Organization, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
        SELECT id, name, website, billing_email, account_status, payment_overdue_since, created_at, updated_at
        FROM organizations ORDER BY name LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Organization
	for rows.Next() {
		var org domain.Organization
		if err := rows.Scan(
			&org.ID,
			&org.Name,
			&org.Website,
			&org.BillingEmail,
			&org.AccountStatus,
			&org.PaymentOverdueSince,
			&org.CreatedAt,
			&org.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, org)
	}
	return result, rows.Err()
}

func (r *organizationRepository) AddMember(ctx context.Context, member *domain.OrganizationMember) error {
	const query = `
        INSERT INTO organization_members (organization_id, user_id, is_primary_contact)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		member.OrganizationID,
		member.UserID,
		member.IsPrimaryContact,
	).Scan(&member.ID, &member.CreatedAt)
}

func (r *organizationRepository) RemoveMember(ctx context.Context, orgID, userID string) error {
	const query = `DELETE FROM organization_members WHERE organization_id=$1 AND user_id=$2`
	cmd, err := r.pool.Exec(ctx, query, orgID, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *organizationRepository) ListMembers(ctx context.Context, orgID string) ([]domain.OrganizationMember, error) {
	const query = `
        SELECT id, organization_id, user_id, is_primary_contact, created_at
        FROM organization_members WHERE organization_id=$1 ORDER BY created_at`
	rows, err := r.pool.Query(ctx, query, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.OrganizationMember
	for rows.Next() {
		var member domain.OrganizationMember
		if err := rows.Scan(
			&member.ID,
			&member.OrganizationID,
			&member.UserID,
			&member.IsPrimaryContact,
			&member.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, member)
	}
	return result, rows.Err()
}

func (r *organizationRepository) GetMembershipByUser(ctx context.Context, userID string) (*domain.OrganizationMember, error) {
	const query = `
        SELECT id, organization_id, user_id, is_primary_contact, created_at
        FROM organization_members WHERE user_id=$1`
	var member domain.OrganizationMember
	if err := r.pool.QueryRow(ctx, query, userID).Scan(
		&member.ID,
		&member.OrganizationID,
		&member.UserID,
		&member.IsPrimaryContact,
		&member.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &member, nil
}
