package service

import (
	"context"
	"strings"
	"time"

	"github.com/opsdeck/support-portal/internal/domain"
	"github.com/opsdeck/support-portal/internal/repository"
	"github.com/opsdeck/support-portal/pkg/util"
)

// OrganizationService manages client tenants and their memberships.
type OrganizationService struct {
	orgs  repository.OrganizationRepository
	users repository.UserRepository
}

// NewOrganizationService constructs the service.
func NewOrganizationService(orgs repository.OrganizationRepository, users repository.UserRepository) *OrganizationService {
	return &OrganizationService{orgs: orgs, users: users}
}

// OrganizationInput describes a create/update payload.
type OrganizationInput struct {
	Name          string
	Website       string
	BillingEmail  string
	AccountStatus string
}

// Create registers a new client organization.
func (s *OrganizationService) Create(ctx context.Context, input OrganizationInput) (*domain.Organization, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, util.NewValidationError("name is required", nil)
	}
	status := domain.AccountStatusActive
	if input.AccountStatus != "" {
		parsed, ok := domain.ParseAccountStatus(input.AccountStatus)
		if !ok {
			return nil, util.NewValidationError("invalid account status", map[string]any{"account_status": input.AccountStatus})
		}
		status = parsed
	}

	org := &domain.Organization{
		Name:          name,
		Website:       strings.TrimSpace(input.Website),
		BillingEmail:  strings.TrimSpace(input.BillingEmail),
		AccountStatus: status,
	}
	if err := s.orgs.Create(ctx, org); err != nil {
		return nil, util.MapError(err)
	}
	return org, nil
}

// Update edits tenant fields. Moving into overdue stamps the overdue
// marker; leaving it clears the marker.
func (s *OrganizationService) Update(ctx context.Context, orgID string, input OrganizationInput) (*domain.Organization, error) {
	org, err := s.orgs.GetByID(ctx, orgID)
	if err != nil {
		return nil, util.MapError(err)
	}

	if name := strings.TrimSpace(input.Name); name != "" {
		org.Name = name
	}
	org.Website = strings.TrimSpace(input.Website)
	if email := strings.TrimSpace(input.BillingEmail); email != "" {
		org.BillingEmail = email
	}
	if input.AccountStatus != "" {
		status, ok := domain.ParseAccountStatus(input.AccountStatus)
		if !ok {
			return nil, util.NewValidationError("invalid account status", map[string]any{"account_status": input.AccountStatus})
		}
		if status == domain.AccountStatusOverdue && org.AccountStatus != domain.AccountStatusOverdue {
			now := time.Now()
			org.PaymentOverdueSince = &now
		}
		if status != domain.AccountStatusOverdue {
			org.PaymentOverdueSince = nil
		}
		org.AccountStatus = status
	}

	if err := s.orgs.Update(ctx, org); err != nil {
		return nil, util.MapError(err)
	}
	return org, nil
}

// Get fetches one organization.
func (s *OrganizationService) Get(ctx context.Context, orgID string) (*domain.Organization, error) {
	org, err := s.orgs.GetByID(ctx, orgID)
	if err != nil {
		return nil, util.MapError(err)
	}
	return org, nil
}

// List pages through organizations.
func (s *OrganizationService) List(ctx context.Context, limit, offset int) ([]domain.Organization, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	orgs, err := s.orgs.List(ctx, limit, offset)
	if err != nil {
		return nil, util.MapError(err)
	}
	return orgs, nil
}

// Member is a membership row joined with its account.
type Member struct {
	domain.OrganizationMember
	User domain.User
}

// ListMembers returns memberships with account details attached.
func (s *OrganizationService) ListMembers(ctx context.Context, orgID string) ([]Member, error) {
	memberships, err := s.orgs.ListMembers(ctx, orgID)
	if err != nil {
		return nil, util.MapError(err)
	}
	if len(memberships) == 0 {
		return []Member{}, nil
	}

	ids := make([]string, 0, len(memberships))
	for _, m := range memberships {
		ids = append(ids, m.UserID)
	}
	users, err := s.users.ListByIDs(ctx, ids)
	if err != nil {
		return nil, util.MapError(err)
	}
	byID := make(map[string]domain.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	out := make([]Member, 0, len(memberships))
	for _, m := range memberships {
		out = append(out, Member{OrganizationMember: m, User: byID[m.UserID]})
	}
	return out, nil
}
