package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/opsdeck/support-portal/internal/auth"
	"github.com/opsdeck/support-portal/internal/domain"
	"github.com/opsdeck/support-portal/internal/repository"
	"github.com/opsdeck/support-portal/pkg/util"
)

const minPasswordLength = 12

// IdentityService manages accounts and role assignments. Role changes
// take effect on the next request because the auth middleware resolves
// roles from storage rather than trusting token claims.
type IdentityService struct {
	users      repository.UserRepository
	roles      repository.RoleRepository
	orgs       repository.OrganizationRepository
	bcryptCost int
}

// IdentityDependencies bundles repositories for the identity service.
type IdentityDependencies struct {
	UserRepo   repository.UserRepository
	RoleRepo   repository.RoleRepository
	OrgRepo    repository.OrganizationRepository
	BcryptCost int
}

// NewIdentityService constructs the service.
func NewIdentityService(deps IdentityDependencies) *IdentityService {
	return &IdentityService{
		users:      deps.UserRepo,
		roles:      deps.RoleRepo,
		orgs:       deps.OrgRepo,
		bcryptCost: deps.BcryptCost,
	}
}

// UserCreateInput describes an account creation payload.
type UserCreateInput struct {
	Name  string
	Email string
}

// CreateUser registers an account with no roles. The account stays in
// the access-pending state until an admin assigns a role.
func (s *IdentityService) CreateUser(ctx context.Context, input UserCreateInput) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, util.NewValidationError("email is required", nil)
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, util.NewValidationError("name is required", nil)
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, util.MapError(err)
	}
	if existing != nil {
		return nil, util.NewConflict("email already registered", map[string]any{"email": email})
	}

	user := &domain.User{Name: name, Email: email, IsActive: true}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, util.MapError(err)
	}
	return user, nil
}

// GetUser fetches an account with its resolved roles.
func (s *IdentityService) GetUser(ctx context.Context, userID string) (*domain.User, domain.RoleSet, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, util.MapError(err)
	}
	roles, err := s.roles.GetRoles(ctx, user.ID)
	if err != nil {
		return nil, nil, util.MapError(err)
	}
	return user, roles, nil
}

// AssignRole grants a role to a user. Assigning the client role requires
// an organization; the membership is created in the same call so a client
// can never exist without a tenant binding.
func (s *IdentityService) AssignRole(ctx context.Context, userID string, role domain.Role, orgID *string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return util.MapError(err)
	}

	if role == domain.RoleClient {
		if orgID == nil {
			return util.NewValidationError("client role requires an organization", nil)
		}
		if _, err := s.orgs.GetByID(ctx, *orgID); err != nil {
			return util.MapError(err)
		}
		existing, err := s.orgs.GetMembershipByUser(ctx, user.ID)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return util.MapError(err)
		}
		if existing != nil && existing.OrganizationID != *orgID {
			return util.NewConflict("user already belongs to another organization", nil)
		}
		if existing == nil {
			member := &domain.OrganizationMember{OrganizationID: *orgID, UserID: user.ID}
			if err := s.orgs.AddMember(ctx, member); err != nil {
				return util.MapError(err)
			}
		}
	}

	if err := s.roles.Assign(ctx, user.ID, role); err != nil {
		return util.MapError(err)
	}
	return nil
}

// RevokeRole removes a role. Revoking the client role also removes the
// organization membership.
func (s *IdentityService) RevokeRole(ctx context.Context, userID string, role domain.Role) error {
	if err := s.roles.Revoke(ctx, userID, role); err != nil {
		return util.MapError(err)
	}
	if role == domain.RoleClient {
		membership, err := s.orgs.GetMembershipByUser(ctx, userID)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return util.MapError(err)
		}
		if membership != nil {
			if err := s.orgs.RemoveMember(ctx, membership.OrganizationID, userID); err != nil {
				return util.MapError(err)
			}
		}
	}
	return nil
}

// ListStaff returns users the assignee picker may offer. Limited to the
// roles Assign accepts so the picker never shows a user the write would
// then reject.
func (s *IdentityService) ListStaff(ctx context.Context) ([]domain.User, error) {
	users, err := s.roles.ListUsersWithRoles(ctx, domain.AssignableRoles...)
	if err != nil {
		return nil, util.MapError(err)
	}
	return users, nil
}

// SetPassword provisions or rotates a staff credential. Clients sign in
// with magic links; an admin grants a password only to accounts that
// need the staff login.
func (s *IdentityService) SetPassword(ctx context.Context, userID, password string) error {
	if len(password) < minPasswordLength {
		return util.NewValidationError("password must be at least 12 characters", nil)
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return util.MapError(err)
	}
	if !user.IsActive {
		return util.NewValidationError("account is disabled", nil)
	}

	hashed, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return util.NewInternalError(err)
	}
	user.PasswordHash = &hashed
	if err := s.users.Update(ctx, user); err != nil {
		return util.MapError(err)
	}
	return nil
}

// DeactivateUser disables sign-in without destroying history.
func (s *IdentityService) DeactivateUser(ctx context.Context, userID string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return util.MapError(err)
	}
	user.IsActive = false
	if err := s.users.Update(ctx, user); err != nil {
		return util.MapError(err)
	}
	return nil
}
