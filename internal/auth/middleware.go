package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/opsdeck/support-portal/internal/domain"
	"github.com/opsdeck/support-portal/internal/repository"
	"github.com/opsdeck/support-portal/pkg/util"
)

const principalKey = "principal"

// Principal is the fully resolved caller for a request. Roles and org
// membership come from the database, not the token, so revocations and
// reassignments apply immediately.
type Principal struct {
	User           *domain.User
	Roles          domain.RoleSet
	OrganizationID *string
}

// Middleware authenticates requests and loads the principal.
type Middleware struct {
	tokens *TokenManager
	users  repository.UserRepository
	roles  repository.RoleRepository
	orgs   repository.OrganizationRepository
}

// NewMiddleware builds the auth middleware.
func NewMiddleware(tokens *TokenManager, users repository.UserRepository, roles repository.RoleRepository, orgs repository.OrganizationRepository) *Middleware {
	return &Middleware{tokens: tokens, users: users, roles: roles, orgs: orgs}
}

// Authenticate validates the bearer token and attaches the resolved
// principal to the request context. A user with zero roles passes
// authentication; the access-pending state is enforced by RequireRoles
// so the pending screen and notification endpoints stay reachable.
func (m *Middleware) Authenticate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return util.NewUnauthorized("missing authorization header")
		}
		tokenStr := strings.TrimPrefix(header, "Bearer ")
		if tokenStr == header {
			return util.NewUnauthorized("malformed authorization header")
		}

		claims, err := m.tokens.ParseToken(tokenStr)
		if err != nil {
			return util.NewUnauthorized("invalid or expired token")
		}

		principal, err := m.Resolve(c.UserContext(), claims.Subject)
		if err != nil {
			return err
		}
		c.Locals(principalKey, principal)
		return c.Next()
	}
}

// Resolve loads a principal by user ID.
func (m *Middleware) Resolve(ctx context.Context, userID string) (*Principal, error) {
	user, err := m.users.GetByID(ctx, userID)
	if err != nil {
		return nil, util.NewUnauthorized("account not found")
	}
	if !user.IsActive {
		return nil, util.NewForbidden("account is disabled")
	}

	roles, err := m.roles.GetRoles(ctx, user.ID)
	if err != nil {
		return nil, util.MapError(err)
	}

	principal := &Principal{User: user, Roles: roles}
	if roles.Has(domain.RoleClient) {
		membership, err := m.orgs.GetMembershipByUser(ctx, user.ID)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, util.MapError(err)
		}
		if membership != nil {
			principal.OrganizationID = &membership.OrganizationID
		}
	}
	return principal, nil
}

// RequireRoles gates a route group to principals holding at least one of
// the given roles. Zero-role principals get the access-pending envelope.
func RequireRoles(roles ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, err := PrincipalFromContext(c)
		if err != nil {
			return err
		}
		if principal.Roles.IsPending() {
			return util.NewAccessPending()
		}
		if !principal.Roles.HasAny(roles...) {
			return util.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}

// RequireCapability gates a route on the capability table.
func RequireCapability(action Action) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, err := PrincipalFromContext(c)
		if err != nil {
			return err
		}
		if principal.Roles.IsPending() {
			return util.NewAccessPending()
		}
		if !Can(principal.Roles, action) {
			return util.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}

// RequireAnyCapability gates a route on holding at least one of the
// given capabilities. Read endpoints shared by clients and staff use
// this so a scoped view capability and a global one can both admit.
func RequireAnyCapability(actions ...Action) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, err := PrincipalFromContext(c)
		if err != nil {
			return err
		}
		if principal.Roles.IsPending() {
			return util.NewAccessPending()
		}
		for _, action := range actions {
			if Can(principal.Roles, action) {
				return c.Next()
			}
		}
		return util.NewForbidden("insufficient role")
	}
}

// PrincipalFromContext fetches the authenticated principal.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, error) {
	principal, ok := c.Locals(principalKey).(*Principal)
	if !ok || principal == nil {
		return nil, util.NewUnauthorized("not authenticated")
	}
	return principal, nil
}
