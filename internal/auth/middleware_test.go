package auth

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsdeck/support-portal/internal/domain"
	"github.com/opsdeck/support-portal/pkg/util"
)

// newGuardApp mounts a guarded route with a pre-resolved principal, the
// way routes sit behind Authenticate in the real router.
func newGuardApp(roles domain.RoleSet, guard fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			domainErr := util.ToDomainError(err)
			return c.Status(domainErr.HTTPStatus).JSON(fiber.Map{"error": domainErr.Code})
		},
	})
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(principalKey, &Principal{
			User:  &domain.User{ID: "u1", IsActive: true},
			Roles: roles,
		})
		return c.Next()
	})
	app.Get("/guarded", guard, func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func guardStatus(t *testing.T, roles domain.RoleSet, guard fiber.Handler) int {
	t.Helper()
	app := newGuardApp(roles, guard)
	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/guarded", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	return resp.StatusCode
}

func TestRequireCapability(t *testing.T) {
	ops := domain.RoleSet{domain.RoleOps}
	client := domain.RoleSet{domain.RoleClient}

	t.Run("denies roles outside the capability", func(t *testing.T) {
		assert.Equal(t, fiber.StatusForbidden, guardStatus(t, ops, RequireCapability(ActionTicketCreate)))
	})

	t.Run("admits roles inside the capability", func(t *testing.T) {
		assert.Equal(t, fiber.StatusOK, guardStatus(t, client, RequireCapability(ActionTicketCreate)))
	})

	t.Run("zero-role principals get the pending envelope", func(t *testing.T) {
		assert.Equal(t, fiber.StatusForbidden, guardStatus(t, domain.RoleSet{}, RequireCapability(ActionTicketCreate)))
	})
}

func TestRequireAnyCapability(t *testing.T) {
	ticketView := RequireAnyCapability(ActionTicketViewOwnOrg, ActionTicketViewAll)

	t.Run("ops reads the ticket queue", func(t *testing.T) {
		ops := domain.RoleSet{domain.RoleOps}
		assert.Equal(t, fiber.StatusOK, guardStatus(t, ops, ticketView))
		// The read capability does not grant the write one.
		assert.Equal(t, fiber.StatusForbidden, guardStatus(t, ops, RequireCapability(ActionTicketCreate)))
	})

	t.Run("clients read through the org-scoped capability", func(t *testing.T) {
		client := domain.RoleSet{domain.RoleClient}
		assert.Equal(t, fiber.StatusOK, guardStatus(t, client, ticketView))
	})

	t.Run("no matching capability denies", func(t *testing.T) {
		ops := domain.RoleSet{domain.RoleOps}
		assert.Equal(t, fiber.StatusForbidden, guardStatus(t, ops, RequireAnyCapability(ActionKBManage, ActionTicketTriage)))
	})
}
