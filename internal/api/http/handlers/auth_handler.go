package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/opsdeck/support-portal/internal/api/dto"
	"github.com/opsdeck/support-portal/internal/auth"
	"github.com/opsdeck/support-portal/internal/service"
	"github.com/opsdeck/support-portal/pkg/util"
)

// AuthHandler serves sign-up and both sign-in flows.
type AuthHandler struct {
	authService     *service.AuthService
	identityService *service.IdentityService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, identityService *service.IdentityService) *AuthHandler {
	return &AuthHandler{authService: authService, identityService: identityService}
}

// Register POST /auth/register. The account lands in the access-pending
// state until an admin assigns a role.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	user, err := h.identityService.CreateUser(c.UserContext(), service.UserCreateInput{
		Name:  req.Name,
		Email: req.Email,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.UserResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		IsActive:  user.IsActive,
		CreatedAt: user.CreatedAt,
	}})
}

// StaffLogin POST /auth/staff/login.
func (h *AuthHandler) StaffLogin(c *fiber.Ctx) error {
	var req dto.StaffLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return util.NewValidationError("email and password required", nil)
	}
	session, err := h.authService.LoginWithPassword(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": sessionResponse(session)})
}

// RequestMagicLink POST /auth/magic-link.
func (h *AuthHandler) RequestMagicLink(c *fiber.Ctx) error {
	var req dto.MagicLinkRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	if err := h.authService.RequestMagicLink(c.UserContext(), req.Email); err != nil {
		return err
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"data": fiber.Map{"sent": true}})
}

// VerifyMagicLink POST /auth/magic-link/verify.
func (h *AuthHandler) VerifyMagicLink(c *fiber.Ctx) error {
	var req dto.MagicLinkVerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	if req.Token == "" {
		return util.NewValidationError("token required", nil)
	}
	session, err := h.authService.VerifyMagicLink(c.UserContext(), req.Token)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": sessionResponse(session)})
}

// Me GET /auth/me returns the resolved principal.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	principal, err := auth.PrincipalFromContext(c)
	if err != nil {
		return err
	}
	resp := dto.UserResponse{
		ID:        principal.User.ID,
		Name:      principal.User.Name,
		Email:     principal.User.Email,
		Roles:     principal.Roles.Strings(),
		IsActive:  principal.User.IsActive,
		CreatedAt: principal.User.CreatedAt,
	}
	return c.JSON(fiber.Map{"data": resp, "access_pending": principal.Roles.IsPending()})
}

func sessionResponse(session *service.Session) dto.SessionResponse {
	return dto.SessionResponse{
		Token:          session.Token,
		ExpiresAt:      session.ExpiresAt,
		UserID:         session.User.ID,
		Name:           session.User.Name,
		Email:          session.User.Email,
		Roles:          session.Roles.Strings(),
		OrganizationID: session.OrgID,
	}
}
