package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/opsdeck/support-portal/internal/api/dto"
	"github.com/opsdeck/support-portal/internal/domain"
	"github.com/opsdeck/support-portal/internal/service"
	"github.com/opsdeck/support-portal/pkg/util"
)

// OrgsHandler serves the admin organization and role surface.
type OrgsHandler struct {
	orgs     *service.OrganizationService
	identity *service.IdentityService
}

// NewOrgsHandler constructs handler.
func NewOrgsHandler(orgs *service.OrganizationService, identity *service.IdentityService) *OrgsHandler {
	return &OrgsHandler{orgs: orgs, identity: identity}
}

// Create POST /orgs.
func (h *OrgsHandler) Create(c *fiber.Ctx) error {
	var req dto.OrganizationRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	org, err := h.orgs.Create(c.UserContext(), service.OrganizationInput{
		Name:          req.Name,
		Website:       req.Website,
		BillingEmail:  req.BillingEmail,
		AccountStatus: req.AccountStatus,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": orgResponse(*org)})
}

// Update PATCH /orgs/:id.
func (h *OrgsHandler) Update(c *fiber.Ctx) error {
	var req dto.OrganizationRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	org, err := h.orgs.Update(c.UserContext(), c.Params("id"), service.OrganizationInput{
		Name:          req.Name,
		Website:       req.Website,
		BillingEmail:  req.BillingEmail,
		AccountStatus: req.AccountStatus,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": orgResponse(*org)})
}

// Get GET /orgs/:id.
func (h *OrgsHandler) Get(c *fiber.Ctx) error {
	org, err := h.orgs.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": orgResponse(*org)})
}

// List GET /orgs.
func (h *OrgsHandler) List(c *fiber.Ctx) error {
	orgs, err := h.orgs.List(c.UserContext(), c.QueryInt("limit", 50), c.QueryInt("offset", 0))
	if err != nil {
		return err
	}
	items := make([]dto.OrganizationResponse, 0, len(orgs))
	for _, o := range orgs {
		items = append(items, orgResponse(o))
	}
	return c.JSON(fiber.Map{"data": items})
}

// ListMembers GET /orgs/:id/members.
func (h *OrgsHandler) ListMembers(c *fiber.Ctx) error {
	members, err := h.orgs.ListMembers(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.MemberResponse, 0, len(members))
	for _, m := range members {
		items = append(items, dto.MemberResponse{
			UserID:           m.UserID,
			Name:             m.User.Name,
			Email:            m.User.Email,
			IsPrimaryContact: m.IsPrimaryContact,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// AssignRole POST /users/:id/roles.
func (h *OrgsHandler) AssignRole(c *fiber.Ctx) error {
	var req dto.AssignRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	role, ok := domain.ParseRole(req.Role)
	if !ok {
		return util.NewValidationError("invalid role", map[string]any{"role": req.Role})
	}
	if err := h.identity.AssignRole(c.UserContext(), c.Params("id"), role, req.OrganizationID); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": fiber.Map{"assigned": true}})
}

// RevokeRole DELETE /users/:id/roles/:role.
func (h *OrgsHandler) RevokeRole(c *fiber.Ctx) error {
	role, ok := domain.ParseRole(c.Params("role"))
	if !ok {
		return util.NewValidationError("invalid role", map[string]any{"role": c.Params("role")})
	}
	if err := h.identity.RevokeRole(c.UserContext(), c.Params("id"), role); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SetPassword PUT /users/:id/password.
func (h *OrgsHandler) SetPassword(c *fiber.Ctx) error {
	var req dto.SetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	if err := h.identity.SetPassword(c.UserContext(), c.Params("id"), req.Password); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"updated": true}})
}

// ListStaff GET /staff.
func (h *OrgsHandler) ListStaff(c *fiber.Ctx) error {
	users, err := h.identity.ListStaff(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.UserResponse, 0, len(users))
	for _, u := range users {
		items = append(items, dto.UserResponse{
			ID:        u.ID,
			Name:      u.Name,
			Email:     u.Email,
			IsActive:  u.IsActive,
			CreatedAt: u.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// DeactivateUser POST /users/:id/deactivate.
func (h *OrgsHandler) DeactivateUser(c *fiber.Ctx) error {
	if err := h.identity.DeactivateUser(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func orgResponse(o domain.Organization) dto.OrganizationResponse {
	return dto.OrganizationResponse{
		ID:                  o.ID,
		Name:                o.Name,
		Website:             o.Website,
		BillingEmail:        o.BillingEmail,
		AccountStatus:       string(o.AccountStatus),
		PaymentOverdueSince: o.PaymentOverdueSince,
		CreatedAt:           o.CreatedAt,
	}
}
