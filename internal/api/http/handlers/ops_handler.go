package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/opsdeck/support-portal/internal/api/dto"
	"github.com/opsdeck/support-portal/internal/service"
	"github.com/opsdeck/support-portal/pkg/util"
)

// OpsHandler serves the ops dashboards.
type OpsHandler struct {
	ops *service.OpsService
}

// NewOpsHandler constructs handler.
func NewOpsHandler(ops *service.OpsService) *OpsHandler {
	return &OpsHandler{ops: ops}
}

// OrgHealth GET /ops/org-health.
func (h *OpsHandler) OrgHealth(c *fiber.Ctx) error {
	rows, err := h.ops.OrgHealthOverview(c.UserContext(), c.QueryInt("limit", 50), c.QueryInt("offset", 0))
	if err != nil {
		return err
	}
	items := make([]dto.OrgHealthResponse, 0, len(rows))
	for _, row := range rows {
		item := dto.OrgHealthResponse{
			Organization:   orgResponse(row.Organization),
			OpenTickets:    row.OpenTickets,
			BreachedSLA:    row.BreachedSLA,
			ChurnRisk:      string(row.ChurnRisk),
			ChurnSignals:   row.ChurnSignals,
			MonthlyRevenue: row.MonthlyRevenue.String(),
		}
		if row.Allocation != nil {
			alloc := allocationResponse(*row.Allocation)
			item.Allocation = &alloc
		}
		items = append(items, item)
	}
	return c.JSON(fiber.Map{"data": items})
}

// RevenueProjection GET /ops/revenue-projection.
func (h *OpsHandler) RevenueProjection(c *fiber.Ctx) error {
	total, err := h.ops.RevenueProjection(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.RevenueProjectionResponse{ProjectedRevenue: total.String()}})
}

// HoursUsed GET /ops/orgs/:id/hours-used?from=YYYY-MM-DD&to=YYYY-MM-DD.
func (h *OpsHandler) HoursUsed(c *fiber.Ctx) error {
	from, err := time.Parse("2006-01-02", c.Query("from"))
	if err != nil {
		return util.NewValidationError("invalid from, want YYYY-MM-DD", nil)
	}
	to, err := time.Parse("2006-01-02", c.Query("to"))
	if err != nil {
		return util.NewValidationError("invalid to, want YYYY-MM-DD", nil)
	}
	total, err := h.ops.HoursUsed(c.UserContext(), c.Params("id"), from, to)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.HoursUsedResponse{
		OrganizationID: c.Params("id"),
		From:           from,
		To:             to,
		TotalHours:     total.String(),
	}})
}

// GetSubscription GET /ops/orgs/:id/subscription.
func (h *OpsHandler) GetSubscription(c *fiber.Ctx) error {
	sub, err := h.ops.GetSubscription(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": sub})
}

// ListInvoices GET /ops/orgs/:id/invoices.
func (h *OpsHandler) ListInvoices(c *fiber.Ctx) error {
	invoices, err := h.ops.ListInvoices(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": invoices})
}
