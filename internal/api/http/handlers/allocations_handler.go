package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/opsdeck/support-portal/internal/api/dto"
	"github.com/opsdeck/support-portal/internal/service"
	"github.com/opsdeck/support-portal/pkg/util"
)

// AllocationsHandler serves the retainer-hours ledger.
type AllocationsHandler struct {
	allocations *service.AllocationService
}

// NewAllocationsHandler constructs handler.
func NewAllocationsHandler(allocations *service.AllocationService) *AllocationsHandler {
	return &AllocationsHandler{allocations: allocations}
}

// Create POST /allocations.
func (h *AllocationsHandler) Create(c *fiber.Ctx) error {
	var req dto.AllocationCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	if req.OrganizationID == "" {
		return util.NewValidationError("organization_id required", nil)
	}

	periodStart, err := time.Parse("2006-01-02", req.PeriodStart)
	if err != nil {
		return util.NewValidationError("invalid period_start, want YYYY-MM-DD", nil)
	}
	periodEnd, err := time.Parse("2006-01-02", req.PeriodEnd)
	if err != nil {
		return util.NewValidationError("invalid period_end, want YYYY-MM-DD", nil)
	}
	totalHours, err := decimal.NewFromString(req.TotalHours)
	if err != nil {
		return util.NewValidationError("invalid total_hours", map[string]any{"total_hours": req.TotalHours})
	}
	var rate *decimal.Decimal
	if req.AgreedHourlyRate != nil {
		parsed, err := decimal.NewFromString(*req.AgreedHourlyRate)
		if err != nil {
			return util.NewValidationError("invalid agreed_hourly_rate", nil)
		}
		rate = &parsed
	}

	alloc, err := h.allocations.Create(c.UserContext(), service.AllocationCreateInput{
		OrganizationID:   req.OrganizationID,
		Title:            req.Title,
		PeriodStart:      periodStart,
		PeriodEnd:        periodEnd,
		TotalHours:       totalHours,
		AgreedHourlyRate: rate,
	})
	if err != nil {
		return err
	}
	view := service.AllocationView{
		HourAllocation: *alloc,
		RemainingHours: alloc.RemainingHours(),
		UsagePercent:   alloc.UsagePercent(),
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": allocationResponse(view)})
}

// AdjustHours POST /orgs/:id/allocations/adjust.
func (h *AllocationsHandler) AdjustHours(c *fiber.Ctx) error {
	var req dto.AdjustHoursRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	delta, err := decimal.NewFromString(req.DeltaHours)
	if err != nil || delta.IsZero() {
		return util.NewValidationError("invalid delta_hours", map[string]any{"delta_hours": req.DeltaHours})
	}
	view, err := h.allocations.AdjustHours(c.UserContext(), c.Params("id"), delta)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": allocationResponse(*view)})
}

// ListForOrg GET /orgs/:id/allocations.
func (h *AllocationsHandler) ListForOrg(c *fiber.Ctx) error {
	orgID, err := viewableOrgID(c)
	if err != nil {
		return err
	}
	views, err := h.allocations.ListForOrg(c.UserContext(), orgID)
	if err != nil {
		return err
	}
	items := make([]dto.AllocationResponse, 0, len(views))
	for _, v := range views {
		items = append(items, allocationResponse(v))
	}
	return c.JSON(fiber.Map{"data": items})
}

// CurrentForOrg GET /orgs/:id/allocations/current.
func (h *AllocationsHandler) CurrentForOrg(c *fiber.Ctx) error {
	orgID, err := viewableOrgID(c)
	if err != nil {
		return err
	}
	view, err := h.allocations.CurrentForOrg(c.UserContext(), orgID)
	if err != nil {
		return err
	}
	if view == nil {
		return c.JSON(fiber.Map{"data": nil})
	}
	return c.JSON(fiber.Map{"data": allocationResponse(*view)})
}

// CurrentForClient GET /my/allocation resolves the caller's own org.
func (h *AllocationsHandler) CurrentForClient(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	if actor.OrgID == nil {
		return util.NewForbidden("no organization membership")
	}
	view, err := h.allocations.CurrentForOrg(c.UserContext(), *actor.OrgID)
	if err != nil {
		return err
	}
	if view == nil {
		return c.JSON(fiber.Map{"data": nil})
	}
	return c.JSON(fiber.Map{"data": allocationResponse(*view)})
}

// viewableOrgID resolves the :id path param against tenancy: staff may
// read any org's ledger, clients only their own.
func viewableOrgID(c *fiber.Ctx) (string, error) {
	actor, err := actorFrom(c)
	if err != nil {
		return "", err
	}
	orgID := c.Params("id")
	if !actor.IsStaff() {
		if actor.OrgID == nil || *actor.OrgID != orgID {
			return "", util.NewNotFound("organization", nil)
		}
	}
	return orgID, nil
}

func allocationResponse(v service.AllocationView) dto.AllocationResponse {
	return dto.AllocationResponse{
		ID:             v.ID,
		OrganizationID: v.OrganizationID,
		Title:          v.Title,
		PeriodStart:    v.PeriodStart,
		PeriodEnd:      v.PeriodEnd,
		TotalHours:     v.TotalHours.String(),
		UsedHours:      v.UsedHours.String(),
		RemainingHours: v.RemainingHours.String(),
		UsagePercent:   v.UsagePercent,
		NearLimit:      v.NearLimit,
	}
}
