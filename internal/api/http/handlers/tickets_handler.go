package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/opsdeck/support-portal/internal/api/dto"
	"github.com/opsdeck/support-portal/internal/auth"
	"github.com/opsdeck/support-portal/internal/domain"
	"github.com/opsdeck/support-portal/internal/service"
	"github.com/opsdeck/support-portal/pkg/util"
)

// TicketsHandler serves both the client and staff ticket surfaces; the
// service layer decides what each role may see and do.
type TicketsHandler struct {
	tickets  *service.TicketService
	timeLogs *service.TimeLogService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(tickets *service.TicketService, timeLogs *service.TimeLogService) *TicketsHandler {
	return &TicketsHandler{tickets: tickets, timeLogs: timeLogs}
}

// actorFrom builds the service-layer caller identity.
func actorFrom(c *fiber.Ctx) (service.Actor, error) {
	principal, err := auth.PrincipalFromContext(c)
	if err != nil {
		return service.Actor{}, err
	}
	return service.Actor{
		UserID: principal.User.ID,
		Roles:  principal.Roles,
		OrgID:  principal.OrganizationID,
	}, nil
}

// Create POST /tickets.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.tickets.CreateTicket(c.UserContext(), actor, service.TicketCreateInput{
		OrganizationID: req.OrganizationID,
		Title:          req.Title,
		Description:    req.Description,
		Category:       req.Category,
		Priority:       req.Priority,
	})
	if err != nil {
		return err
	}
	view := service.TicketView{Ticket: *ticket, SLA: domain.ClassifySLA(ticket.SLADueAt, ticket.Status, time.Now())}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": ticketSummary(view)})
}

// List GET /tickets.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	input := service.TicketListInput{
		Limit:      c.QueryInt("limit", 50),
		Offset:     c.QueryInt("offset", 0),
		Unassigned: c.QueryBool("unassigned", false),
	}
	if v := c.Query("organization_id"); v != "" {
		input.OrganizationID = &v
	}
	if v := c.Query("assigned_to"); v != "" {
		input.AssignedTo = &v
	}
	if v := c.Query("category"); v != "" {
		input.Category = &v
	}
	if v := c.Query("q"); v != "" {
		input.SearchTerm = &v
	}
	if v := c.Query("status"); v != "" {
		input.Statuses = strings.Split(v, ",")
	}
	if v := c.Query("priority"); v != "" {
		input.Priorities = strings.Split(v, ",")
	}

	views, err := h.tickets.ListTickets(c.UserContext(), actor, input)
	if err != nil {
		return err
	}
	items := make([]dto.TicketSummary, 0, len(views))
	for _, v := range views {
		items = append(items, ticketSummary(v))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /tickets/:id.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	detail, err := h.tickets.GetTicket(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(detail)})
}

// UpdateStatus PATCH /tickets/:id/status.
func (h *TicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.tickets.UpdateStatus(c.UserContext(), actor, c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	view := service.TicketView{Ticket: *ticket, SLA: domain.ClassifySLA(ticket.SLADueAt, ticket.Status, time.Now())}
	return c.JSON(fiber.Map{"data": ticketSummary(view)})
}

// UpdatePriority PATCH /tickets/:id/priority.
func (h *TicketsHandler) UpdatePriority(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.UpdatePriorityRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.tickets.UpdatePriority(c.UserContext(), actor, c.Params("id"), req.Priority)
	if err != nil {
		return err
	}
	view := service.TicketView{Ticket: *ticket, SLA: domain.ClassifySLA(ticket.SLADueAt, ticket.Status, time.Now())}
	return c.JSON(fiber.Map{"data": ticketSummary(view)})
}

// Assign PATCH /tickets/:id/assignee.
func (h *TicketsHandler) Assign(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.tickets.Assign(c.UserContext(), actor, c.Params("id"), req.AssigneeUserID)
	if err != nil {
		return err
	}
	view := service.TicketView{Ticket: *ticket, SLA: domain.ClassifySLA(ticket.SLADueAt, ticket.Status, time.Now())}
	return c.JSON(fiber.Map{"data": ticketSummary(view)})
}

// BulkStatus POST /tickets/bulk/status.
func (h *TicketsHandler) BulkStatus(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.BulkStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	result, err := h.tickets.BulkUpdateStatus(c.UserContext(), actor, req.TicketIDs, req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.BulkResultResponse{Updated: result.Updated, Skipped: result.Skipped}})
}

// BulkAssign POST /tickets/bulk/assignee.
func (h *TicketsHandler) BulkAssign(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.BulkAssignRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	result, err := h.tickets.BulkAssign(c.UserContext(), actor, req.TicketIDs, req.AssigneeUserID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.BulkResultResponse{Updated: result.Updated, Skipped: result.Skipped}})
}

// AddMessage POST /tickets/:id/messages.
func (h *TicketsHandler) AddMessage(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.CreateMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	if req.IsInternal && !auth.Can(actor.Roles, auth.ActionTicketInternalNote) {
		return util.NewForbidden("internal notes require a triage role")
	}
	msg, err := h.tickets.AddMessage(c.UserContext(), actor, c.Params("id"), req.Body, req.IsInternal)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": messageResponse(*msg)})
}

// RegisterAttachment POST /tickets/:id/attachments.
func (h *TicketsHandler) RegisterAttachment(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.RegisterAttachmentRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	att, err := h.tickets.RegisterAttachment(c.UserContext(), actor, c.Params("id"), service.AttachmentInput{
		FileName:  req.FileName,
		MimeType:  req.MimeType,
		SizeBytes: req.SizeBytes,
	})
	if err != nil {
		return err
	}
	resp := attachmentResponse(*att)
	resp.UploadURL = h.tickets.UploadURL(*att)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": resp})
}

// ConfirmAttachment POST /tickets/attachments/:attachmentId/confirm.
func (h *TicketsHandler) ConfirmAttachment(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	if err := h.tickets.ConfirmAttachment(c.UserContext(), actor, c.Params("attachmentId")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"confirmed": true}})
}

// LogTime POST /tickets/:id/timelogs.
func (h *TicketsHandler) LogTime(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	input, err := parseTimeLogRequest(c)
	if err != nil {
		return err
	}
	log, err := h.timeLogs.LogTime(c.UserContext(), actor, c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": timeLogResponse(*log)})
}

// ListTimeLogs GET /tickets/:id/timelogs.
func (h *TicketsHandler) ListTimeLogs(c *fiber.Ctx) error {
	logs, total, err := h.timeLogs.ListForTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.TimeLogResponse, 0, len(logs))
	for _, l := range logs {
		items = append(items, timeLogResponse(l))
	}
	return c.JSON(fiber.Map{"data": items, "total_hours": total.String()})
}

// UpdateTimeLog PATCH /timelogs/:logId.
func (h *TicketsHandler) UpdateTimeLog(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	input, err := parseTimeLogRequest(c)
	if err != nil {
		return err
	}
	log, err := h.timeLogs.UpdateTimeLog(c.UserContext(), actor, c.Params("logId"), input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": timeLogResponse(*log)})
}

// DeleteTimeLog DELETE /timelogs/:logId.
func (h *TicketsHandler) DeleteTimeLog(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	if err := h.timeLogs.DeleteTimeLog(c.UserContext(), actor, c.Params("logId")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func parseTimeLogRequest(c *fiber.Ctx) (service.TimeLogInput, error) {
	var req dto.TimeLogRequest
	if err := c.BodyParser(&req); err != nil {
		return service.TimeLogInput{}, util.NewValidationError("invalid payload", nil)
	}
	hours, err := decimal.NewFromString(req.Hours)
	if err != nil {
		return service.TimeLogInput{}, util.NewValidationError("invalid hours value", map[string]any{"hours": req.Hours})
	}
	return service.TimeLogInput{
		Hours:       hours,
		Description: req.Description,
		LoggedAt:    req.LoggedAt,
	}, nil
}

func ticketSummary(v service.TicketView) dto.TicketSummary {
	return dto.TicketSummary{
		ID:               v.ID,
		OrganizationID:   v.OrganizationID,
		Title:            v.Title,
		Category:         v.Category,
		Status:           string(v.Status),
		DisplayStatus:    v.Status.ClientDisplay(),
		Priority:         string(v.Priority),
		AssignedToUserID: v.AssignedToUserID,
		SLA: dto.SLABadgeResponse{
			State:            v.SLA.State,
			RemainingSeconds: int64(v.SLA.Remaining.Seconds()),
		},
		CreatedAt: v.CreatedAt,
		UpdatedAt: v.UpdatedAt,
	}
}

func ticketDetail(d *service.TicketDetail) dto.TicketDetailResponse {
	msgs := make([]dto.TicketMessageResponse, 0, len(d.Messages))
	for _, m := range d.Messages {
		msgs = append(msgs, messageResponse(m))
	}
	atts := make([]dto.AttachmentResponse, 0, len(d.Attachments))
	for _, a := range d.Attachments {
		atts = append(atts, attachmentResponse(a))
	}
	return dto.TicketDetailResponse{
		TicketSummary: ticketSummary(d.TicketView),
		Description:   d.Description,
		CreatedBy:     d.CreatedByUserID,
		Messages:      msgs,
		Attachments:   atts,
	}
}

func messageResponse(m domain.TicketMessage) dto.TicketMessageResponse {
	return dto.TicketMessageResponse{
		ID:           m.ID,
		AuthorUserID: m.AuthorUserID,
		IsInternal:   m.IsInternal,
		Body:         m.Body,
		CreatedAt:    m.CreatedAt,
	}
}

func attachmentResponse(a domain.TicketAttachment) dto.AttachmentResponse {
	return dto.AttachmentResponse{
		ID:         a.ID,
		FileName:   a.FileName,
		MimeType:   a.MimeType,
		SizeBytes:  a.SizeBytes,
		StorageKey: a.StorageKey,
		Status:     string(a.Status),
	}
}

func timeLogResponse(l domain.TicketTimeLog) dto.TimeLogResponse {
	return dto.TimeLogResponse{
		ID:          l.ID,
		TicketID:    l.TicketID,
		UserID:      l.UserID,
		Hours:       l.Hours.String(),
		Description: l.Description,
		LoggedAt:    l.LoggedAt,
		CreatedAt:   l.CreatedAt,
	}
}
