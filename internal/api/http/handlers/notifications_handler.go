package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/opsdeck/support-portal/internal/api/dto"
	"github.com/opsdeck/support-portal/internal/auth"
	"github.com/opsdeck/support-portal/internal/domain"
	"github.com/opsdeck/support-portal/internal/service"
	"github.com/opsdeck/support-portal/pkg/util"
)

// NotificationsHandler serves the recipient-scoped inbox.
type NotificationsHandler struct {
	notifications *service.NotificationService
}

// NewNotificationsHandler constructs handler.
func NewNotificationsHandler(notifications *service.NotificationService) *NotificationsHandler {
	return &NotificationsHandler{notifications: notifications}
}

// List GET /notifications.
func (h *NotificationsHandler) List(c *fiber.Ctx) error {
	principal, err := auth.PrincipalFromContext(c)
	if err != nil {
		return err
	}
	rows, err := h.notifications.List(c.UserContext(), principal.User.ID, c.QueryInt("limit", 20), c.QueryInt("offset", 0))
	if err != nil {
		return err
	}
	items := make([]dto.NotificationResponse, 0, len(rows))
	for _, n := range rows {
		items = append(items, notificationResponse(n, principal.Roles))
	}
	return c.JSON(fiber.Map{"data": items})
}

// UnreadCount GET /notifications/unread-count.
func (h *NotificationsHandler) UnreadCount(c *fiber.Ctx) error {
	principal, err := auth.PrincipalFromContext(c)
	if err != nil {
		return err
	}
	count, err := h.notifications.UnreadCount(c.UserContext(), principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.UnreadCountResponse{Count: count}})
}

// MarkRead POST /notifications/:id/read.
func (h *NotificationsHandler) MarkRead(c *fiber.Ctx) error {
	principal, err := auth.PrincipalFromContext(c)
	if err != nil {
		return err
	}
	if err := h.notifications.MarkRead(c.UserContext(), principal.User.ID, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"read": true}})
}

// MarkAllRead POST /notifications/read-all.
func (h *NotificationsHandler) MarkAllRead(c *fiber.Ctx) error {
	principal, err := auth.PrincipalFromContext(c)
	if err != nil {
		return err
	}
	if err := h.notifications.MarkAllRead(c.UserContext(), principal.User.ID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"read": true}})
}

// Delete DELETE /notifications/:id.
func (h *NotificationsHandler) Delete(c *fiber.Ctx) error {
	principal, err := auth.PrincipalFromContext(c)
	if err != nil {
		return err
	}
	if err := h.notifications.Delete(c.UserContext(), principal.User.ID, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetPreferences GET /notifications/preferences.
func (h *NotificationsHandler) GetPreferences(c *fiber.Ctx) error {
	principal, err := auth.PrincipalFromContext(c)
	if err != nil {
		return err
	}
	prefs, err := h.notifications.GetPreferences(c.UserContext(), principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": preferencesPayload(prefs)})
}

// UpdatePreferences PUT /notifications/preferences.
func (h *NotificationsHandler) UpdatePreferences(c *fiber.Ctx) error {
	principal, err := auth.PrincipalFromContext(c)
	if err != nil {
		return err
	}
	var req dto.PreferencesPayload
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	prefs, err := h.notifications.UpdatePreferences(c.UserContext(), domain.NotificationPreferences{
		UserID:             principal.User.ID,
		AssignedInApp:      req.AssignedInApp,
		AssignedEmail:      req.AssignedEmail,
		StatusChangedInApp: req.StatusChangedInApp,
		StatusChangedEmail: req.StatusChangedEmail,
		ReplyInApp:         req.ReplyInApp,
		ReplyEmail:         req.ReplyEmail,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": preferencesPayload(prefs)})
}

func notificationResponse(n domain.Notification, roles domain.RoleSet) dto.NotificationResponse {
	resp := dto.NotificationResponse{
		ID:        n.ID,
		Type:      string(n.Type),
		Title:     n.Title,
		Body:      n.Body,
		TicketID:  n.TicketID,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
	if n.TicketID != nil {
		resp.Link = domain.TicketPath(roles, *n.TicketID)
	}
	return resp
}

func preferencesPayload(p domain.NotificationPreferences) dto.PreferencesPayload {
	return dto.PreferencesPayload{
		AssignedInApp:      p.AssignedInApp,
		AssignedEmail:      p.AssignedEmail,
		StatusChangedInApp: p.StatusChangedInApp,
		StatusChangedEmail: p.StatusChangedEmail,
		ReplyInApp:         p.ReplyInApp,
		ReplyEmail:         p.ReplyEmail,
	}
}
