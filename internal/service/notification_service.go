package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/opsdeck/support-portal/internal/domain"
	"github.com/opsdeck/support-portal/internal/events"
	"github.com/opsdeck/support-portal/internal/notifier"
	"github.com/opsdeck/support-portal/internal/repository"
	"github.com/opsdeck/support-portal/pkg/util"
)

// NotificationService fans ticket events out to in-app rows and email,
// gated per recipient by their preferences. Preferences gate creation
// only; rows already in the inbox are never filtered retroactively.
type NotificationService struct {
	notifications repository.NotificationRepository
	tickets       repository.TicketRepository
	users         repository.UserRepository
	roles         repository.RoleRepository
	orgs          repository.OrganizationRepository
	notifier      notifier.Notifier
	logger        *zap.Logger
}

// NotificationDependencies bundles collaborators for the service.
type NotificationDependencies struct {
	NotificationRepo repository.NotificationRepository
	TicketRepo       repository.TicketRepository
	UserRepo         repository.UserRepository
	RoleRepo         repository.RoleRepository
	OrgRepo          repository.OrganizationRepository
	Notifier         notifier.Notifier
	Logger           *zap.Logger
}

// NewNotificationService constructs the service.
func NewNotificationService(deps NotificationDependencies) *NotificationService {
	return &NotificationService{
		notifications: deps.NotificationRepo,
		tickets:       deps.TicketRepo,
		users:         deps.UserRepo,
		roles:         deps.RoleRepo,
		orgs:          deps.OrgRepo,
		notifier:      deps.Notifier,
		logger:        deps.Logger,
	}
}

// RegisterHandlers subscribes the fan-out to the event dispatcher.
func (s *NotificationService) RegisterHandlers(dispatcher events.Dispatcher) {
	dispatcher.Subscribe(events.EventTicketAssigned, s.handleTicketAssigned)
	dispatcher.Subscribe(events.EventTicketStatusChanged, s.handleStatusChanged)
	dispatcher.Subscribe(events.EventTicketReply, s.handleReply)
}

func (s *NotificationService) handleTicketAssigned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketAssignedPayload)
	if !ok || payload.AssigneeUserID == nil {
		return nil
	}
	ticket, err := s.tickets.GetByID(ctx, event.TicketID)
	if err != nil {
		return err
	}
	return s.deliver(ctx, *payload.AssigneeUserID, domain.NotificationTicketAssigned,
		"Ticket assigned to you",
		fmt.Sprintf("You were assigned %q.", ticket.Title),
		ticket.ID)
}

func (s *NotificationService) handleStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketStatusChangedPayload)
	if !ok {
		return nil
	}
	ticket, err := s.tickets.GetByID(ctx, event.TicketID)
	if err != nil {
		return err
	}

	body := fmt.Sprintf("%q is now %s.", ticket.Title, payload.NewStatus.ClientDisplay())
	for _, userID := range s.orgRecipients(ctx, payload.OrganizationID, event.ActorUserID) {
		if err := s.deliver(ctx, userID, domain.NotificationTicketStatusChanged, "Ticket status updated", body, ticket.ID); err != nil {
			s.logger.Warn("status notification failed", zap.String("user_id", userID), zap.Error(err))
		}
	}
	return nil
}

func (s *NotificationService) handleReply(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketReplyPayload)
	if !ok {
		return nil
	}
	ticket, err := s.tickets.GetByID(ctx, event.TicketID)
	if err != nil {
		return err
	}

	title := "New reply on your ticket"
	body := fmt.Sprintf("%q: %s", ticket.Title, payload.BodyPreview)

	if payload.AuthorIsStaff {
		// Staff replied; tell the client org.
		for _, userID := range s.orgRecipients(ctx, payload.OrganizationID, event.ActorUserID) {
			if err := s.deliver(ctx, userID, domain.NotificationTicketReply, title, body, ticket.ID); err != nil {
				s.logger.Warn("reply notification failed", zap.String("user_id", userID), zap.Error(err))
			}
		}
		return nil
	}

	// Client replied; tell the assignee if there is one.
	if ticket.AssignedToUserID == nil || *ticket.AssignedToUserID == event.ActorUserID {
		return nil
	}
	return s.deliver(ctx, *ticket.AssignedToUserID, domain.NotificationTicketReply, "New client reply", body, ticket.ID)
}

// orgRecipients lists member user IDs of an org, excluding the actor who
// triggered the event.
func (s *NotificationService) orgRecipients(ctx context.Context, orgID, actorUserID string) []string {
	members, err := s.orgs.ListMembers(ctx, orgID)
	if err != nil {
		s.logger.Warn("failed to list org members for fan-out", zap.String("org_id", orgID), zap.Error(err))
		return nil
	}
	out := make([]string, 0, len(members))
	for _, m := range members {
		if m.UserID == actorUserID {
			continue
		}
		out = append(out, m.UserID)
	}
	return out
}

// deliver creates the in-app row and sends the email, each gated by the
// recipient's preference for the event type and channel.
func (s *NotificationService) deliver(ctx context.Context, userID string, t domain.NotificationType, title, body, ticketID string) error {
	prefs, err := s.preferencesOrDefault(ctx, userID)
	if err != nil {
		return err
	}

	if prefs.Allows(t, domain.ChannelInApp) {
		row := &domain.Notification{
			UserID:   userID,
			Type:     t,
			Title:    title,
			Body:     body,
			TicketID: &ticketID,
		}
		if err := s.notifications.Create(ctx, row); err != nil {
			return err
		}
	}

	if prefs.Allows(t, domain.ChannelEmail) {
		user, err := s.users.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		roles, err := s.roles.GetRoles(ctx, userID)
		if err != nil {
			return err
		}
		msg := notifier.Message{
			To:      user.Email,
			Subject: title,
			Body:    body,
			Link:    domain.TicketPath(roles, ticketID),
		}
		if err := s.notifier.Send(ctx, msg); err != nil {
			// Email failure must not roll back the in-app row.
			s.logger.Warn("email notification failed", zap.String("user_id", userID), zap.Error(err))
		}
	}
	return nil
}

func (s *NotificationService) preferencesOrDefault(ctx context.Context, userID string) (domain.NotificationPreferences, error) {
	prefs, err := s.notifications.GetPreferences(ctx, userID)
	if err != nil {
		return domain.NotificationPreferences{}, err
	}
	if prefs == nil {
		return domain.DefaultPreferences(userID), nil
	}
	return *prefs, nil
}

// List returns the recipient's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, userID string, limit, offset int) ([]domain.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := s.notifications.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, util.MapError(err)
	}
	return rows, nil
}

// UnreadCount returns the badge count.
func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	count, err := s.notifications.UnreadCount(ctx, userID)
	if err != nil {
		return 0, util.MapError(err)
	}
	return count, nil
}

// MarkRead marks one notification read. Marking an already-read row is
// a no-op, not an error.
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID string) error {
	err := s.notifications.MarkRead(ctx, userID, notificationID)
	if err != nil && errors.Is(err, pgx.ErrNoRows) {
		return util.NewNotFound("notification", nil)
	}
	if err != nil {
		return util.MapError(err)
	}
	return nil
}

// MarkAllRead clears the recipient's unread set.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) error {
	if err := s.notifications.MarkAllRead(ctx, userID); err != nil {
		return util.MapError(err)
	}
	return nil
}

// Delete removes one notification belonging to the recipient.
func (s *NotificationService) Delete(ctx context.Context, userID, notificationID string) error {
	if err := s.notifications.Delete(ctx, userID, notificationID); err != nil {
		return util.MapError(err)
	}
	return nil
}

// GetPreferences returns stored preferences, falling back to defaults.
func (s *NotificationService) GetPreferences(ctx context.Context, userID string) (domain.NotificationPreferences, error) {
	prefs, err := s.preferencesOrDefault(ctx, userID)
	if err != nil {
		return domain.NotificationPreferences{}, util.MapError(err)
	}
	return prefs, nil
}

// UpdatePreferences stores the six channel booleans.
func (s *NotificationService) UpdatePreferences(ctx context.Context, prefs domain.NotificationPreferences) (domain.NotificationPreferences, error) {
	if err := s.notifications.UpsertPreferences(ctx, &prefs); err != nil {
		return domain.NotificationPreferences{}, util.MapError(err)
	}
	return prefs, nil
}
