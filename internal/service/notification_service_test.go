package service

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/opsdeck/support-portal/internal/domain"
	"github.com/opsdeck/support-portal/internal/events"
	"github.com/opsdeck/support-portal/internal/notifier"
)

// captureNotifier records outbound email messages.
type captureNotifier struct {
	msgs []notifier.Message
	err  error
}

func (n *captureNotifier) Send(_ context.Context, msg notifier.Message) error {
	n.msgs = append(n.msgs, msg)
	return n.err
}

type notificationFixture struct {
	svc           *NotificationService
	notifications *mockNotificationRepo
	tickets       *mockTicketRepo
	users         *mockUserRepo
	roles         *mockRoleRepo
	orgs          *mockOrgRepo
	emails        *captureNotifier
}

func newNotificationFixture() *notificationFixture {
	f := &notificationFixture{
		notifications: new(mockNotificationRepo),
		tickets:       new(mockTicketRepo),
		users:         new(mockUserRepo),
		roles:         new(mockRoleRepo),
		orgs:          new(mockOrgRepo),
		emails:        &captureNotifier{},
	}
	f.svc = NewNotificationService(NotificationDependencies{
		NotificationRepo: f.notifications,
		TicketRepo:       f.tickets,
		UserRepo:         f.users,
		RoleRepo:         f.roles,
		OrgRepo:          f.orgs,
		Notifier:         f.emails,
		Logger:           zap.NewNop(),
	})
	return f
}

func (f *notificationFixture) expectDefaultPrefs(userID string) {
	f.notifications.On("GetPreferences", mock.Anything, userID).Return(nil, nil)
}

func (f *notificationFixture) expectEmailLookup(userID, email string, roles domain.RoleSet) {
	f.users.On("GetByID", mock.Anything, userID).Return(&domain.User{ID: userID, Email: email}, nil)
	f.roles.On("GetRoles", mock.Anything, userID).Return(roles, nil)
}

func assignedEvent(ticketID, actorID string, assigneeID *string) events.Event {
	return events.Event{
		Type:        events.EventTicketAssigned,
		TicketID:    ticketID,
		ActorUserID: actorID,
		Payload:     events.TicketAssignedPayload{OrganizationID: "org-a", AssigneeUserID: assigneeID},
	}
}

func replyEvent(ticketID, actorID string, authorIsStaff bool) events.Event {
	return events.Event{
		Type:        events.EventTicketReply,
		TicketID:    ticketID,
		ActorUserID: actorID,
		Payload: events.TicketReplyPayload{
			OrganizationID: "org-a",
			MessageID:      "m1",
			AuthorIsStaff:  authorIsStaff,
			BodyPreview:    "the importer is stuck again",
		},
	}
}

func TestHandleTicketAssigned(t *testing.T) {
	ctx := context.Background()

	t.Run("assignee gets both channels by default", func(t *testing.T) {
		f := newNotificationFixture()
		f.tickets.On("GetByID", ctx, "t1").Return(&domain.Ticket{ID: "t1", Title: "Importer down"}, nil)
		f.expectDefaultPrefs("support-2")
		f.expectEmailLookup("support-2", "support2@opsdeck.test", domain.RoleSet{domain.RoleSupport})
		f.notifications.On("Create", ctx, mock.MatchedBy(func(n *domain.Notification) bool {
			return n.UserID == "support-2" && n.Type == domain.NotificationTicketAssigned
		})).Return(nil)

		err := f.svc.handleTicketAssigned(ctx, assignedEvent("t1", "admin-1", strPtr("support-2")))
		require.NoError(t, err)
		require.Len(t, f.emails.msgs, 1)
		assert.Equal(t, "support2@opsdeck.test", f.emails.msgs[0].To)
		assert.Equal(t, "/support/tickets/t1", f.emails.msgs[0].Link)
		f.notifications.AssertExpectations(t)
	})

	t.Run("unassignment delivers nothing", func(t *testing.T) {
		f := newNotificationFixture()
		require.NoError(t, f.svc.handleTicketAssigned(ctx, assignedEvent("t1", "admin-1", nil)))
		f.tickets.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})
}

func TestHandleReply(t *testing.T) {
	ctx := context.Background()

	t.Run("staff reply fans out to org members except the actor", func(t *testing.T) {
		f := newNotificationFixture()
		f.tickets.On("GetByID", ctx, "t1").Return(&domain.Ticket{ID: "t1", OrganizationID: "org-a", Title: "Importer down"}, nil)
		f.orgs.On("ListMembers", ctx, "org-a").Return([]domain.OrganizationMember{
			{UserID: "client-1"},
			{UserID: "client-2"},
		}, nil)
		f.expectDefaultPrefs("client-1")
		f.expectDefaultPrefs("client-2")
		f.expectEmailLookup("client-1", "one@acme.test", domain.RoleSet{domain.RoleClient})
		f.expectEmailLookup("client-2", "two@acme.test", domain.RoleSet{domain.RoleClient})
		f.notifications.On("Create", ctx, mock.AnythingOfType("*domain.Notification")).Return(nil).Twice()

		err := f.svc.handleReply(ctx, replyEvent("t1", "support-1", true))
		require.NoError(t, err)
		assert.Len(t, f.emails.msgs, 2)
		f.notifications.AssertExpectations(t)
	})

	t.Run("client reply goes to the assignee only", func(t *testing.T) {
		f := newNotificationFixture()
		f.tickets.On("GetByID", ctx, "t1").Return(&domain.Ticket{
			ID: "t1", OrganizationID: "org-a", Title: "Importer down",
			AssignedToUserID: strPtr("support-2"),
		}, nil)
		f.expectDefaultPrefs("support-2")
		f.expectEmailLookup("support-2", "support2@opsdeck.test", domain.RoleSet{domain.RoleSupport})
		f.notifications.On("Create", ctx, mock.MatchedBy(func(n *domain.Notification) bool {
			return n.UserID == "support-2"
		})).Return(nil)

		err := f.svc.handleReply(ctx, replyEvent("t1", "client-1", false))
		require.NoError(t, err)
		f.orgs.AssertNotCalled(t, "ListMembers", mock.Anything, mock.Anything)
	})

	t.Run("client reply on an unassigned ticket delivers nothing", func(t *testing.T) {
		f := newNotificationFixture()
		f.tickets.On("GetByID", ctx, "t1").Return(&domain.Ticket{ID: "t1", OrganizationID: "org-a"}, nil)

		require.NoError(t, f.svc.handleReply(ctx, replyEvent("t1", "client-1", false)))
		f.notifications.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestDeliverPreferenceGating(t *testing.T) {
	ctx := context.Background()

	t.Run("in-app off skips the row but still emails", func(t *testing.T) {
		f := newNotificationFixture()
		prefs := domain.DefaultPreferences("support-2")
		prefs.AssignedInApp = false
		f.tickets.On("GetByID", ctx, "t1").Return(&domain.Ticket{ID: "t1", Title: "Importer down"}, nil)
		f.notifications.On("GetPreferences", mock.Anything, "support-2").Return(&prefs, nil)
		f.expectEmailLookup("support-2", "support2@opsdeck.test", domain.RoleSet{domain.RoleSupport})

		err := f.svc.handleTicketAssigned(ctx, assignedEvent("t1", "admin-1", strPtr("support-2")))
		require.NoError(t, err)
		f.notifications.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		assert.Len(t, f.emails.msgs, 1)
	})

	t.Run("email off still writes the in-app row", func(t *testing.T) {
		f := newNotificationFixture()
		prefs := domain.DefaultPreferences("support-2")
		prefs.AssignedEmail = false
		f.tickets.On("GetByID", ctx, "t1").Return(&domain.Ticket{ID: "t1", Title: "Importer down"}, nil)
		f.notifications.On("GetPreferences", mock.Anything, "support-2").Return(&prefs, nil)
		f.notifications.On("Create", ctx, mock.AnythingOfType("*domain.Notification")).Return(nil)

		err := f.svc.handleTicketAssigned(ctx, assignedEvent("t1", "admin-1", strPtr("support-2")))
		require.NoError(t, err)
		assert.Empty(t, f.emails.msgs)
		f.users.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})

	t.Run("email failure never loses the in-app row", func(t *testing.T) {
		f := newNotificationFixture()
		f.emails.err = assert.AnError
		f.tickets.On("GetByID", ctx, "t1").Return(&domain.Ticket{ID: "t1", Title: "Importer down"}, nil)
		f.expectDefaultPrefs("support-2")
		f.expectEmailLookup("support-2", "support2@opsdeck.test", domain.RoleSet{domain.RoleSupport})
		f.notifications.On("Create", ctx, mock.AnythingOfType("*domain.Notification")).Return(nil)

		err := f.svc.handleTicketAssigned(ctx, assignedEvent("t1", "admin-1", strPtr("support-2")))
		require.NoError(t, err)
		f.notifications.AssertExpectations(t)
	})
}

func TestInboxOperations(t *testing.T) {
	ctx := context.Background()

	t.Run("mark read maps missing rows to not found", func(t *testing.T) {
		f := newNotificationFixture()
		f.notifications.On("MarkRead", ctx, "u1", "n1").Return(pgx.ErrNoRows)

		err := f.svc.MarkRead(ctx, "u1", "n1")
		assertCode(t, err, "NOT_FOUND")
	})

	t.Run("mark read succeeds on owned rows", func(t *testing.T) {
		f := newNotificationFixture()
		f.notifications.On("MarkRead", ctx, "u1", "n1").Return(nil)
		require.NoError(t, f.svc.MarkRead(ctx, "u1", "n1"))
	})

	t.Run("list clamps the page size", func(t *testing.T) {
		f := newNotificationFixture()
		f.notifications.On("ListByUser", ctx, "u1", 20, 0).Return([]domain.Notification{}, nil)

		_, err := f.svc.List(ctx, "u1", 5000, 0)
		require.NoError(t, err)
		f.notifications.AssertExpectations(t)
	})

	t.Run("preferences fall back to defaults", func(t *testing.T) {
		f := newNotificationFixture()
		f.notifications.On("GetPreferences", mock.Anything, "u1").Return(nil, nil)

		prefs, err := f.svc.GetPreferences(ctx, "u1")
		require.NoError(t, err)
		assert.True(t, prefs.AssignedInApp)
		assert.True(t, prefs.ReplyEmail)
	})
}
