package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/opsdeck/support-portal/internal/domain"
	"github.com/opsdeck/support-portal/internal/repository"
)

type mockTicketRepo struct {
	mock.Mock
}

func (m *mockTicketRepo) Create(ctx context.Context, ticket *domain.Ticket) error {
	args := m.Called(ctx, ticket)
	return args.Error(0)
}

func (m *mockTicketRepo) Update(ctx context.Context, ticket *domain.Ticket) error {
	args := m.Called(ctx, ticket)
	return args.Error(0)
}

func (m *mockTicketRepo) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ticket), args.Error(1)
}

func (m *mockTicketRepo) ListWithFilter(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Ticket), args.Error(1)
}

func (m *mockTicketRepo) ListByIDs(ctx context.Context, ids []string) ([]domain.Ticket, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Ticket), args.Error(1)
}

func (m *mockTicketRepo) BulkUpdateStatus(ctx context.Context, ids []string, status domain.TicketStatus) error {
	args := m.Called(ctx, ids, status)
	return args.Error(0)
}

func (m *mockTicketRepo) BulkUpdateAssignee(ctx context.Context, ids []string, assigneeID *string) error {
	args := m.Called(ctx, ids, assigneeID)
	return args.Error(0)
}

type mockMessageRepo struct {
	mock.Mock
}

func (m *mockMessageRepo) Create(ctx context.Context, msg *domain.TicketMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *mockMessageRepo) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketMessage, error) {
	args := m.Called(ctx, ticketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TicketMessage), args.Error(1)
}

type mockAttachmentRepo struct {
	mock.Mock
}

func (m *mockAttachmentRepo) Create(ctx context.Context, att *domain.TicketAttachment) error {
	args := m.Called(ctx, att)
	return args.Error(0)
}

func (m *mockAttachmentRepo) GetByID(ctx context.Context, id string) (*domain.TicketAttachment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TicketAttachment), args.Error(1)
}

func (m *mockAttachmentRepo) Confirm(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockAttachmentRepo) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketAttachment, error) {
	args := m.Called(ctx, ticketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TicketAttachment), args.Error(1)
}

func (m *mockAttachmentRepo) DeletePendingBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

type mockRoleRepo struct {
	mock.Mock
}

func (m *mockRoleRepo) GetRoles(ctx context.Context, userID string) (domain.RoleSet, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.RoleSet), args.Error(1)
}

func (m *mockRoleRepo) Assign(ctx context.Context, userID string, role domain.Role) error {
	args := m.Called(ctx, userID, role)
	return args.Error(0)
}

func (m *mockRoleRepo) Revoke(ctx context.Context, userID string, role domain.Role) error {
	args := m.Called(ctx, userID, role)
	return args.Error(0)
}

func (m *mockRoleRepo) ListUsersWithRoles(ctx context.Context, roles ...domain.Role) ([]domain.User, error) {
	args := m.Called(ctx, roles)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.User), args.Error(1)
}

type mockAllocationRepo struct {
	mock.Mock
}

func (m *mockAllocationRepo) Create(ctx context.Context, alloc *domain.HourAllocation) error {
	args := m.Called(ctx, alloc)
	return args.Error(0)
}

func (m *mockAllocationRepo) GetByID(ctx context.Context, id string) (*domain.HourAllocation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.HourAllocation), args.Error(1)
}

func (m *mockAllocationRepo) ListByOrg(ctx context.Context, orgID string) ([]domain.HourAllocation, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.HourAllocation), args.Error(1)
}

func (m *mockAllocationRepo) ListActive(ctx context.Context, onDate time.Time) ([]domain.HourAllocation, error) {
	args := m.Called(ctx, onDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.HourAllocation), args.Error(1)
}

func (m *mockAllocationRepo) GetActiveForOrg(ctx context.Context, orgID string, onDate time.Time) (*domain.HourAllocation, error) {
	args := m.Called(ctx, orgID, onDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.HourAllocation), args.Error(1)
}

func (m *mockAllocationRepo) AdjustTotalHours(ctx context.Context, id string, delta decimal.Decimal) (*domain.HourAllocation, error) {
	args := m.Called(ctx, id, delta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.HourAllocation), args.Error(1)
}

func (m *mockAllocationRepo) RecomputeUsedForOrg(ctx context.Context, orgID string) error {
	args := m.Called(ctx, orgID)
	return args.Error(0)
}

func (m *mockAllocationRepo) RecomputeUsedAll(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type mockTimeLogRepo struct {
	mock.Mock
}

func (m *mockTimeLogRepo) Create(ctx context.Context, orgID string, log *domain.TicketTimeLog) error {
	args := m.Called(ctx, orgID, log)
	return args.Error(0)
}

func (m *mockTimeLogRepo) Update(ctx context.Context, orgID string, log *domain.TicketTimeLog) error {
	args := m.Called(ctx, orgID, log)
	return args.Error(0)
}

func (m *mockTimeLogRepo) Delete(ctx context.Context, orgID, id string) error {
	args := m.Called(ctx, orgID, id)
	return args.Error(0)
}

func (m *mockTimeLogRepo) GetByID(ctx context.Context, id string) (*domain.TicketTimeLog, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TicketTimeLog), args.Error(1)
}

func (m *mockTimeLogRepo) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketTimeLog, error) {
	args := m.Called(ctx, ticketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TicketTimeLog), args.Error(1)
}

func (m *mockTimeLogRepo) SumForTicket(ctx context.Context, ticketID string) (decimal.Decimal, error) {
	args := m.Called(ctx, ticketID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *mockTimeLogRepo) SumForOrgPeriod(ctx context.Context, orgID string, from, to time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, orgID, from, to)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

type mockNotificationRepo struct {
	mock.Mock
}

func (m *mockNotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *mockNotificationRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Notification, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Notification), args.Error(1)
}

func (m *mockNotificationRepo) UnreadCount(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *mockNotificationRepo) MarkRead(ctx context.Context, userID, id string) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

func (m *mockNotificationRepo) MarkAllRead(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *mockNotificationRepo) Delete(ctx context.Context, userID, id string) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

func (m *mockNotificationRepo) GetPreferences(ctx context.Context, userID string) (*domain.NotificationPreferences, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.NotificationPreferences), args.Error(1)
}

func (m *mockNotificationRepo) UpsertPreferences(ctx context.Context, prefs *domain.NotificationPreferences) error {
	args := m.Called(ctx, prefs)
	return args.Error(0)
}

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepo) Update(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) ListByIDs(ctx context.Context, ids []string) ([]domain.User, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.User), args.Error(1)
}

type mockOrgRepo struct {
	mock.Mock
}

func (m *mockOrgRepo) Create(ctx context.Context, org *domain.Organization) error {
	args := m.Called(ctx, org)
	return args.Error(0)
}

func (m *mockOrgRepo) Update(ctx context.Context, org *domain.Organization) error {
	args := m.Called(ctx, org)
	return args.Error(0)
}

func (m *mockOrgRepo) GetByID(ctx context.Context, id string) (*domain.Organization, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Organization), args.Error(1)
}

func (m *mockOrgRepo) List(ctx context.Context, limit, offset int) ([]domain.Organization, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Organization), args.Error(1)
}

func (m *mockOrgRepo) AddMember(ctx context.Context, member *domain.OrganizationMember) error {
	args := m.Called(ctx, member)
	return args.Error(0)
}

func (m *mockOrgRepo) RemoveMember(ctx context.Context, orgID, userID string) error {
	args := m.Called(ctx, orgID, userID)
	return args.Error(0)
}

func (m *mockOrgRepo) ListMembers(ctx context.Context, orgID string) ([]domain.OrganizationMember, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.OrganizationMember), args.Error(1)
}

func (m *mockOrgRepo) GetMembershipByUser(ctx context.Context, userID string) (*domain.OrganizationMember, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OrganizationMember), args.Error(1)
}
