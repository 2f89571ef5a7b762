package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/opsdeck/support-portal/internal/domain"
)

func newTimeLogFixture() (*TimeLogService, *mockTimeLogRepo, *mockTicketRepo) {
	timeLogs := new(mockTimeLogRepo)
	tickets := new(mockTicketRepo)
	return NewTimeLogService(timeLogs, tickets), timeLogs, tickets
}

func TestLogTime(t *testing.T) {
	ctx := context.Background()

	t.Run("hours must be positive", func(t *testing.T) {
		svc, timeLogs, tickets := newTimeLogFixture()

		_, err := svc.LogTime(ctx, supportActor(), "t1", TimeLogInput{Hours: dec("0")})
		assertCode(t, err, "VALIDATION_FAILED")

		_, err = svc.LogTime(ctx, supportActor(), "t1", TimeLogInput{Hours: dec("-2")})
		assertCode(t, err, "VALIDATION_FAILED")

		tickets.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
		timeLogs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("entry is booked against the ticket's org", func(t *testing.T) {
		svc, timeLogs, tickets := newTimeLogFixture()
		tickets.On("GetByID", ctx, "t1").Return(&domain.Ticket{ID: "t1", OrganizationID: "org-a"}, nil)
		timeLogs.On("Create", ctx, "org-a", mock.AnythingOfType("*domain.TicketTimeLog")).Return(nil)

		log, err := svc.LogTime(ctx, supportActor(), "t1", TimeLogInput{
			Hours:       dec("1.5"),
			Description: "  debugged the importer  ",
		})
		require.NoError(t, err)
		assert.Equal(t, "support-1", log.UserID)
		assert.Equal(t, "debugged the importer", log.Description)
		assert.False(t, log.LoggedAt.IsZero())
		timeLogs.AssertExpectations(t)
	})
}

func TestUpdateTimeLog(t *testing.T) {
	ctx := context.Background()

	t.Run("only the author may edit", func(t *testing.T) {
		svc, timeLogs, _ := newTimeLogFixture()
		timeLogs.On("GetByID", ctx, "log-1").Return(&domain.TicketTimeLog{
			ID: "log-1", TicketID: "t1", UserID: "someone-else", Hours: dec("2"),
		}, nil)

		_, err := svc.UpdateTimeLog(ctx, supportActor(), "log-1", TimeLogInput{Hours: dec("3")})
		assertCode(t, err, "FORBIDDEN")
		timeLogs.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("author edit rewrites hours and description", func(t *testing.T) {
		svc, timeLogs, tickets := newTimeLogFixture()
		timeLogs.On("GetByID", ctx, "log-1").Return(&domain.TicketTimeLog{
			ID: "log-1", TicketID: "t1", UserID: "support-1", Hours: dec("2"),
		}, nil)
		tickets.On("GetByID", ctx, "t1").Return(&domain.Ticket{ID: "t1", OrganizationID: "org-a"}, nil)
		timeLogs.On("Update", ctx, "org-a", mock.AnythingOfType("*domain.TicketTimeLog")).Return(nil)

		log, err := svc.UpdateTimeLog(ctx, supportActor(), "log-1", TimeLogInput{
			Hours:       dec("3.25"),
			Description: "also fixed the retry loop",
		})
		require.NoError(t, err)
		assert.True(t, log.Hours.Equal(dec("3.25")))
	})
}

func TestDeleteTimeLog(t *testing.T) {
	ctx := context.Background()

	t.Run("only the author may delete", func(t *testing.T) {
		svc, timeLogs, _ := newTimeLogFixture()
		timeLogs.On("GetByID", ctx, "log-1").Return(&domain.TicketTimeLog{
			ID: "log-1", TicketID: "t1", UserID: "someone-else",
		}, nil)

		err := svc.DeleteTimeLog(ctx, supportActor(), "log-1")
		assertCode(t, err, "FORBIDDEN")
		timeLogs.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("author delete goes through the ticket's org", func(t *testing.T) {
		svc, timeLogs, tickets := newTimeLogFixture()
		timeLogs.On("GetByID", ctx, "log-1").Return(&domain.TicketTimeLog{
			ID: "log-1", TicketID: "t1", UserID: "support-1",
		}, nil)
		tickets.On("GetByID", ctx, "t1").Return(&domain.Ticket{ID: "t1", OrganizationID: "org-a"}, nil)
		timeLogs.On("Delete", ctx, "org-a", "log-1").Return(nil)

		require.NoError(t, svc.DeleteTimeLog(ctx, supportActor(), "log-1"))
		timeLogs.AssertExpectations(t)
	})
}
