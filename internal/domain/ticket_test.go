package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	staff := RoleSet{RoleSupport}
	admin := RoleSet{RoleAdmin}
	client := RoleSet{RoleClient}

	t.Run("staff forward flow", func(t *testing.T) {
		assert.True(t, CanTransition(staff, TicketStatusOpen, TicketStatusInProgress))
		assert.True(t, CanTransition(staff, TicketStatusInProgress, TicketStatusWaitingOnClient))
		assert.True(t, CanTransition(staff, TicketStatusWaitingOnClient, TicketStatusResolved))
		assert.True(t, CanTransition(staff, TicketStatusResolved, TicketStatusClosed))
	})

	t.Run("staff reopen paths", func(t *testing.T) {
		assert.True(t, CanTransition(staff, TicketStatusResolved, TicketStatusInProgress))
		assert.True(t, CanTransition(staff, TicketStatusWaitingOnClient, TicketStatusOpen))
	})

	t.Run("closed is terminal for non-admin", func(t *testing.T) {
		assert.False(t, CanTransition(staff, TicketStatusClosed, TicketStatusOpen))
		assert.False(t, CanTransition(client, TicketStatusClosed, TicketStatusOpen))
	})

	t.Run("admin may reopen closed tickets", func(t *testing.T) {
		assert.True(t, CanTransition(admin, TicketStatusClosed, TicketStatusOpen))
		assert.False(t, CanTransition(admin, TicketStatusClosed, TicketStatusInProgress))
	})

	t.Run("client may only close resolved or stalled tickets", func(t *testing.T) {
		assert.True(t, CanTransition(client, TicketStatusResolved, TicketStatusClosed))
		assert.True(t, CanTransition(client, TicketStatusWaitingOnClient, TicketStatusClosed))
		assert.False(t, CanTransition(client, TicketStatusOpen, TicketStatusInProgress))
		assert.False(t, CanTransition(client, TicketStatusOpen, TicketStatusClosed))
	})

	t.Run("self transition is rejected", func(t *testing.T) {
		assert.False(t, CanTransition(staff, TicketStatusOpen, TicketStatusOpen))
	})

	t.Run("zero roles may do nothing", func(t *testing.T) {
		assert.False(t, CanTransition(RoleSet{}, TicketStatusOpen, TicketStatusInProgress))
	})
}

func TestClientDisplay(t *testing.T) {
	assert.Equal(t, "Open", TicketStatusOpen.ClientDisplay())
	assert.Equal(t, "Open", TicketStatusInProgress.ClientDisplay())
	assert.Equal(t, "Waiting on you", TicketStatusWaitingOnClient.ClientDisplay())
	assert.Equal(t, "Closed", TicketStatusResolved.ClientDisplay())
	assert.Equal(t, "Closed", TicketStatusClosed.ClientDisplay())
}

func TestClassifySLA(t *testing.T) {
	now := time.Now()

	t.Run("no deadline classifies as none", func(t *testing.T) {
		badge := ClassifySLA(nil, TicketStatusOpen, now)
		assert.Equal(t, SLANone, badge.State)
	})

	t.Run("terminal tickets classify as none even when overdue", func(t *testing.T) {
		past := now.Add(-time.Hour)
		assert.Equal(t, SLANone, ClassifySLA(&past, TicketStatusResolved, now).State)
		assert.Equal(t, SLANone, ClassifySLA(&past, TicketStatusClosed, now).State)
	})

	t.Run("past deadline is breached", func(t *testing.T) {
		past := now.Add(-time.Minute)
		badge := ClassifySLA(&past, TicketStatusOpen, now)
		assert.Equal(t, SLABreached, badge.State)
		assert.Negative(t, badge.Remaining)
	})

	t.Run("under two hours is urgent", func(t *testing.T) {
		due := now.Add(90 * time.Minute)
		assert.Equal(t, SLAUrgent, ClassifySLA(&due, TicketStatusInProgress, now).State)
	})

	t.Run("under eight hours is warning", func(t *testing.T) {
		due := now.Add(5 * time.Hour)
		assert.Equal(t, SLAWarning, ClassifySLA(&due, TicketStatusOpen, now).State)
	})

	t.Run("beyond eight hours is ok", func(t *testing.T) {
		due := now.Add(24 * time.Hour)
		assert.Equal(t, SLAOk, ClassifySLA(&due, TicketStatusOpen, now).State)
	})
}
