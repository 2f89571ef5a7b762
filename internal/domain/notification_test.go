package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTicketPath(t *testing.T) {
	t.Run("admin lands on the ticket list", func(t *testing.T) {
		assert.Equal(t, "/admin/tickets", TicketPath(RoleSet{RoleAdmin}, "t1"))
		// Admin wins even alongside other roles.
		assert.Equal(t, "/admin/tickets", TicketPath(RoleSet{RoleSupport, RoleAdmin}, "t1"))
	})

	t.Run("staff deep-links into the support surface", func(t *testing.T) {
		assert.Equal(t, "/support/tickets/t1", TicketPath(RoleSet{RoleSupport}, "t1"))
		assert.Equal(t, "/support/tickets/t1", TicketPath(RoleSet{RoleOps}, "t1"))
	})

	t.Run("clients deep-link into their own surface", func(t *testing.T) {
		assert.Equal(t, "/client/tickets/t1", TicketPath(RoleSet{RoleClient}, "t1"))
	})
}

func TestPreferencesAllows(t *testing.T) {
	prefs := DefaultPreferences("u1")
	assert.True(t, prefs.Allows(NotificationTicketAssigned, ChannelInApp))
	assert.True(t, prefs.Allows(NotificationTicketReply, ChannelEmail))

	prefs.ReplyEmail = false
	prefs.StatusChangedInApp = false
	assert.False(t, prefs.Allows(NotificationTicketReply, ChannelEmail))
	assert.True(t, prefs.Allows(NotificationTicketReply, ChannelInApp))
	assert.False(t, prefs.Allows(NotificationTicketStatusChanged, ChannelInApp))
	assert.True(t, prefs.Allows(NotificationTicketStatusChanged, ChannelEmail))
}
