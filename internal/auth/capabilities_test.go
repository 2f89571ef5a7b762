package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/opsdeck/support-portal/internal/domain"
)

func TestCan(t *testing.T) {
	client := domain.RoleSet{domain.RoleClient}
	support := domain.RoleSet{domain.RoleSupport}
	admin := domain.RoleSet{domain.RoleAdmin}
	ops := domain.RoleSet{domain.RoleOps}

	t.Run("clients create and view their own tickets only", func(t *testing.T) {
		assert.True(t, Can(client, ActionTicketCreate))
		assert.True(t, Can(client, ActionTicketViewOwnOrg))
		assert.False(t, Can(client, ActionTicketViewAll))
		assert.False(t, Can(client, ActionTicketTriage))
		assert.False(t, Can(client, ActionTicketInternalNote))
		assert.False(t, Can(client, ActionTimeLogManage))
	})

	t.Run("support triages but does not manage orgs", func(t *testing.T) {
		assert.True(t, Can(support, ActionTicketTriage))
		assert.True(t, Can(support, ActionTicketBulkUpdate))
		assert.True(t, Can(support, ActionTimeLogManage))
		assert.True(t, Can(support, ActionKBManage))
		assert.False(t, Can(support, ActionOrgManage))
		assert.False(t, Can(support, ActionRoleManage))
		assert.False(t, Can(support, ActionOpsDashboards))
	})

	t.Run("ops reads dashboards but does not triage", func(t *testing.T) {
		assert.True(t, Can(ops, ActionOpsDashboards))
		assert.True(t, Can(ops, ActionAllocationManage))
		assert.False(t, Can(ops, ActionTicketTriage))
		assert.False(t, Can(ops, ActionKBManage))
	})

	t.Run("admin holds the widest set", func(t *testing.T) {
		assert.True(t, Can(admin, ActionOrgManage))
		assert.True(t, Can(admin, ActionRoleManage))
		assert.True(t, Can(admin, ActionOpsDashboards))
		assert.True(t, Can(admin, ActionTicketTriage))
	})

	t.Run("multiple roles union their grants", func(t *testing.T) {
		combo := domain.RoleSet{domain.RoleSupport, domain.RoleOps}
		assert.True(t, Can(combo, ActionTicketTriage))
		assert.True(t, Can(combo, ActionOpsDashboards))
	})

	t.Run("zero roles grant nothing", func(t *testing.T) {
		assert.False(t, Can(domain.RoleSet{}, ActionTicketCreate))
	})

	t.Run("unknown action grants nothing", func(t *testing.T) {
		assert.False(t, Can(admin, Action("made:up")))
	})
}
