package auth

import "github.com/opsdeck/support-portal/internal/domain"

// Action names a guarded operation. Handlers ask "can this principal do
// X" instead of testing role names inline, so the role-to-action mapping
// lives in exactly one place.
type Action string

const (
	ActionTicketCreate        Action = "ticket:create"
	ActionTicketViewOwnOrg    Action = "ticket:view_own_org"
	ActionTicketViewAll       Action = "ticket:view_all"
	ActionTicketTriage        Action = "ticket:triage"
	ActionTicketAssign        Action = "ticket:assign"
	ActionTicketBulkUpdate    Action = "ticket:bulk_update"
	ActionTicketInternalNote  Action = "ticket:internal_note"
	ActionTimeLogManage       Action = "timelog:manage"
	ActionAllocationView      Action = "allocation:view"
	ActionAllocationManage    Action = "allocation:manage"
	ActionOrgManage           Action = "org:manage"
	ActionRoleManage          Action = "role:manage"
	ActionKBView              Action = "kb:view"
	ActionKBManage            Action = "kb:manage"
	ActionOpsDashboards       Action = "ops:dashboards"
)

var capabilities = map[Action][]domain.Role{
	ActionTicketCreate:       {domain.RoleClient, domain.RoleSupport, domain.RoleAdmin},
	ActionTicketViewOwnOrg:   {domain.RoleClient},
	ActionTicketViewAll:      {domain.RoleSupport, domain.RoleAdmin, domain.RoleOps},
	ActionTicketTriage:       {domain.RoleSupport, domain.RoleAdmin},
	ActionTicketAssign:       {domain.RoleSupport, domain.RoleAdmin},
	ActionTicketBulkUpdate:   {domain.RoleSupport, domain.RoleAdmin},
	ActionTicketInternalNote: {domain.RoleSupport, domain.RoleAdmin},
	ActionTimeLogManage:      {domain.RoleSupport, domain.RoleAdmin},
	ActionAllocationView:     {domain.RoleClient, domain.RoleSupport, domain.RoleAdmin, domain.RoleOps},
	ActionAllocationManage:   {domain.RoleAdmin, domain.RoleOps},
	ActionOrgManage:          {domain.RoleAdmin},
	ActionRoleManage:         {domain.RoleAdmin},
	ActionKBView:             {domain.RoleClient, domain.RoleSupport, domain.RoleAdmin, domain.RoleOps},
	ActionKBManage:           {domain.RoleSupport, domain.RoleAdmin},
	ActionOpsDashboards:      {domain.RoleOps, domain.RoleAdmin},
}

// Can reports whether any held role grants the action.
func Can(roles domain.RoleSet, action Action) bool {
	allowed, ok := capabilities[action]
	if !ok {
		return false
	}
	return roles.HasAny(allowed...)
}
