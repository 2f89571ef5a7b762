package service

import "github.com/opsdeck/support-portal/internal/domain"

// Actor is the caller identity passed into service operations. Handlers
// build it from the authenticated principal.
type Actor struct {
	UserID string
	Roles  domain.RoleSet
	OrgID  *string
}

// IsStaff reports whether the actor holds any staff role.
func (a Actor) IsStaff() bool {
	return a.Roles.IsStaff()
}
