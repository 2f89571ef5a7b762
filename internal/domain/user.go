package domain

import "time"

// Role enumerates application roles. A user may hold several staff roles
// at once; a client-only user holds exactly RoleClient.
type Role string

const (
	RoleClient  Role = "client"
	RoleSupport Role = "support"
	RoleAdmin   Role = "admin"
	RoleOps     Role = "ops"
)

// StaffRoles lists roles that grant access to the support surface.
var StaffRoles = []Role{RoleSupport, RoleAdmin, RoleOps}

// AssignableRoles lists roles eligible to hold a ticket. Ops reads the
// dashboards but never works the queue.
var AssignableRoles = []Role{RoleSupport, RoleAdmin}

// RoleSet is the resolved set of roles for a principal.
type RoleSet []Role

// Has reports whether the set contains the role.
func (rs RoleSet) Has(role Role) bool {
	for _, r := range rs {
		if r == role {
			return true
		}
	}
	return false
}

// HasAny reports whether the set intersects the given roles.
func (rs RoleSet) HasAny(roles ...Role) bool {
	for _, r := range roles {
		if rs.Has(r) {
			return true
		}
	}
	return false
}

// IsStaff reports whether any staff role is held.
func (rs RoleSet) IsStaff() bool {
	return rs.HasAny(StaffRoles...)
}

// IsPending reports the zero-roles state. New signups land here and are
// shown an access-pending response rather than an error.
func (rs RoleSet) IsPending() bool {
	return len(rs) == 0
}

// Strings returns the set as plain strings for token claims.
func (rs RoleSet) Strings() []string {
	out := make([]string, 0, len(rs))
	for _, r := range rs {
		out = append(out, string(r))
	}
	return out
}

// ParseRole validates a role string.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleClient, RoleSupport, RoleAdmin, RoleOps:
		return Role(s), true
	}
	return "", false
}

// User is a single account record covering both clients and staff. Clients
// authenticate via magic link and carry no password hash.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash *string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
