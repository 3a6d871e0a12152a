package domain

import "strings"

// Role is a member's tier within a household.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// ParseRole normalizes s and reports whether it names a known role.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	switch r {
	case RoleOwner, RoleAdmin, RoleMember:
		return r, true
	}
	return "", false
}

// roleGrants lists the roles each caller role may assign to another member.
// Owner is absent from every list: it is set only when a household is created.
var roleGrants = map[Role][]Role{
	RoleOwner:  {RoleAdmin, RoleMember},
	RoleAdmin:  {RoleAdmin, RoleMember},
	RoleMember: nil,
}

// CanManage reports whether the role may invite and change roles.
func (r Role) CanManage() bool {
	return r == RoleOwner || r == RoleAdmin
}

// CanAssign reports whether a caller holding r may set another member's role to target.
func (r Role) CanAssign(target Role) bool {
	for _, g := range roleGrants[r] {
		if g == target {
			return true
		}
	}
	return false
}

// Assignable reports whether any role may assign target.
func Assignable(target Role) bool {
	for _, grants := range roleGrants {
		for _, g := range grants {
			if g == target {
				return true
			}
		}
	}
	return false
}

// IsDemotion reports whether moving from r to next removes management rights.
func (r Role) IsDemotion(next Role) bool {
	return r.CanManage() && !next.CanManage()
}
