package auth

import "strings"

const (
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

// HasRole reports whether the principal carries the role tag, ignoring case.
func (p Principal) HasRole(role string) bool {
	role = strings.TrimSpace(strings.ToLower(role))
	if role == "" {
		return false
	}
	for _, r := range p.Roles {
		if strings.EqualFold(strings.TrimSpace(r), role) {
			return true
		}
	}
	return false
}

// IsAdmin reports whether any role tag grants unrestricted access.
func (p Principal) IsAdmin() bool {
	return p.HasRole(RoleAdmin) || p.HasRole(RoleSuperAdmin)
}

// IsSuperAdmin reports whether the principal holds the super_admin tag.
func (p Principal) IsSuperAdmin() bool {
	return p.HasRole(RoleSuperAdmin)
}
