package auth

import "github.com/helpdesk-io/helpdesk/internal/domain"

// Capability predicates. A nil user is an anonymous caller and fails every check.

func hasRole(u *domain.User, roles ...domain.Role) bool {
	if u == nil {
		return false
	}
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}

// IsStaff reports agent, admin or super admin.
func IsStaff(u *domain.User) bool {
	return hasRole(u, domain.StaffRoles...)
}

// IsAdmin reports admin or super admin.
func IsAdmin(u *domain.User) bool {
	return hasRole(u, domain.AdminRoles...)
}

func IsSuperAdmin(u *domain.User) bool {
	return hasRole(u, domain.RoleSuperAdmin)
}

// CanViewTicket allows the owner and any staff member.
func CanViewTicket(u *domain.User, t *domain.Ticket) bool {
	if u == nil || t == nil {
		return false
	}
	return IsStaff(u) || t.IsOwner(u.ID)
}

// CanEditTicketFields reports whether u may patch state, priority, agent and the other staff-only fields.
func CanEditTicketFields(u *domain.User) bool {
	return IsStaff(u)
}

// CanComment allows the owner, the assigned agent and admins.
func CanComment(u *domain.User, t *domain.Ticket) bool {
	if u == nil || t == nil {
		return false
	}
	return t.IsOwner(u.ID) || t.IsAssignedTo(u.ID) || IsAdmin(u)
}

func CanSeeInternal(u *domain.User) bool {
	return IsStaff(u)
}

func CanDeleteTicket(u *domain.User) bool {
	return IsAdmin(u)
}

func CanDeleteComment(u *domain.User) bool {
	return IsAdmin(u)
}

func CanManageUsers(u *domain.User) bool {
	return IsAdmin(u)
}

// CanGrantRole reports whether actor may create or promote an account to role.
// Only super admins hand out admin and super admin.
func CanGrantRole(actor *domain.User, role domain.Role) bool {
	switch role {
	case domain.RoleAdmin, domain.RoleSuperAdmin:
		return IsSuperAdmin(actor)
	default:
		return IsAdmin(actor)
	}
}

func CanReadAudit(u *domain.User) bool {
	return IsSuperAdmin(u)
}

func CanManageSettings(u *domain.User) bool {
	return IsAdmin(u)
}

// CanAccessModule consults the access matrix of the live settings document.
func CanAccessModule(settings domain.Settings, u *domain.User, module domain.Module) bool {
	if u == nil {
		return false
	}
	return settings.RoleAllowed(module, u.Role)
}
