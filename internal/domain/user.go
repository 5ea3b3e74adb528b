package domain

import "time"

// Role enumerates the access level of a user account.
type Role string

const (
	RoleUser       Role = "user"
	RoleAgent      Role = "agent"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAgent, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// StaffRoles lists every role considered staff.
var StaffRoles = []Role{RoleAgent, RoleAdmin, RoleSuperAdmin}

// AdminRoles lists roles with administrative rights.
var AdminRoles = []Role{RoleAdmin, RoleSuperAdmin}

// User is any account: requesters and staff share one table and differ by role.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Department   string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
