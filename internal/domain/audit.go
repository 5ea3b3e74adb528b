package domain

import "time"

// AuditAction names an administrative action.
type AuditAction string

const (
	AuditLogin           AuditAction = "login"
	AuditSettingsUpdated AuditAction = "settings_updated"
	AuditUserCreated     AuditAction = "user_created"
	AuditUserUpdated     AuditAction = "user_updated"
	AuditUserDeleted     AuditAction = "user_deleted"
	AuditTicketDeleted   AuditAction = "ticket_deleted"
	AuditPasswordReset   AuditAction = "password_reset"
)

// AuditLog is a system-wide append-only record of an administrative action.
type AuditLog struct {
	ID        string
	ActorID   *string
	Action    AuditAction
	Details   map[string]any
	IP        string
	CreatedAt time.Time
}
