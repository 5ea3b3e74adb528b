package domain

import "time"

// NotificationType tags in-app notifications so clients can pick an icon.
type NotificationType string

const (
	NotificationTicketCreated   NotificationType = "ticket_created"
	NotificationTicketAssigned  NotificationType = "ticket_assigned"
	NotificationStatusChanged   NotificationType = "status_changed"
	NotificationPriorityChanged NotificationType = "priority_changed"
	NotificationNewComment      NotificationType = "new_comment"
	NotificationTicketRated     NotificationType = "ticket_rated"
	NotificationSLABreach       NotificationType = "sla_breach"
)

// Notification is an in-app message for a single recipient.
type Notification struct {
	ID        string
	UserID    string
	Type      NotificationType
	Title     string
	Message   string
	Link      string
	Read      bool
	CreatedAt time.Time
}
