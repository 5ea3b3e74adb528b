package domain

import "time"

// HistoryAction captures what changed in a history entry.
type HistoryAction string

const (
	HistoryCreated         HistoryAction = "CREATED"
	HistoryStatusChanged   HistoryAction = "STATUS_CHANGED"
	HistoryAssigned        HistoryAction = "ASSIGNED"
	HistoryPriorityChanged HistoryAction = "PRIORITY_CHANGED"
)

// TicketHistory is an immutable audit trail entry.
type TicketHistory struct {
	ID          string
	TicketID    string
	ActorID     *string
	Action      HistoryAction
	OldValue    *string
	NewValue    *string
	Description string
	CreatedAt   time.Time
}
