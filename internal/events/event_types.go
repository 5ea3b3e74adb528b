package events

import (
	"time"

	"github.com/helpdesk-io/helpdesk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated         EventType = "ticket_created"
	EventTicketStatusChanged   EventType = "ticket_status_changed"
	EventTicketPriorityChanged EventType = "ticket_priority_changed"
	EventTicketAssigned        EventType = "ticket_assigned"
	EventCommentAdded          EventType = "comment_added"
	EventTicketRated           EventType = "ticket_rated"
)

// Event represents a domain event emitted by services.
// ActorID is nil for anonymous and system actions.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	ActorID   *string     `json:"actor_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Number   int64                 `json:"number"`
	Title    string                `json:"title"`
	Priority domain.TicketPriority `json:"priority"`
	AgentID  *string               `json:"agent_id,omitempty"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldState domain.TicketState `json:"old_state"`
	NewState domain.TicketState `json:"new_state"`
}

// TicketPriorityChangedPayload payload.
type TicketPriorityChangedPayload struct {
	OldPriority domain.TicketPriority `json:"old_priority"`
	NewPriority domain.TicketPriority `json:"new_priority"`
}

// TicketAssignedPayload payload. AgentID nil means unassigned.
type TicketAssignedPayload struct {
	OldAgentID *string `json:"old_agent_id,omitempty"`
	AgentID    *string `json:"agent_id,omitempty"`
}

// CommentAddedPayload payload.
type CommentAddedPayload struct {
	CommentID   string `json:"comment_id"`
	Internal    bool   `json:"internal"`
	AuthorName  string `json:"author_name"`
	ByStaff     bool   `json:"by_staff"`
	BodyPreview string `json:"body_preview"`
}

// TicketRatedPayload payload.
type TicketRatedPayload struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment,omitempty"`
}
