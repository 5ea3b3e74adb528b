package domain

import "time"

// TicketState enumerates lifecycle states for tickets.
type TicketState string

const (
	TicketStateOpen       TicketState = "open"
	TicketStateInProgress TicketState = "in_progress"
	TicketStateResolved   TicketState = "resolved"
	TicketStateClosed     TicketState = "closed"
)

// Valid reports whether s is a known state.
func (s TicketState) Valid() bool {
	switch s {
	case TicketStateOpen, TicketStateInProgress, TicketStateResolved, TicketStateClosed:
		return true
	}
	return false
}

// ActiveStates are the states that count towards agent load and SLA tracking.
var ActiveStates = []TicketState{TicketStateOpen, TicketStateInProgress}

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "low"
	TicketPriorityMedium   TicketPriority = "medium"
	TicketPriorityHigh     TicketPriority = "high"
	TicketPriorityCritical TicketPriority = "critical"
)

// Valid reports whether p is a known priority.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityCritical:
		return true
	}
	return false
}

// GuestContact holds requester data for tickets filed without an account.
type GuestContact struct {
	Name       string `json:"name"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	DocumentID string `json:"document_id,omitempty"`
}

// Attachment describes an uploaded file.
type Attachment struct {
	URL          string `json:"url"`
	StorageID    string `json:"storage_id"`
	OriginalName string `json:"original_name"`
}

// Ticket is the aggregate for support requests.
//
// Exactly one of OwnerID and Guest is set.
type Ticket struct {
	ID            string
	Number        int64
	Title         string
	Description   string
	State         TicketState
	Priority      TicketPriority
	CategoryID    *string
	SourceID      *string
	ServiceTypeID *string
	OwnerID       *string
	Guest         *GuestContact
	AgentID       *string
	CreatedByID   *string
	Attachments   []Attachment
	// LegacyAttachment is the single-file field older clients still send.
	LegacyAttachment *string
	SLADueAt         time.Time
	SLANotified      bool
	Rating           *int
	RatingComment    string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsOwner reports whether userID is the registered requester.
func (t *Ticket) IsOwner(userID string) bool {
	return t.OwnerID != nil && *t.OwnerID == userID
}

// IsAssignedTo reports whether userID is the assigned agent.
func (t *Ticket) IsAssignedTo(userID string) bool {
	return t.AgentID != nil && *t.AgentID == userID
}

// Closed reports whether the ticket reached its terminal state.
func (t *Ticket) Closed() bool {
	return t.State == TicketStateClosed
}

// RequesterName returns the display name of a guest requester, if any.
func (t *Ticket) RequesterName() string {
	if t.Guest != nil {
		return t.Guest.Name
	}
	return ""
}
