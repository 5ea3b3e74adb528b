package domain

import "time"

// LookupKind distinguishes the simple catalogs sharing the LookupItem shape.
type LookupKind string

const (
	LookupCategory    LookupKind = "category"
	LookupSource      LookupKind = "ticket_source"
	LookupServiceType LookupKind = "service_type"
)

// LookupItem is an entry of a simple catalog (categories, ticket sources, service types).
type LookupItem struct {
	ID          string
	Kind        LookupKind
	Name        string
	Description string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// FAQ is a published question/answer pair.
type FAQ struct {
	ID         string
	Question   string
	Answer     string
	CategoryID *string
	Published  bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CannedResponse is a reusable reply template for staff.
type CannedResponse struct {
	ID        string
	Title     string
	Body      string
	AuthorID  *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DashboardStats summarizes the ticket store for staff dashboards.
type DashboardStats struct {
	ByState    map[TicketState]int64
	ByPriority map[TicketPriority]int64
	Overdue    int64
	AgentLoad  map[string]int64
}
