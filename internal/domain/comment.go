package domain

import "time"

// Comment is a message in a ticket thread.
type Comment struct {
	ID       string
	TicketID string
	// AuthorID is nil for anonymous comments posted through the public lookup.
	AuthorID   *string
	AuthorName string
	Message    string
	Internal   bool
	CreatedAt  time.Time
}
