package dto

import (
	"strings"
	"time"

	"github.com/helpdesk-io/helpdesk/internal/domain"
)

// GuestRequest is the contact block of a ticket filed without an account.
type GuestRequest struct {
	Name       string `json:"name" validate:"required,max=120"`
	Email      string `json:"email" validate:"omitempty,email"`
	Phone      string `json:"phone" validate:"max=40"`
	DocumentID string `json:"document_id" validate:"max=40"`
}

// Contact converts the request block.
func (g *GuestRequest) Contact() *domain.GuestContact {
	if g == nil {
		return nil
	}
	return &domain.GuestContact{Name: g.Name, Email: g.Email, Phone: g.Phone, DocumentID: g.DocumentID}
}

// CreateTicketRequest is accepted as JSON or as multipart form data. Multipart
// clients send the guest block as flat guest_* fields and files under "files".
type CreateTicketRequest struct {
	Title         string                `json:"title" form:"title" validate:"required,max=200"`
	Description   string                `json:"description" form:"description" validate:"required"`
	Priority      domain.TicketPriority `json:"priority" form:"priority" validate:"omitempty,oneof=low medium high critical"`
	State         domain.TicketState    `json:"state" form:"state" validate:"omitempty,oneof=open in_progress resolved closed"`
	CategoryID    *string               `json:"category_id" form:"category_id"`
	SourceID      *string               `json:"source_id" form:"source_id"`
	ServiceTypeID *string               `json:"service_type_id" form:"service_type_id"`
	RequesterID   *string               `json:"requester_id" form:"requester_id"`
	AgentID       *string               `json:"agent_id" form:"agent_id"`
	Attachment    *string               `json:"attachment" form:"attachment"`
	Guest         *GuestRequest         `json:"guest" form:"-"`

	GuestName       string `json:"-" form:"guest_name"`
	GuestEmail      string `json:"-" form:"guest_email"`
	GuestPhone      string `json:"-" form:"guest_phone"`
	GuestDocumentID string `json:"-" form:"guest_document_id"`
}

// Normalize folds flat guest fields into Guest and turns empty ids into nil.
func (r *CreateTicketRequest) Normalize() {
	if r.Guest == nil && r.GuestName != "" {
		r.Guest = &GuestRequest{Name: r.GuestName, Email: r.GuestEmail, Phone: r.GuestPhone, DocumentID: r.GuestDocumentID}
	}
	r.CategoryID = BlankToNil(r.CategoryID)
	r.SourceID = BlankToNil(r.SourceID)
	r.ServiceTypeID = BlankToNil(r.ServiceTypeID)
	r.RequesterID = BlankToNil(r.RequesterID)
	r.AgentID = BlankToNil(r.AgentID)
	r.Attachment = BlankToNil(r.Attachment)
}

// PublicTicketRequest is the anonymous creation payload. Name and email are mandatory.
type PublicTicketRequest struct {
	Title       string                `json:"title" form:"title" validate:"required,max=200"`
	Description string                `json:"description" form:"description" validate:"required"`
	Priority    domain.TicketPriority `json:"priority" form:"priority" validate:"omitempty,oneof=low medium high critical"`
	CategoryID  *string               `json:"category_id" form:"category_id"`
	Name        string                `json:"name" form:"name" validate:"required,max=120"`
	Email       string                `json:"email" form:"email" validate:"required,email"`
	Phone       string                `json:"phone" form:"phone" validate:"max=40"`
	DocumentID  string                `json:"document_id" form:"document_id" validate:"max=40"`
}

// UpdateTicketRequest is a partial update. agent_id distinguishes absent from null.
type UpdateTicketRequest struct {
	Title         *string                `json:"title" validate:"omitempty,min=1,max=200"`
	Description   *string                `json:"description" validate:"omitempty,min=1"`
	Guest         *GuestRequest          `json:"guest"`
	CategoryID    *string                `json:"category_id"`
	Attachment    *string                `json:"attachment"`
	State         *domain.TicketState    `json:"state" validate:"omitempty,oneof=open in_progress resolved closed"`
	Priority      *domain.TicketPriority `json:"priority" validate:"omitempty,oneof=low medium high critical"`
	SourceID      *string                `json:"source_id"`
	ServiceTypeID *string                `json:"service_type_id"`
	AgentID       domain.OptionalString  `json:"agent_id"`
}

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	TicketID string `json:"ticket_id" validate:"required"`
	Message  string `json:"message" validate:"required"`
	Internal bool   `json:"is_internal"`
}

// PublicCommentRequest is posted from the public status page.
type PublicCommentRequest struct {
	Name    string `json:"name" validate:"max=120"`
	Message string `json:"message" validate:"required"`
}

// RatingRequest payload.
type RatingRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=1000"`
}

// TicketResponse is the staff and owner view of a ticket.
type TicketResponse struct {
	ID            string                `json:"id"`
	Number        int64                 `json:"ticket_id"`
	Title         string                `json:"title"`
	Description   string                `json:"description"`
	State         domain.TicketState    `json:"state"`
	Priority      domain.TicketPriority `json:"priority"`
	CategoryID    *string               `json:"category_id"`
	SourceID      *string               `json:"source_id"`
	ServiceTypeID *string               `json:"service_type_id"`
	OwnerID       *string               `json:"owner_id"`
	Guest         *domain.GuestContact  `json:"guest,omitempty"`
	AgentID       *string               `json:"agent_id"`
	CreatedByID   *string               `json:"created_by_id,omitempty"`
	Attachments   []domain.Attachment   `json:"attachments"`
	Attachment    *string               `json:"attachment,omitempty"`
	SLADueAt      time.Time             `json:"sla_due_at"`
	SLANotified   bool                  `json:"sla_notified"`
	Rating        *int                  `json:"rating"`
	RatingComment string                `json:"rating_comment,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
}

// CommentResponse is one message of a thread.
type CommentResponse struct {
	ID         string    `json:"id"`
	TicketID   string    `json:"ticket_id"`
	AuthorID   *string   `json:"author_id"`
	AuthorName string    `json:"author_name,omitempty"`
	Message    string    `json:"message"`
	Internal   bool      `json:"is_internal"`
	CreatedAt  time.Time `json:"created_at"`
}

// HistoryResponse is one audit trail entry of a ticket.
type HistoryResponse struct {
	ID          string               `json:"id"`
	ActorID     *string              `json:"actor_id"`
	Action      domain.HistoryAction `json:"action"`
	OldValue    *string              `json:"old_value"`
	NewValue    *string              `json:"new_value"`
	Description string               `json:"description"`
	CreatedAt   time.Time            `json:"created_at"`
}

// TicketDetailResponse bundles a ticket with its thread.
type TicketDetailResponse struct {
	Ticket   TicketResponse    `json:"ticket"`
	Comments []CommentResponse `json:"comments"`
	History  []HistoryResponse `json:"history,omitempty"`
}

// PublicTicketResponse is the anonymous status page. Contact details stay private.
type PublicTicketResponse struct {
	Number        int64                 `json:"ticket_id"`
	Title         string                `json:"title"`
	Description   string                `json:"description"`
	State         domain.TicketState    `json:"state"`
	Priority      domain.TicketPriority `json:"priority"`
	RequesterName string                `json:"requester_name,omitempty"`
	Assigned      bool                  `json:"assigned"`
	Attachments   []domain.Attachment   `json:"attachments"`
	Rating        *int                  `json:"rating"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
	ReadOnly      bool                  `json:"read_only"`
	Comments      []CommentResponse     `json:"comments"`
}

// NewTicketResponse converts a domain ticket.
func NewTicketResponse(t *domain.Ticket) TicketResponse {
	attachments := t.Attachments
	if attachments == nil {
		attachments = []domain.Attachment{}
	}
	return TicketResponse{
		ID:            t.ID,
		Number:        t.Number,
		Title:         t.Title,
		Description:   t.Description,
		State:         t.State,
		Priority:      t.Priority,
		CategoryID:    t.CategoryID,
		SourceID:      t.SourceID,
		ServiceTypeID: t.ServiceTypeID,
		OwnerID:       t.OwnerID,
		Guest:         t.Guest,
		AgentID:       t.AgentID,
		CreatedByID:   t.CreatedByID,
		Attachments:   attachments,
		Attachment:    t.LegacyAttachment,
		SLADueAt:      t.SLADueAt,
		SLANotified:   t.SLANotified,
		Rating:        t.Rating,
		RatingComment: t.RatingComment,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}

// NewTicketList converts a slice of tickets.
func NewTicketList(tickets []domain.Ticket) []TicketResponse {
	out := make([]TicketResponse, 0, len(tickets))
	for i := range tickets {
		out = append(out, NewTicketResponse(&tickets[i]))
	}
	return out
}

// NewCommentResponse converts a domain comment.
func NewCommentResponse(c *domain.Comment) CommentResponse {
	return CommentResponse{
		ID:         c.ID,
		TicketID:   c.TicketID,
		AuthorID:   c.AuthorID,
		AuthorName: c.AuthorName,
		Message:    c.Message,
		Internal:   c.Internal,
		CreatedAt:  c.CreatedAt,
	}
}

// NewCommentList converts a slice of comments.
func NewCommentList(comments []domain.Comment) []CommentResponse {
	out := make([]CommentResponse, 0, len(comments))
	for i := range comments {
		out = append(out, NewCommentResponse(&comments[i]))
	}
	return out
}

// NewHistoryList converts history entries.
func NewHistoryList(entries []domain.TicketHistory) []HistoryResponse {
	out := make([]HistoryResponse, 0, len(entries))
	for _, h := range entries {
		out = append(out, HistoryResponse{
			ID:          h.ID,
			ActorID:     h.ActorID,
			Action:      h.Action,
			OldValue:    h.OldValue,
			NewValue:    h.NewValue,
			Description: h.Description,
			CreatedAt:   h.CreatedAt,
		})
	}
	return out
}

// NewPublicTicketResponse builds the anonymous view.
func NewPublicTicketResponse(t *domain.Ticket, comments []domain.Comment, readOnly bool) PublicTicketResponse {
	attachments := t.Attachments
	if attachments == nil {
		attachments = []domain.Attachment{}
	}
	return PublicTicketResponse{
		Number:        t.Number,
		Title:         t.Title,
		Description:   t.Description,
		State:         t.State,
		Priority:      t.Priority,
		RequesterName: t.RequesterName(),
		Assigned:      t.AgentID != nil,
		Attachments:   attachments,
		Rating:        t.Rating,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
		ReadOnly:      readOnly,
		Comments:      NewCommentList(comments),
	}
}

// BlankToNil maps empty or whitespace-only strings to nil.
func BlankToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}
