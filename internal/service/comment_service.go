package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/helpdesk-io/helpdesk/internal/auth"
	"github.com/helpdesk-io/helpdesk/internal/domain"
	"github.com/helpdesk-io/helpdesk/internal/events"
	"github.com/helpdesk-io/helpdesk/internal/repository"
	apperrors "github.com/helpdesk-io/helpdesk/pkg/util/errorutil"
)

const previewLength = 140

// CommentService manages ticket threads.
type CommentService struct {
	tickets    repository.TicketRepository
	comments   repository.CommentRepository
	dispatcher events.Dispatcher
}

// NewCommentService builds the service.
func NewCommentService(tickets repository.TicketRepository, comments repository.CommentRepository, dispatcher events.Dispatcher) *CommentService {
	return &CommentService{tickets: tickets, comments: comments, dispatcher: dispatcher}
}

// CommentInput is a new message on a ticket thread.
type CommentInput struct {
	TicketID string
	Message  string
	Internal bool
}

// Create posts a comment as actor.
func (s *CommentService) Create(ctx context.Context, actor *domain.User, input CommentInput) (*domain.Comment, error) {
	message := strings.TrimSpace(input.Message)
	if message == "" {
		return nil, apperrors.NewValidationError("message is required", nil)
	}
	ticket, err := s.tickets.GetByID(ctx, input.TicketID)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "ticket", map[string]any{"ticket_id": input.TicketID})
	}
	if !auth.CanComment(actor, ticket) {
		return nil, apperrors.NewForbidden("not allowed to comment on this ticket")
	}
	if input.Internal && !auth.CanSeeInternal(actor) {
		return nil, apperrors.NewForbidden("only staff may post internal notes")
	}
	if ticket.Closed() {
		return nil, apperrors.NewConflict("ticket is closed", map[string]any{"ticket_id": ticket.ID})
	}

	comment := &domain.Comment{
		TicketID: ticket.ID,
		AuthorID: &actor.ID,
		Message:  message,
		Internal: input.Internal,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, apperrors.MapError(err)
	}

	events.Emit(ctx, s.dispatcher, events.Event{
		Type:     events.EventCommentAdded,
		TicketID: ticket.ID,
		ActorID:  &actor.ID,
		Payload: events.CommentAddedPayload{
			CommentID:   comment.ID,
			Internal:    comment.Internal,
			AuthorName:  actor.Name,
			ByStaff:     auth.IsStaff(actor),
			BodyPreview: preview(message),
		},
	})
	return comment, nil
}

// List returns the thread of a ticket; internal notes only reach staff.
func (s *CommentService) List(ctx context.Context, actor *domain.User, ticketID string) ([]domain.Comment, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "ticket", map[string]any{"ticket_id": ticketID})
	}
	if !auth.CanViewTicket(actor, ticket) {
		return nil, apperrors.NewForbidden("not allowed to access this ticket")
	}
	comments, err := s.comments.ListByTicket(ctx, ticket.ID, auth.CanSeeInternal(actor))
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return comments, nil
}

// Delete removes a comment. Admins only.
func (s *CommentService) Delete(ctx context.Context, actor *domain.User, id string) error {
	if !auth.CanDeleteComment(actor) {
		return apperrors.NewForbidden("only administrators may delete comments")
	}
	return apperrors.NotFoundOr(s.comments.Delete(ctx, id), "comment", map[string]any{"comment_id": id})
}

func preview(message string) string {
	if utf8.RuneCountInString(message) <= previewLength {
		return message
	}
	runes := []rune(message)
	return string(runes[:previewLength]) + "..."
}
