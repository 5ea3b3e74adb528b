package service

import (
	"context"
	"strings"

	"github.com/helpdesk-io/helpdesk/internal/domain"
	"github.com/helpdesk-io/helpdesk/internal/events"
	"github.com/helpdesk-io/helpdesk/internal/repository"
	apperrors "github.com/helpdesk-io/helpdesk/pkg/util/errorutil"
)

// PublicService serves the anonymous status page keyed by ticket number.
type PublicService struct {
	tickets    repository.TicketRepository
	comments   repository.CommentRepository
	dispatcher events.Dispatcher
}

// NewPublicService builds the service.
func NewPublicService(tickets repository.TicketRepository, comments repository.CommentRepository, dispatcher events.Dispatcher) *PublicService {
	return &PublicService{tickets: tickets, comments: comments, dispatcher: dispatcher}
}

// PublicTicketView is what an anonymous visitor sees.
type PublicTicketView struct {
	Ticket   *domain.Ticket
	Comments []domain.Comment
	ReadOnly bool
}

// Lookup returns the ticket and its public thread.
func (s *PublicService) Lookup(ctx context.Context, number int64) (*PublicTicketView, error) {
	ticket, err := s.byNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByTicket(ctx, ticket.ID, false)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &PublicTicketView{Ticket: ticket, Comments: comments, ReadOnly: ticket.Closed()}, nil
}

// AddComment appends an anonymous comment while the ticket is not closed.
func (s *PublicService) AddComment(ctx context.Context, number int64, name, message string) (*domain.Comment, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, apperrors.NewValidationError("message is required", nil)
	}
	ticket, err := s.byNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if ticket.Closed() {
		return nil, apperrors.NewConflict("ticket is closed", map[string]any{"number": number})
	}

	author := strings.TrimSpace(name)
	if author == "" {
		author = ticket.RequesterName()
	}
	if author == "" {
		author = "Guest"
	}
	comment := &domain.Comment{TicketID: ticket.ID, AuthorName: author, Message: message}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, apperrors.MapError(err)
	}

	events.Emit(ctx, s.dispatcher, events.Event{
		Type:     events.EventCommentAdded,
		TicketID: ticket.ID,
		Payload: events.CommentAddedPayload{
			CommentID:   comment.ID,
			AuthorName:  author,
			BodyPreview: preview(message),
		},
	})
	return comment, nil
}

// Rate records the requester's satisfaction and closes a resolved ticket.
// Closing is terminal, so a ticket can be rated once.
func (s *PublicService) Rate(ctx context.Context, number int64, rating int, comment string) (*domain.Ticket, error) {
	if rating < 1 || rating > 5 {
		return nil, apperrors.NewValidationError("rating must be between 1 and 5", map[string]any{"rating": rating})
	}
	ticket, err := s.byNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if ticket.State != domain.TicketStateResolved {
		return nil, apperrors.NewConflict("only resolved tickets can be rated", map[string]any{"state": ticket.State})
	}

	ticket.Rating = &rating
	ticket.RatingComment = strings.TrimSpace(comment)
	ticket.State = domain.TicketStateClosed
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.NotFoundOr(err, "ticket", map[string]any{"number": number})
	}

	events.Emit(ctx, s.dispatcher, events.Event{
		Type:     events.EventTicketRated,
		TicketID: ticket.ID,
		Payload:  events.TicketRatedPayload{Rating: rating, Comment: ticket.RatingComment},
	})
	return ticket, nil
}

func (s *PublicService) byNumber(ctx context.Context, number int64) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByNumber(ctx, number)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "ticket", map[string]any{"number": number})
	}
	return ticket, nil
}
