package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpdesk-io/helpdesk/internal/domain"
)

func TestRatingClosesResolvedTicketIrreversibly(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.user(t, "teacher", domain.RoleUser)
	agent := h.user(t, "agent", domain.RoleAgent)
	ticket := newTicket(t, h, owner, domain.TicketPriorityLow)

	_, err := h.public.Rate(ctx, ticket.Number, 5, "thanks")
	assert.Equal(t, http.StatusConflict, statusOf(err))

	resolved := domain.TicketStateResolved
	_, err = h.tickets.UpdateTicket(ctx, agent, ticket.ID, TicketPatch{State: &resolved})
	require.NoError(t, err)

	_, err = h.public.Rate(ctx, ticket.Number, 6, "")
	assert.Equal(t, http.StatusBadRequest, statusOf(err))

	rated, err := h.public.Rate(ctx, ticket.Number, 4, " quick fix ")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStateClosed, rated.State)
	require.NotNil(t, rated.Rating)
	assert.Equal(t, 4, *rated.Rating)
	assert.Equal(t, "quick fix", rated.RatingComment)
	assert.Equal(t, domain.NotificationTicketRated, h.notificationsFor(t, agent.ID)[0].Type)

	_, err = h.public.Rate(ctx, ticket.Number, 1, "changed my mind")
	assert.Equal(t, http.StatusConflict, statusOf(err))
	_, err = h.public.AddComment(ctx, ticket.Number, "Visitor", "hello?")
	assert.Equal(t, http.StatusConflict, statusOf(err))
	_, err = h.comments.Create(ctx, owner, CommentInput{TicketID: ticket.ID, Message: "hello?"})
	assert.Equal(t, http.StatusConflict, statusOf(err))
	reopen := domain.TicketStateOpen
	_, err = h.tickets.UpdateTicket(ctx, agent, ticket.ID, TicketPatch{State: &reopen})
	assert.Equal(t, http.StatusConflict, statusOf(err))

	view, err := h.public.Lookup(ctx, ticket.Number)
	require.NoError(t, err)
	assert.True(t, view.ReadOnly)
	assert.Equal(t, 4, *view.Ticket.Rating)
}

func TestPublicCommentNotifiesAgent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	agent := h.user(t, "agent", domain.RoleAgent)
	ticket, err := h.tickets.CreateTicket(ctx, nil, TicketCreateInput{
		Title: "Locked out", Description: "Cannot log in",
		Guest: &domain.GuestContact{Name: "Visitor", Email: "visitor@mail.test"},
	})
	require.NoError(t, err)

	comment, err := h.public.AddComment(ctx, ticket.Number, "", "Still locked out")
	require.NoError(t, err)
	assert.Nil(t, comment.AuthorID)
	assert.Equal(t, "Visitor", comment.AuthorName)

	inbox := h.notificationsFor(t, agent.ID)
	assert.Equal(t, domain.NotificationNewComment, inbox[0].Type)
	mails := h.mailer.SentTo(agent.Email)
	require.NotEmpty(t, mails)
	assert.Equal(t, "Still locked out", mails[len(mails)-1].Data["Message"])

	_, err = h.public.Lookup(ctx, 999)
	assert.Equal(t, http.StatusNotFound, statusOf(err))
	_, err = h.public.AddComment(ctx, ticket.Number, "x", " ")
	assert.Equal(t, http.StatusBadRequest, statusOf(err))
}
