package service

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpdesk-io/helpdesk/internal/domain"
)

func TestInternalCommentsNeverReachRequesters(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.user(t, "teacher", domain.RoleUser)
	agent := h.user(t, "agent", domain.RoleAgent)
	admin := h.user(t, "admin", domain.RoleAdmin)
	ticket := newTicket(t, h, owner, domain.TicketPriorityLow)
	ownerMails := len(h.mailer.SentTo(owner.Email))
	agentInbox := len(h.notificationsFor(t, agent.ID))

	_, err := h.comments.Create(ctx, admin, CommentInput{TicketID: ticket.ID, Message: "Vendor contacted", Internal: true})
	require.NoError(t, err)
	_, err = h.comments.Create(ctx, agent, CommentInput{TicketID: ticket.ID, Message: "Working on it"})
	require.NoError(t, err)

	staffView, err := h.comments.List(ctx, agent, ticket.ID)
	require.NoError(t, err)
	assert.Len(t, staffView, 2)

	ownerView, err := h.comments.List(ctx, owner, ticket.ID)
	require.NoError(t, err)
	require.Len(t, ownerView, 1)
	assert.Equal(t, "Working on it", ownerView[0].Message)

	detail, err := h.tickets.GetTicket(ctx, owner, ticket.ID)
	require.NoError(t, err)
	assert.Len(t, detail.Comments, 1)
	assert.Nil(t, detail.History)

	public, err := h.public.Lookup(ctx, ticket.Number)
	require.NoError(t, err)
	require.Len(t, public.Comments, 1)
	assert.False(t, public.Comments[0].Internal)

	// The internal note reached the agent in-app only; the public reply reached the owner.
	assert.Len(t, h.notificationsFor(t, agent.ID), agentInbox+1)
	assert.Len(t, h.notificationsFor(t, owner.ID), 1)
	assert.Len(t, h.mailer.SentTo(owner.Email), ownerMails+1)
}

func TestCommentPermissions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.user(t, "teacher", domain.RoleUser)
	agent := h.user(t, "agent", domain.RoleAgent)
	otherAgent := h.user(t, "other", domain.RoleAgent)
	ticket := newTicket(t, h, owner, domain.TicketPriorityLow)
	require.Equal(t, agent.ID, *ticket.AgentID)

	_, err := h.comments.Create(ctx, owner, CommentInput{TicketID: ticket.ID, Message: "secret", Internal: true})
	assert.Equal(t, http.StatusForbidden, statusOf(err))
	_, err = h.comments.Create(ctx, otherAgent, CommentInput{TicketID: ticket.ID, Message: "hi"})
	assert.Equal(t, http.StatusForbidden, statusOf(err))
	_, err = h.comments.Create(ctx, owner, CommentInput{TicketID: ticket.ID, Message: "   "})
	assert.Equal(t, http.StatusBadRequest, statusOf(err))
	_, err = h.comments.Create(ctx, owner, CommentInput{TicketID: "missing", Message: "hi"})
	assert.Equal(t, http.StatusNotFound, statusOf(err))

	comment, err := h.comments.Create(ctx, owner, CommentInput{TicketID: ticket.ID, Message: "Any update?"})
	require.NoError(t, err)
	inbox := h.notificationsFor(t, agent.ID)
	assert.Equal(t, domain.NotificationNewComment, inbox[0].Type)

	assert.Equal(t, http.StatusForbidden, statusOf(h.comments.Delete(ctx, agent, comment.ID)))
	admin := h.user(t, "admin", domain.RoleAdmin)
	require.NoError(t, h.comments.Delete(ctx, admin, comment.ID))
	assert.Equal(t, http.StatusNotFound, statusOf(h.comments.Delete(ctx, admin, comment.ID)))
}

func TestPreviewTruncatesLongMessages(t *testing.T) {
	long := strings.Repeat("é", previewLength+10)
	got := preview(long)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Equal(t, previewLength+3, len([]rune(got)))
	assert.Equal(t, "short", preview("short"))
}
