package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpdesk-io/helpdesk/internal/domain"
)

func TestLookupLifecycle(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	catalog := NewCatalogService(h.repos.Lookups, h.repos.FAQs, h.repos.CannedResponses)

	_, err := catalog.CreateLookup(ctx, domain.LookupSource, LookupInput{})
	assert.Equal(t, http.StatusBadRequest, statusOf(err))

	name := "Phone"
	item, err := catalog.CreateLookup(ctx, domain.LookupSource, LookupInput{Name: &name})
	require.NoError(t, err)
	assert.True(t, item.Active)

	off := false
	_, err = catalog.UpdateLookup(ctx, domain.LookupSource, item.ID, LookupInput{Active: &off})
	require.NoError(t, err)
	active, err := catalog.ListLookups(ctx, domain.LookupSource, true)
	require.NoError(t, err)
	assert.Empty(t, active)

	_, err = catalog.UpdateLookup(ctx, domain.LookupCategory, item.ID, LookupInput{Active: &off})
	assert.Equal(t, http.StatusNotFound, statusOf(err))
	require.NoError(t, catalog.DeleteLookup(ctx, domain.LookupSource, item.ID))
}

func TestFAQDraftsHiddenFromPublicList(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	catalog := NewCatalogService(h.repos.Lookups, h.repos.FAQs, h.repos.CannedResponses)

	q, a, draft := "How do I reset my password?", "Use the reset link.", false
	_, err := catalog.CreateFAQ(ctx, FAQInput{Question: &q, Answer: &a})
	require.NoError(t, err)
	_, err = catalog.CreateFAQ(ctx, FAQInput{Question: &q, Answer: &a, Published: &draft})
	require.NoError(t, err)

	public, err := catalog.ListFAQs(ctx, false)
	require.NoError(t, err)
	assert.Len(t, public, 1)
	all, err := catalog.ListFAQs(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	bogus := "missing"
	_, err = catalog.CreateFAQ(ctx, FAQInput{Question: &q, Answer: &a, CategoryID: &bogus})
	assert.Equal(t, http.StatusBadRequest, statusOf(err))
}

func TestCannedResponsesEditableByAuthorOrAdmin(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	catalog := NewCatalogService(h.repos.Lookups, h.repos.FAQs, h.repos.CannedResponses)
	author := h.user(t, "author", domain.RoleAgent)
	peer := h.user(t, "peer", domain.RoleAgent)
	admin := h.user(t, "admin", domain.RoleAdmin)

	title, body := "Restart", "Please restart the device and try again."
	response, err := catalog.CreateCannedResponse(ctx, author, CannedResponseInput{Title: &title, Body: &body})
	require.NoError(t, err)
	assert.Equal(t, author.ID, *response.AuthorID)

	changed := "Reboot"
	_, err = catalog.UpdateCannedResponse(ctx, peer, response.ID, CannedResponseInput{Title: &changed})
	assert.Equal(t, http.StatusForbidden, statusOf(err))
	updated, err := catalog.UpdateCannedResponse(ctx, author, response.ID, CannedResponseInput{Title: &changed})
	require.NoError(t, err)
	assert.Equal(t, "Reboot", updated.Title)

	require.NoError(t, catalog.DeleteCannedResponse(ctx, admin, response.ID))
	assert.Equal(t, http.StatusNotFound, statusOf(catalog.DeleteCannedResponse(ctx, admin, response.ID)))
}

func TestDashboardStats(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.user(t, "teacher", domain.RoleUser)
	agent := h.user(t, "agent", domain.RoleAgent)
	newTicket(t, h, owner, domain.TicketPriorityHigh)
	newTicket(t, h, owner, domain.TicketPriorityLow)

	dashboard := NewDashboardService(h.repos.Tickets)
	_, err := dashboard.Stats(ctx, owner)
	assert.Equal(t, http.StatusForbidden, statusOf(err))

	stats, err := dashboard.Stats(ctx, agent)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.ByState[domain.TicketStateOpen])
	assert.Equal(t, int64(1), stats.ByPriority[domain.TicketPriorityHigh])
	assert.Equal(t, int64(2), stats.AgentLoad[agent.ID])
	assert.Zero(t, stats.Overdue)
}
