package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpdesk-io/helpdesk/internal/domain"
	"github.com/helpdesk-io/helpdesk/internal/repository"
)

func TestListAllUsersPagesPastOneBatch(t *testing.T) {
	ctx := context.Background()
	users := NewUsers()
	for i := 0; i < 450; i++ {
		require.NoError(t, users.Create(ctx, &domain.User{
			Name:   fmt.Sprintf("agent %03d", i),
			Email:  fmt.Sprintf("agent%03d@school.test", i),
			Role:   domain.RoleAgent,
			Active: true,
		}))
	}
	require.NoError(t, users.Create(ctx, &domain.User{Name: "teacher", Email: "teacher@school.test", Role: domain.RoleUser, Active: true}))

	agents, err := repository.ListAllUsers(ctx, users, repository.UserFilter{Roles: []domain.Role{domain.RoleAgent}, Limit: 5, Offset: 40})
	require.NoError(t, err)
	require.Len(t, agents, 450)
	assert.Equal(t, "agent 000", agents[0].Name)
	assert.Equal(t, "agent 449", agents[449].Name)
}

func TestListAllUsersExactMultipleOfBatch(t *testing.T) {
	ctx := context.Background()
	users := NewUsers()
	for i := 0; i < 400; i++ {
		require.NoError(t, users.Create(ctx, &domain.User{
			Name:  fmt.Sprintf("user %03d", i),
			Email: fmt.Sprintf("user%03d@school.test", i),
			Role:  domain.RoleUser,
		}))
	}

	all, err := repository.ListAllUsers(ctx, users, repository.UserFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 400)
}

func TestTicketUpdateKeepsStoredSLAFlag(t *testing.T) {
	ctx := context.Background()
	tickets := NewTickets()
	ticket := &domain.Ticket{
		Number:   1,
		Title:    "Wi-Fi down",
		State:    domain.TicketStateOpen,
		Priority: domain.TicketPriorityCritical,
		SLADueAt: time.Date(2026, 3, 2, 13, 0, 0, 0, time.UTC),
	}
	require.NoError(t, tickets.Create(ctx, ticket))

	stale, err := tickets.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	require.NoError(t, tickets.MarkSLANotified(ctx, ticket.ID))

	stale.Title = "Wi-Fi down in library"
	require.NoError(t, tickets.Update(ctx, stale))
	assert.True(t, stale.SLANotified)

	stored, err := tickets.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.True(t, stored.SLANotified)
	assert.Equal(t, "Wi-Fi down in library", stored.Title)
}
