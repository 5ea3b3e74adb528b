package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionalStringDistinguishesAbsentFromNull(t *testing.T) {
	type patch struct {
		AgentID OptionalString `json:"agent_id"`
	}

	var absent, null, empty, value patch
	require.NoError(t, json.Unmarshal([]byte(`{}`), &absent))
	require.NoError(t, json.Unmarshal([]byte(`{"agent_id":null}`), &null))
	require.NoError(t, json.Unmarshal([]byte(`{"agent_id":""}`), &empty))
	require.NoError(t, json.Unmarshal([]byte(`{"agent_id":"a1"}`), &value))

	assert.False(t, absent.AgentID.Set)
	assert.True(t, null.AgentID.Set)
	assert.Nil(t, null.AgentID.Value)
	assert.True(t, empty.AgentID.Set)
	assert.Nil(t, empty.AgentID.Value)
	require.NotNil(t, value.AgentID.Value)
	assert.Equal(t, "a1", *value.AgentID.Value)

	var bad patch
	assert.Error(t, json.Unmarshal([]byte(`{"agent_id":5}`), &bad))
}

func TestSettingsSLADurationFallsBack(t *testing.T) {
	s := Settings{SLAHours: map[TicketPriority]int{TicketPriorityCritical: 2, TicketPriorityHigh: 0}}
	assert.Equal(t, 2*time.Hour, s.SLADuration(TicketPriorityCritical))
	assert.Equal(t, 8*time.Hour, s.SLADuration(TicketPriorityHigh))
	assert.Equal(t, 24*time.Hour, s.SLADuration(TicketPriorityMedium))
	assert.Equal(t, 24*time.Hour, s.SLADuration(TicketPriority("bogus")))
}

func TestSettingsRoleAllowed(t *testing.T) {
	s := DefaultSettings()
	assert.True(t, s.RoleAllowed(ModuleTickets, RoleUser))
	assert.False(t, s.RoleAllowed(ModuleSettings, RoleAgent))
	assert.False(t, s.RoleAllowed(ModuleAudit, RoleAdmin))
	assert.True(t, s.RoleAllowed(ModuleAudit, RoleSuperAdmin))
}

func TestEnumsValid(t *testing.T) {
	assert.True(t, TicketStateInProgress.Valid())
	assert.False(t, TicketState("pending").Valid())
	assert.True(t, TicketPriorityCritical.Valid())
	assert.False(t, TicketPriority("urgent").Valid())
	assert.True(t, RoleSuperAdmin.Valid())
	assert.False(t, Role("agente").Valid())
}

func TestTicketHelpers(t *testing.T) {
	owner, agent := "u1", "a1"
	ticket := Ticket{OwnerID: &owner, AgentID: &agent, State: TicketStateClosed}
	assert.True(t, ticket.IsOwner("u1"))
	assert.False(t, ticket.IsOwner("a1"))
	assert.True(t, ticket.IsAssignedTo("a1"))
	assert.True(t, ticket.Closed())

	guest := Ticket{Guest: &GuestContact{Name: "Walk-in"}}
	assert.Equal(t, "Walk-in", guest.RequesterName())
	assert.False(t, guest.IsOwner(""))
}
