package service

import (
	"context"
	"sort"

	"github.com/helpdesk-io/helpdesk/internal/domain"
	"github.com/helpdesk-io/helpdesk/internal/repository"
	apperrors "github.com/helpdesk-io/helpdesk/pkg/util/errorutil"
)

// AssignmentService picks and validates ticket assignees.
type AssignmentService struct {
	tickets repository.TicketRepository
	users   repository.UserRepository
}

// NewAssignmentService creates the service.
func NewAssignmentService(tickets repository.TicketRepository, users repository.UserRepository) *AssignmentService {
	return &AssignmentService{tickets: tickets, users: users}
}

type agentLoad struct {
	agent domain.User
	load  int64
}

// LeastLoadedAgent returns the active agent with the fewest open or in-progress tickets.
// Ties go to the agent created first. Nil when there are no agents.
func (s *AssignmentService) LeastLoadedAgent(ctx context.Context) (*domain.User, error) {
	active := true
	agents, err := repository.ListAllUsers(ctx, s.users, repository.UserFilter{
		Roles:  []domain.Role{domain.RoleAgent},
		Active: &active,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if len(agents) == 0 {
		return nil, nil
	}

	loads := make([]agentLoad, 0, len(agents))
	for _, agent := range agents {
		count, err := s.tickets.CountActiveByAgent(ctx, agent.ID)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		loads = append(loads, agentLoad{agent: agent, load: count})
	}
	return pickLeastLoaded(loads), nil
}

func pickLeastLoaded(loads []agentLoad) *domain.User {
	if len(loads) == 0 {
		return nil
	}
	sort.SliceStable(loads, func(i, j int) bool { return loads[i].load < loads[j].load })
	chosen := loads[0].agent
	return &chosen
}

// ValidateAssignee ensures id names an active agent or admin.
func (s *AssignmentService) ValidateAssignee(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewValidationError("agent not found", map[string]any{"agent_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	if !user.Active {
		return nil, apperrors.NewConflict("agent inactive", map[string]any{"agent_id": id})
	}
	switch user.Role {
	case domain.RoleAgent, domain.RoleAdmin, domain.RoleSuperAdmin:
		return user, nil
	default:
		return nil, apperrors.NewValidationError("assignee must be staff", map[string]any{"agent_id": id})
	}
}
