package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/helpdesk-io/helpdesk/internal/domain"
	"github.com/helpdesk-io/helpdesk/internal/repository"
)

// Tickets is an in-memory TicketRepository.
type Tickets struct {
	mu    sync.RWMutex
	items map[string]domain.Ticket
}

var _ repository.TicketRepository = (*Tickets)(nil)

// NewTickets returns an empty store.
func NewTickets() *Tickets {
	return &Tickets{items: map[string]domain.Ticket{}}
}

func cloneTicket(t domain.Ticket) domain.Ticket {
	if t.Attachments != nil {
		t.Attachments = append([]domain.Attachment(nil), t.Attachments...)
	}
	if t.Guest != nil {
		g := *t.Guest
		t.Guest = &g
	}
	return t
}

func (r *Tickets) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.items {
		if existing.Number == ticket.Number {
			return fmt.Errorf("memory: duplicate ticket number %d", ticket.Number)
		}
	}
	if ticket.ID == "" {
		ticket.ID = uuid.NewString()
	}
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = time.Now().UTC()
	}
	ticket.UpdatedAt = ticket.CreatedAt
	r.items[ticket.ID] = cloneTicket(*ticket)
	return nil
}

func (r *Tickets) Update(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.items[ticket.ID]
	if !ok {
		return repository.ErrNotFound
	}
	ticket.Number = existing.Number
	ticket.CreatedAt = existing.CreatedAt
	ticket.OwnerID = existing.OwnerID
	ticket.CreatedByID = existing.CreatedByID
	ticket.SLANotified = existing.SLANotified
	ticket.UpdatedAt = time.Now().UTC()
	r.items[ticket.ID] = cloneTicket(*ticket)
	return nil
}

func (r *Tickets) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *Tickets) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ticket, ok := r.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	t := cloneTicket(ticket)
	return &t, nil
}

func (r *Tickets) GetByNumber(_ context.Context, number int64) (*domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, ticket := range r.items {
		if ticket.Number == number {
			t := cloneTicket(ticket)
			return &t, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *Tickets) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	search := ""
	if filter.SearchTerm != nil {
		search = strings.ToLower(strings.TrimSpace(*filter.SearchTerm))
	}

	var result []domain.Ticket
	for _, ticket := range r.items {
		if filter.OwnerID != nil && !ticket.IsOwner(*filter.OwnerID) {
			continue
		}
		if filter.AgentID != nil && !ticket.IsAssignedTo(*filter.AgentID) {
			continue
		}
		if filter.CategoryID != nil && (ticket.CategoryID == nil || *ticket.CategoryID != *filter.CategoryID) {
			continue
		}
		if len(filter.States) > 0 && !containsState(filter.States, ticket.State) {
			continue
		}
		if len(filter.Priorities) > 0 && !containsPriority(filter.Priorities, ticket.Priority) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(ticket.Title), search) &&
			!strings.Contains(strings.ToLower(ticket.Description), search) {
			continue
		}
		result = append(result, cloneTicket(ticket))
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].Number > result[j].Number
	})
	return page(result, filter.Limit, filter.Offset, 20), nil
}

func (r *Tickets) CountActiveByAgent(_ context.Context, agentID string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var count int64
	for _, ticket := range r.items {
		if ticket.IsAssignedTo(agentID) && isActive(ticket.State) {
			count++
		}
	}
	return count, nil
}

func (r *Tickets) ListSLABreached(_ context.Context, now time.Time) ([]domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Ticket
	for _, ticket := range r.items {
		if isActive(ticket.State) && !ticket.SLANotified && ticket.SLADueAt.Before(now) {
			result = append(result, cloneTicket(ticket))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SLADueAt.Before(result[j].SLADueAt) })
	return result, nil
}

func (r *Tickets) MarkSLANotified(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.items[id]
	if !ok {
		return repository.ErrNotFound
	}
	ticket.SLANotified = true
	r.items[id] = ticket
	return nil
}

func (r *Tickets) Stats(_ context.Context, now time.Time) (*domain.DashboardStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stats := &domain.DashboardStats{
		ByState:    map[domain.TicketState]int64{},
		ByPriority: map[domain.TicketPriority]int64{},
		AgentLoad:  map[string]int64{},
	}
	for _, ticket := range r.items {
		stats.ByState[ticket.State]++
		stats.ByPriority[ticket.Priority]++
		if !isActive(ticket.State) {
			continue
		}
		if ticket.SLADueAt.Before(now) {
			stats.Overdue++
		}
		if ticket.AgentID != nil {
			stats.AgentLoad[*ticket.AgentID]++
		}
	}
	return stats, nil
}

func isActive(state domain.TicketState) bool {
	return containsState(domain.ActiveStates, state)
}

func containsState(states []domain.TicketState, s domain.TicketState) bool {
	for _, candidate := range states {
		if candidate == s {
			return true
		}
	}
	return false
}

func containsPriority(priorities []domain.TicketPriority, p domain.TicketPriority) bool {
	for _, candidate := range priorities {
		if candidate == p {
			return true
		}
	}
	return false
}
