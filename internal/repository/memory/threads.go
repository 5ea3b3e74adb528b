package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/helpdesk-io/helpdesk/internal/domain"
	"github.com/helpdesk-io/helpdesk/internal/repository"
)

// History is an in-memory TicketHistoryRepository.
type History struct {
	mu    sync.RWMutex
	items []domain.TicketHistory
}

var _ repository.TicketHistoryRepository = (*History)(nil)

// NewHistory returns an empty store.
func NewHistory() *History {
	return &History{}
}

func (r *History) Create(_ context.Context, history *domain.TicketHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	history.ID = uuid.NewString()
	history.CreatedAt = time.Now().UTC()
	r.items = append(r.items, *history)
	return nil
}

func (r *History) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketHistory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.TicketHistory
	for _, entry := range r.items {
		if entry.TicketID == ticketID {
			result = append(result, entry)
		}
	}
	return result, nil
}

// Comments is an in-memory CommentRepository.
type Comments struct {
	mu    sync.RWMutex
	items []domain.Comment
}

var _ repository.CommentRepository = (*Comments)(nil)

// NewComments returns an empty store.
func NewComments() *Comments {
	return &Comments{}
}

func (r *Comments) Create(_ context.Context, comment *domain.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	comment.ID = uuid.NewString()
	comment.CreatedAt = time.Now().UTC()
	r.items = append(r.items, *comment)
	return nil
}

func (r *Comments) GetByID(_ context.Context, id string) (*domain.Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, comment := range r.items {
		if comment.ID == id {
			c := comment
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *Comments) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, comment := range r.items {
		if comment.ID == id {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *Comments) ListByTicket(_ context.Context, ticketID string, includeInternal bool) ([]domain.Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Comment
	for _, comment := range r.items {
		if comment.TicketID != ticketID || (comment.Internal && !includeInternal) {
			continue
		}
		result = append(result, comment)
	}
	return result, nil
}

// Notifications is an in-memory NotificationRepository.
type Notifications struct {
	mu    sync.RWMutex
	items []domain.Notification
}

var _ repository.NotificationRepository = (*Notifications)(nil)

// NewNotifications returns an empty store.
func NewNotifications() *Notifications {
	return &Notifications{}
}

func (r *Notifications) Create(_ context.Context, n *domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n.ID = uuid.NewString()
	n.Read = false
	n.CreatedAt = time.Now().UTC()
	r.items = append(r.items, *n)
	return nil
}

func (r *Notifications) ListByUser(_ context.Context, userID string, unreadOnly bool, limit, offset int) ([]domain.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Notification
	for i := len(r.items) - 1; i >= 0; i-- {
		n := r.items[i]
		if n.UserID != userID || (unreadOnly && n.Read) {
			continue
		}
		result = append(result, n)
	}
	return page(result, limit, offset, 50), nil
}

func (r *Notifications) MarkRead(_ context.Context, id, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].ID == id && r.items[i].UserID == userID {
			r.items[i].Read = true
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *Notifications) MarkAllRead(_ context.Context, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for i := range r.items {
		if r.items[i].UserID == userID && !r.items[i].Read {
			r.items[i].Read = true
			count++
		}
	}
	return count, nil
}

// Audit is an in-memory AuditRepository.
type Audit struct {
	mu    sync.RWMutex
	items []domain.AuditLog
}

var _ repository.AuditRepository = (*Audit)(nil)

// NewAudit returns an empty store.
func NewAudit() *Audit {
	return &Audit{}
}

func (r *Audit) Create(_ context.Context, entry *domain.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry.ID = uuid.NewString()
	entry.CreatedAt = time.Now().UTC()
	r.items = append(r.items, *entry)
	return nil
}

func (r *Audit) List(_ context.Context, filter repository.AuditFilter) ([]domain.AuditLog, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.AuditLog
	for i := len(r.items) - 1; i >= 0; i-- {
		entry := r.items[i]
		if filter.ActorID != nil && (entry.ActorID == nil || *entry.ActorID != *filter.ActorID) {
			continue
		}
		if filter.Action != nil && entry.Action != *filter.Action {
			continue
		}
		result = append(result, entry)
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return page(result, filter.Limit, filter.Offset, 50), int64(len(result)), nil
}
