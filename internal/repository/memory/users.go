package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/helpdesk-io/helpdesk/internal/domain"
	"github.com/helpdesk-io/helpdesk/internal/repository"
)

// ErrDuplicateEmail mirrors the unique constraint on users.email.
var ErrDuplicateEmail = repository.ErrDuplicate

// Users is an in-memory UserRepository.
type Users struct {
	mu    sync.RWMutex
	items map[string]domain.User
	seq   int64
	order map[string]int64
}

var _ repository.UserRepository = (*Users)(nil)

// NewUsers returns an empty store.
func NewUsers() *Users {
	return &Users{items: map[string]domain.User{}, order: map[string]int64{}}
}

func (r *Users) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user.Email = strings.ToLower(user.Email)
	for _, existing := range r.items {
		if existing.Email == user.Email {
			return ErrDuplicateEmail
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	r.seq++
	r.order[user.ID] = r.seq
	r.items[user.ID] = *user
	return nil
}

func (r *Users) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[user.ID]; !ok {
		return repository.ErrNotFound
	}
	user.Email = strings.ToLower(user.Email)
	for id, existing := range r.items {
		if id != user.ID && existing.Email == user.Email {
			return ErrDuplicateEmail
		}
	}
	user.UpdatedAt = time.Now().UTC()
	r.items[user.ID] = *user
	return nil
}

func (r *Users) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.items, id)
	delete(r.order, id)
	return nil
}

func (r *Users) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}

func (r *Users) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	email = strings.ToLower(email)
	for _, user := range r.items {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *Users) List(_ context.Context, filter repository.UserFilter) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	search := strings.ToLower(strings.TrimSpace(filter.Search))

	var result []domain.User
	for _, user := range r.items {
		if len(filter.Roles) > 0 && !containsRole(filter.Roles, user.Role) {
			continue
		}
		if filter.Active != nil && user.Active != *filter.Active {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(user.Name), search) && !strings.Contains(user.Email, search) {
			continue
		}
		result = append(result, user)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return r.order[result[i].ID] < r.order[result[j].ID]
	})
	return page(result, filter.Limit, filter.Offset, 500), nil
}

func containsRole(roles []domain.Role, role domain.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

func page[T any](items []T, limit, offset, def int) []T {
	if limit <= 0 {
		limit = def
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
