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

// Lookups is an in-memory LookupRepository.
type Lookups struct {
	mu    sync.RWMutex
	items map[string]domain.LookupItem
}

var _ repository.LookupRepository = (*Lookups)(nil)

// NewLookups returns an empty store.
func NewLookups() *Lookups {
	return &Lookups{items: map[string]domain.LookupItem{}}
}

func (r *Lookups) Create(_ context.Context, item *domain.LookupItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	item.ID = uuid.NewString()
	item.CreatedAt = time.Now().UTC()
	item.UpdatedAt = item.CreatedAt
	r.items[item.ID] = *item
	return nil
}

func (r *Lookups) Update(_ context.Context, item *domain.LookupItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.items[item.ID]
	if !ok || existing.Kind != item.Kind {
		return repository.ErrNotFound
	}
	item.CreatedAt = existing.CreatedAt
	item.UpdatedAt = time.Now().UTC()
	r.items[item.ID] = *item
	return nil
}

func (r *Lookups) Delete(_ context.Context, kind domain.LookupKind, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.items[id]
	if !ok || existing.Kind != kind {
		return repository.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *Lookups) GetByID(_ context.Context, kind domain.LookupKind, id string) (*domain.LookupItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.items[id]
	if !ok || item.Kind != kind {
		return nil, repository.ErrNotFound
	}
	return &item, nil
}

func (r *Lookups) List(_ context.Context, kind domain.LookupKind, activeOnly bool) ([]domain.LookupItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.LookupItem
	for _, item := range r.items {
		if item.Kind != kind || (activeOnly && !item.Active) {
			continue
		}
		result = append(result, item)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// FAQs is an in-memory FAQRepository.
type FAQs struct {
	mu    sync.RWMutex
	items []domain.FAQ
}

var _ repository.FAQRepository = (*FAQs)(nil)

// NewFAQs returns an empty store.
func NewFAQs() *FAQs {
	return &FAQs{}
}

func (r *FAQs) Create(_ context.Context, faq *domain.FAQ) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	faq.ID = uuid.NewString()
	faq.CreatedAt = time.Now().UTC()
	faq.UpdatedAt = faq.CreatedAt
	r.items = append(r.items, *faq)
	return nil
}

func (r *FAQs) Update(_ context.Context, faq *domain.FAQ) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].ID == faq.ID {
			faq.CreatedAt = r.items[i].CreatedAt
			faq.UpdatedAt = time.Now().UTC()
			r.items[i] = *faq
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *FAQs) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].ID == id {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *FAQs) GetByID(_ context.Context, id string) (*domain.FAQ, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, faq := range r.items {
		if faq.ID == id {
			f := faq
			return &f, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *FAQs) List(_ context.Context, publishedOnly bool) ([]domain.FAQ, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.FAQ
	for _, faq := range r.items {
		if publishedOnly && !faq.Published {
			continue
		}
		result = append(result, faq)
	}
	return result, nil
}

// CannedResponses is an in-memory CannedResponseRepository.
type CannedResponses struct {
	mu    sync.RWMutex
	items map[string]domain.CannedResponse
}

var _ repository.CannedResponseRepository = (*CannedResponses)(nil)

// NewCannedResponses returns an empty store.
func NewCannedResponses() *CannedResponses {
	return &CannedResponses{items: map[string]domain.CannedResponse{}}
}

func (r *CannedResponses) Create(_ context.Context, response *domain.CannedResponse) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	response.ID = uuid.NewString()
	response.CreatedAt = time.Now().UTC()
	response.UpdatedAt = response.CreatedAt
	r.items[response.ID] = *response
	return nil
}

func (r *CannedResponses) Update(_ context.Context, response *domain.CannedResponse) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.items[response.ID]
	if !ok {
		return repository.ErrNotFound
	}
	response.AuthorID = existing.AuthorID
	response.CreatedAt = existing.CreatedAt
	response.UpdatedAt = time.Now().UTC()
	r.items[response.ID] = *response
	return nil
}

func (r *CannedResponses) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *CannedResponses) GetByID(_ context.Context, id string) (*domain.CannedResponse, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	response, ok := r.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &response, nil
}

func (r *CannedResponses) List(_ context.Context) ([]domain.CannedResponse, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]domain.CannedResponse, 0, len(r.items))
	for _, response := range r.items {
		result = append(result, response)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Title < result[j].Title })
	return result, nil
}
