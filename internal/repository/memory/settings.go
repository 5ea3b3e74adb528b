package memory

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/helpdesk-io/helpdesk/internal/domain"
	"github.com/helpdesk-io/helpdesk/internal/repository"
)

// Settings is an in-memory SettingsRepository. Documents are stored encoded so callers never share maps.
type Settings struct {
	mu  sync.RWMutex
	raw []byte
}

var _ repository.SettingsRepository = (*Settings)(nil)

// NewSettings returns a store with no saved document.
func NewSettings() *Settings {
	return &Settings{}
}

func (r *Settings) Get(_ context.Context) (*domain.Settings, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.raw == nil {
		return nil, repository.ErrNotFound
	}
	var settings domain.Settings
	if err := json.Unmarshal(r.raw, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

func (r *Settings) Save(_ context.Context, settings *domain.Settings) error {
	raw, err := json.Marshal(settings)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.raw = raw
	r.mu.Unlock()
	return nil
}

// ResetTokens is an in-memory ResetTokenStore.
type ResetTokens struct {
	mu    sync.Mutex
	items map[string]domain.PasswordResetToken
	now   func() time.Time
}

var _ repository.ResetTokenStore = (*ResetTokens)(nil)

// NewResetTokens returns an empty store.
func NewResetTokens() *ResetTokens {
	return &ResetTokens{items: map[string]domain.PasswordResetToken{}, now: time.Now}
}

func (s *ResetTokens) Save(_ context.Context, token domain.PasswordResetToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[token.Token] = token
	return nil
}

func (s *ResetTokens) Consume(_ context.Context, token string) (*domain.PasswordResetToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.items[token]
	if !ok {
		return nil, repository.ErrNotFound
	}
	delete(s.items, token)
	if s.now().After(stored.ExpiresAt) {
		return nil, repository.ErrNotFound
	}
	return &stored, nil
}
