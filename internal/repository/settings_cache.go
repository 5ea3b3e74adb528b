package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/helpdesk-io/helpdesk/internal/domain"
)

const settingsCacheKey = "helpdesk:settings"

// CachedSettingsRepository is a read-through Redis cache in front of a SettingsRepository.
// A nil client or an unreachable server degrades to direct reads.
type CachedSettingsRepository struct {
	next   SettingsRepository
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedSettingsRepository wraps next with a Redis cache.
func NewCachedSettingsRepository(next SettingsRepository, client *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedSettingsRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedSettingsRepository{next: next, client: client, ttl: ttl, logger: logger}
}

func (r *CachedSettingsRepository) Get(ctx context.Context) (*domain.Settings, error) {
	if r.client != nil {
		raw, err := r.client.Get(ctx, settingsCacheKey).Bytes()
		switch {
		case err == nil:
			var settings domain.Settings
			if jsonErr := json.Unmarshal(raw, &settings); jsonErr == nil {
				return &settings, nil
			}
			r.logger.Warn("discarding undecodable cached settings")
		case !errors.Is(err, redis.Nil):
			r.logger.Warn("settings cache read failed", zap.Error(err))
		}
	}

	settings, err := r.next.Get(ctx)
	if err != nil {
		return nil, err
	}
	r.store(ctx, settings)
	return settings, nil
}

func (r *CachedSettingsRepository) Save(ctx context.Context, settings *domain.Settings) error {
	if err := r.next.Save(ctx, settings); err != nil {
		return err
	}
	r.store(ctx, settings)
	return nil
}

// Invalidate drops the cached document so the next Get hits the store.
func (r *CachedSettingsRepository) Invalidate(ctx context.Context) error {
	if r.client == nil {
		return nil
	}
	return r.client.Del(ctx, settingsCacheKey).Err()
}

func (r *CachedSettingsRepository) store(ctx context.Context, settings *domain.Settings) {
	if r.client == nil {
		return
	}
	payload, err := json.Marshal(settings)
	if err != nil {
		return
	}
	if err := r.client.Set(ctx, settingsCacheKey, payload, r.ttl).Err(); err != nil {
		r.logger.Warn("settings cache write failed", zap.Error(err))
	}
}
