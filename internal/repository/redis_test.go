package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpdesk-io/helpdesk/internal/domain"
)

type countingSettings struct {
	doc   *domain.Settings
	gets  int
	saves int
}

func (c *countingSettings) Get(context.Context) (*domain.Settings, error) {
	c.gets++
	if c.doc == nil {
		return nil, ErrNotFound
	}
	copied := *c.doc
	return &copied, nil
}

func (c *countingSettings) Save(_ context.Context, s *domain.Settings) error {
	c.saves++
	copied := *s
	c.doc = &copied
	return nil
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestCachedSettingsReadThrough(t *testing.T) {
	mr, client := newRedis(t)
	inner := &countingSettings{doc: &domain.Settings{AppName: "Desk"}}
	cache := NewCachedSettingsRepository(inner, client, time.Minute, nil)
	ctx := context.Background()

	first, err := cache.Get(ctx)
	require.NoError(t, err)
	second, err := cache.Get(ctx)
	require.NoError(t, err)

	assert.Equal(t, "Desk", first.AppName)
	assert.Equal(t, "Desk", second.AppName)
	assert.Equal(t, 1, inner.gets)
	assert.True(t, mr.Exists(settingsCacheKey))

	mr.FastForward(2 * time.Minute)
	_, err = cache.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.gets)
}

func TestCachedSettingsSaveRefreshesAndInvalidateDrops(t *testing.T) {
	mr, client := newRedis(t)
	inner := &countingSettings{doc: &domain.Settings{AppName: "Old"}}
	cache := NewCachedSettingsRepository(inner, client, time.Minute, nil)
	ctx := context.Background()

	_, err := cache.Get(ctx)
	require.NoError(t, err)
	require.NoError(t, cache.Save(ctx, &domain.Settings{AppName: "New"}))

	got, err := cache.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "New", got.AppName)
	assert.Equal(t, 1, inner.gets)

	require.NoError(t, cache.Invalidate(ctx))
	assert.False(t, mr.Exists(settingsCacheKey))
	_, err = cache.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.gets)
}

func TestCachedSettingsWithoutClientPassesThrough(t *testing.T) {
	inner := &countingSettings{}
	cache := NewCachedSettingsRepository(inner, nil, time.Minute, nil)

	_, err := cache.Get(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, cache.Invalidate(context.Background()))
}

func TestRedisResetTokenSingleUse(t *testing.T) {
	_, client := newRedis(t)
	store := NewRedisResetTokenStore(client)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, domain.PasswordResetToken{
		Token: "abc", UserID: "u1", ExpiresAt: time.Now().Add(time.Hour),
	}))

	token, err := store.Consume(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "u1", token.UserID)

	_, err = store.Consume(ctx, "abc")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisResetTokenExpires(t *testing.T) {
	mr, client := newRedis(t)
	store := NewRedisResetTokenStore(client)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, domain.PasswordResetToken{
		Token: "xyz", UserID: "u1", ExpiresAt: time.Now().Add(30 * time.Minute),
	}))
	mr.FastForward(31 * time.Minute)

	_, err := store.Consume(ctx, "xyz")
	assert.ErrorIs(t, err, ErrNotFound)
}
