package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_PORT", "")
	t.Setenv("SLA_SWEEP_INTERVAL_SECONDS", "")
	t.Setenv("POSTGRES_DSN", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
	assert.Equal(t, 30*time.Second, cfg.App.RequestTimeout())
	assert.Zero(t, cfg.SLA.SweepInterval())
	assert.Empty(t, cfg.Postgres.DSN)
	assert.Equal(t, 10*1024*1024, cfg.Storage.BodyLimit())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_PORT", "9000")
	t.Setenv("SLA_SWEEP_INTERVAL_SECONDS", "60")
	t.Setenv("REDIS_SETTINGS_TTL_SECONDS", "5")
	t.Setenv("NOTIFY_EMAIL_ENABLED", "true")
	t.Setenv("SMTP_PORT", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.App.Port)
	assert.Equal(t, time.Minute, cfg.SLA.SweepInterval())
	assert.Equal(t, 5*time.Second, cfg.Redis.SettingsCacheTTL())
	assert.True(t, cfg.Notification.Enabled)
	assert.Equal(t, 587, cfg.Notification.SMTPPort)
}

func TestLoad_InvalidRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "abc")

	_, err := Load()
	assert.Error(t, err)
}
