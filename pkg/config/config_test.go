package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("CHAT_PREVIEW_LENGTH", "")
	Reset()
	t.Cleanup(Reset)

	cfg := Get()
	require.NotNil(t, cfg)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 50, cfg.Chat.PreviewLength)
	assert.Equal(t, 20, cfg.Matching.MaxResults)
	assert.Equal(t, 1_500_000.0, cfg.Matching.HiddenGemSalary)
	assert.Same(t, cfg, Get())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("APP_ENV", "production")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("CHAT_PONG_WAIT", "30s")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("DB_MAX_CONNS", "not-a-number")
	Reset()
	t.Cleanup(Reset)

	cfg := New()
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Security.AllowedOrigins)
	assert.Equal(t, 30*time.Second, cfg.Chat.PongWait)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 20, cfg.Database.MaxConns)
}

func TestDialectorFor(t *testing.T) {
	cfg := &Config{}
	cfg.Database.Driver = "sqlite"
	cfg.Database.SQLitePath = ":memory:"

	d, err := dialectorFor(cfg)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", d.Name())

	cfg.Database.Driver = "oracle"
	_, err = dialectorFor(cfg)
	assert.Error(t, err)
}
