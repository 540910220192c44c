package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("PORT", "")
	t.Setenv("GRAPH_DEMO_FALLBACK", "")
	t.Setenv("SEED_DEMO_DATA", "")

	cfg := Load()

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "v18.0", cfg.Facebook.APIVersion)
	assert.Equal(t, "https://graph.facebook.com", cfg.Facebook.BaseURL)
	assert.Equal(t, 15*time.Minute, cfg.RateLimitWindow)
	assert.Equal(t, 100, cfg.RateLimitMaxRequests)
	assert.False(t, cfg.Facebook.DemoFallback)
	assert.False(t, cfg.SeedDemoData)
	assert.False(t, cfg.IsDevelopment())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ENV", "development")
	t.Setenv("PORT", "8443")
	t.Setenv("RATE_LIMIT_WINDOW_MS", "60000")
	t.Setenv("POLL_INTERVAL", "45s")
	t.Setenv("GRAPH_DEMO_FALLBACK", "false")
	t.Setenv("RATE_LIMIT_MAX_REQUESTS", "not-a-number")

	cfg := Load()

	assert.Equal(t, "8443", cfg.Port)
	assert.Equal(t, time.Minute, cfg.RateLimitWindow)
	assert.Equal(t, 45*time.Second, cfg.PollInterval)
	assert.False(t, cfg.Facebook.DemoFallback)
	assert.True(t, cfg.SeedDemoData)
	assert.Equal(t, 100, cfg.RateLimitMaxRequests)
	assert.True(t, cfg.IsDevelopment())
}
