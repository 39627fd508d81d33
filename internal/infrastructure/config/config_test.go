package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "https://public-api.wordpress.com", cfg.WordPress.APIBase)
	assert.Equal(t, "http://localhost:8000/auth/callback", cfg.WordPress.RedirectURI)
	assert.Equal(t, 30*time.Second, cfg.Proxy.UpstreamTimeout)
	assert.Equal(t, int64(10<<20), cfg.Proxy.MaxBodyBytes)
	assert.True(t, cfg.Proxy.StripFrameHeaders)
	assert.False(t, cfg.RateLimit.Enabled)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("WORDPRESS_CLIENT_ID", "client-123")
	t.Setenv("PROXY_STRIP_FRAME_HEADERS", "false")
	t.Setenv("PROXY_UPSTREAM_TIMEOUT", "5s")
	t.Setenv("RATE_LIMIT_ENABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9999", cfg.Server.Port)
	assert.Equal(t, "client-123", cfg.WordPress.ClientID)
	assert.False(t, cfg.Proxy.StripFrameHeaders)
	assert.Equal(t, 5*time.Second, cfg.Proxy.UpstreamTimeout)
	assert.True(t, cfg.RateLimit.Enabled)
}

func TestLoadDefaultsApply(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://public-api.wordpress.com", cfg.WordPress.APIBase)
	assert.Equal(t, 100, cfg.RateLimit.RequestsPerSecond)
}
