package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"STUDIO_API_URL", "STUDIO_PORT", "STUDIO_OUTPUT_DIR", "STUDIO_ALLOWED_ORIGINS", "STUDIO_SESSION_TTL", "STUDIO_HTTP_TIMEOUT", "STUDIO_CACHE_DIR"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "http://localhost:8000", cfg.APIBaseURL)
	assert.Zero(t, cfg.HTTPTimeout)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STUDIO_API_URL", "http://transcriber:9000/")
	t.Setenv("STUDIO_PORT", "9090")
	t.Setenv("STUDIO_OUTPUT_DIR", "/tmp/exports")
	t.Setenv("STUDIO_ALLOWED_ORIGINS", "http://a.test, ,http://b.test")
	t.Setenv("STUDIO_SESSION_TTL", "5m")
	t.Setenv("STUDIO_HTTP_TIMEOUT", "45s")
	t.Setenv("STUDIO_CACHE_DIR", "/tmp/studio-cache")

	cfg := Load()

	assert.Equal(t, "http://transcriber:9000", cfg.APIBaseURL)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "/tmp/exports", cfg.OutputDir)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
	assert.Equal(t, 5*time.Minute, cfg.SessionTTL)
	assert.Equal(t, 45*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "/tmp/studio-cache", cfg.CacheDir)
}

func TestLoadIgnoresMalformed(t *testing.T) {
	t.Setenv("STUDIO_API_URL", "")
	t.Setenv("STUDIO_PORT", "not-a-port")
	t.Setenv("STUDIO_SESSION_TTL", "-1m")
	t.Setenv("STUDIO_HTTP_TIMEOUT", "soon")

	cfg := Load()

	assert.Equal(t, defaultPort, cfg.Port)
	assert.Equal(t, defaultSessionTTL, cfg.SessionTTL)
	assert.Zero(t, cfg.HTTPTimeout)
}
