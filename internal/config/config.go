package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAPIURL     = "http://localhost:8000"
	defaultPort       = 8080
	defaultOutputDir  = "."
	defaultSessionTTL = 30 * time.Minute
)

// Config holds runtime settings shared by the CLI and the server
type Config struct {
	APIBaseURL     string
	Port           int
	OutputDir      string
	AllowedOrigins []string
	SessionTTL     time.Duration
	HTTPTimeout    time.Duration // 0 means no client timeout
	CacheDir       string        // empty means the per-user cache dir
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		APIBaseURL:     defaultAPIURL,
		Port:           defaultPort,
		OutputDir:      defaultOutputDir,
		AllowedOrigins: []string{"http://localhost:5173"},
		SessionTTL:     defaultSessionTTL,
	}
}

// Load returns the default configuration overridden by STUDIO_* variables.
// Malformed values are ignored.
func Load() Config {
	cfg := Default()

	if raw := os.Getenv("STUDIO_API_URL"); raw != "" {
		cfg.APIBaseURL = strings.TrimRight(raw, "/")
	}
	if raw := os.Getenv("STUDIO_PORT"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			cfg.Port = parsed
		}
	}
	if raw := os.Getenv("STUDIO_OUTPUT_DIR"); raw != "" {
		cfg.OutputDir = raw
	}
	if raw := os.Getenv("STUDIO_ALLOWED_ORIGINS"); raw != "" {
		cfg.AllowedOrigins = splitList(raw)
	}
	if raw := os.Getenv("STUDIO_SESSION_TTL"); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil && parsed > 0 {
			cfg.SessionTTL = parsed
		}
	}
	if raw := os.Getenv("STUDIO_HTTP_TIMEOUT"); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil && parsed >= 0 {
			cfg.HTTPTimeout = parsed
		}
	}
	if raw := os.Getenv("STUDIO_CACHE_DIR"); raw != "" {
		cfg.CacheDir = raw
	}

	return cfg
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
