// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) initializer to build a Config with defaults.
// - All loading functions accept context.Context as the first parameter.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"context"
	"time"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DatabaseDSN is the Postgres connection string. Empty selects the
	// in-memory store.
	DatabaseDSN string `koanf:"database_dsn"`

	// JWTSecret signs session tokens issued at login.
	JWTSecret string `koanf:"jwt_secret"`

	// SessionTTL bounds how long an issued token stays valid.
	SessionTTL time.Duration `koanf:"session_ttl"`

	// NoticeQueueSize bounds the in-memory change-notice queue.
	NoticeQueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of recap refresh workers.
	WorkerCount int `koanf:"worker_count"`

	// PollInterval sets how often the recap snapshot is rebuilt even
	// without change notices.
	PollInterval time.Duration `koanf:"poll_interval"`

	// MaxRecapLimit caps GET /api/recap?limit.
	MaxRecapLimit int `koanf:"max_recap_limit"`

	// CORSAllowedOrigins lists origins allowed to call the API.
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`

	// BootstrapAdminKey, when set, is registered as a super-admin access
	// key at startup so a fresh deployment can be administered. Seeding is
	// idempotent; an existing key with the same secret is left alone.
	BootstrapAdminKey string `koanf:"bootstrap_admin_key"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention; it is reserved for future use and currently
// unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:           "info",
		Addr:               ":9080",
		DatabaseDSN:        "",
		JWTSecret:          "",
		SessionTTL:         12 * time.Hour,
		NoticeQueueSize:    1024,
		WorkerCount:        2,
		PollInterval:       5 * time.Second,
		MaxRecapLimit:      100,
		CORSAllowedOrigins: []string{"*"},
		BootstrapAdminKey:  "",
	}
}
