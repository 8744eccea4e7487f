// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers file and environment over the defaults.
// - Errors wrap this package's sentinel kinds.
package config

import (
	"fmt"
	"time"

	"github.com/okian/pscore/pkg/logger"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// APIKey authenticates against the Gemini API. Falls back to API_KEY.
	APIKey string `koanf:"api_key"`

	// Model and Temperature are sent with every generation request.
	Model       string  `koanf:"model"`
	Temperature float64 `koanf:"temperature"`

	// GeminiBaseURL overrides the Gemini endpoint.
	GeminiBaseURL string `koanf:"gemini_base_url"`

	// StoreBackend selects the durable store: memory, sqlite or redis.
	StoreBackend string `koanf:"store_backend"`
	SQLitePath   string `koanf:"sqlite_path"`
	RedisURL     string `koanf:"redis_url"`
	RedisPrefix  string `koanf:"redis_prefix"`
	// RedisTTLHours expires idle session keys. Zero keeps them forever.
	RedisTTLHours int `koanf:"redis_ttl_hours"`

	// LeaderboardDelayMS simulates the leaderboard backend round trip.
	LeaderboardDelayMS int `koanf:"leaderboard_delay_ms"`

	// EstimatedSeconds and TickIntervalMS drive the generation countdown.
	EstimatedSeconds int `koanf:"estimated_seconds"`
	TickIntervalMS   int `koanf:"tick_interval_ms"`

	// MaxSessions caps live sessions. Zero means no cap.
	MaxSessions int `koanf:"max_sessions"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		Addr:               ":9080",
		Model:              "gemini-2.5-pro",
		Temperature:        0.5,
		StoreBackend:       StoreMemory,
		SQLitePath:         "pscore.db",
		RedisURL:           "redis://localhost:6379/0",
		RedisPrefix:        "pscore",
		LeaderboardDelayMS: 500,
		EstimatedSeconds:   20,
		TickIntervalMS:     1000,
		MaxSessions:        10_000,
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.Model == "":
		return fmt.Errorf("%w: model must not be empty", ErrInvalidConfig)
	case c.Temperature < 0 || c.Temperature > 2:
		return fmt.Errorf("%w: temperature must be within [0, 2]", ErrInvalidConfig)
	case c.LeaderboardDelayMS < 0:
		return fmt.Errorf("%w: leaderboard_delay_ms must not be negative", ErrInvalidConfig)
	case c.EstimatedSeconds < 0:
		return fmt.Errorf("%w: estimated_seconds must not be negative", ErrInvalidConfig)
	case c.TickIntervalMS <= 0:
		return fmt.Errorf("%w: tick_interval_ms must be positive", ErrInvalidConfig)
	case c.MaxSessions < 0:
		return fmt.Errorf("%w: max_sessions must not be negative", ErrInvalidConfig)
	case c.RedisTTLHours < 0:
		return fmt.Errorf("%w: redis_ttl_hours must not be negative", ErrInvalidConfig)
	}

	switch c.StoreBackend {
	case StoreMemory:
	case StoreSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("%w: sqlite_path must not be empty", ErrInvalidConfig)
		}
	case StoreRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("%w: redis_url must not be empty", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store_backend %q", ErrInvalidConfig, c.StoreBackend)
	}
	return nil
}

// LeaderboardDelay returns LeaderboardDelayMS as a duration.
func (c *Config) LeaderboardDelay() time.Duration {
	return time.Duration(c.LeaderboardDelayMS) * time.Millisecond
}

// TickInterval returns TickIntervalMS as a duration.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalMS) * time.Millisecond
}

// RedisTTL returns RedisTTLHours as a duration.
func (c *Config) RedisTTL() time.Duration {
	return time.Duration(c.RedisTTLHours) * time.Hour
}
