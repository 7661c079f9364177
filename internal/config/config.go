// Package config defines the league service configuration and how it is
// loaded.
package config

import (
	"context"
	"fmt"
	"time"
)

// Storage backends.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr is the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// Timezone is the IANA zone whose calendar days and months the league
	// follows.
	Timezone string `koanf:"timezone"`

	// QueueSize bounds the ingestion queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of persistence workers.
	WorkerCount int `koanf:"worker_count"`

	// GuardSize bounds the in-memory period guard.
	GuardSize int `koanf:"guard_size"`

	// PositionalTrophies is how many top positions get their own trophy.
	PositionalTrophies int `koanf:"positional_trophies"`

	Storage     string `koanf:"storage"`
	PostgresDSN string `koanf:"postgres_dsn"`

	// RedisAddr enables the shared period guard when set.
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`
	GuardTTLHours int    `koanf:"guard_ttl_hours"`

	// TelegramToken enables delivery through the Bot API. Without it
	// messages are only logged.
	TelegramToken   string `koanf:"telegram_token"`
	TelegramBaseURL string `koanf:"telegram_base_url"`

	// DevChatID receives a copy of every notification when non-zero.
	DevChatID int64 `koanf:"dev_chat_id"`

	SchedulerEnabled bool `koanf:"scheduler_enabled"`

	// Hours of the day, UTC, when scheduled jobs fire.
	AdviseHour     int `koanf:"advise_hour"`
	CloseHour      int `koanf:"close_hour"`
	CharactersHour int `koanf:"characters_hour"`
}

// New creates a Config holding the defaults Load starts from.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:           "info",
		Addr:               ":9080",
		Timezone:           "Europe/Madrid",
		QueueSize:          10_000,
		WorkerCount:        4,
		GuardSize:          10_000,
		PositionalTrophies: 3,
		Storage:            StorageMemory,
		GuardTTLHours:      24 * 400,
		SchedulerEnabled:   true,
		AdviseHour:         8,
		CloseHour:          21,
		CharactersHour:     11,
	}
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %v", ErrInvalidConfig, c.Timezone, err)
	}
	return loc, nil
}

// GuardTTL is how long a period claim is kept in Redis.
func (c *Config) GuardTTL() time.Duration {
	return time.Duration(c.GuardTTLHours) * time.Hour
}

// Validate checks the values Load cannot default.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.Timezone == "":
		return fmt.Errorf("%w: timezone must not be empty", ErrInvalidConfig)
	case c.QueueSize < 1:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.PositionalTrophies < 1 || c.PositionalTrophies > 9:
		return fmt.Errorf("%w: positional_trophies must be in 1..9", ErrInvalidConfig)
	case c.Storage != StorageMemory && c.Storage != StoragePostgres:
		return fmt.Errorf("%w: unknown storage %q", ErrInvalidConfig, c.Storage)
	case c.Storage == StoragePostgres && c.PostgresDSN == "":
		return fmt.Errorf("%w: postgres storage needs postgres_dsn", ErrInvalidConfig)
	case c.GuardTTLHours < 1:
		return fmt.Errorf("%w: guard_ttl_hours must be positive", ErrInvalidConfig)
	}
	for name, h := range map[string]int{"advise_hour": c.AdviseHour, "close_hour": c.CloseHour, "characters_hour": c.CharactersHour} {
		if h < 0 || h > 23 {
			return fmt.Errorf("%w: %s must be in 0..23", ErrInvalidConfig, name)
		}
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}
