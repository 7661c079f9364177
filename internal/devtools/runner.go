package devtools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mooot/league/internal/domain/types"
	"github.com/mooot/league/pkg/logger"
)

const (
	directoryPermission = 0750
	filePermission      = 0600
	pollInterval        = 100 * time.Millisecond
)

// ErrInvalidConfig is returned by Run for unusable settings.
var ErrInvalidConfig = errors.New("invalid seeding configuration")

// Validate checks the run settings.
func (c *Config) Validate() error {
	switch {
	case c.BaseURL == "":
		return fmt.Errorf("%w: base url is required", ErrInvalidConfig)
	case c.ChatID == 0:
		return fmt.Errorf("%w: chat id is required", ErrInvalidConfig)
	case c.Players <= 0 || c.Days <= 0 || c.MaxPerDay <= 0:
		return fmt.Errorf("%w: players, days and plays per day must be positive", ErrInvalidConfig)
	case c.Workers <= 0:
		return fmt.Errorf("%w: workers must be positive", ErrInvalidConfig)
	}
	return nil
}

// Run seeds a chat with generated plays and checks the served all-time
// ranking against one computed locally.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := logger.Get().Named("devtools")
	stats := &Stats{StartTime: time.Now()}
	client := NewHTTPClient(cfg.BaseURL, cfg.Timeout)

	log.Info(ctx, "starting league seeding run",
		logger.String("base_url", cfg.BaseURL),
		logger.Int64("chat_id", cfg.ChatID),
		logger.Int("players", cfg.Players),
		logger.Int("days", cfg.Days),
		logger.Int64("seed", cfg.Seed),
	)

	if err := client.Health(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}
	loc, err := serverLocation(ctx, client)
	if err != nil {
		return stats, err
	}

	plays := Generate(cfg, time.Now())
	stats.PlaysGenerated = len(plays)
	expected, err := Expected(plays, loc)
	if err != nil {
		return stats, fmt.Errorf("compute expected ranking: %w", err)
	}

	submitPlays(ctx, cfg, client, plays, stats)
	if stats.PlaysAccepted != len(plays) {
		return stats, fmt.Errorf("%d of %d plays were not accepted", len(plays)-stats.PlaysAccepted, len(plays))
	}

	if err := waitForRanking(ctx, cfg, client, expected, stats); err != nil {
		return stats, fmt.Errorf("verify ranking: %w", err)
	}

	if cfg.OutputFile != "" {
		if err := savePlays(cfg.OutputFile, plays); err != nil {
			log.Warn(ctx, "failed to save plays", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	logStats(ctx, stats)
	return stats, nil
}

// savePlays writes the generated plays as a JSON array of play views.
func savePlays(filename string, plays []Generated) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(types.Plays(Records(plays)), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal plays: %w", err)
	}
	return os.WriteFile(filename, data, filePermission)
}

func logStats(ctx context.Context, stats *Stats) {
	var perSecond float64
	if stats.Duration > 0 {
		perSecond = float64(stats.PlaysSubmitted) / stats.Duration.Seconds()
	}
	logger.Get().Named("devtools").Info(ctx, "final statistics",
		logger.Int("generated", stats.PlaysGenerated),
		logger.Int("submitted", stats.PlaysSubmitted),
		logger.Int("accepted", stats.PlaysAccepted),
		logger.Int("rejected", stats.PlaysRejected),
		logger.Int("failed", stats.PlaysFailed),
		logger.Int("ranking_entries", stats.RankingEntries),
		logger.Int("verify_attempts", stats.VerifyAttempts),
		logger.Duration("duration", stats.Duration),
		logger.Float64("plays_per_second", perSecond),
	)
}
