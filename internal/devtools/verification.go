package devtools

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mooot/league/internal/adapters/repository"
	"github.com/mooot/league/internal/domain/model"
	"github.com/mooot/league/internal/domain/ranking"
	"github.com/mooot/league/internal/domain/types"
	"github.com/mooot/league/pkg/logger"
)

var (
	// ErrRankingMismatch is returned when the served ranking disagrees with
	// the one computed from the generated plays.
	ErrRankingMismatch = errors.New("ranking mismatch")
	// ErrUnorderedRanking is returned when served points increase down the list.
	ErrUnorderedRanking = errors.New("ranking not ordered by points")
)

// Expected computes the all-time ranking of plays in loc the way the
// service does.
func Expected(plays []Generated, loc *time.Location) ([]model.LeaderboardEntry, error) {
	records := Records(plays)
	repository.SortRecords(records)
	return ranking.Compute(records, loc)
}

// Verify compares a served ranking with the expected one. Players are
// matched by kind and id; tied players may legitimately appear in a
// different order, so only totals and ordering are checked.
func Verify(expected []model.LeaderboardEntry, got []types.Entry) error {
	if len(got) != len(expected) {
		return fmt.Errorf("%w: %d entries, want %d", ErrRankingMismatch, len(got), len(expected))
	}
	want := make(map[string]int, len(expected))
	for _, e := range expected {
		want[e.Player.Key()] = e.TotalPoints
	}
	for i, e := range got {
		key := e.PlayerKind + ":" + fmt.Sprint(e.PlayerID)
		points, ok := want[key]
		if !ok {
			return fmt.Errorf("%w: unexpected player %s", ErrRankingMismatch, key)
		}
		if points != e.Points {
			return fmt.Errorf("%w: %s has %d points, want %d", ErrRankingMismatch, key, e.Points, points)
		}
		if i > 0 && got[i-1].Points < e.Points {
			return fmt.Errorf("%w: rank %d", ErrUnorderedRanking, e.Rank)
		}
	}
	return nil
}

// serverLocation reads the league time zone from GET /stats.
func serverLocation(ctx context.Context, client *HTTPClient) (*time.Location, error) {
	stats, err := client.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch stats: %w", err)
	}
	name, _ := stats["timezone"].(string)
	if name == "" {
		return nil, errors.New("stats carry no timezone")
	}
	return time.LoadLocation(name)
}

// waitForRanking polls the served ranking until it matches expected or
// cfg.Wait elapses.
func waitForRanking(ctx context.Context, cfg *Config, client *HTTPClient, expected []model.LeaderboardEntry, stats *Stats) error {
	log := logger.Get().Named("devtools")
	ctx, cancel := context.WithTimeout(ctx, cfg.Wait)
	defer cancel()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	var lastErr error
	for {
		stats.VerifyAttempts++
		got, err := client.Ranking(ctx, cfg.ChatID)
		if err == nil {
			stats.RankingEntries = len(got)
			if lastErr = Verify(expected, got); lastErr == nil {
				log.Info(ctx, "ranking verified",
					logger.Int("entries", len(got)),
					logger.Int("attempts", stats.VerifyAttempts),
				)
				return nil
			}
		} else {
			lastErr = err
		}
		if cfg.Verbose {
			log.Debug(ctx, "ranking not settled", logger.Error(lastErr))
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("after %d attempts: %w", stats.VerifyAttempts, lastErr)
		case <-ticker.C:
		}
	}
}
