package devtools

import (
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/mooot/league/internal/domain/model"
	"github.com/mooot/league/internal/domain/scoring"
)

const (
	minElapsed    = 20
	elapsedSpread = 580
	maxTries      = 6
	secondsPerDay = 24 * 60 * 60
)

// Generated is a play together with the request that submits it.
type Generated struct {
	Record  model.GameRecord
	Request PlayRequest
}

// Generate creates plays for cfg.Players humans of cfg.ChatID over the
// cfg.Days days ending on the day of end. Each player plays between zero and
// cfg.MaxPerDay times a day, so same-day repeats are common. Every other play
// is sent as a shared result text instead of explicit points.
func Generate(cfg *Config, end time.Time) []Generated {
	rng := rand.New(rand.NewSource(cfg.Seed)) //nolint:gosec // reproducible test data
	end = end.UTC().Truncate(24 * time.Hour)

	var out []Generated
	for d := 0; d < cfg.Days; d++ {
		day := end.AddDate(0, 0, d-cfg.Days+1)
		for p := 1; p <= cfg.Players; p++ {
			for n := rng.Intn(cfg.MaxPerDay + 1); n > 0; n-- {
				out = append(out, generatePlay(rng, cfg.ChatID, int64(p), day, len(out)))
			}
		}
	}
	return out
}

func generatePlay(rng *rand.Rand, chatID, playerID int64, day time.Time, seq int) Generated {
	tries := strconv.Itoa(1 + rng.Intn(maxTries))
	if rng.Intn(maxTries+1) == 0 {
		tries = "X"
	}
	points, _ := scoring.PointsForTries(tries)
	elapsed := minElapsed + rng.Intn(elapsedSpread)
	at := day.Add(time.Duration(rng.Intn(secondsPerDay)) * time.Second)

	rec := model.GameRecord{
		ChatID:         chatID,
		Player:         model.Human(playerID),
		PlayerName:     fmt.Sprintf("Player %d", playerID),
		Points:         points,
		ElapsedSeconds: elapsed,
		RecordedAt:     at,
	}
	req := PlayRequest{
		PlayerKind: model.KindHuman.String(),
		PlayerID:   playerID,
		PlayerName: rec.PlayerName,
		RecordedAt: at.Format(time.RFC3339),
	}
	if seq%2 == 0 {
		req.Share = fmt.Sprintf("mooot %d\n🎯%s/6\n⏱%s", seq, tries, scoring.FormatClock(elapsed))
	} else {
		req.Points = &rec.Points
		req.ElapsedSeconds = elapsed
	}
	return Generated{Record: rec, Request: req}
}

// Records returns the records of generated plays.
func Records(plays []Generated) []model.GameRecord {
	out := make([]model.GameRecord, len(plays))
	for i, p := range plays {
		out[i] = p.Record
	}
	return out
}
