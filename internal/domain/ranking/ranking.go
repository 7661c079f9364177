// Package ranking folds raw game records into an ordered leaderboard.
//
// Only one play per player and local calendar day counts. The local day is
// taken in the caller's civil timezone using the offset in effect at each
// record's instant, so daylight-saving transitions never split or merge days.
package ranking

import (
	"fmt"
	"sort"
	"time"

	"github.com/mooot/league/internal/domain/model"
)

// localDate is a civil calendar day.
type localDate struct {
	year  int
	month time.Month
	day   int
}

func dateOf(t time.Time, loc *time.Location) localDate {
	y, m, d := t.In(loc).Date()
	return localDate{year: y, month: m, day: d}
}

// tally is the running total of one player. elapsed only breaks ties and
// never leaves this package.
type tally struct {
	player  model.PlayerID
	name    string
	points  int
	elapsed int
	counted map[localDate]struct{}
}

// accumulator is the fold state: tallies in first-encounter order plus an
// index by player key.
type accumulator struct {
	order []*tally
	byKey map[string]*tally
}

func newAccumulator() accumulator {
	return accumulator{byKey: make(map[string]*tally)}
}

// add folds one record into the accumulator and returns it.
func (a accumulator) add(rec model.GameRecord, loc *time.Location) accumulator {
	key := rec.Player.Key()
	t, ok := a.byKey[key]
	if !ok {
		t = &tally{player: rec.Player, counted: make(map[localDate]struct{})}
		a.byKey[key] = t
		a.order = append(a.order, t)
	}
	t.name = rec.PlayerName

	day := dateOf(rec.RecordedAt, loc)
	if _, seen := t.counted[day]; seen {
		return a
	}
	t.counted[day] = struct{}{}
	t.points += rec.Points
	t.elapsed += rec.ElapsedSeconds
	return a
}

// Validate returns an error wrapping ErrInvalidRecordBatch for the first
// record without a resolvable player key or display name.
func Validate(records []model.GameRecord) error {
	for i, rec := range records {
		if !rec.Resolvable() {
			return fmt.Errorf("%w: record %d has no resolvable player (id=%q name=%q)",
				ErrInvalidRecordBatch, i, rec.Player.Key(), rec.PlayerName)
		}
	}
	return nil
}

// Compute builds the leaderboard for records in loc.
//
// A batch containing any unresolvable record yields no entries and an error
// wrapping ErrInvalidRecordBatch. Entries are ordered by points descending,
// then by summed elapsed time ascending; full ties keep encounter order.
// Compute holds no state between calls.
func Compute(records []model.GameRecord, loc *time.Location) ([]model.LeaderboardEntry, error) {
	if loc == nil {
		return nil, ErrNoLocation
	}
	if err := Validate(records); err != nil {
		return nil, err
	}

	acc := newAccumulator()
	for _, rec := range records {
		acc = acc.add(rec, loc)
	}

	tallies := acc.order
	sort.SliceStable(tallies, func(i, j int) bool {
		if tallies[i].points != tallies[j].points {
			return tallies[i].points > tallies[j].points
		}
		return tallies[i].elapsed < tallies[j].elapsed
	})

	entries := make([]model.LeaderboardEntry, len(tallies))
	for i, t := range tallies {
		entries[i] = model.LeaderboardEntry{
			Player:      t.player,
			PlayerName:  t.name,
			TotalPoints: t.points,
		}
	}
	return entries, nil
}

// CountedDays reports how many plays were skipped because their player had
// already been counted on the same local day. Useful for metrics.
func CountedDays(records []model.GameRecord, loc *time.Location) (counted, skipped int) {
	if loc == nil {
		return 0, 0
	}
	seen := make(map[string]map[localDate]struct{})
	for _, rec := range records {
		key := rec.Player.Key()
		days, ok := seen[key]
		if !ok {
			days = make(map[localDate]struct{})
			seen[key] = days
		}
		d := dateOf(rec.RecordedAt, loc)
		if _, dup := days[d]; dup {
			skipped++
			continue
		}
		days[d] = struct{}{}
		counted++
	}
	return counted, skipped
}
