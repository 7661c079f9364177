// Package scoring turns shared results and simulated plays into points and
// elapsed seconds.
package scoring

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"
)

const (
	sharePrefix  = "mooot"
	triesMarker  = "🎯"
	timeMarker   = "⏱"
	failedTries  = "X"
	maxTries     = 6
	maxAbility   = 10
	abilityShare = 0.7
	luckShare    = 0.3

	defaultRandomSeed = 42

	// simulated plays never take less than minSeconds nor more than
	// minSeconds+spreadSeconds.
	minSeconds    = 20
	spreadSeconds = 580
)

// actionThresholds map a normalized action in [0,1) to points: the index of
// the first threshold greater than the action is the number of points.
var actionThresholds = [...]float64{0.1, 0.3, 0.5, 0.7, 0.9, 0.98}

// PointsForTries converts a tries label ("1".."6" or "X") into points.
func PointsForTries(tries string) (int, error) {
	tries = strings.TrimSpace(tries)
	if strings.EqualFold(tries, failedTries) {
		return 0, nil
	}
	n, err := strconv.Atoi(tries)
	if err != nil || n < 1 || n > maxTries {
		return 0, fmt.Errorf("%w: tries %q", ErrNotAShare, tries)
	}
	return maxTries + 1 - n, nil
}

// ParseShare extracts points and elapsed seconds from a shared result such
// as "mooot 123\n🎯3/6\n⏱00:01:05". A missing time line yields 0 seconds.
func ParseShare(text string) (points, seconds int, err error) {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	if len(lines) < 2 || !strings.HasPrefix(strings.ToLower(strings.TrimSpace(lines[0])), sharePrefix) {
		return 0, 0, ErrNotAShare
	}

	triesLine := strings.TrimSpace(lines[1])
	if !strings.HasPrefix(triesLine, triesMarker) {
		return 0, 0, fmt.Errorf("%w: missing tries line", ErrNotAShare)
	}
	tries, _, _ := strings.Cut(strings.TrimPrefix(triesLine, triesMarker), "/")
	if points, err = PointsForTries(tries); err != nil {
		return 0, 0, err
	}

	if len(lines) < 3 {
		return points, 0, nil
	}
	clock := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(lines[2]), timeMarker))
	if clock == "" {
		return points, 0, nil
	}
	if seconds, err = ParseClock(clock); err != nil {
		return 0, 0, err
	}
	return points, seconds, nil
}

// ParseClock parses hh:mm:ss into seconds.
func ParseClock(clock string) (int, error) {
	parts := strings.Split(clock, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("%w: time %q", ErrNotAShare, clock)
	}
	total := 0
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || (i > 0 && n > 59) {
			return 0, fmt.Errorf("%w: time %q", ErrNotAShare, clock)
		}
		total = total*60 + n
	}
	return total, nil
}

// FormatClock renders seconds as hh:mm:ss.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, seconds/60%60, seconds%60)
}

// Play is the outcome of one simulated play.
type Play struct {
	Points         int
	ElapsedSeconds int
}

// Option configures a CharacterPlayer.
type Option func(*CharacterPlayer)

// WithSeed makes the simulated plays reproducible.
func WithSeed(seed int64) Option {
	return func(p *CharacterPlayer) {
		p.rng = rand.New(rand.NewSource(seed)) //nolint:gosec // simulation, not security
	}
}

// CharacterPlayer simulates the daily play of non-human characters. Higher
// ability means more points and shorter times, with some luck mixed in.
type CharacterPlayer struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewCharacterPlayer creates a player with a fixed default seed.
func NewCharacterPlayer(opts ...Option) *CharacterPlayer {
	p := &CharacterPlayer{
		rng: rand.New(rand.NewSource(defaultRandomSeed)), //nolint:gosec // simulation, not security
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Play simulates one play for a character of the given ability (0..10).
func (p *CharacterPlayer) Play(ability int) (Play, error) {
	if ability < 0 || ability > maxAbility {
		return Play{}, fmt.Errorf("%w: got %d", ErrInvalidAbility, ability)
	}

	p.mu.Lock()
	luck := p.rng.Float64()
	pace := p.rng.Float64()
	p.mu.Unlock()

	action := float64(ability)/maxAbility*abilityShare + luck*luckShare
	return Play{
		Points:         PointsForAction(action),
		ElapsedSeconds: minSeconds + int((1-action)*spreadSeconds*(0.5+pace/2)),
	}, nil
}

// PointsForAction maps a normalized action value to 0..6 points.
func PointsForAction(action float64) int {
	for points, limit := range actionThresholds {
		if action < limit {
			return points
		}
	}
	return len(actionThresholds)
}
