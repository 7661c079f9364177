// Package awards converts a finalized leaderboard into trophy grants.
package awards

import (
	"fmt"

	"github.com/mooot/league/internal/domain/model"
)

// tierBase is the multiplier that packs a period code and a tier into a
// single trophy id. Tiers therefore live in 0..9.
const tierBase = 10

const defaultPositions = 3

// TrophyID encodes (periodCode, tier) as periodCode*10 + tier.
func TrophyID(periodCode, tier int) int {
	return periodCode*tierBase + tier
}

// SplitTrophyID reverses TrophyID.
func SplitTrophyID(trophyID int) (periodCode, tier int) {
	return trophyID / tierBase, trophyID % tierBase
}

// Policy describes how many positional trophies a period hands out. Every
// entry past the positional ones receives the shared participation tier,
// which is numbered right after the last position.
type Policy struct {
	Positions int
}

// DefaultPolicy grants first, second and third place plus participation.
var DefaultPolicy = Policy{Positions: defaultPositions}

// NewPolicy validates the number of positional tiers. At least one position
// is required so that the participation tier never shares tier 0 with first
// place.
func NewPolicy(positions int) (Policy, error) {
	if positions < 1 || positions >= tierBase {
		return Policy{}, fmt.Errorf("%w: positions must be in 1..%d, got %d", ErrInvalidPolicy, tierBase-1, positions)
	}
	return Policy{Positions: positions}, nil
}

// ParticipationTier is the tier shared by everybody outside the positions.
func (p Policy) ParticipationTier() int { return p.Positions }

// IsPositional reports whether tier is one of the positional tiers.
func (p Policy) IsPositional(tier int) bool { return tier >= 0 && tier < p.Positions }

// Allocate returns exactly one grant per ranking entry, in ranking order.
//
// Allocate is stateless: calling it twice for the same chat and period
// returns the same grants again. Callers that need once-per-period semantics
// must guard the call themselves.
func (p Policy) Allocate(chatID int64, ranking []model.LeaderboardEntry, periodCode int) []model.AwardGrant {
	grants := make([]model.AwardGrant, 0, len(ranking))
	for i, entry := range ranking {
		tier := p.ParticipationTier()
		if i < p.Positions {
			tier = i
		}
		grants = append(grants, model.AwardGrant{
			ChatID:   chatID,
			Player:   entry.Player,
			TrophyID: TrophyID(periodCode, tier),
		})
	}
	return grants
}

// Allocate applies DefaultPolicy.
func Allocate(chatID int64, ranking []model.LeaderboardEntry, periodCode int) []model.AwardGrant {
	return DefaultPolicy.Allocate(chatID, ranking, periodCode)
}
