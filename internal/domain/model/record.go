package model

import (
	"strings"
	"time"
)

// GameRecord is a single stored play. Records are immutable once created.
type GameRecord struct {
	ChatID         int64
	Player         PlayerID
	PlayerName     string // display name at time of play
	Points         int
	ElapsedSeconds int
	RecordedAt     time.Time // absolute instant the record was stored
}

// Resolvable reports whether the record carries both a player key and a
// display name. Unresolvable records poison a whole ranking batch.
func (r GameRecord) Resolvable() bool {
	return r.Player.Valid() && strings.TrimSpace(r.PlayerName) != ""
}

// LeaderboardEntry is one ranked player within a window.
type LeaderboardEntry struct {
	Player      PlayerID
	PlayerName  string
	TotalPoints int
}

// AwardGrant assigns a trophy to a player of a chat.
type AwardGrant struct {
	ChatID   int64
	Player   PlayerID
	TrophyID int
}

// AwardRecord is a persisted grant as read back from storage.
type AwardRecord struct {
	AwardGrant
	PlayerName string
	RunID      string
	GrantedAt  time.Time
}

// Character is a simulated player that plays once a day in its chat.
type Character struct {
	ID      int64
	ChatID  int64
	Name    string
	Ability int // 0..10
}
