// Package types contains the JSON views shared by the HTTP API and the CLI.
package types

import (
	"time"

	"github.com/mooot/league/internal/domain/awards"
	"github.com/mooot/league/internal/domain/model"
)

// Entry is one ranked row. Rank starts at 1.
type Entry struct {
	Rank       int    `json:"rank"`
	PlayerKind string `json:"player_kind"`
	PlayerID   int64  `json:"player_id"`
	Name       string `json:"name"`
	Points     int    `json:"points"`
}

// Grant is one trophy handed out by a period close.
type Grant struct {
	PlayerKind string `json:"player_kind"`
	PlayerID   int64  `json:"player_id"`
	TrophyID   int    `json:"trophy_id"`
	PeriodCode int    `json:"period_code"`
	Tier       int    `json:"tier"`
}

// Award is a persisted grant as listed by the awards endpoint.
type Award struct {
	Grant
	Name      string    `json:"name"`
	RunID     string    `json:"run_id"`
	GrantedAt time.Time `json:"granted_at"`
}

// Entries converts a leaderboard into ranked rows.
func Entries(ranking []model.LeaderboardEntry) []Entry {
	out := make([]Entry, len(ranking))
	for i, e := range ranking {
		out[i] = Entry{
			Rank:       i + 1,
			PlayerKind: e.Player.Kind.String(),
			PlayerID:   e.Player.ID,
			Name:       e.PlayerName,
			Points:     e.TotalPoints,
		}
	}
	return out
}

// Grants converts allocated grants into their JSON view.
func Grants(grants []model.AwardGrant) []Grant {
	out := make([]Grant, len(grants))
	for i, g := range grants {
		out[i] = grantView(g)
	}
	return out
}

// Awards converts persisted awards into their JSON view.
func Awards(records []model.AwardRecord) []Award {
	out := make([]Award, len(records))
	for i, r := range records {
		out[i] = Award{
			Grant:     grantView(r.AwardGrant),
			Name:      r.PlayerName,
			RunID:     r.RunID,
			GrantedAt: r.GrantedAt,
		}
	}
	return out
}

func grantView(g model.AwardGrant) Grant {
	period, tier := awards.SplitTrophyID(g.TrophyID)
	return Grant{
		PlayerKind: g.Player.Kind.String(),
		PlayerID:   g.Player.ID,
		TrophyID:   g.TrophyID,
		PeriodCode: period,
		Tier:       tier,
	}
}

// Play is a stored game record.
type Play struct {
	PlayerKind     string    `json:"player_kind"`
	PlayerID       int64     `json:"player_id"`
	Name           string    `json:"name"`
	Points         int       `json:"points"`
	ElapsedSeconds int       `json:"elapsed_seconds"`
	RecordedAt     time.Time `json:"recorded_at"`
}

// Character is a simulated player of a chat.
type Character struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Ability int    `json:"ability"`
}

// Plays converts records into their JSON view.
func Plays(records []model.GameRecord) []Play {
	out := make([]Play, len(records))
	for i, r := range records {
		out[i] = Play{
			PlayerKind:     r.Player.Kind.String(),
			PlayerID:       r.Player.ID,
			Name:           r.PlayerName,
			Points:         r.Points,
			ElapsedSeconds: r.ElapsedSeconds,
			RecordedAt:     r.RecordedAt,
		}
	}
	return out
}

// Characters converts characters into their JSON view.
func Characters(characters []model.Character) []Character {
	out := make([]Character, len(characters))
	for i, c := range characters {
		out[i] = Character{ID: c.ID, Name: c.Name, Ability: c.Ability}
	}
	return out
}
