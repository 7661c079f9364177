// Package repository defines the league storage ports and an in-memory
// implementation of them.
package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mooot/league/internal/domain/model"
)

// RecordStore is the source of game records.
type RecordStore interface {
	// InsertRecord stores rec and returns its id.
	InsertRecord(ctx context.Context, rec model.GameRecord) (string, error)

	// Records returns the records of a chat recorded in [from, to). A zero
	// bound leaves that side open. Records come back ordered by points desc,
	// elapsed asc, recorded-at asc so the best play of a day comes first.
	Records(ctx context.Context, chatID int64, from, to time.Time) ([]model.GameRecord, error)

	// RecordsAllChats is Records across every chat, restricted to one
	// player kind.
	RecordsAllChats(ctx context.Context, from, to time.Time, kind model.PlayerKind) ([]model.GameRecord, error)

	// Chats lists every chat that has records or characters, ascending.
	Chats(ctx context.Context) ([]int64, error)
}

// AwardStore is the sink for trophy grants.
type AwardStore interface {
	// SaveGrants persists all grants of one close run atomically.
	SaveGrants(ctx context.Context, runID string, grants []model.AwardGrant, at time.Time) error

	// Awards lists the grants of a chat, oldest first.
	Awards(ctx context.Context, chatID int64) ([]model.AwardRecord, error)
}

// CharacterStore keeps the simulated players of each chat.
type CharacterStore interface {
	Characters(ctx context.Context, chatID int64) ([]model.Character, error)

	// PutCharacter creates c when its ID is zero and updates it otherwise.
	PutCharacter(ctx context.Context, c model.Character) (model.Character, error)
}

// Store bundles every storage port.
type Store interface {
	RecordStore
	AwardStore
	CharacterStore
}

// ValidateRecord checks what storage needs before accepting a record.
func ValidateRecord(rec model.GameRecord) error {
	switch {
	case rec.ChatID == 0:
		return fmt.Errorf("%w: chat id is required", ErrInvalidRecord)
	case !rec.Player.Valid():
		return fmt.Errorf("%w: player %s", ErrInvalidRecord, rec.Player)
	case strings.TrimSpace(rec.PlayerName) == "":
		return fmt.Errorf("%w: player name is required", ErrInvalidRecord)
	case rec.Points < 0:
		return fmt.Errorf("%w: negative points", ErrInvalidRecord)
	case rec.ElapsedSeconds < 0:
		return fmt.Errorf("%w: negative elapsed time", ErrInvalidRecord)
	case rec.RecordedAt.IsZero():
		return fmt.Errorf("%w: recorded at is required", ErrInvalidRecord)
	}
	return nil
}

// ValidateGrants checks a batch of grants before persisting it.
func ValidateGrants(runID string, grants []model.AwardGrant) error {
	if strings.TrimSpace(runID) == "" {
		return ErrEmptyRunID
	}
	for i, g := range grants {
		if g.ChatID == 0 || !g.Player.Valid() || g.TrophyID < 0 {
			return fmt.Errorf("%w: grant %d", ErrInvalidGrant, i)
		}
	}
	return nil
}

// SortRecords orders records the way every RecordStore returns them.
func SortRecords(records []model.GameRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.ElapsedSeconds != b.ElapsedSeconds {
			return a.ElapsedSeconds < b.ElapsedSeconds
		}
		return a.RecordedAt.Before(b.RecordedAt)
	})
}

// InWindow reports whether t is within [from, to), zero bounds being open.
func InWindow(t, from, to time.Time) bool {
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && !t.Before(to) {
		return false
	}
	return true
}

// ValidateCharacter checks a character before storing it.
func ValidateCharacter(c model.Character) error {
	if c.ChatID == 0 || strings.TrimSpace(c.Name) == "" || c.Ability < 0 || c.Ability > 10 {
		return fmt.Errorf("%w: %+v", ErrInvalidCharacter, c)
	}
	return nil
}
