package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mooot/league/internal/domain/model"
)

type storedRecord struct {
	id string
	model.GameRecord
}

type storedAward struct {
	model.AwardGrant
	runID string
	at    time.Time
}

// MemoryStore implements Store in process memory.
type MemoryStore struct {
	mu         sync.RWMutex
	records    []storedRecord
	awards     []storedAward
	characters map[int64]model.Character
	nextCharID int64
	newID      func() string
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		characters: make(map[int64]model.Character),
		newID:      NewID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) InsertRecord(ctx context.Context, rec model.GameRecord) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := ValidateRecord(rec); err != nil {
		return "", err
	}
	rec.RecordedAt = rec.RecordedAt.UTC()

	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.newID()
	s.records = append(s.records, storedRecord{id: id, GameRecord: rec})
	return id, nil
}

func (s *MemoryStore) Records(ctx context.Context, chatID int64, from, to time.Time) ([]model.GameRecord, error) {
	return s.filter(ctx, from, to, func(r model.GameRecord) bool { return r.ChatID == chatID })
}

func (s *MemoryStore) RecordsAllChats(ctx context.Context, from, to time.Time, kind model.PlayerKind) ([]model.GameRecord, error) {
	return s.filter(ctx, from, to, func(r model.GameRecord) bool { return r.Player.Kind == kind })
}

func (s *MemoryStore) filter(ctx context.Context, from, to time.Time, keep func(model.GameRecord) bool) ([]model.GameRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]model.GameRecord, 0)
	for _, r := range s.records {
		if keep(r.GameRecord) && InWindow(r.RecordedAt, from, to) {
			out = append(out, r.GameRecord)
		}
	}
	s.mu.RUnlock()

	SortRecords(out)
	return out, nil
}

func (s *MemoryStore) Chats(ctx context.Context) ([]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	seen := make(map[int64]struct{})
	for _, r := range s.records {
		seen[r.ChatID] = struct{}{}
	}
	for _, c := range s.characters {
		seen[c.ChatID] = struct{}{}
	}
	s.mu.RUnlock()

	chats := make([]int64, 0, len(seen))
	for id := range seen {
		chats = append(chats, id)
	}
	sort.Slice(chats, func(i, j int) bool { return chats[i] < chats[j] })
	return chats, nil
}

func (s *MemoryStore) SaveGrants(ctx context.Context, runID string, grants []model.AwardGrant, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ValidateGrants(runID, grants); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range grants {
		s.awards = append(s.awards, storedAward{AwardGrant: g, runID: runID, at: at.UTC()})
	}
	return nil
}

func (s *MemoryStore) Awards(ctx context.Context, chatID int64) ([]model.AwardRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.AwardRecord, 0)
	for _, a := range s.awards {
		if a.ChatID != chatID {
			continue
		}
		out = append(out, model.AwardRecord{
			AwardGrant: a.AwardGrant,
			PlayerName: s.nameLocked(chatID, a.Player),
			RunID:      a.runID,
			GrantedAt:  a.at,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].GrantedAt.Before(out[j].GrantedAt) })
	return out, nil
}

// nameLocked resolves the latest display name of a player in a chat.
func (s *MemoryStore) nameLocked(chatID int64, p model.PlayerID) string {
	var (
		name   string
		latest time.Time
	)
	for _, r := range s.records {
		if r.ChatID == chatID && r.Player == p && !r.RecordedAt.Before(latest) {
			name, latest = r.PlayerName, r.RecordedAt
		}
	}
	if name == "" && p.Kind == model.KindCharacter {
		if c, ok := s.characters[p.ID]; ok {
			name = c.Name
		}
	}
	return name
}

func (s *MemoryStore) Characters(ctx context.Context, chatID int64) ([]model.Character, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]model.Character, 0)
	for _, c := range s.characters {
		if c.ChatID == chatID {
			out = append(out, c)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) PutCharacter(ctx context.Context, c model.Character) (model.Character, error) {
	if err := ctx.Err(); err != nil {
		return model.Character{}, err
	}
	if err := ValidateCharacter(c); err != nil {
		return model.Character{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == 0 {
		s.nextCharID++
		c.ID = s.nextCharID
	} else if prev, ok := s.characters[c.ID]; !ok || prev.ChatID != c.ChatID {
		return model.Character{}, fmt.Errorf("character %d in chat %d: %w", c.ID, c.ChatID, ErrNotFound)
	}
	s.characters[c.ID] = c
	return c, nil
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
