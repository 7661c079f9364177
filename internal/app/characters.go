package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mooot/league/internal/domain/model"
	"github.com/mooot/league/pkg/logger"
	"github.com/mooot/league/pkg/metrics"
)

// AddCharacter creates or updates a simulated player.
func (s *Service) AddCharacter(ctx context.Context, c model.Character) (model.Character, error) {
	return s.store.PutCharacter(ctx, c)
}

// Characters lists the simulated players of a chat.
func (s *Service) Characters(ctx context.Context, chatID int64) ([]model.Character, error) {
	return s.store.Characters(ctx, chatID)
}

// PlayCharacters makes every character of chatID play once at now, or every
// character of every chat when chatID is zero. Plays are stored directly
// and announced in their chat.
func (s *Service) PlayCharacters(ctx context.Context, chatID int64, now time.Time) ([]model.GameRecord, error) {
	chats := []int64{chatID}
	if chatID == 0 {
		all, err := s.store.Chats(ctx)
		if err != nil {
			return nil, fmt.Errorf("list chats: %w", err)
		}
		chats = all
	} else if err := s.knownChat(ctx, chatID); err != nil {
		return nil, err
	}

	var (
		plays []model.GameRecord
		errs  []error
	)
	for _, id := range chats {
		characters, err := s.store.Characters(ctx, id)
		if err != nil {
			errs = append(errs, fmt.Errorf("chat %d: %w", id, err))
			continue
		}
		for _, c := range characters {
			rec, err := s.playCharacter(ctx, c, now)
			if err != nil {
				errs = append(errs, fmt.Errorf("character %d: %w", c.ID, err))
				continue
			}
			plays = append(plays, rec)
		}
	}
	return plays, errors.Join(errs...)
}

func (s *Service) playCharacter(ctx context.Context, c model.Character, now time.Time) (model.GameRecord, error) {
	play, err := s.player.Play(c.Ability)
	if err != nil {
		return model.GameRecord{}, err
	}
	rec := model.GameRecord{
		ChatID:         c.ChatID,
		Player:         model.CharacterID(c.ID),
		PlayerName:     c.Name,
		Points:         play.Points,
		ElapsedSeconds: play.ElapsedSeconds,
		RecordedAt:     now.UTC(),
	}
	if _, err := s.store.InsertRecord(ctx, rec); err != nil {
		return model.GameRecord{}, err
	}
	metrics.RecordCharacterPlay()
	s.logger.Debug(ctx, "character played",
		logger.Int64("chat_id", c.ChatID),
		logger.String("name", c.Name),
		logger.Int("points", play.Points),
	)
	_ = s.notify(ctx, c.ChatID, s.formatter.CharacterAction(c.Name, play.Points, play.ElapsedSeconds))
	return rec, nil
}
