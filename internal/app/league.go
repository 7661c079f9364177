package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mooot/league/internal/domain/awards"
	"github.com/mooot/league/internal/domain/dedupe"
	"github.com/mooot/league/internal/domain/model"
	"github.com/mooot/league/pkg/logger"
	"github.com/mooot/league/pkg/metrics"
	"github.com/mooot/league/pkg/timeutil"
)

// CloseResult describes one closed month of one chat.
type CloseResult struct {
	ChatID     int64
	RunID      string
	PeriodCode int
	Ranking    []model.LeaderboardEntry
	Grants     []model.AwardGrant
}

// CloseMonth ranks the month containing now, grants its trophies and
// announces them. A month is closed at most once per chat: later calls
// return ErrPeriodClosed. When ranking or persisting fails nothing is
// granted and the month stays open.
func (s *Service) CloseMonth(ctx context.Context, chatID int64, now time.Time) (CloseResult, error) {
	if s.loc == nil {
		return CloseResult{}, ErrNoLocation
	}
	code := timeutil.PeriodCode(now, s.loc)
	key := dedupe.PeriodKey(chatID, now.In(s.loc).Year(), code)
	log := s.logger.With(logger.Int64("chat_id", chatID), logger.String("period", key))

	seen, err := s.guard.SeenAndRecord(ctx, key)
	if err != nil {
		return CloseResult{}, fmt.Errorf("claim %s: %w", key, err)
	}
	if seen {
		metrics.RecordPeriodSkipped()
		log.Info(ctx, "period already closed")
		return CloseResult{}, fmt.Errorf("%w: %s", ErrPeriodClosed, key)
	}

	release := func(cause error) {
		if err := s.guard.Unrecord(ctx, key); err != nil {
			log.Error(ctx, "release period claim", logger.Error(err))
		}
		log.Error(ctx, "close aborted", logger.Error(cause))
	}

	from, to := timeutil.MonthWindow(now, s.loc)
	records, err := s.store.Records(ctx, chatID, from, to)
	if err != nil {
		release(err)
		return CloseResult{}, fmt.Errorf("load records of chat %d: %w", chatID, err)
	}
	entries, err := s.rank(ctx, records)
	if err != nil {
		release(err)
		return CloseResult{}, err
	}

	res := CloseResult{
		ChatID:     chatID,
		RunID:      s.newRunID(),
		PeriodCode: code,
		Ranking:    entries,
		Grants:     s.policy.Allocate(chatID, entries, code),
	}
	if len(res.Grants) > 0 {
		if err := s.store.SaveGrants(ctx, res.RunID, res.Grants, now.UTC()); err != nil {
			release(err)
			return CloseResult{}, fmt.Errorf("save grants of chat %d: %w", chatID, err)
		}
	}

	positional, participation := s.countTiers(res.Grants)
	metrics.RecordAwards(positional, participation)
	metrics.RecordPeriodClosed()
	log.Info(ctx, "period closed",
		logger.String("run_id", res.RunID),
		logger.Int("players", len(entries)),
		logger.Int("positional", positional),
		logger.Int("participation", participation),
	)

	_ = s.notify(ctx, chatID, s.formatter.NewAwards(entries, res.Grants))
	return res, nil
}

// CloseMonthAll closes the month for every known chat. Chats already closed
// are skipped; other failures are collected and do not stop the run.
func (s *Service) CloseMonthAll(ctx context.Context, now time.Time) ([]CloseResult, error) {
	chats, err := s.store.Chats(ctx)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	results := make([]CloseResult, 0, len(chats))
	var errs []error
	for _, chatID := range chats {
		res, err := s.CloseMonth(ctx, chatID, now)
		switch {
		case errors.Is(err, ErrPeriodClosed):
			continue
		case err != nil:
			errs = append(errs, fmt.Errorf("chat %d: %w", chatID, err))
			continue
		}
		results = append(results, res)
	}
	return results, errors.Join(errs...)
}

// SendAdvise tells every chat how long the league has left together with
// the current standings.
func (s *Service) SendAdvise(ctx context.Context, now time.Time) error {
	if s.loc == nil {
		return ErrNoLocation
	}
	chats, err := s.store.Chats(ctx)
	if err != nil {
		return fmt.Errorf("list chats: %w", err)
	}
	days := timeutil.DaysRemainingInMonth(now, s.loc)
	from, to := timeutil.MonthWindow(now, s.loc)

	var errs []error
	for _, chatID := range chats {
		records, err := s.store.Records(ctx, chatID, from, to)
		if err != nil {
			errs = append(errs, fmt.Errorf("chat %d: %w", chatID, err))
			continue
		}
		entries, err := s.rank(ctx, records)
		if err != nil {
			errs = append(errs, fmt.Errorf("chat %d: %w", chatID, err))
			continue
		}
		if err := s.notify(ctx, chatID, s.formatter.FinalAdvise(days)); err != nil {
			errs = append(errs, fmt.Errorf("chat %d: %w", chatID, err))
			continue
		}
		if err := s.notify(ctx, chatID, s.formatter.Ranking("Current standings", entries)); err != nil {
			errs = append(errs, fmt.Errorf("chat %d: %w", chatID, err))
		}
	}
	return errors.Join(errs...)
}

// AnnounceAwards posts the trophy cabinet of chatID to the chat and returns
// the trophies it lists.
func (s *Service) AnnounceAwards(ctx context.Context, chatID int64) ([]model.AwardRecord, error) {
	records, err := s.Awards(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if err := s.notify(ctx, chatID, s.formatter.AwardsHistory(records)); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *Service) countTiers(grants []model.AwardGrant) (positional, participation int) {
	for _, g := range grants {
		if _, tier := awards.SplitTrophyID(g.TrophyID); s.policy.IsPositional(tier) {
			positional++
		} else {
			participation++
		}
	}
	return positional, participation
}
