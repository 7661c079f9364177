// Package service orchestrates the league: it ingests plays, computes
// rankings, closes months and drives notifications.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	eventqueue "github.com/mooot/league/internal/adapters/mq/queue"
	workerpool "github.com/mooot/league/internal/adapters/mq/worker"
	"github.com/mooot/league/internal/adapters/notify"
	"github.com/mooot/league/internal/adapters/repository"
	"github.com/mooot/league/internal/domain/awards"
	"github.com/mooot/league/internal/domain/dedupe"
	"github.com/mooot/league/internal/domain/model"
	"github.com/mooot/league/internal/domain/ranking"
	"github.com/mooot/league/internal/domain/scoring"
	"github.com/mooot/league/pkg/logger"
	"github.com/mooot/league/pkg/metrics"
	"github.com/mooot/league/pkg/timeutil"
)

const (
	defaultWorkerCount = 4
	defaultQueueSize   = 10_000
	defaultTopSize     = 10

	rejectInvalid      = "invalid"
	rejectBackpressure = "backpressure"
)

// Service implements the league use cases on top of its ports.
type Service struct {
	mu sync.RWMutex

	store     repository.Store
	guard     dedupe.Deduper
	sender    notify.Sender
	formatter *notify.Formatter
	policy    awards.Policy
	player    *scoring.CharacterPlayer
	loc       *time.Location

	queue eventqueue.Queue
	pool  *workerpool.Pool

	workerCount int
	queueSize   int
	devChatID   int64

	now      func() time.Time
	newRunID func() string

	started bool
	logger  logger.Logger
}

// New constructs a Service. Storage, guard and sender default to in-memory
// and logging implementations; the location has no default.
func New(opts ...Option) *Service {
	s := &Service{
		policy:      awards.DefaultPolicy,
		formatter:   notify.NewFormatter(awards.DefaultPolicy),
		workerCount: defaultWorkerCount,
		queueSize:   defaultQueueSize,
		now:         time.Now,
		newRunID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore()
	}
	if s.guard == nil {
		s.guard = dedupe.NewInMemoryDeduper()
	}
	if s.sender == nil {
		s.sender = notify.NewLogSender()
	}
	if s.player == nil {
		s.player = scoring.NewCharacterPlayer()
	}
	return s
}

// Start creates the ingestion queue and starts the persistence workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.loc == nil {
		return ErrNoLocation
	}

	s.queue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.store)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "league service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queue_size", s.queueSize),
		logger.String("timezone", s.loc.String()),
	)
	return nil
}

// Stop stops accepting plays and waits for queued ones to be persisted.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.started = false
	err := s.pool.Shutdown(ctx)
	s.logger.Info(ctx, "league service stopped",
		logger.Int64("persisted", s.pool.Persisted()),
		logger.Int64("failed", s.pool.Failed()),
	)
	return err
}

// Location returns the civil timezone of the league.
func (s *Service) Location() *time.Location { return s.loc }

// Submit validates a play and queues it for persistence. A zero RecordedAt
// is stamped with the current time.
func (s *Service) Submit(ctx context.Context, rec model.GameRecord) error { //nolint:gocritic // hugeParam: record is queued by value
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return ErrNotStarted
	}
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = s.now()
	}
	rec.RecordedAt = rec.RecordedAt.UTC()
	if err := repository.ValidateRecord(rec); err != nil {
		metrics.RecordRejected(rejectInvalid)
		return err
	}
	if !s.queue.Enqueue(ctx, rec) {
		metrics.RecordRejected(rejectBackpressure)
		return ErrBackpressure
	}
	s.logger.Debug(ctx, "play queued",
		logger.Int64("chat_id", rec.ChatID),
		logger.String("player", rec.Player.Key()),
		logger.Int("points", rec.Points),
	)
	return nil
}

// Ranking computes the leaderboard of a chat over period, as of now.
func (s *Service) Ranking(ctx context.Context, chatID int64, period model.Period) ([]model.LeaderboardEntry, error) {
	from, to, err := s.window(period, s.now())
	if err != nil {
		return nil, err
	}
	records, err := s.store.Records(ctx, chatID, from, to)
	if err != nil {
		return nil, fmt.Errorf("load records of chat %d: %w", chatID, err)
	}
	return s.rank(ctx, records)
}

// GlobalTop ranks human players of every chat over the current month.
// n <= 0 selects the default size.
func (s *Service) GlobalTop(ctx context.Context, n int) ([]model.LeaderboardEntry, error) {
	if n <= 0 {
		n = defaultTopSize
	}
	from, to, err := s.window(model.PeriodMonth, s.now())
	if err != nil {
		return nil, err
	}
	records, err := s.store.RecordsAllChats(ctx, from, to, model.KindHuman)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}
	entries, err := s.rank(ctx, records)
	if err != nil {
		return nil, err
	}
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries, nil
}

// Awards lists the trophies granted in a chat.
func (s *Service) Awards(ctx context.Context, chatID int64) ([]model.AwardRecord, error) {
	if err := s.knownChat(ctx, chatID); err != nil {
		return nil, err
	}
	return s.store.Awards(ctx, chatID)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]any{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"guardSize":   s.guard.Size(),
		"trophies":    s.policy.Positions,
	}
	if s.loc != nil {
		stats["timezone"] = s.loc.String()
	}
	if s.started {
		stats["queueLength"] = s.queue.Len(ctx)
		stats["persisted"] = s.pool.Persisted()
		stats["failed"] = s.pool.Failed()
	}
	return stats
}

// window resolves a period to a [from, to) range. The all window is
// unbounded on both sides.
func (s *Service) window(period model.Period, now time.Time) (from, to time.Time, err error) {
	if s.loc == nil {
		return time.Time{}, time.Time{}, ErrNoLocation
	}
	switch period {
	case model.PeriodAll:
		return time.Time{}, time.Time{}, nil
	case model.PeriodDay:
		from, to = timeutil.DayWindow(now, s.loc)
		return from, to, nil
	case model.PeriodMonth:
		from, to = timeutil.MonthWindow(now, s.loc)
		return from, to, nil
	default:
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %q", model.ErrUnknownPeriod, period)
	}
}

func (s *Service) rank(ctx context.Context, records []model.GameRecord) ([]model.LeaderboardEntry, error) {
	start := time.Now()
	entries, err := ranking.Compute(records, s.loc)
	if err != nil {
		metrics.RecordInvalidBatch()
		s.logger.Error(ctx, "ranking rejected", logger.Int("records", len(records)), logger.Error(err))
		return nil, err
	}
	_, skipped := ranking.CountedDays(records, s.loc)
	metrics.RecordRanking(time.Since(start), skipped)
	return entries, nil
}

func (s *Service) knownChat(ctx context.Context, chatID int64) error {
	chats, err := s.store.Chats(ctx)
	if err != nil {
		return fmt.Errorf("list chats: %w", err)
	}
	for _, id := range chats {
		if id == chatID {
			return nil
		}
	}
	return fmt.Errorf("%w: %d", ErrUnknownChat, chatID)
}

// notify sends msg to chatID and, when configured, a copy to the developer
// chat. Delivery failures are logged and returned.
func (s *Service) notify(ctx context.Context, chatID int64, msg notify.Message) error {
	err := s.sender.Send(ctx, chatID, msg)
	if err != nil {
		s.logger.Warn(ctx, "notification failed", logger.Int64("chat_id", chatID), logger.Error(err))
	}
	if s.devChatID != 0 && s.devChatID != chatID {
		if derr := s.sender.Send(ctx, s.devChatID, msg); derr != nil {
			s.logger.Warn(ctx, "dev copy failed", logger.Int64("chat_id", s.devChatID), logger.Error(derr))
		}
	}
	return err
}
