package service

import (
	"time"

	"github.com/mooot/league/internal/adapters/notify"
	"github.com/mooot/league/internal/adapters/repository"
	"github.com/mooot/league/internal/domain/awards"
	"github.com/mooot/league/internal/domain/dedupe"
	"github.com/mooot/league/internal/domain/scoring"
	"github.com/mooot/league/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the record, award and character storage.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithGuard sets the once-per-period guard used when closing months.
func WithGuard(guard dedupe.Deduper) Option {
	return func(s *Service) {
		if guard != nil {
			s.guard = guard
		}
	}
}

// WithSender sets where notifications are delivered.
func WithSender(sender notify.Sender) Option {
	return func(s *Service) {
		if sender != nil {
			s.sender = sender
		}
	}
}

// WithPolicy sets the trophy policy.
func WithPolicy(policy awards.Policy) Option {
	return func(s *Service) {
		s.policy = policy
		s.formatter = notify.NewFormatter(policy)
	}
}

// WithLocation sets the civil timezone of days and months.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		s.loc = loc
	}
}

// WithWorkerCount sets the number of persistence workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the ingestion queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDevChatID copies every notification to a developer chat.
func WithDevChatID(chatID int64) Option {
	return func(s *Service) {
		s.devChatID = chatID
	}
}

// WithCharacterPlayer sets the simulator used for character plays.
func WithCharacterPlayer(player *scoring.CharacterPlayer) Option {
	return func(s *Service) {
		if player != nil {
			s.player = player
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithRunIDFunc overrides how close runs are identified.
func WithRunIDFunc(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newRunID = fn
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
