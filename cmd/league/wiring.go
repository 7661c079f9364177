package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mooot/league/internal/adapters/cache"
	"github.com/mooot/league/internal/adapters/http/api"
	"github.com/mooot/league/internal/adapters/notify"
	"github.com/mooot/league/internal/adapters/repository"
	"github.com/mooot/league/internal/adapters/repository/postgres"
	service "github.com/mooot/league/internal/app"
	"github.com/mooot/league/internal/config"
	"github.com/mooot/league/internal/domain/awards"
	"github.com/mooot/league/internal/domain/dedupe"
	"github.com/mooot/league/internal/scheduler"
	"github.com/mooot/league/pkg/logger"
)

// application holds the wired components of one process.
type application struct {
	svc       *service.Service
	scheduler *scheduler.Scheduler
	handler   http.Handler
	closers   []func() error
}

func (a *application) close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			logger.Get().Warn(ctx, "close failed", logger.Error(err))
		}
	}
}

// build wires storage, guard, sender, service, scheduler and HTTP routes
// from cfg. Nothing is started.
func build(ctx context.Context, cfg *config.Config) (*application, error) {
	log := logger.Get()
	a := &application{}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	policy, err := awards.NewPolicy(cfg.PositionalTrophies)
	if err != nil {
		return nil, err
	}

	var (
		store repository.Store
		pg    *postgres.Store
	)
	switch cfg.Storage {
	case config.StoragePostgres:
		pg, err = postgres.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		a.closers = append(a.closers, func() error { pg.Close(); return nil })
		store = pg
		log.Info(ctx, "using postgres store")
	default:
		store = repository.NewMemoryStore()
		log.Info(ctx, "using memory store")
	}

	guard, err := a.periodGuard(ctx, cfg, pg)
	if err != nil {
		a.close(ctx)
		return nil, err
	}

	var sender notify.Sender = notify.NewLogSender()
	if cfg.TelegramToken != "" {
		var topts []notify.TelegramOption
		if cfg.TelegramBaseURL != "" {
			topts = append(topts, notify.WithBaseURL(cfg.TelegramBaseURL))
		}
		tg, err := notify.NewTelegramSender(cfg.TelegramToken, topts...)
		if err != nil {
			a.close(ctx)
			return nil, err
		}
		sender = tg
	}

	a.svc = service.New(
		service.WithLogger(log.Named("service")),
		service.WithStore(store),
		service.WithGuard(guard),
		service.WithSender(sender),
		service.WithPolicy(policy),
		service.WithLocation(loc),
		service.WithWorkerCount(cfg.WorkerCount),
		service.WithQueueSize(cfg.QueueSize),
		service.WithDevChatID(cfg.DevChatID),
	)

	if cfg.SchedulerEnabled {
		a.scheduler = scheduler.New()
		hours := scheduler.Hours{Advise: cfg.AdviseHour, Close: cfg.CloseHour, Characters: cfg.CharactersHour}
		if err := scheduler.RegisterLeague(a.scheduler, scheduledLeague{svc: a.svc}, hours, loc); err != nil {
			a.close(ctx)
			return nil, err
		}
	}

	a.handler = api.NewServer(a.svc).Router()
	return a, nil
}

// periodGuard picks the close guard: Redis when configured, the closed_periods
// table when storage is postgres, otherwise a process-local map.
func (a *application) periodGuard(ctx context.Context, cfg *config.Config, pg *postgres.Store) (dedupe.Deduper, error) {
	log := logger.Get()
	switch {
	case cfg.RedisAddr != "":
		client, err := cache.Dial(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client.Close)
		log.Info(ctx, "using redis period guard", logger.String("addr", cfg.RedisAddr))
		return cache.NewGuard(client, cache.WithTTL(cfg.GuardTTL())), nil
	case pg != nil:
		log.Info(ctx, "using postgres period guard")
		return pg.PeriodGuard(), nil
	default:
		log.Warn(ctx, "using in-memory period guard; closed periods are forgotten on restart")
		return dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(cfg.GuardSize)), nil
	}
}

// scheduledLeague adapts the service to the scheduler's job signatures.
type scheduledLeague struct {
	svc *service.Service
}

func (l scheduledLeague) SendAdvise(ctx context.Context, now time.Time) error {
	return l.svc.SendAdvise(ctx, now)
}

func (l scheduledLeague) CloseMonthAll(ctx context.Context, now time.Time) error {
	_, err := l.svc.CloseMonthAll(ctx, now)
	return err
}

func (l scheduledLeague) PlayCharacters(ctx context.Context, now time.Time) error {
	_, err := l.svc.PlayCharacters(ctx, 0, now)
	return err
}
