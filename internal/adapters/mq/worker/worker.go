// Package worker persists queued game records.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/mooot/league/internal/domain/model"
	"github.com/mooot/league/pkg/logger"
	"github.com/mooot/league/pkg/metrics"
)

const (
	defaultWorkerCount = 4
	defaultRetries     = 2
	defaultBackoff     = 50 * time.Millisecond
)

// Inserter is the storage side a worker writes to.
type Inserter interface {
	InsertRecord(ctx context.Context, rec model.GameRecord) (string, error)
}

// Queue is where workers read records from.
type Queue interface {
	Dequeue(ctx context.Context) <-chan model.GameRecord
}

// InMemoryWorker persists records until its queue is closed and drained or
// its context is cancelled.
type InMemoryWorker struct {
	queue    Queue
	inserter Inserter
	name     string
	retries  int
	backoff  time.Duration
	logger   logger.Logger

	persisted *atomic.Int64
	failed    *atomic.Int64
	done      chan struct{}
}

// NewInMemoryWorker creates a worker.
func NewInMemoryWorker(q Queue, inserter Inserter, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     q,
		inserter:  inserter,
		name:      "worker",
		retries:   defaultRetries,
		backoff:   defaultBackoff,
		persisted: &atomic.Int64{},
		failed:    &atomic.Int64{},
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

// Run blocks until the queue channel is closed and drained or ctx is done.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	records := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case rec, ok := <-records:
			if !ok {
				return
			}
			if err := w.persist(ctx, rec); err != nil {
				w.failed.Add(1)
				metrics.RecordWorkerError()
				w.logger.Error(ctx, "dropping record",
					logger.Int64("chat_id", rec.ChatID),
					logger.String("player", rec.Player.Key()),
					logger.Error(err),
				)
			}
		}
	}
}

// Done is closed when Run returns.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

func (w *InMemoryWorker) persist(ctx context.Context, rec model.GameRecord) error { //nolint:gocritic // hugeParam: received by value from the channel
	var err error
	for attempt := 0; attempt <= w.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("persist cancelled: %w", ctx.Err())
			case <-time.After(w.backoff * time.Duration(attempt)):
			}
		}
		if _, err = w.inserter.InsertRecord(ctx, rec); err == nil {
			w.persisted.Add(1)
			metrics.RecordIngested(rec.Player.Kind.String())
			return nil
		}
		w.logger.Warn(ctx, "insert failed", logger.Int("attempt", attempt+1), logger.Error(err))
	}
	return fmt.Errorf("persist after %d attempts: %w", w.retries+1, err)
}

// Pool runs several workers on one queue.
type Pool struct {
	workers   []*InMemoryWorker
	queue     Queue
	persisted atomic.Int64
	failed    atomic.Int64
	started   atomic.Bool
	logger    logger.Logger
}

// NewPool creates workerCount workers. Values below one fall back to a small
// default.
func NewPool(workerCount int, q Queue, inserter Inserter, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
	}
	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := range p.workers {
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		w := NewInMemoryWorker(q, inserter, wopts...)
		w.persisted = &p.persisted
		w.failed = &p.failed
		p.workers[i] = w
	}
	return p
}

// Start launches every worker.
func (p *Pool) Start(ctx context.Context) {
	if !p.started.CompareAndSwap(false, true) {
		return
	}
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	metrics.UpdateWorkerCount(len(p.workers))
	p.logger.Info(ctx, "workers started", logger.Int("count", len(p.workers)))
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Persisted counts records written by the pool.
func (p *Pool) Persisted() int64 { return p.persisted.Load() }

// Failed counts records dropped after retries.
func (p *Pool) Failed() int64 { return p.failed.Load() }

// Shutdown closes the queue and waits until every buffered record has been
// handled or ctx expires.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}
	if !p.started.Load() {
		return nil
	}
	defer metrics.UpdateWorkerCount(0)
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-ctx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			return fmt.Errorf("shutdown timed out: %w", ctx.Err())
		}
	}
	return nil
}
