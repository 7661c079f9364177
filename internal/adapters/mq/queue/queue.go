// Package queue buffers submitted game records between the API and the
// persistence workers.
package queue

import (
	"context"
	"sync"

	"github.com/mooot/league/internal/domain/model"
	"github.com/mooot/league/pkg/metrics"
)

const defaultQueueCapacity = 10000

// Record is the payload flowing through the queue.
type Record = model.GameRecord

// Queue provides non-blocking enqueue and channel-based dequeue.
type Queue interface {
	// Enqueue returns false when the queue is full, closed, or ctx is done.
	Enqueue(ctx context.Context, r Record) bool

	// Dequeue returns the channel consumers range over. It is closed by
	// Close once every buffered record has been received.
	Dequeue(ctx context.Context) <-chan Record

	Len(ctx context.Context) int
	Cap() int
	Close() error
	IsClosed() bool
}

// InMemoryQueue implements Queue with a buffered channel.
type InMemoryQueue struct {
	records  chan Record
	capacity int
	mu       sync.RWMutex
	closed   bool
}

// NewInMemoryQueue creates a bounded queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.records = make(chan Record, q.capacity)
	metrics.UpdateQueue(0, q.capacity)
	return q
}

func (q *InMemoryQueue) Enqueue(ctx context.Context, r Record) bool { //nolint:gocritic // hugeParam: passed by value into the channel
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed || ctx.Err() != nil {
		return false
	}
	select {
	case q.records <- r:
		metrics.UpdateQueue(len(q.records), q.capacity)
		return true
	default:
		metrics.RecordQueueRejected()
		return false
	}
}

func (q *InMemoryQueue) Dequeue(_ context.Context) <-chan Record {
	return q.records
}

func (q *InMemoryQueue) Len(_ context.Context) int {
	n := len(q.records)
	metrics.UpdateQueue(n, q.capacity)
	return n
}

func (q *InMemoryQueue) Cap() int { return q.capacity }

// Close stops accepting records. Buffered records stay readable.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	close(q.records)
	q.closed = true
	return nil
}

func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
