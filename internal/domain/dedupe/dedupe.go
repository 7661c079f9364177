// Package dedupe tracks claimed keys so that one-shot operations, such as
// closing a league period, run at most once.
package dedupe

import (
	"container/list"
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

const defaultMaxSize = 10000

// Deduper claims keys atomically.
type Deduper interface {
	// SeenAndRecord reports whether key was already claimed and claims it
	// when it was not. The check and the claim happen atomically.
	SeenAndRecord(ctx context.Context, key string) (bool, error)

	// Unrecord releases a claim so the operation can be retried after a
	// failure.
	Unrecord(ctx context.Context, key string) error

	Size() int64
}

// PeriodKey is the claim key for closing one period of one chat.
func PeriodKey(chatID int64, year, periodCode int) string {
	return fmt.Sprintf("league:close:%d:%d:%d", chatID, year, periodCode)
}

// inMemoryDeduper keeps claims in a map and, when bounded, forgets the
// oldest claim once maxSize is reached.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]*list.Element
	order   *list.List // front is the oldest claim
	maxSize int        // <= 0 means unbounded
	size    atomic.Int64
}

// NewInMemoryDeduper creates a process-local deduper.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: defaultMaxSize,
		seen:    make(map[string]*list.Element),
		order:   list.New(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, key string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[key]; ok {
		return true, nil
	}
	if d.maxSize > 0 && len(d.seen) >= d.maxSize {
		d.evictOldest()
	}
	d.seen[key] = d.order.PushBack(key)
	d.size.Add(1)
	return false, nil
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.seen[key]; ok {
		d.order.Remove(el)
		delete(d.seen, key)
		d.size.Add(-1)
	}
	return nil
}

// evictOldest must be called with d.mu held.
func (d *inMemoryDeduper) evictOldest() {
	front := d.order.Front()
	if front == nil {
		return
	}
	d.order.Remove(front)
	delete(d.seen, front.Value.(string))
	d.size.Add(-1)
}

func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
