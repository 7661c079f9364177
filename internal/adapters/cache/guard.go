// Package cache implements the period guard on Redis so every replica of the
// service shares the same claims.
package cache

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mooot/league/internal/domain/dedupe"
)

const (
	defaultTTL    = 400 * 24 * time.Hour
	defaultPrefix = "mooot:"
	claimValue    = "1"
)

// ErrGuardUnavailable wraps every Redis failure.
var ErrGuardUnavailable = errors.New("period guard unavailable")

// Option configures a Guard.
type Option func(*Guard)

// WithTTL sets how long a claim lives. Claims must outlive the period they
// protect.
func WithTTL(ttl time.Duration) Option {
	return func(g *Guard) {
		if ttl > 0 {
			g.ttl = ttl
		}
	}
}

// WithPrefix namespaces the keys.
func WithPrefix(prefix string) Option {
	return func(g *Guard) {
		g.prefix = prefix
	}
}

// Guard is a dedupe.Deduper backed by SET NX.
type Guard struct {
	client redis.Cmdable
	ttl    time.Duration
	prefix string
	claims atomic.Int64
}

var _ dedupe.Deduper = (*Guard)(nil)

// NewGuard wraps an existing client.
func NewGuard(client redis.Cmdable, opts ...Option) *Guard {
	g := &Guard{client: client, ttl: defaultTTL, prefix: defaultPrefix}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Dial connects to addr and checks the connection.
func Dial(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: ping %s: %v", ErrGuardUnavailable, addr, err)
	}
	return client, nil
}

// SeenAndRecord claims key with SET NX. It reports true when another caller
// already holds the claim.
func (g *Guard) SeenAndRecord(ctx context.Context, key string) (bool, error) {
	ok, err := g.client.SetNX(ctx, g.prefix+key, claimValue, g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%w: claim %s: %v", ErrGuardUnavailable, key, err)
	}
	if !ok {
		return true, nil
	}
	g.claims.Add(1)
	return false, nil
}

// Unrecord releases a claim.
func (g *Guard) Unrecord(ctx context.Context, key string) error {
	n, err := g.client.Del(ctx, g.prefix+key).Result()
	if err != nil {
		return fmt.Errorf("%w: release %s: %v", ErrGuardUnavailable, key, err)
	}
	if n > 0 {
		g.claims.Add(-1)
	}
	return nil
}

// Size counts the claims this process currently holds.
func (g *Guard) Size() int64 {
	return g.claims.Load()
}
