package postgres

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/mooot/league/internal/domain/dedupe"
)

// PeriodGuard is a dedupe.Deduper persisted in the closed_periods table.
// Claims survive restarts and are never evicted.
type PeriodGuard struct {
	store  *Store
	claims atomic.Int64
}

var _ dedupe.Deduper = (*PeriodGuard)(nil)

// PeriodGuard returns a guard sharing the store's pool.
func (s *Store) PeriodGuard() *PeriodGuard {
	return &PeriodGuard{store: s}
}

// SeenAndRecord inserts key and reports true when the row already existed.
func (g *PeriodGuard) SeenAndRecord(ctx context.Context, key string) (bool, error) {
	tag, err := g.store.pool.Exec(ctx,
		`INSERT INTO closed_periods (claim_key) VALUES ($1) ON CONFLICT (claim_key) DO NOTHING`, key)
	if err != nil {
		return false, fmt.Errorf("claim %s: %w", key, err)
	}
	if tag.RowsAffected() == 0 {
		return true, nil
	}
	g.claims.Add(1)
	return false, nil
}

// Unrecord deletes the claim row.
func (g *PeriodGuard) Unrecord(ctx context.Context, key string) error {
	tag, err := g.store.pool.Exec(ctx, `DELETE FROM closed_periods WHERE claim_key = $1`, key)
	if err != nil {
		return fmt.Errorf("release %s: %w", key, err)
	}
	if tag.RowsAffected() > 0 {
		g.claims.Add(-1)
	}
	return nil
}

// Size counts the claims made through this guard.
func (g *PeriodGuard) Size() int64 {
	return g.claims.Load()
}
