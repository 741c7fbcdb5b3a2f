package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"microbiz/internal/cache"
	"microbiz/internal/core"
	"microbiz/internal/statement"
)

// SnapshotService memoizes statement.Aggregate per (store revision, period,
// calendar day). Concurrent requests for the same key share one computation.
type SnapshotService struct {
	txs   *TransactionService
	cache cache.Cache[statement.Snapshot]
	group singleflight.Group
	// epoch keeps keys of different processes apart in a shared cache,
	// since revisions are counted per process.
	epoch string
	now   func() time.Time
}

func NewSnapshotService(txs *TransactionService, c cache.Cache[statement.Snapshot]) *SnapshotService {
	return &SnapshotService{
		txs:   txs,
		cache: c,
		epoch: uuid.NewString()[:8],
		now:   time.Now,
	}
}

// Statistics returns the snapshot of period as of now.
func (s *SnapshotService) Statistics(ctx context.Context, period core.Period) (statement.Snapshot, error) {
	if err := period.Validate(); err != nil {
		return statement.Snapshot{}, err
	}
	now := s.now()
	key := s.key(period, now)

	if snap, ok := s.cache.Get(ctx, key); ok {
		return snap, nil
	}

	v, err, shared := s.group.Do(key, func() (any, error) {
		txs, err := s.txs.List(ctx)
		if err != nil {
			return nil, err
		}
		capital, err := s.txs.Capital(ctx)
		if err != nil {
			return nil, err
		}
		snap := statement.Aggregate(txs, period, capital, now)
		s.cache.Set(ctx, key, snap)
		return snap, nil
	})
	if err != nil {
		return statement.Snapshot{}, fmt.Errorf("compute statistics for %s: %w", period, err)
	}
	if shared {
		slog.DebugContext(ctx, "Snapshot computation shared", "key", key)
	}
	return v.(statement.Snapshot), nil
}

// Overdue returns every overdue receivable as of now, newest first.
func (s *SnapshotService) Overdue(ctx context.Context) ([]statement.OverdueInvoice, error) {
	snap, err := s.Statistics(ctx, core.PeriodOf(s.now()))
	if err != nil {
		return nil, err
	}
	return snap.OverdueInvoices, nil
}

// key changes whenever a write lands or the UTC calendar day rolls over;
// overdue membership and delay days only change at UTC midnight.
func (s *SnapshotService) key(period core.Period, now time.Time) string {
	return fmt.Sprintf("snapshot:%s:%d:%s:%s", s.epoch, s.txs.Revision(), period, core.DateOf(now.UTC()))
}
