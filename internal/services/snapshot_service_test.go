package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"microbiz/internal/cache"
	"microbiz/internal/core"
	"microbiz/internal/sheets/memory"
	"microbiz/internal/statement"
)

// countingStore counts ListTransactions calls.
type countingStore struct {
	*memory.Store
	lists atomic.Int32
	delay time.Duration
}

func (s *countingStore) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	s.lists.Add(1)
	time.Sleep(s.delay)
	return s.Store.ListTransactions(ctx)
}

func newSnapshotFixture(t *testing.T) (*countingStore, *TransactionService, *SnapshotService) {
	t.Helper()
	store := &countingStore{Store: memory.New()}
	txs := NewTransactionService(store)
	snaps := NewSnapshotService(txs, cache.NewLRUCache[statement.Snapshot](16, time.Hour))
	snaps.now = func() time.Time { return time.Date(2025, 3, 20, 10, 0, 0, 0, time.UTC) }
	return store, txs, snaps
}

func TestSnapshotService_MemoizesUntilWrite(t *testing.T) {
	ctx := context.Background()
	store, txs, snaps := newSnapshotFixture(t)
	march := core.Period{Year: 2025, Month: 3}

	if err := txs.SetCapital(ctx, core.NewMoney(1000)); err != nil {
		t.Fatal(err)
	}
	if _, err := txs.Add(ctx, core.Transaction{Type: core.Income, Date: core.NewDate(2025, 3, 2),
		Amount: core.NewMoney(300), Category: core.CategorySales, PaymentStatus: core.Paid}); err != nil {
		t.Fatal(err)
	}

	first, err := snaps.Statistics(ctx, march)
	if err != nil {
		t.Fatalf("Statistics: %v", err)
	}
	if !first.TotalAccountBalance.Equal(core.NewMoney(1300)) {
		t.Fatalf("balance = %s", first.TotalAccountBalance)
	}
	if _, err := snaps.Statistics(ctx, march); err != nil {
		t.Fatal(err)
	}
	if n := store.lists.Load(); n != 1 {
		t.Fatalf("expected 1 list call with a warm cache, got %d", n)
	}

	if _, err := txs.Add(ctx, core.Transaction{Type: core.Expense, Date: core.NewDate(2025, 3, 3),
		Amount: core.NewMoney(100), Category: core.CategoryRent}); err != nil {
		t.Fatal(err)
	}
	second, _ := snaps.Statistics(ctx, march)
	if !second.TotalAccountBalance.Equal(core.NewMoney(1200)) {
		t.Fatalf("write not reflected, balance = %s", second.TotalAccountBalance)
	}
	if n := store.lists.Load(); n != 2 {
		t.Fatalf("expected recompute after write, list calls = %d", n)
	}

	// A different day is a different key.
	snaps.now = func() time.Time { return time.Date(2025, 3, 21, 10, 0, 0, 0, time.UTC) }
	if _, err := snaps.Statistics(ctx, march); err != nil {
		t.Fatal(err)
	}
	if n := store.lists.Load(); n != 3 {
		t.Fatalf("expected recompute on a new day, list calls = %d", n)
	}
}

func TestSnapshotService_CollapsesConcurrentRequests(t *testing.T) {
	ctx := context.Background()
	store, _, snaps := newSnapshotFixture(t)
	store.delay = 50 * time.Millisecond

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := snaps.Statistics(ctx, core.Period{Year: 2025, Month: 3}); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()
	if n := store.lists.Load(); n != 1 {
		t.Fatalf("expected concurrent requests to share one computation, got %d", n)
	}
}

func TestSnapshotService_RejectsInvalidPeriod(t *testing.T) {
	_, _, snaps := newSnapshotFixture(t)
	if _, err := snaps.Statistics(context.Background(), core.Period{Year: 2025, Month: 13}); err == nil {
		t.Fatal("expected error for month 13")
	}
}

func TestSnapshotService_Overdue(t *testing.T) {
	ctx := context.Background()
	_, txs, snaps := newSnapshotFixture(t)
	if _, err := txs.Add(ctx, core.Transaction{Type: core.Income, Date: core.NewDate(2025, 1, 1),
		Amount: core.NewMoney(900), Category: core.CategoryService, PaymentStatus: core.Unpaid, PaymentTerms: 30}); err != nil {
		t.Fatal(err)
	}
	inv, err := snaps.Overdue(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(inv) != 1 || inv[0].DueDate != "2025-01-31" {
		t.Fatalf("unexpected overdue list %+v", inv)
	}
}
