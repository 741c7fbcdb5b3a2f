package adapters

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"microbiz/internal/amqp"
	"microbiz/internal/core"
	"microbiz/internal/sheets"
	"microbiz/internal/storage"
)

type fakePublisher struct {
	events []*amqp.TransactionEvent
	err    error
	closed bool
}

func (p *fakePublisher) PublishTransactionEvent(_ context.Context, ev *amqp.TransactionEvent) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *fakePublisher) Close() error {
	p.closed = true
	return nil
}

func newAdapter(t *testing.T, pub EventPublisher) *SQLiteAdapter {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "adapter.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	return NewSQLiteAdapter(repo, pub)
}

func invoice(id string) core.Transaction {
	return core.Transaction{ID: id, Type: core.Income, Date: core.NewDate(2025, 4, 1), Amount: core.NewMoney(700),
		Category: core.CategorySales, PaymentStatus: core.Unpaid, PaymentTerms: 60}
}

func TestSQLiteAdapter_PublishesEvents(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{}
	a := newAdapter(t, pub)

	if _, err := a.CreateTransaction(ctx, invoice("i1")); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := a.SetPaymentStatus(ctx, "i1", core.Paid); err != nil {
		t.Fatalf("status: %v", err)
	}
	if err := a.DeleteTransaction(ctx, "i1"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	want := []struct {
		kind    string
		version int64
	}{
		{amqp.RoutingTransactionCreated, 1},
		{amqp.RoutingPaymentStatusChanged, 2},
		{amqp.RoutingTransactionDeleted, 0},
	}
	if len(pub.events) != len(want) {
		t.Fatalf("published %d events, want %d", len(pub.events), len(want))
	}
	for i, w := range want {
		if pub.events[i].Kind != w.kind || pub.events[i].Version != w.version || pub.events[i].ID != "i1" {
			t.Errorf("event %d = %+v, want %s v%d", i, pub.events[i], w.kind, w.version)
		}
	}

	if err := a.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !pub.closed {
		t.Error("publisher not closed")
	}
}

func TestSQLiteAdapter_WriteSucceedsWhenPublishFails(t *testing.T) {
	ctx := context.Background()
	a := newAdapter(t, &fakePublisher{err: errors.New("broker down")})
	defer a.Close()

	if _, err := a.CreateTransaction(ctx, invoice("i1")); err != nil {
		t.Fatalf("create should succeed without broker: %v", err)
	}
	list, err := a.ListTransactions(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("list = %v, %v", list, err)
	}
}

func TestSQLiteAdapter_NoPublisher(t *testing.T) {
	ctx := context.Background()
	a := newAdapter(t, nil)
	defer a.Close()

	if err := a.SetPaymentStatus(ctx, "missing", core.Paid); !errors.Is(err, sheets.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := a.SetCapital(ctx, core.NewMoney(42)); err != nil {
		t.Fatal(err)
	}
	if c, _ := a.GetCapital(ctx); !c.Equal(core.NewMoney(42)) {
		t.Fatalf("capital = %s", c)
	}
	if err := a.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
}
