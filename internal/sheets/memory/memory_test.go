package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"microbiz/internal/core"
	"microbiz/internal/sheets"
)

func sale(id string, status core.PaymentStatus) core.Transaction {
	return core.Transaction{
		ID: id, Type: core.Income, Date: core.NewDate(2025, 3, 1), Amount: core.NewMoney(100),
		Category: core.CategorySales, PaymentStatus: status, VoucherType: core.VoucherElectronic,
	}
}

func TestMemoryStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	s := New()

	stored, err := s.CreateTransaction(ctx, sale("a", core.Unpaid))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if stored.CreatedAt.IsZero() {
		t.Fatal("CreatedAt not set")
	}
	if _, err := s.CreateTransaction(ctx, sale("a", core.Paid)); err == nil {
		t.Fatal("expected duplicate id error")
	}
	if _, err := s.CreateTransaction(ctx, core.Transaction{ID: "bad", Type: "gift"}); !errors.Is(err, core.ErrInvalidType) {
		t.Fatalf("expected ErrInvalidType, got %v", err)
	}

	if err := s.SetPaymentStatus(ctx, "a", core.Paid); err != nil {
		t.Fatalf("set status: %v", err)
	}
	if err := s.SetPaymentStatus(ctx, "missing", core.Paid); !errors.Is(err, sheets.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	list, _ := s.ListTransactions(ctx)
	if len(list) != 1 || list[0].PaymentStatus != core.Paid {
		t.Fatalf("unexpected list %+v", list)
	}

	// The returned slice is a copy.
	list[0].PaymentStatus = core.Unpaid
	again, _ := s.ListTransactions(ctx)
	if again[0].PaymentStatus != core.Paid {
		t.Fatal("store state leaked through ListTransactions")
	}

	if err := s.DeleteTransaction(ctx, "a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteTransaction(ctx, "a"); !errors.Is(err, sheets.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestMemoryStoreCapital(t *testing.T) {
	ctx := context.Background()
	s := New()
	c, err := s.GetCapital(ctx)
	if err != nil || !c.IsZero() {
		t.Fatalf("expected zero capital, got %s %v", c, err)
	}
	if err := s.SetCapital(ctx, core.NewMoney(-1)); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if err := s.SetCapital(ctx, core.NewMoney(5000)); err != nil {
		t.Fatalf("set capital: %v", err)
	}
	if c, _ := s.GetCapital(ctx); !c.Equal(core.NewMoney(5000)) {
		t.Fatalf("capital = %s", c)
	}
}

func TestNewFromFilesPersists(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := NewFromFiles(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	s.now = func() time.Time { return time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC) }
	if _, err := s.CreateTransaction(ctx, sale("a", core.Unpaid)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.CreateTransaction(ctx, sale("b", core.Paid)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.DeleteTransaction(ctx, "a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.SetCapital(ctx, core.MustMoney("1234.5")); err != nil {
		t.Fatalf("capital: %v", err)
	}

	reopened, err := NewFromFiles(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	list, _ := reopened.ListTransactions(ctx)
	if len(list) != 1 || list[0].ID != "b" || !list[0].Date.Equal(core.NewDate(2025, 3, 1).Time) {
		t.Fatalf("unexpected reloaded list %+v", list)
	}
	if !list[0].Amount.Equal(core.NewMoney(100)) {
		t.Fatalf("amount = %s", list[0].Amount)
	}
	c, _ := reopened.GetCapital(ctx)
	if !c.Equal(core.MustMoney("1234.5")) {
		t.Fatalf("capital = %s", c)
	}
}
