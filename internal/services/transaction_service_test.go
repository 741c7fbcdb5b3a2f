package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"microbiz/internal/core"
	"microbiz/internal/sheets"
	"microbiz/internal/sheets/memory"
)

func newTestService(t *testing.T) *TransactionService {
	t.Helper()
	svc := NewTransactionService(memory.New())
	n := 0
	svc.newID = func() string {
		n++
		return "tx-" + string(rune('0'+n))
	}
	return svc
}

func TestTransactionService_CreateFromDraft(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	d := core.NewDraft(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	d = d.WithCategory(core.CategorySalary)
	d = d.WithAmount("2000")
	d.PayeeName = "Lin"

	rev := svc.Revision()
	tx, err := svc.Create(ctx, d)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if tx.ID != "tx-1" {
		t.Errorf("ID = %q", tx.ID)
	}
	if !tx.TaxWithheld.Equal(core.NewMoney(200)) || !tx.HealthIns.Equal(core.NewMoney(42)) {
		t.Errorf("withholding = %s / %s", tx.TaxWithheld, tx.HealthIns)
	}
	if svc.Revision() == rev {
		t.Error("revision not bumped on create")
	}

	if _, err := svc.Create(ctx, core.NewDraft(time.Now())); !errors.Is(err, core.ErrMissingAmount) {
		t.Fatalf("expected ErrMissingAmount, got %v", err)
	}
}

func TestTransactionService_UUIDByDefault(t *testing.T) {
	svc := NewTransactionService(memory.New())
	tx, err := svc.Add(context.Background(), core.Transaction{
		Type: core.Expense, Date: core.NewDate(2025, 1, 2), Amount: core.NewMoney(10), Category: core.CategoryRent,
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if len(tx.ID) != 36 {
		t.Fatalf("expected a UUID, got %q", tx.ID)
	}
	if tx.VoucherType != core.VoucherElectronic {
		t.Errorf("voucher = %q, want default electronic", tx.VoucherType)
	}
}

func TestTransactionService_TogglePaymentStatus(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	inc, err := svc.Add(ctx, core.Transaction{Type: core.Income, Date: core.NewDate(2025, 3, 1),
		Amount: core.NewMoney(500), Category: core.CategorySales, PaymentStatus: core.Unpaid, PaymentTerms: 30})
	if err != nil {
		t.Fatalf("Add income: %v", err)
	}
	exp, err := svc.Add(ctx, core.Transaction{Type: core.Expense, Date: core.NewDate(2025, 3, 1),
		Amount: core.NewMoney(50), Category: core.CategoryPostage})
	if err != nil {
		t.Fatalf("Add expense: %v", err)
	}

	got, err := svc.TogglePaymentStatus(ctx, inc.ID)
	if err != nil || got.PaymentStatus != core.Paid {
		t.Fatalf("toggle: %v %+v", err, got)
	}
	got, _ = svc.TogglePaymentStatus(ctx, inc.ID)
	if got.PaymentStatus != core.Unpaid {
		t.Fatalf("second toggle = %s", got.PaymentStatus)
	}

	list, _ := svc.List(ctx)
	if list[0].PaymentTerms != 30 || !list[0].Amount.Equal(core.NewMoney(500)) {
		t.Fatalf("toggle must not touch other fields: %+v", list[0])
	}

	if _, err := svc.TogglePaymentStatus(ctx, exp.ID); !errors.Is(err, ErrNotIncome) {
		t.Fatalf("expected ErrNotIncome, got %v", err)
	}
	if _, err := svc.TogglePaymentStatus(ctx, "missing"); !errors.Is(err, sheets.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTransactionService_DeleteAndCapital(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	tx, _ := svc.Add(ctx, core.Transaction{Type: core.Expense, Date: core.NewDate(2025, 3, 1),
		Amount: core.NewMoney(50), Category: core.CategoryPostage})

	rev := svc.Revision()
	if err := svc.Delete(ctx, tx.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if svc.Revision() == rev {
		t.Error("revision not bumped on delete")
	}
	if err := svc.Delete(ctx, tx.ID); !errors.Is(err, sheets.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := svc.SetCapital(ctx, core.NewMoney(-5)); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	rev = svc.Revision()
	if err := svc.SetCapital(ctx, core.NewMoney(80000)); err != nil {
		t.Fatalf("SetCapital: %v", err)
	}
	if svc.Revision() == rev {
		t.Error("revision not bumped on capital change")
	}
	if c, _ := svc.Capital(ctx); !c.Equal(core.NewMoney(80000)) {
		t.Fatalf("capital = %s", c)
	}
}
