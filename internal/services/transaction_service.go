package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"microbiz/internal/core"
	"microbiz/internal/sheets"
)

// ErrNotIncome is returned when toggling the payment status of an expense.
var ErrNotIncome = errors.New("payment status applies to income only")

// Store is the full transaction store capability every backend provides.
type Store interface {
	sheets.TransactionLister
	sheets.TransactionWriter
	sheets.PaymentStatusUpdater
	sheets.TransactionDeleter
	sheets.CapitalStore
}

// TransactionService is the single write path for transactions and capital.
// Each successful write increments Revision, which readers use to key
// memoized snapshots.
type TransactionService struct {
	store    Store
	revision atomic.Uint64
	newID    func() string
	now      func() time.Time
}

func NewTransactionService(store Store) *TransactionService {
	return &TransactionService{
		store: store,
		newID: func() string { return uuid.NewString() },
		now:   time.Now,
	}
}

// Revision changes after every write made through the service.
func (s *TransactionService) Revision() uint64 {
	return s.revision.Load()
}

// Today returns the service clock's current time.
func (s *TransactionService) Today() time.Time {
	return s.now()
}

// Create builds a transaction from an entry form and stores it.
func (s *TransactionService) Create(ctx context.Context, d core.Draft) (core.Transaction, error) {
	t, err := d.Build()
	if err != nil {
		return core.Transaction{}, err
	}
	return s.Add(ctx, t)
}

// Add assigns an ID when missing, validates and stores t.
func (s *TransactionService) Add(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t = t.Normalize()
	if t.ID == "" {
		t.ID = s.newID()
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	stored, err := s.store.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	s.revision.Add(1)

	slog.InfoContext(ctx, "Transaction created",
		"id", stored.ID,
		"type", stored.Type,
		"category", stored.Category,
		"amount", stored.Amount.String())
	return stored, nil
}

// List returns every stored transaction.
func (s *TransactionService) List(ctx context.Context) ([]core.Transaction, error) {
	txs, err := s.store.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

// TogglePaymentStatus flips an income between paid and unpaid and returns
// the updated transaction.
func (s *TransactionService) TogglePaymentStatus(ctx context.Context, id string) (core.Transaction, error) {
	t, err := s.find(ctx, id)
	if err != nil {
		return core.Transaction{}, err
	}
	if !t.IsIncome() {
		return core.Transaction{}, ErrNotIncome
	}

	t.PaymentStatus = t.PaymentStatus.Toggle()
	if err := s.store.SetPaymentStatus(ctx, id, t.PaymentStatus); err != nil {
		return core.Transaction{}, fmt.Errorf("update payment status: %w", err)
	}
	s.revision.Add(1)

	slog.InfoContext(ctx, "Payment status toggled", "id", id, "status", t.PaymentStatus)
	return t, nil
}

func (s *TransactionService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	s.revision.Add(1)
	slog.InfoContext(ctx, "Transaction deleted", "id", id)
	return nil
}

func (s *TransactionService) Capital(ctx context.Context) (core.Money, error) {
	c, err := s.store.GetCapital(ctx)
	if err != nil {
		return core.Money{}, fmt.Errorf("get capital: %w", err)
	}
	return c, nil
}

func (s *TransactionService) SetCapital(ctx context.Context, amount core.Money) error {
	if amount.IsNegative() {
		return core.ErrInvalidAmount
	}
	if err := s.store.SetCapital(ctx, amount); err != nil {
		return fmt.Errorf("set capital: %w", err)
	}
	s.revision.Add(1)
	slog.InfoContext(ctx, "Company capital updated", "amount", amount.String())
	return nil
}

func (s *TransactionService) find(ctx context.Context, id string) (core.Transaction, error) {
	txs, err := s.List(ctx)
	if err != nil {
		return core.Transaction{}, err
	}
	for _, t := range txs {
		if t.ID == id {
			return t, nil
		}
	}
	return core.Transaction{}, sheets.ErrNotFound
}
