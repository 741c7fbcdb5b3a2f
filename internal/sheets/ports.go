package sheets

import (
	"context"
	"errors"

	"microbiz/internal/core"
)

// ErrNotFound is returned when a transaction ID is unknown to the store.
var ErrNotFound = errors.New("transaction not found")

// Ports for outbound adapters.
type (
	// TransactionLister returns the full transaction collection. Callers get
	// their own copy and may sort or filter it freely.
	TransactionLister interface {
		ListTransactions(ctx context.Context) ([]core.Transaction, error)
	}

	// TransactionWriter persists a new, already validated transaction and
	// returns it as stored (CreatedAt filled in).
	TransactionWriter interface {
		CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
	}

	// PaymentStatusUpdater changes the collection status of an income.
	PaymentStatusUpdater interface {
		SetPaymentStatus(ctx context.Context, id string, status core.PaymentStatus) error
	}

	TransactionDeleter interface {
		DeleteTransaction(ctx context.Context, id string) error
	}

	// TransactionUpserter writes t to a mirror, replacing any row with the same ID.
	TransactionUpserter interface {
		UpsertTransaction(ctx context.Context, t core.Transaction) error
	}

	// CapitalStore holds the company's opening capital. A store that has
	// never been written returns zero.
	CapitalStore interface {
		GetCapital(ctx context.Context) (core.Money, error)
		SetCapital(ctx context.Context, amount core.Money) error
	}
)
