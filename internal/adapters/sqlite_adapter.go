// Package adapters wires the SQLite repository into the store ports.
package adapters

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"microbiz/internal/amqp"
	"microbiz/internal/core"
	"microbiz/internal/storage"
)

// EventPublisher announces transaction changes to the Sheets sync worker.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, ev *amqp.TransactionEvent) error
	Close() error
}

// SQLiteAdapter exposes SQLiteRepository as a store and publishes a sync
// event after each successful write. Publishing is best effort: the write
// already succeeded locally and the resync loop picks up anything missed.
type SQLiteAdapter struct {
	storage   *storage.SQLiteRepository
	publisher EventPublisher
}

// NewSQLiteAdapter accepts a nil publisher for deployments without a broker.
func NewSQLiteAdapter(storage *storage.SQLiteRepository, publisher EventPublisher) *SQLiteAdapter {
	return &SQLiteAdapter{
		storage:   storage,
		publisher: publisher,
	}
}

// ListTransactions implements sheets.TransactionLister
func (a *SQLiteAdapter) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	return a.storage.ListTransactions(ctx)
}

// CreateTransaction implements sheets.TransactionWriter
func (a *SQLiteAdapter) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	stored, err := a.storage.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, err
	}
	a.publish(ctx, amqp.RoutingTransactionCreated, stored.ID, 1)
	return stored, nil
}

// SetPaymentStatus implements sheets.PaymentStatusUpdater
func (a *SQLiteAdapter) SetPaymentStatus(ctx context.Context, id string, status core.PaymentStatus) error {
	if err := a.storage.SetPaymentStatus(ctx, id, status); err != nil {
		return err
	}
	version, err := a.storage.Version(ctx, id)
	if err != nil {
		slog.WarnContext(ctx, "Failed to read row version", "id", id, "error", err)
		return nil
	}
	a.publish(ctx, amqp.RoutingPaymentStatusChanged, id, version)
	return nil
}

// DeleteTransaction implements sheets.TransactionDeleter
func (a *SQLiteAdapter) DeleteTransaction(ctx context.Context, id string) error {
	if err := a.storage.DeleteTransaction(ctx, id); err != nil {
		return err
	}
	a.publish(ctx, amqp.RoutingTransactionDeleted, id, 0)
	return nil
}

// GetCapital implements sheets.CapitalStore
func (a *SQLiteAdapter) GetCapital(ctx context.Context) (core.Money, error) {
	return a.storage.GetCapital(ctx)
}

// SetCapital implements sheets.CapitalStore
func (a *SQLiteAdapter) SetCapital(ctx context.Context, amount core.Money) error {
	return a.storage.SetCapital(ctx, amount)
}

// Ping reports database health for the readiness probe.
func (a *SQLiteAdapter) Ping(ctx context.Context) error {
	return a.storage.Ping(ctx)
}

func (a *SQLiteAdapter) publish(ctx context.Context, kind, id string, version int64) {
	if a.publisher == nil {
		slog.DebugContext(ctx, "AMQP client not available, skipping sync message", "kind", kind, "id", id)
		return
	}
	if err := a.publisher.PublishTransactionEvent(ctx, amqp.NewTransactionEvent(kind, id, version)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message", "kind", kind, "id", id, "error", err)
	}
}

// Close closes both storage and AMQP connections
func (a *SQLiteAdapter) Close() error {
	var errs []error
	if a.storage != nil {
		if err := a.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}
	return errors.Join(errs...)
}
