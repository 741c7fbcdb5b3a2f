package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"microbiz/internal/core"
	"microbiz/internal/sheets"

	_ "modernc.org/sqlite"
)

const capitalKey = "company_capital"

// Sync states of a transaction row relative to the Google Sheets mirror.
const (
	SyncPending = "pending"
	SyncSynced  = "synced"
	SyncError   = "error"
)

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

const transactionColumns = `id, type, date, amount, category, voucher_type, is_non_cash,
	payment_status, payment_terms, customer_name, note, applicant_name, travel_start,
	travel_end, travel_method, travel_reason, payee_name, payee_id, payee_address,
	tax_withheld, health_ins, created_at`

// CreateTransaction implements sheets.TransactionWriter.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = r.now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO transactions (`+transactionColumns+`, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?,
			(SELECT COALESCE(MAX(seq), 0) + 1 FROM transactions))`,
		t.ID, string(t.Type), t.Date.String(), t.Amount.String(), string(t.Category),
		string(t.VoucherType), t.IsNonCash, string(t.PaymentStatus), t.PaymentTerms,
		t.CustomerName, t.Note, t.ApplicantName, t.TravelStart, t.TravelEnd, t.TravelMethod,
		t.TravelReason, t.PayeeName, t.PayeeID, t.PayeeAddress, t.TaxWithheld.String(),
		t.HealthIns.String(), t.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", t.ID,
		"type", t.Type,
		"category", t.Category,
		"amount", t.Amount.String(),
		"date", t.Date.String())

	return t, nil
}

// ListTransactions implements sheets.TransactionLister, returning rows in insertion order.
func (r *SQLiteRepository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+transactionColumns+` FROM transactions ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	out := make([]core.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

// GetTransaction returns a single transaction or sheets.ErrNotFound.
func (r *SQLiteRepository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, sheets.ErrNotFound
	}
	return t, err
}

// SetPaymentStatus implements sheets.PaymentStatusUpdater. The row is queued
// for another sync.
func (r *SQLiteRepository) SetPaymentStatus(ctx context.Context, id string, status core.PaymentStatus) error {
	res, err := r.db.ExecContext(ctx, `UPDATE transactions
		SET payment_status = ?, version = version + 1, sync_status = 'pending'
		WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	return requireOneRow(res)
}

// DeleteTransaction implements sheets.TransactionDeleter.
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if err := requireOneRow(res); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Transaction deleted from SQLite", "id", id)
	return nil
}

// GetCapital implements sheets.CapitalStore.
func (r *SQLiteRepository) GetCapital(ctx context.Context) (core.Money, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, capitalKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Money{}, nil
	}
	if err != nil {
		return core.Money{}, fmt.Errorf("get capital: %w", err)
	}
	return core.AmountOrZero(value), nil
}

// SetCapital implements sheets.CapitalStore.
func (r *SQLiteRepository) SetCapital(ctx context.Context, amount core.Money) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		capitalKey, amount.String(), r.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("set capital: %w", err)
	}
	return nil
}

// PendingSync identifies a row version waiting to be mirrored.
type PendingSync struct {
	ID      string
	Version int64
}

// GetPendingSync returns up to limit rows not yet mirrored, oldest first.
func (r *SQLiteRepository) GetPendingSync(ctx context.Context, limit int) ([]PendingSync, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, version FROM transactions
		WHERE sync_status != 'synced' ORDER BY seq LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending sync: %w", err)
	}
	defer rows.Close()

	var out []PendingSync
	for rows.Next() {
		var p PendingSync
		if err := rows.Scan(&p.ID, &p.Version); err != nil {
			return nil, fmt.Errorf("scan pending sync: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// MarkSynced records a successful mirror of the given version. A row that
// changed again in the meantime stays pending.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id string, version int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE transactions SET sync_status = 'synced', synced_at = ?
		WHERE id = ? AND version = ?`, r.now().UTC().Format(time.RFC3339Nano), id, version)
	if err != nil {
		return fmt.Errorf("mark transaction synced: %w", err)
	}
	slog.DebugContext(ctx, "Transaction marked as synced", "id", id, "version", version)
	return nil
}

// MarkSyncError flags a row whose mirror failed; it is retried on the next resync.
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE transactions SET sync_status = 'error' WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark transaction sync error: %w", err)
	}
	slog.WarnContext(ctx, "Transaction marked with sync error", "id", id)
	return nil
}

// Version returns the current row version, used to tag sync messages.
func (r *SQLiteRepository) Version(ctx context.Context, id string) (int64, error) {
	var v int64
	err := r.db.QueryRowContext(ctx, `SELECT version FROM transactions WHERE id = ?`, id).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, sheets.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("get version: %w", err)
	}
	return v, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(s scanner) (core.Transaction, error) {
	var (
		t                                            core.Transaction
		typ, date, amount, category, voucher, status string
		tax, health, createdAt                       string
	)
	err := s.Scan(&t.ID, &typ, &date, &amount, &category, &voucher, &t.IsNonCash,
		&status, &t.PaymentTerms, &t.CustomerName, &t.Note, &t.ApplicantName, &t.TravelStart,
		&t.TravelEnd, &t.TravelMethod, &t.TravelReason, &t.PayeeName, &t.PayeeID,
		&t.PayeeAddress, &tax, &health, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Transaction{}, err
		}
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}

	t.Type = core.TransactionType(typ)
	t.Category = core.Category(category)
	t.VoucherType = core.VoucherType(voucher)
	t.PaymentStatus = core.PaymentStatus(status)
	if t.Date, err = core.ParseDate(date); err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", t.ID, err)
	}
	t.Amount = core.AmountOrZero(amount)
	t.TaxWithheld = core.AmountOrZero(tax)
	t.HealthIns = core.AmountOrZero(health)
	if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		t.CreatedAt = ts
	}
	return t, nil
}

func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sheets.ErrNotFound
	}
	return nil
}
