// Package memory is an in-process transaction store. When created with
// NewFromFiles it mirrors every write to JSON files in a data directory,
// one file per key, the way a browser app keeps its state in local storage.
package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"microbiz/internal/core"
	"microbiz/internal/sheets"
)

const (
	transactionsFile = "microBizTransactions.json"
	capitalFile      = "microBizCapital.json"
)

type Store struct {
	mu      sync.Mutex
	dir     string
	items   []core.Transaction
	capital core.Money
	now     func() time.Time
}

// New returns an empty store that keeps nothing on disk.
func New() *Store {
	return &Store{now: time.Now}
}

// NewFromFiles loads previously saved state from base, creating the directory
// if needed. Missing files mean an empty collection and zero capital.
func NewFromFiles(base string) (*Store, error) {
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	s := &Store{dir: base, now: time.Now}
	if err := readJSON(filepath.Join(base, transactionsFile), &s.items); err != nil {
		return nil, err
	}
	if err := readJSON(filepath.Join(base, capitalFile), &s.capital); err != nil {
		return nil, err
	}
	return s, nil
}

// ListTransactions returns a copy of every stored transaction in insertion order.
func (s *Store) ListTransactions(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, len(s.items))
	copy(out, s.items)
	return out, nil
}

func (s *Store) CreateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	if t.ID == "" {
		return core.Transaction{}, errors.New("transaction id is required")
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.items {
		if existing.ID == t.ID {
			return core.Transaction{}, fmt.Errorf("duplicate transaction id %q", t.ID)
		}
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.now().UTC()
	}
	s.items = append(s.items, t)
	if err := s.saveTransactions(); err != nil {
		s.items = s.items[:len(s.items)-1]
		return core.Transaction{}, err
	}
	return t, nil
}

func (s *Store) SetPaymentStatus(_ context.Context, id string, status core.PaymentStatus) error {
	if !status.IsValid() {
		return core.ErrInvalidPaymentStatus
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return sheets.ErrNotFound
	}
	prev := s.items[i].PaymentStatus
	s.items[i].PaymentStatus = status
	if err := s.saveTransactions(); err != nil {
		s.items[i].PaymentStatus = prev
		return err
	}
	return nil
}

func (s *Store) DeleteTransaction(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return sheets.ErrNotFound
	}
	prev := s.items
	next := make([]core.Transaction, 0, len(s.items)-1)
	next = append(next, s.items[:i]...)
	next = append(next, s.items[i+1:]...)
	s.items = next
	if err := s.saveTransactions(); err != nil {
		s.items = prev
		return err
	}
	return nil
}

func (s *Store) GetCapital(_ context.Context) (core.Money, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.capital, nil
}

func (s *Store) SetCapital(_ context.Context, amount core.Money) error {
	if amount.IsNegative() {
		return core.ErrInvalidAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.capital
	s.capital = amount
	if err := s.writeJSON(capitalFile, s.capital); err != nil {
		s.capital = prev
		return err
	}
	return nil
}

func (s *Store) indexOf(id string) int {
	for i, t := range s.items {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) saveTransactions() error {
	return s.writeJSON(transactionsFile, s.items)
}

// writeJSON replaces name atomically. It is a no-op for stores without a directory.
func (s *Store) writeJSON(name string, v any) error {
	if s.dir == "" {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	tmp, err := os.CreateTemp(s.dir, name+".*")
	if err != nil {
		return fmt.Errorf("save %s: %w", name, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("save %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("save %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("save %s: %w", name, err)
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return nil
}
