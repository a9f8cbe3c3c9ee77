// Package memory keeps transactions in process. It backs tests and the
// DATA_SOURCE=memory mode, where data arrives through Replace.
package memory

import (
	"context"
	"os"
	"slices"
	"sync"

	"rewards/internal/core"
	"rewards/internal/source"
)

type Store struct {
	mu    sync.RWMutex
	items []core.Transaction
}

var (
	_ source.TransactionSource = (*Store)(nil)
	_ source.TransactionWriter = (*Store)(nil)
)

func New(txs []core.Transaction) *Store {
	return &Store{items: slices.Clone(txs)}
}

// NewFromFile seeds the store from a JSON document. A missing or malformed
// file leaves the store empty and returns the error for the caller to log.
func NewFromFile(path string) (*Store, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return New(nil), err
	}
	txs, err := source.DecodeBytes(b)
	if err != nil {
		return New(nil), err
	}
	return New(txs), nil
}

func (s *Store) Name() string { return "memory" }

// Load returns a copy of the stored transactions.
func (s *Store) Load(ctx context.Context) ([]core.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Transaction, len(s.items))
	copy(out, s.items)
	return out, nil
}

// Replace swaps the stored list for a copy of txs.
func (s *Store) Replace(ctx context.Context, txs []core.Transaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cp := slices.Clone(txs)
	s.mu.Lock()
	s.items = cp
	s.mu.Unlock()
	return nil
}

// Append adds transactions to the end of the list.
func (s *Store) Append(txs ...core.Transaction) {
	s.mu.Lock()
	s.items = append(s.items, txs...)
	s.mu.Unlock()
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
