// Package source defines where transactions come from and decodes the JSON
// documents shared by every adapter.
package source

import (
	"context"
	"errors"

	"rewards/internal/core"
)

// ErrSourceUnavailable is returned when a source cannot produce transactions
// at all, as opposed to producing malformed ones.
var ErrSourceUnavailable = errors.New("transaction source unavailable")

// Ports for inbound adapters.
type (
	// TransactionSource produces the full transaction list on every call.
	TransactionSource interface {
		Load(ctx context.Context) ([]core.Transaction, error)
		// Name identifies the source in logs, metrics and cache keys.
		Name() string
	}

	// TransactionWriter replaces the stored transactions.
	TransactionWriter interface {
		Replace(ctx context.Context, txs []core.Transaction) error
	}
)
