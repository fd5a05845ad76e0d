// Package store defines the transaction repository contract shared by the
// persistent and in-memory backends.
package store

import (
	"context"
	"errors"

	"fintrack/internal/core"
)

// ErrNotFound reports that no transaction with the given id exists.
var ErrNotFound = errors.New("transaction not found")

// TransactionStore is implemented identically by every backend. GetAll makes
// no ordering promise at this layer; each implementation documents its own.
type TransactionStore interface {
	// GetAll returns a snapshot of every transaction.
	GetAll(ctx context.Context) ([]core.Transaction, error)

	// Create assigns a new unique id, fills a missing date with today and
	// stamps the record timestamps, then returns the stored record.
	Create(ctx context.Context, t core.Transaction) (core.Transaction, error)

	// Update merges the given fields into an existing record, or returns
	// ErrNotFound.
	Update(ctx context.Context, id string, u core.TransactionUpdate) (core.Transaction, error)

	// Delete removes a record, or returns ErrNotFound.
	Delete(ctx context.Context, id string) error

	// Stats derives aggregate totals over the full transaction set.
	Stats(ctx context.Context) (core.Stats, error)

	// MonthlyExpenses derives per-month expense totals, sorted ascending by
	// month key.
	MonthlyExpenses(ctx context.Context) ([]core.MonthlyExpense, error)
}
