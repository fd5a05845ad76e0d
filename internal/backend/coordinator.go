package backend

import (
	"context"
	"errors"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/store"
)

// Coordinator fronts the selected store and transparently retries a failed
// operation once against the in-memory fallback. Every method reports whether
// the fallback served the request so callers can mark the response as
// ephemeral.
//
// The primary is never demoted: each request tries it first again. A missing
// primary (unconfigured, or unreachable at startup) sends every request
// straight to the fallback with no retry left to attempt. Not-found errors
// are the record legitimately not existing and are never retried.
type Coordinator struct {
	primary  store.TransactionStore
	fallback store.TransactionStore
	logger   *applog.Logger
}

// NewCoordinator wires the stores together. primary may be nil.
func NewCoordinator(primary, fallback store.TransactionStore, logger *applog.Logger) *Coordinator {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentBackend)
	}
	return &Coordinator{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

// Mode reports which backend is tried first.
func (c *Coordinator) Mode() Type {
	if c.primary == nil {
		return TypeMemory
	}
	return TypeMongo
}

// GetAll lists every transaction.
func (c *Coordinator) GetAll(ctx context.Context) ([]core.Transaction, bool, error) {
	return run(ctx, c, applog.OpList, func(s store.TransactionStore) ([]core.Transaction, error) {
		return s.GetAll(ctx)
	})
}

// Create stores a new transaction.
func (c *Coordinator) Create(ctx context.Context, t core.Transaction) (core.Transaction, bool, error) {
	return run(ctx, c, applog.OpCreate, func(s store.TransactionStore) (core.Transaction, error) {
		return s.Create(ctx, t)
	})
}

// Update merges fields into an existing transaction.
func (c *Coordinator) Update(ctx context.Context, id string, u core.TransactionUpdate) (core.Transaction, bool, error) {
	return run(ctx, c, applog.OpUpdate, func(s store.TransactionStore) (core.Transaction, error) {
		return s.Update(ctx, id, u)
	})
}

// Delete removes a transaction.
func (c *Coordinator) Delete(ctx context.Context, id string) (bool, error) {
	_, fellBack, err := run(ctx, c, applog.OpDelete, func(s store.TransactionStore) (struct{}, error) {
		return struct{}{}, s.Delete(ctx, id)
	})
	return fellBack, err
}

// Stats derives aggregate totals.
func (c *Coordinator) Stats(ctx context.Context) (core.Stats, bool, error) {
	return run(ctx, c, applog.OpStats, func(s store.TransactionStore) (core.Stats, error) {
		return s.Stats(ctx)
	})
}

// MonthlyExpenses derives per-month expense totals.
func (c *Coordinator) MonthlyExpenses(ctx context.Context) ([]core.MonthlyExpense, bool, error) {
	return run(ctx, c, applog.OpMonthly, func(s store.TransactionStore) ([]core.MonthlyExpense, error) {
		return s.MonthlyExpenses(ctx)
	})
}

// run executes one logical operation with the retry rule. The bool result is
// true when the fallback store produced the outcome.
func run[T any](ctx context.Context, c *Coordinator, op string, fn func(store.TransactionStore) (T, error)) (T, bool, error) {
	if c.primary == nil {
		v, err := fn(c.fallback)
		return v, true, err
	}

	v, err := fn(c.primary)
	if err == nil || errors.Is(err, store.ErrNotFound) {
		return v, false, err
	}

	c.logger.ErrorContext(ctx, "Primary store failed, retrying against fallback",
		applog.FieldOperation, op,
		applog.FieldError, err)

	v, ferr := fn(c.fallback)
	if ferr != nil && !errors.Is(ferr, store.ErrNotFound) {
		c.logger.ErrorContext(ctx, "Fallback store failed too",
			applog.FieldOperation, op,
			applog.FieldError, ferr)
	}
	return v, true, ferr
}
