// Package memory is the in-process fallback transaction store. It assumes a
// single process instance: there is no cross-instance coordination and data
// does not survive a restart.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

// Store keeps transactions in an explicitly owned slice guarded by a mutex.
// GetAll returns records in insertion order; no sort is enforced.
type Store struct {
	mu    sync.Mutex
	items []core.Transaction
}

// New creates an empty store.
func New() *Store {
	return &Store{}
}

// NewWithSampleData creates a store seeded with a few demo records so a
// fallback-only process has something to show.
func NewWithSampleData() *Store {
	s := New()
	seed := []core.Transaction{
		{Amount: -85.50, Description: "Grocery shopping", Date: core.NewDate(2025, 1, 15), Category: "Food & Dining"},
		{Amount: -1200.00, Description: "Rent payment", Date: core.NewDate(2025, 1, 1), Category: "Housing"},
		{Amount: 3000.00, Description: "Salary", Date: core.NewDate(2025, 1, 1), Category: "Income"},
		{Amount: -45.20, Description: "Gas station", Date: core.NewDate(2025, 1, 10), Category: "Transportation"},
	}
	now := time.Now().UTC()
	for _, t := range seed {
		t.ID = uuid.NewString()
		t.CreatedAt = now
		t.UpdatedAt = now
		s.items = append(s.items, t)
	}
	return s
}

// GetAll implements store.TransactionStore.
func (s *Store) GetAll(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(), nil
}

// Create implements store.TransactionStore.
func (s *Store) Create(_ context.Context, t core.Transaction) (core.Transaction, error) {
	now := time.Now().UTC()
	t.ID = uuid.NewString()
	if t.Date.IsZero() {
		t.Date = core.Today()
	}
	t.CreatedAt = now
	t.UpdatedAt = now

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, t)
	return t, nil
}

// Update implements store.TransactionStore.
func (s *Store) Update(_ context.Context, id string, u core.TransactionUpdate) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID != id {
			continue
		}
		u.ApplyTo(&s.items[i])
		s.items[i].UpdatedAt = time.Now().UTC()
		return s.items[i], nil
	}
	return core.Transaction{}, store.ErrNotFound
}

// Delete implements store.TransactionStore. Removal is hard; ids are never
// reused because they are random UUIDs.
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

// Stats implements store.TransactionStore via the core analytics engine.
func (s *Store) Stats(_ context.Context) (core.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.ComputeStats(s.items), nil
}

// MonthlyExpenses implements store.TransactionStore via the core analytics
// engine.
func (s *Store) MonthlyExpenses(_ context.Context) ([]core.MonthlyExpense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.ComputeMonthlyExpenses(s.items), nil
}

// snapshot copies the backing slice so callers never alias internal state.
// Callers must hold s.mu.
func (s *Store) snapshot() []core.Transaction {
	out := make([]core.Transaction, len(s.items))
	copy(out, s.items)
	return out
}
