// Package ledger holds the in-memory expense collection and is the only
// writer of the persisted snapshot. Every mutation is applied in memory
// first and then flushed through the Store; a failed flush is reported as
// a *PersistError while the in-memory change stands, so the caller can
// warn and retry the save later.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"expenses/internal/core"
)

// ErrNotFound is returned when no expense carries the requested id.
var ErrNotFound = errors.New("expense not found")

// Store loads and saves the whole expense collection. Save always writes
// the full snapshot; there are no partial updates at the storage layer.
type Store interface {
	Load(ctx context.Context) ([]core.Expense, error)
	Save(ctx context.Context, expenses []core.Expense) error
}

// Notifier receives change events after a mutation has been applied.
// Delivery is best effort: failures are logged, never propagated.
type Notifier interface {
	ExpenseAdded(ctx context.Context, e core.Expense) error
	ExpenseUpdated(ctx context.Context, e core.Expense) error
	ExpenseDeleted(ctx context.Context, e core.Expense) error
}

// PersistError signals that a mutation succeeded in memory but the
// snapshot could not be written. Unwrap exposes the storage error.
type PersistError struct {
	Err error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist expenses: %v", e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}

// FieldError reports a single rejected field from a partial update.
type FieldError struct {
	Field string
	Err   error
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

// Update carries the fields of a partial edit. Nil pointers mean
// "keep the current value".
type Update struct {
	Amount      *core.Money
	Category    *core.Category
	Date        *core.Date
	Description *string
}

// Ledger owns the ordered expense collection. It is designed for a single
// interactive caller; it performs no locking of its own.
type Ledger struct {
	store    Store
	notifier Notifier
	now      func() time.Time

	expenses []core.Expense
}

// New creates a ledger backed by store. notifier may be nil, in which
// case change events are skipped.
func New(store Store, notifier Notifier) *Ledger {
	return &Ledger{
		store:    store,
		notifier: notifier,
		now:      time.Now,
	}
}

// Load replaces the in-memory collection with the persisted snapshot and
// returns the number of expenses loaded. On failure the collection is
// left empty and the error is returned; the caller decides whether to
// continue with a fresh ledger.
func (l *Ledger) Load(ctx context.Context) (int, error) {
	expenses, err := l.store.Load(ctx)
	if err != nil {
		l.expenses = nil
		slog.WarnContext(ctx, "failed to load expenses, starting empty",
			"component", "ledger",
			"error", err)
		return 0, err
	}
	l.expenses = expenses
	slog.InfoContext(ctx, "expenses loaded",
		"component", "ledger",
		"count", len(expenses))
	return len(expenses), nil
}

// Add validates the candidate, assigns the next id and the creation
// timestamp, appends it and persists the snapshot. The stored expense is
// returned. A *PersistError means the expense is in the collection but
// the snapshot write failed.
func (l *Ledger) Add(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	e.ID = l.maxID() + 1
	e.CreatedAt = l.now()
	l.expenses = append(l.expenses, e)

	slog.InfoContext(ctx, "expense added",
		"component", "ledger",
		"id", e.ID,
		"amount", e.Amount.String(),
		"category", string(e.Category))

	if err := l.save(ctx); err != nil {
		return e, err
	}
	l.notify(ctx, "added", e, func(n Notifier) error { return n.ExpenseAdded(ctx, e) })
	return e, nil
}

// Get returns the expense with the given id.
func (l *Ledger) Get(id int64) (core.Expense, error) {
	for _, e := range l.expenses {
		if e.ID == id {
			return e, nil
		}
	}
	return core.Expense{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
}

// List returns a copy of the collection in insertion order.
func (l *Ledger) List() []core.Expense {
	out := make([]core.Expense, len(l.expenses))
	copy(out, l.expenses)
	return out
}

// Len returns the number of recorded expenses.
func (l *Ledger) Len() int {
	return len(l.expenses)
}

// Update applies a partial update to the expense with the given id. Each
// provided field is validated on its own: invalid fields are skipped and
// reported in the returned slice while the valid ones take effect, so a
// bad amount never blocks a category fix. The snapshot is persisted only
// when at least one field changed.
func (l *Ledger) Update(ctx context.Context, id int64, u Update) (core.Expense, []FieldError, error) {
	idx := -1
	for i := range l.expenses {
		if l.expenses[i].ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return core.Expense{}, nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}

	var rejected []FieldError
	updated := l.expenses[idx]
	changed := false

	if u.Amount != nil {
		if err := u.Amount.Validate(); err != nil {
			rejected = append(rejected, FieldError{Field: "amount", Err: err})
		} else {
			updated.Amount = *u.Amount
			changed = true
		}
	}
	if u.Category != nil {
		if err := u.Category.Validate(); err != nil {
			rejected = append(rejected, FieldError{Field: "category", Err: err})
		} else {
			updated.Category = *u.Category
			changed = true
		}
	}
	if u.Date != nil {
		if err := u.Date.Validate(); err != nil {
			rejected = append(rejected, FieldError{Field: "date", Err: err})
		} else {
			updated.Date = *u.Date
			changed = true
		}
	}
	if u.Description != nil {
		if len(*u.Description) > core.DescriptionMaxLen {
			rejected = append(rejected, FieldError{Field: "description", Err: core.ErrDescriptionTooLong})
		} else {
			updated.Description = *u.Description
			changed = true
		}
	}

	if !changed {
		return l.expenses[idx], rejected, nil
	}

	l.expenses[idx] = updated
	slog.InfoContext(ctx, "expense updated",
		"component", "ledger",
		"id", id,
		"rejected_fields", len(rejected))

	if err := l.save(ctx); err != nil {
		return updated, rejected, err
	}
	l.notify(ctx, "updated", updated, func(n Notifier) error { return n.ExpenseUpdated(ctx, updated) })
	return updated, rejected, nil
}

// Delete removes the expense with the given id, keeping the order of the
// remaining entries, and persists the snapshot. The removed expense is
// returned.
func (l *Ledger) Delete(ctx context.Context, id int64) (core.Expense, error) {
	for i, e := range l.expenses {
		if e.ID != id {
			continue
		}
		l.expenses = append(l.expenses[:i], l.expenses[i+1:]...)
		slog.InfoContext(ctx, "expense deleted",
			"component", "ledger",
			"id", id)
		if err := l.save(ctx); err != nil {
			return e, err
		}
		l.notify(ctx, "deleted", e, func(n Notifier) error { return n.ExpenseDeleted(ctx, e) })
		return e, nil
	}
	return core.Expense{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
}

// Flush writes the current snapshot even when nothing changed. It backs
// the explicit save on exit and the best-effort save on interrupt.
func (l *Ledger) Flush(ctx context.Context) error {
	if err := l.store.Save(ctx, l.expenses); err != nil {
		return &PersistError{Err: err}
	}
	return nil
}

func (l *Ledger) save(ctx context.Context) error {
	if err := l.store.Save(ctx, l.expenses); err != nil {
		slog.ErrorContext(ctx, "failed to persist expenses",
			"component", "ledger",
			"error", err)
		return &PersistError{Err: err}
	}
	return nil
}

func (l *Ledger) notify(ctx context.Context, kind string, e core.Expense, send func(Notifier) error) {
	if l.notifier == nil {
		return
	}
	if err := send(l.notifier); err != nil {
		slog.WarnContext(ctx, "failed to publish expense event",
			"component", "ledger",
			"kind", kind,
			"id", e.ID,
			"error", err)
		return
	}
	slog.InfoContext(ctx, "expense event published",
		"component", "ledger",
		"kind", kind,
		"id", e.ID)
}

func (l *Ledger) maxID() int64 {
	var max int64
	for _, e := range l.expenses {
		if e.ID > max {
			max = e.ID
		}
	}
	return max
}
