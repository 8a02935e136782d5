package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"expenses/internal/core"
)

// EventKind labels what happened to an expense.
type EventKind string

const (
	EventAdded   EventKind = "added"
	EventUpdated EventKind = "updated"
	EventDeleted EventKind = "deleted"
)

// IsValid returns true if the event kind is one of the known kinds.
func (k EventKind) IsValid() bool {
	switch k {
	case EventAdded, EventUpdated, EventDeleted:
		return true
	default:
		return false
	}
}

// ExpenseEvent is one ledger change. It carries the full expense snapshot
// so consumers never have to reach into the ledger's store, which stays
// single-writer. EventID makes broker redeliveries detectable downstream.
type ExpenseEvent struct {
	EventID     string    `json:"event_id"`
	Kind        EventKind `json:"kind"`
	ExpenseID   int64     `json:"expense_id"`
	AmountCents int64     `json:"amount_cents"`
	Category    string    `json:"category"`
	Date        string    `json:"date"`
	Description string    `json:"description,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// NewExpenseEvent builds an event for the given change kind from the
// expense snapshot after the mutation (for deletes, the removed record).
func NewExpenseEvent(kind EventKind, e core.Expense) *ExpenseEvent {
	now := time.Now()
	return &ExpenseEvent{
		EventID:     fmt.Sprintf("%s-%d-%d", kind, e.ID, now.UnixNano()),
		Kind:        kind,
		ExpenseID:   e.ID,
		AmountCents: e.Amount.Cents,
		Category:    string(e.Category),
		Date:        e.Date.String(),
		Description: e.Description,
		OccurredAt:  now,
	}
}

// ToJSON converts the event to JSON bytes
func (m *ExpenseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExpenseEventFromJSON creates an event from JSON bytes, rejecting
// payloads with an unknown kind so bad messages fail fast at the edge.
func ExpenseEventFromJSON(data []byte) (*ExpenseEvent, error) {
	var event ExpenseEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, err
	}
	if !event.Kind.IsValid() {
		return nil, fmt.Errorf("unknown event kind: %q", event.Kind)
	}
	return &event, nil
}
