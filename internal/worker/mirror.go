package worker

import (
	"context"
	"fmt"
	"log/slog"

	"expenses/internal/amqp"
	"expenses/internal/cache"
	"expenses/internal/core"
	"expenses/internal/sheets"
)

// Mirror copies expense events onto an external activity sheet.
type Mirror struct {
	writer sheets.ActivityWriter
	seen   *cache.LRUCache[struct{}]
}

// NewMirror creates a mirror writing through the given adapter. seen filters
// broker redeliveries by event id and may be nil to disable deduplication.
func NewMirror(writer sheets.ActivityWriter, seen *cache.LRUCache[struct{}]) *Mirror {
	return &Mirror{
		writer: writer,
		seen:   seen,
	}
}

// HandleExpenseEvent appends one activity row for the event. Events already
// mirrored within the cache window are skipped. On append failure the event
// is forgotten again so a broker redelivery can retry it.
func (m *Mirror) HandleExpenseEvent(ctx context.Context, event *amqp.ExpenseEvent) error {
	slog.InfoContext(ctx, "Processing expense event",
		"event_id", event.EventID,
		"kind", event.Kind,
		"expense_id", event.ExpenseID)

	if m.seen != nil && m.seen.Remember(event.EventID, struct{}{}) {
		slog.InfoContext(ctx, "Skipping already mirrored event",
			"event_id", event.EventID)
		return nil
	}

	entry := sheets.Entry{
		Kind:        string(event.Kind),
		ExpenseID:   event.ExpenseID,
		Date:        event.Date,
		Category:    core.Category(event.Category),
		Amount:      core.Money{Cents: event.AmountCents},
		Description: event.Description,
		OccurredAt:  event.OccurredAt,
	}

	ref, err := m.writer.Append(ctx, entry)
	if err != nil {
		if m.seen != nil {
			m.seen.Delete(event.EventID)
		}
		return fmt.Errorf("append activity row: %w", err)
	}

	slog.InfoContext(ctx, "Mirrored expense event",
		"event_id", event.EventID,
		"kind", event.Kind,
		"expense_id", event.ExpenseID,
		"sheets_ref", ref)

	return nil
}
