package sheets

import (
	"context"
	"time"

	"expenses/internal/core"
)

// Entry is one line of ledger activity destined for the mirror sheet.
// Date is the expense date in ISO form, as carried on the wire.
type Entry struct {
	Kind        string
	ExpenseID   int64
	Date        string
	Category    core.Category
	Amount      core.Money
	Description string
	OccurredAt  time.Time
}

// ActivityWriter is the port for outbound activity adapters.
type ActivityWriter interface {
	Append(ctx context.Context, e Entry) (rowRef string, err error)
}
