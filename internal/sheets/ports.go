// Package sheets mirrors transaction events into a spreadsheet ledger.
package sheets

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Header is the first row of the ledger sheet.
var Header = []string{"occurredAt", "action", "id", "userId", "date", "type", "category", "description", "amount"}

// Row is one ledger line. Deleted transactions leave the payload columns empty.
type Row struct {
	OccurredAt    time.Time
	Action        string
	TransactionID int64
	UserID        int64
	Date          string
	Type          string
	Category      string
	Description   string
	Amount        *decimal.Decimal
}

// Values renders the row in Header order.
func (r Row) Values() []any {
	amount := ""
	if r.Amount != nil {
		amount = r.Amount.String()
	}
	return []any{
		r.OccurredAt.UTC().Format(time.RFC3339),
		r.Action,
		r.TransactionID,
		r.UserID,
		r.Date,
		r.Type,
		r.Category,
		r.Description,
		amount,
	}
}

// Ports for outbound adapters.
type (
	LedgerWriter interface {
		// AppendRow adds a row and returns the sheet range it landed in.
		AppendRow(ctx context.Context, row Row) (rowRef string, err error)
	}

	LedgerReader interface {
		Rows(ctx context.Context) ([]Row, error)
	}
)
