package worker

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"dooto/internal/amqp"
	"dooto/internal/cache"
	applog "dooto/internal/log"
	"dooto/internal/sheets"
)

// LedgerWorker mirrors transaction events into the spreadsheet ledger.
type LedgerWorker struct {
	ledger sheets.LedgerWriter
	seen   cache.Cache[string]
	logger *applog.Logger
}

// NewLedgerWorker builds a worker. seen may be nil; when set, redelivered
// events that were already appended are acknowledged without a second row.
func NewLedgerWorker(ledger sheets.LedgerWriter, seen cache.Cache[string], logger *applog.Logger) *LedgerWorker {
	if logger == nil {
		logger = applog.Discard()
	}
	return &LedgerWorker{
		ledger: ledger,
		seen:   seen,
		logger: logger.WithComponent(applog.ComponentWorker),
	}
}

// HandleEvent appends one ledger row for ev.
func (w *LedgerWorker) HandleEvent(ctx context.Context, ev *amqp.TransactionEvent) error {
	key := eventKey(ev)
	if w.seen != nil {
		if ref, ok := w.seen.Get(ctx, key); ok {
			w.logger.InfoContext(ctx, "Skipping already mirrored event",
				applog.FieldTransactionID, ev.TransactionID,
				"row_ref", ref)
			return nil
		}
	}

	ref, err := w.ledger.AppendRow(ctx, RowFromEvent(ev))
	if err != nil {
		return fmt.Errorf("append ledger row for transaction %d: %w", ev.TransactionID, err)
	}
	if w.seen != nil {
		w.seen.Set(ctx, key, ref)
	}

	w.logger.InfoContext(ctx, "Mirrored transaction event",
		applog.FieldAction, ev.Action,
		applog.FieldTransactionID, ev.TransactionID,
		applog.FieldUserID, ev.UserID,
		"row_ref", ref)
	return nil
}

// Run consumes events until ctx is cancelled.
func (w *LedgerWorker) Run(ctx context.Context, client *amqp.Client) error {
	return client.ConsumeTransactionEvents(ctx, w.HandleEvent)
}

// RowFromEvent flattens an event into ledger columns.
func RowFromEvent(ev *amqp.TransactionEvent) sheets.Row {
	row := sheets.Row{
		OccurredAt:    ev.OccurredAt,
		Action:        string(ev.Action),
		TransactionID: ev.TransactionID,
		UserID:        ev.UserID,
	}
	if tx := ev.Transaction; tx != nil {
		amount := tx.Amount
		row.Date = tx.TransactionDate
		row.Type = string(tx.Type)
		row.Category = tx.Category
		row.Description = tx.Description
		row.Amount = &amount
	}
	return row
}

func eventKey(ev *amqp.TransactionEvent) string {
	return string(ev.Action) + ":" + strconv.FormatInt(ev.TransactionID, 10) + ":" + ev.OccurredAt.UTC().Format(time.RFC3339Nano)
}
