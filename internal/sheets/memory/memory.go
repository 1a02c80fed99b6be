package memory

import (
	"context"
	"fmt"
	"sync"

	"dooto/internal/sheets"
)

// Ledger keeps rows in process. Used when no spreadsheet is configured.
type Ledger struct {
	mu   sync.Mutex
	rows []sheets.Row
}

var (
	_ sheets.LedgerWriter = (*Ledger)(nil)
	_ sheets.LedgerReader = (*Ledger)(nil)
)

func New() *Ledger { return &Ledger{} }

// AppendRow stores the row and returns a synthetic row reference.
func (l *Ledger) AppendRow(_ context.Context, row sheets.Row) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rows = append(l.rows, row)
	return fmt.Sprintf("mem:%d", len(l.rows)), nil
}

// Rows returns a copy of everything appended so far.
func (l *Ledger) Rows(_ context.Context) ([]sheets.Row, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]sheets.Row, len(l.rows))
	copy(out, l.rows)
	return out, nil
}
