package insights

import (
	"fmt"
	"sort"
	"time"

	"dooto/internal/core"
)

// SortRecentFirst orders transactions by date descending, then id descending.
func SortRecentFirst(txs []core.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		if txs[i].TransactionDate != txs[j].TransactionDate {
			return txs[i].TransactionDate > txs[j].TransactionDate
		}
		return txs[i].ID > txs[j].ID
	})
}

// Recent returns up to n transactions, most recent first. The input is not modified.
func Recent(txs []core.Transaction, n int) []core.Transaction {
	sorted := append([]core.Transaction(nil), txs...)
	SortRecentFirst(sorted)
	if n > 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func upcoming(txs []core.Transaction, now time.Time) []core.Transaction {
	today := core.ISODate(core.Today(now))
	var out []core.Transaction
	for _, t := range txs {
		d, err := core.ParseISODate(t.TransactionDate)
		if err != nil {
			continue
		}
		if core.ISODate(d) >= today {
			out = append(out, t)
		}
	}
	return out
}

// Upcoming returns up to n transactions dated today or later, soonest first.
func Upcoming(txs []core.Transaction, now time.Time, n int) []core.Transaction {
	out := upcoming(txs, now)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TransactionDate < out[j].TransactionDate
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// AlertSet is the three-line alert panel of the dashboard.
type AlertSet struct {
	Primary       string
	Secondary     string
	SecondarySafe bool
	Tertiary      string
}

// Alerts evaluates cash flow, budget state and upcoming activity. A nil
// summary or status means the data was not available.
func Alerts(summary *core.Summary, status *core.BudgetStatus, txs []core.Transaction, now time.Time) AlertSet {
	var a AlertSet

	if summary != nil && summary.NetBalance != nil && summary.NetBalance.IsNegative() {
		a.Primary = "Chi tiêu đang vượt thu nhập, hãy rà soát ngân sách."
	} else {
		a.Primary = "Dòng tiền ròng đang an toàn."
	}

	switch {
	case status == nil:
		a.Secondary = "Chưa có dữ liệu ngân sách."
	case status.OverBudget:
		a.Secondary = "Cảnh báo: Ngân sách đã vượt giới hạn cho kỳ này."
	case status.UnsafeBalance:
		a.Secondary = "Số dư ròng thấp hơn mức an toàn bạn đặt."
	default:
		a.Secondary = "Ngân sách trong giới hạn an toàn."
		a.SecondarySafe = true
	}

	if n := len(upcoming(txs, now)); n > 0 {
		a.Tertiary = fmt.Sprintf("%d giao dịch sẽ diễn ra trong kỳ tiếp theo.", n)
	} else {
		a.Tertiary = "Không có giao dịch sắp tới."
	}
	return a
}
