package insights

import (
	"math"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"dooto/internal/core"
)

const uncategorized = "Khác"

var barClasses = [...]string{"", "bar-fill--teal", "bar-fill--orange", "bar-fill--purple"}

// CategoryBar is one row of the spending-by-category chart.
type CategoryBar struct {
	Name    string
	Amount  decimal.Decimal
	Percent int
	Class   string
}

// CategoryChart is the ranked spending breakdown. Total is the number of
// categories before truncation.
type CategoryChart struct {
	Bars  []CategoryBar
	Total int
}

func (c CategoryChart) Empty() bool { return len(c.Bars) == 0 }

// Categories ranks expenses by category. It uses the summary breakdown when
// present and otherwise aggregates EXPENSE transactions. limit <= 0 keeps all.
func Categories(summary *core.Summary, txs []core.Transaction, limit int) CategoryChart {
	var dataset []core.CategoryExpense
	if summary != nil {
		dataset = append(dataset, summary.ExpenseByCategory...)
	}
	if len(dataset) == 0 {
		dataset = aggregateExpenses(txs)
	}
	if len(dataset) == 0 {
		return CategoryChart{}
	}

	sort.SliceStable(dataset, func(i, j int) bool {
		return dataset[i].Expense.GreaterThan(dataset[j].Expense)
	})

	maxVal := 1.0
	for _, c := range dataset {
		maxVal = math.Max(maxVal, c.Expense.InexactFloat64())
	}

	chart := CategoryChart{Total: len(dataset)}
	if limit > 0 && len(dataset) > limit {
		dataset = dataset[:limit]
	}
	chart.Bars = make([]CategoryBar, len(dataset))
	for i, c := range dataset {
		name := c.Category
		if strings.TrimSpace(name) == "" {
			name = uncategorized
		}
		chart.Bars[i] = CategoryBar{
			Name:    name,
			Amount:  c.Expense,
			Percent: round(c.Expense.InexactFloat64() / maxVal * 100),
			Class:   barClasses[i%len(barClasses)],
		}
	}
	return chart
}

// aggregateExpenses sums EXPENSE amounts per category in first-seen order.
func aggregateExpenses(txs []core.Transaction) []core.CategoryExpense {
	var out []core.CategoryExpense
	index := make(map[string]int)
	for _, t := range txs {
		if t.Type != core.Expense {
			continue
		}
		key := t.Category
		if key == "" {
			key = uncategorized
		}
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, core.CategoryExpense{Category: key})
		}
		out[i].Expense = out[i].Expense.Add(t.Amount)
	}
	return out
}
