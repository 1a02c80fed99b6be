package insights

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"dooto/internal/core"
)

// BudgetRow is one line of the budget status card.
type BudgetRow struct {
	Title   string
	Detail  string
	Variant string // positive or warning
	Percent int
}

// BudgetPanel is the budget status card. Rows is empty when no status is known.
type BudgetPanel struct {
	Range string
	Rows  []BudgetRow
}

// BudgetRows splits a status into spent, remaining and net balance rows.
// The reference total is spent plus remaining.
func BudgetRows(status *core.BudgetStatus) BudgetPanel {
	if status == nil {
		return BudgetPanel{}
	}

	total := status.Remaining.Add(status.Spent)
	totalF := total.InexactFloat64()

	usage := 0
	if totalF > 0 {
		usage = min(100, round(status.Spent.InexactFloat64()/totalF*100))
	}
	spentVariant := "positive"
	if usage > 85 {
		spentVariant = "warning"
	}

	capacity := total
	if capacity.IsZero() {
		capacity = status.Spent
	}

	remainingPct := 0
	if totalF != 0 {
		remainingPct = round(status.Remaining.InexactFloat64() / totalF * 100)
	}
	remainingVariant := "warning"
	if status.Remaining.IsPositive() {
		remainingVariant = "positive"
	}

	netDivisor := totalF
	if netDivisor == 0 {
		netDivisor = 1
	}
	netVariant := "positive"
	if status.NetBalance.IsNegative() {
		netVariant = "warning"
	}

	return BudgetPanel{
		Range: core.FormatRange(status.StartDate, status.EndDate),
		Rows: []BudgetRow{
			{
				Title:   "Đã chi",
				Detail:  core.FormatVND(status.Spent) + " / " + core.FormatVND(capacity),
				Variant: spentVariant,
				Percent: usage,
			},
			{
				Title:   "Còn lại",
				Detail:  core.FormatVND(status.Remaining),
				Variant: remainingVariant,
				Percent: remainingPct,
			},
			{
				Title:   "Số dư ròng",
				Detail:  core.FormatSignedValue(status.NetBalance),
				Variant: netVariant,
				Percent: min(100, int(math.Abs(float64(round(status.NetBalance.InexactFloat64()/netDivisor*100))))),
			},
		},
	}
}

// Goal is a budget shown as a savings target with progress.
type Goal struct {
	Name     string
	Progress string
	Percent  int
}

// Goals renders the first n budgets as progress items.
func Goals(budgets []core.Budget, n int) []Goal {
	if n > 0 && len(budgets) > n {
		budgets = budgets[:n]
	}
	goals := make([]Goal, 0, len(budgets))
	for _, b := range budgets {
		amount := firstNonZero(&b.Amount, b.TargetAmount)
		saved := firstNonZero(b.Saved, b.CurrentAmount)

		percent := 0
		if amount.IsPositive() {
			percent = min(100, round(saved.Div(amount).InexactFloat64()*100))
		}

		name := b.Name
		if name == "" {
			name = b.Title
		}
		if name == "" {
			period := "--"
			if b.Period != "" {
				period = strings.ToUpper(string(b.Period))
			}
			name = "Ngân sách " + period
		}

		goals = append(goals, Goal{
			Name:     name,
			Progress: core.FormatVND(saved) + " / " + core.FormatVND(amount),
			Percent:  percent,
		})
	}
	return goals
}

func firstNonZero(values ...*decimal.Decimal) decimal.Decimal {
	for _, v := range values {
		if v != nil && !v.IsZero() {
			return *v
		}
	}
	return decimal.Zero
}
