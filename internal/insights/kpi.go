package insights

import (
	"math"
	"strconv"

	"github.com/shopspring/decimal"

	"dooto/internal/core"
)

const recentWindow = 5

// round matches the browser's Math.round: halves go towards +Inf.
func round(v float64) int {
	return int(math.Floor(v + 0.5))
}

func clampPercent(v int) int {
	return max(0, min(100, v))
}

// SavingRate is the share of income kept, 0 when there is no income.
func SavingRate(income, expense decimal.Decimal) int {
	if !income.IsPositive() {
		return 0
	}
	rate := income.Sub(expense).Div(income).InexactFloat64() * 100
	return clampPercent(round(rate))
}

// BarWidth rounds p and clamps it into [0,100].
func BarWidth(p float64) int {
	if math.IsNaN(p) {
		return 0
	}
	return clampPercent(round(p))
}

// DeltaView is a period-over-period change badge.
type DeltaView struct {
	Text  string
	Class string
}

// Delta formats v as "+x.x%". A rise is good unless negativeBetter is set.
func Delta(v *float64, negativeBetter bool) DeltaView {
	if v == nil || math.IsNaN(*v) {
		return DeltaView{Text: "--"}
	}
	value := *v
	rising := value >= 0
	text := strconv.FormatFloat(value, 'f', 1, 64) + "%"
	if rising {
		text = "+" + text
	}
	class := "delta--negative"
	if rising != negativeBetter {
		class = "delta--positive"
	}
	return DeltaView{Text: text, Class: class}
}

// KPIs are the headline figures of the dashboard summary card.
type KPIs struct {
	Income      decimal.Decimal
	Expense     decimal.Decimal
	Net         decimal.Decimal
	SavingRate  int
	IncomeBar   int
	ExpenseBar  int
	SavingBar   int
	RecentCount int
	RecentBar   int

	IncomeDelta      DeltaView
	ExpenseDelta     DeltaView
	SavingDelta      DeltaView
	TransactionDelta DeltaView
}

// SummaryKPIs derives the KPI card from a summary and the loaded transaction count.
func SummaryKPIs(s core.Summary, transactionCount int) KPIs {
	k := KPIs{
		Income:  s.TotalIncome,
		Expense: s.TotalExpense,
		Net:     s.Net(),
	}
	k.SavingRate = SavingRate(k.Income, k.Expense)

	total := math.Max(k.Income.Add(k.Expense).InexactFloat64(), 1)
	k.IncomeBar = BarWidth(k.Income.InexactFloat64() / total * 100)
	k.ExpenseBar = BarWidth(k.Expense.InexactFloat64() / total * 100)
	k.SavingBar = BarWidth(float64(k.SavingRate))

	k.RecentCount = min(recentWindow, transactionCount)
	k.RecentBar = BarWidth(math.Min(100, float64(k.RecentCount)/recentWindow*100))

	k.IncomeDelta = Delta(s.IncomeChangePercent, false)
	k.ExpenseDelta = Delta(s.ExpenseChangePercent, true)
	k.SavingDelta = Delta(s.SavingChangePercent, false)
	k.TransactionDelta = Delta(s.TransactionChangePercent, false)
	return k
}

func (k KPIs) SavingRateText() string {
	return strconv.Itoa(k.SavingRate) + "%"
}

func (k KPIs) RecentText() string {
	return strconv.Itoa(k.RecentCount) + " giao dịch"
}
