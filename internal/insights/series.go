// Package insights derives the dashboard aggregates from raw backend data.
// Every function is pure; callers pass the clock explicitly.
package insights

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"dooto/internal/core"
)

const (
	seriesMonths = 6

	chartWidth   = 620
	chartHeight  = 240
	chartPadding = 20
)

// MonthBucket is one month of the cash-flow series.
type MonthBucket struct {
	Key     string // YYYY-MM
	Label   string // MM/YY
	Income  decimal.Decimal
	Expense decimal.Decimal
}

func (b MonthBucket) hasData() bool {
	return !b.Income.IsZero() || !b.Expense.IsZero()
}

// MonthlySeries buckets income and expense into the six months ending with now's month.
func MonthlySeries(txs []core.Transaction, now time.Time) []MonthBucket {
	series := make([]MonthBucket, 0, seriesMonths)
	index := make(map[string]int, seriesMonths)
	for i := seriesMonths - 1; i >= 0; i-- {
		d := time.Date(now.Year(), now.Month()-time.Month(i), 1, 0, 0, 0, 0, now.Location())
		key := d.Format("2006-01")
		index[key] = len(series)
		series = append(series, MonthBucket{
			Key:   key,
			Label: fmt.Sprintf("%02d/%d", int(d.Month()), d.Year()%100),
		})
	}

	for _, t := range txs {
		if len(t.TransactionDate) < 7 || t.Type == "" {
			continue
		}
		i, ok := index[t.TransactionDate[:7]]
		if !ok {
			continue
		}
		switch t.Type {
		case core.Income:
			series[i].Income = series[i].Income.Add(t.Amount)
		case core.Expense:
			series[i].Expense = series[i].Expense.Add(t.Amount)
		}
	}
	return series
}

// AxisLabel is an x-axis tick under the chart.
type AxisLabel struct {
	X    string
	Y    string
	Text string
}

// Chart holds the SVG polyline point lists for the cash-flow chart.
type Chart struct {
	Width         int
	Height        int
	HasData       bool
	IncomePoints  string
	ExpensePoints string
	IncomeFill    string
	ExpenseFill   string
	Labels        []AxisLabel
}

// CashflowChart lays out series on a 620x240 canvas with 20px padding.
func CashflowChart(series []MonthBucket) Chart {
	chart := Chart{Width: chartWidth, Height: chartHeight}
	for _, b := range series {
		if b.hasData() {
			chart.HasData = true
			break
		}
	}
	if !chart.HasData {
		return chart
	}

	maxVal := 1.0
	for _, b := range series {
		maxVal = math.Max(maxVal, math.Max(b.Income.InexactFloat64(), b.Expense.InexactFloat64()))
	}

	n := len(series)
	xAt := func(i int) float64 {
		return float64(i)/math.Max(1, float64(n-1))*(chartWidth-2*chartPadding) + chartPadding
	}
	yAt := func(v decimal.Decimal) float64 {
		return chartHeight - chartPadding - (v.InexactFloat64()/maxVal)*(chartHeight-2*chartPadding)
	}

	income := make([]string, n)
	expense := make([]string, n)
	chart.Labels = make([]AxisLabel, n)
	for i, b := range series {
		x := xAt(i)
		income[i] = point(x, yAt(b.Income))
		expense[i] = point(x, yAt(b.Expense))
		chart.Labels[i] = AxisLabel{X: num(x), Y: num(chartHeight - 4), Text: b.Label}
	}

	baseline := " " + point(chartWidth-chartPadding, chartHeight-chartPadding) + " " + point(chartPadding, chartHeight-chartPadding)
	chart.IncomePoints = strings.Join(income, " ")
	chart.ExpensePoints = strings.Join(expense, " ")
	chart.IncomeFill = chart.IncomePoints + baseline
	chart.ExpenseFill = chart.ExpensePoints + baseline
	return chart
}

func point(x, y float64) string {
	return num(x) + "," + num(y)
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Legend summarises the series as monthly averages over months that have data.
type Legend struct {
	Months     int
	AvgIncome  decimal.Decimal
	AvgExpense decimal.Decimal
	AvgSurplus decimal.Decimal
}

func LegendOf(series []MonthBucket) Legend {
	var income, expense decimal.Decimal
	months := 0
	for _, b := range series {
		if !b.hasData() {
			continue
		}
		months++
		income = income.Add(b.Income)
		expense = expense.Add(b.Expense)
	}
	divisor := months
	if divisor == 0 {
		divisor = 1
	}
	d := decimal.NewFromInt(int64(divisor))
	avgIncome := income.Div(d)
	avgExpense := expense.Div(d)
	return Legend{
		Months:     divisor,
		AvgIncome:  avgIncome,
		AvgExpense: avgExpense,
		AvgSurplus: avgIncome.Sub(avgExpense),
	}
}

func (l Legend) IncomeText() string  { return core.FormatVND(l.AvgIncome) + " / tháng" }
func (l Legend) ExpenseText() string { return core.FormatVND(l.AvgExpense) + " / tháng" }

func (l Legend) SurplusText() string {
	return fmt.Sprintf("%s (%d tháng)", core.FormatSignedValue(l.AvgSurplus), l.Months)
}

func (l Legend) RangeText() string {
	return fmt.Sprintf("%d tháng gần nhất", l.Months)
}
