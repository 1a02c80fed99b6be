package pages

import (
	"context"
	"fmt"
	"strconv"

	"golang.org/x/sync/errgroup"

	"dooto/internal/core"
	"dooto/internal/insights"
	applog "dooto/internal/log"
	"dooto/internal/session"
)

const (
	ViewHome = "home.html"

	homeCategoryLimit = 5
	homeActivityLimit = 4
	homeUpcomingLimit = 4
	homeGoalLimit     = 3
)

// ActivityItem is a line of the recent activity or upcoming lists.
type ActivityItem struct {
	Description string
	Date        string
	Amount      string
	PillClass   string
}

// EmptyState is the title and hint shown in place of an empty list.
type EmptyState struct {
	Title  string
	Detail string
}

// HomeView is the dashboard. Summary and Status are nil when their fetch failed.
type HomeView struct {
	Header UserHeader

	Summary       *core.Summary
	SummaryError  string
	Transactions  []core.Transaction
	Budgets       []core.Budget
	Status        *core.BudgetStatus
	UpdatedOn     string
	KPIs          insights.KPIs
	Chart         insights.Chart
	Legend        insights.Legend
	Categories    insights.CategoryChart
	Recent        []ActivityItem
	Upcoming      []ActivityItem
	UpcomingEmpty EmptyState
	Alerts        insights.AlertSet
	Goals         []insights.Goal
	Budget        insights.BudgetPanel

	Slots Bindings
}

func kpi(fn func(HomeView) string) func(HomeView) Binding {
	return func(v HomeView) Binding {
		if v.Summary == nil {
			return Binding{}
		}
		return text(fn(v))
	}
}

func bar(fn func(insights.KPIs) int) func(HomeView) Binding {
	return func(v HomeView) Binding {
		if v.Summary == nil {
			return Binding{Width: 0}
		}
		return Binding{Text: strconv.Itoa(fn(v.KPIs)) + "%", Width: fn(v.KPIs)}
	}
}

func delta(fn func(insights.KPIs) insights.DeltaView) func(HomeView) Binding {
	return func(v HomeView) Binding {
		d := fn(v.KPIs)
		if v.Summary == nil {
			d = insights.Delta(nil, false)
		}
		return Binding{Text: d.Text, Class: d.Class}
	}
}

var homeTable = Table[HomeView]{
	Placeholder: "--",
	Fields: []Field[HomeView]{
		{Role: "user-name", Bind: func(v HomeView) Binding { return text(v.Header.Name) }},
		{Role: "user-email", Bind: func(v HomeView) Binding { return text(v.Header.Email) }},
		{Role: "user-avatar", Bind: func(v HomeView) Binding { return text(v.Header.Avatar) }},

		{Role: "net-balance", Bind: kpi(func(v HomeView) string { return core.FormatVND(v.KPIs.Net) })},
		{Role: "total-income", Bind: kpi(func(v HomeView) string { return core.FormatVND(v.KPIs.Income) })},
		{Role: "total-expense", Bind: kpi(func(v HomeView) string { return core.FormatVND(v.KPIs.Expense) })},
		{Role: "transaction-count", Bind: func(v HomeView) Binding { return text(strconv.Itoa(len(v.Transactions))) }},
		{Role: "net-note", Bind: kpi(func(v HomeView) string {
			return "Khoảng thời gian " + core.FormatRange(v.Summary.StartDate, v.Summary.EndDate)
		})},
		{Role: "report-range", Bind: func(v HomeView) Binding {
			if v.Summary == nil {
				return text("Kỳ báo cáo: không khả dụng")
			}
			return text("Kỳ báo cáo: " + core.FormatRange(v.Summary.StartDate, v.Summary.EndDate))
		}},
		{Role: "report-updated", Bind: func(v HomeView) Binding {
			if v.Summary == nil {
				return text(firstNonBlank(v.SummaryError, "Không tải được thống kê"))
			}
			return text("Cập nhật lúc " + core.FormatDate(v.UpdatedOn))
		}},

		{Role: "kpi-income", Bind: kpi(func(v HomeView) string { return core.FormatVND(v.KPIs.Income) })},
		{Role: "kpi-expense", Bind: kpi(func(v HomeView) string { return core.FormatVND(v.KPIs.Expense) })},
		{Role: "saving-rate", Bind: kpi(func(v HomeView) string { return v.KPIs.SavingRateText() })},
		{Role: "recent-count", Bind: kpi(func(v HomeView) string { return v.KPIs.RecentText() })},
		{Role: "income-bar", Bind: bar(func(k insights.KPIs) int { return k.IncomeBar })},
		{Role: "expense-bar", Bind: bar(func(k insights.KPIs) int { return k.ExpenseBar })},
		{Role: "saving-bar", Bind: bar(func(k insights.KPIs) int { return k.SavingBar })},
		{Role: "recent-bar", Bind: bar(func(k insights.KPIs) int { return k.RecentBar })},
		{Role: "income-delta", Bind: delta(func(k insights.KPIs) insights.DeltaView { return k.IncomeDelta })},
		{Role: "expense-delta", Bind: delta(func(k insights.KPIs) insights.DeltaView { return k.ExpenseDelta })},
		{Role: "saving-delta", Bind: delta(func(k insights.KPIs) insights.DeltaView { return k.SavingDelta })},
		{Role: "transaction-delta", Bind: delta(func(k insights.KPIs) insights.DeltaView { return k.TransactionDelta })},

		{Role: "legend-income", Bind: func(v HomeView) Binding { return text(v.Legend.IncomeText()) }},
		{Role: "legend-expense", Bind: func(v HomeView) Binding { return text(v.Legend.ExpenseText()) }},
		{Role: "legend-surplus", Bind: func(v HomeView) Binding { return text(v.Legend.SurplusText()) }},
		{Role: "legend-range", Bind: func(v HomeView) Binding { return text(v.Legend.RangeText()) }},

		{Role: "category-note", Bind: func(v HomeView) Binding {
			if v.Categories.Empty() {
				return text("Hãy thêm giao dịch để thấy cơ cấu chi tiêu.")
			}
			return text(fmt.Sprintf("%d danh mục đã được thống kê từ dữ liệu thực.", v.Categories.Total))
		}},
		{Role: "category-range", Bind: func(v HomeView) Binding {
			if v.Summary == nil || v.Summary.EndDate == "" {
				return text("Tháng này")
			}
			return text("Kết thúc: " + core.FormatDate(v.Summary.EndDate))
		}},

		{Role: "alert-primary", Bind: func(v HomeView) Binding { return text(v.Alerts.Primary) }},
		{Role: "alert-secondary", Bind: func(v HomeView) Binding {
			b := text(v.Alerts.Secondary)
			if v.Alerts.SecondarySafe {
				b.Class = "alert--safe"
			}
			return b
		}},
		{Role: "alert-tertiary", Bind: func(v HomeView) Binding { return text(v.Alerts.Tertiary) }},
		{Role: "budget-range", Bind: func(v HomeView) Binding { return text(v.Budget.Range) }},
	},
}

type HomeController struct {
	deps Deps
}

// Page loads the dashboard. Each fetch degrades only its own section.
func (c *HomeController) Page(ctx context.Context, sess *session.Accessor) Outcome {
	header, user := resolveUser(ctx, c.deps.Users, sess)
	view := HomeView{Header: header}
	if user != nil {
		view = c.load(ctx, view, user.ID)
	}
	return Outcome{View: ViewHome, Model: c.derive(view)}
}

func (c *HomeController) load(ctx context.Context, view HomeView, userID int64) HomeView {
	var g errgroup.Group
	g.Go(func() error {
		res := c.deps.Analytics.Summary(ctx, userID, core.Month)
		if res.OK {
			view.Summary = &res.Data
		} else {
			view.SummaryError = res.Message
		}
		return nil
	})
	g.Go(func() error {
		txs, err := c.deps.Transactions.List(ctx, userID)
		if err != nil {
			applog.FromContext(ctx).WithComponent(applog.ComponentPages).WarnContext(ctx, "Dashboard transactions unavailable",
				applog.FieldUserID, userID,
				applog.FieldError, err,
			)
			return nil
		}
		view.Transactions = txs
		return nil
	})
	g.Go(func() error {
		if res := c.deps.Budgets.List(ctx, userID); res.OK {
			view.Budgets = res.Data
		}
		return nil
	})
	g.Go(func() error {
		if res := c.deps.Budgets.Status(ctx, userID, core.Month); res.OK {
			view.Status = &res.Data
		}
		return nil
	})
	_ = g.Wait()
	return view
}

func (c *HomeController) derive(view HomeView) HomeView {
	now := c.deps.Now()
	view.UpdatedOn = core.ISODate(now)

	if view.Summary != nil {
		view.KPIs = insights.SummaryKPIs(*view.Summary, len(view.Transactions))
	}
	series := insights.MonthlySeries(view.Transactions, now)
	view.Chart = insights.CashflowChart(series)
	view.Legend = insights.LegendOf(series)
	view.Categories = insights.Categories(view.Summary, view.Transactions, homeCategoryLimit)

	for _, t := range insights.Recent(view.Transactions, homeActivityLimit) {
		view.Recent = append(view.Recent, activityItem(t))
	}
	for _, t := range insights.Upcoming(view.Transactions, now, homeUpcomingLimit) {
		view.Upcoming = append(view.Upcoming, activityItem(t))
	}
	if len(view.Transactions) == 0 {
		view.UpcomingEmpty = EmptyState{Title: "Không có giao dịch", Detail: "Vui lòng thêm mới."}
	} else {
		view.UpcomingEmpty = EmptyState{Title: "Chưa có giao dịch sắp tới", Detail: "Những giao dịch tương lai sẽ hiển thị tại đây."}
	}

	view.Alerts = insights.Alerts(view.Summary, view.Status, view.Transactions, now)
	view.Goals = insights.Goals(view.Budgets, homeGoalLimit)
	view.Budget = insights.BudgetRows(view.Status)
	view.Slots = homeTable.Apply(view)
	return view
}

func activityItem(t core.Transaction) ActivityItem {
	pill := "pill--warning"
	if t.Type == core.Income {
		pill = "pill--positive"
	}
	return ActivityItem{
		Description: firstNonBlank(t.Description, "(Không mô tả)"),
		Date:        core.FormatDate(t.TransactionDate),
		Amount:      core.FormatSigned(t.Amount, t.Type),
		PillClass:   pill,
	}
}
