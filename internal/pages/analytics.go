package pages

import (
	"context"

	"golang.org/x/sync/errgroup"

	"dooto/internal/core"
	"dooto/internal/insights"
	"dooto/internal/session"
)

const (
	ViewAnalytics      = "analytics.html"
	ViewAnalyticsPanel = "analytics-panel"

	msgOverBudget    = "Chi tiêu đã vượt ngưỡng cho kỳ này!"
	msgUnsafeBalance = "Số dư ròng thấp hơn mức an toàn."
	msgBudgetSafe    = "Ngân sách đang trong giới hạn an toàn."
	msgLoginReport   = "Vui lòng đăng nhập để xem báo cáo."
)

// AnalyticsView is the report page. Summary and Status are nil when unavailable.
type AnalyticsView struct {
	Header UserHeader
	Range  core.Range
	Period core.Range

	Summary    *core.Summary
	Status     *core.BudgetStatus
	Categories insights.CategoryChart

	Chip      string
	Panel     string
	PanelSafe bool

	BudgetMessage Message
	BudgetButton  ButtonState

	Slots Bindings
}

func money(d func(AnalyticsView) string) func(AnalyticsView) Binding {
	return func(v AnalyticsView) Binding { return text(d(v)) }
}

var analyticsTable = Table[AnalyticsView]{
	Placeholder: "--",
	Fields: []Field[AnalyticsView]{
		{Role: "user-name", Bind: func(v AnalyticsView) Binding { return text(v.Header.Name) }},
		{Role: "user-avatar", Bind: func(v AnalyticsView) Binding { return text(v.Header.Avatar) }},
		{Role: "total-income", Bind: money(func(v AnalyticsView) string {
			if v.Summary == nil {
				return ""
			}
			return core.FormatVND(v.Summary.TotalIncome)
		})},
		{Role: "total-expense", Bind: money(func(v AnalyticsView) string {
			if v.Summary == nil {
				return ""
			}
			return core.FormatVND(v.Summary.TotalExpense)
		})},
		{Role: "net-balance", Bind: money(func(v AnalyticsView) string {
			if v.Summary == nil {
				return ""
			}
			return core.FormatVND(v.Summary.Net())
		})},
		{Role: "range-label", Bind: func(v AnalyticsView) Binding {
			if v.Summary == nil {
				return Binding{}
			}
			return text(core.FormatRange(v.Summary.StartDate, v.Summary.EndDate))
		}},
		{Role: "alert-chip", Bind: func(v AnalyticsView) Binding {
			return Binding{Text: v.Chip, Hidden: v.Chip == ""}
		}},
		{Role: "alert-panel", Bind: func(v AnalyticsView) Binding {
			b := Binding{Text: v.Panel}
			if v.PanelSafe {
				b.Class = "alert-panel--safe"
			}
			return b
		}},
		{Role: "actual-expense", Bind: money(func(v AnalyticsView) string {
			if v.Status == nil {
				return ""
			}
			return core.FormatVND(v.Status.Spent)
		})},
		{Role: "budget-remaining", Bind: money(func(v AnalyticsView) string {
			if v.Status == nil {
				return ""
			}
			return core.FormatVND(v.Status.Remaining)
		})},
		{Role: "budget-net", Bind: money(func(v AnalyticsView) string {
			if v.Status == nil {
				return ""
			}
			return core.FormatVND(v.Status.NetBalance)
		})},
		{Role: "budget-range", Bind: func(v AnalyticsView) Binding {
			if v.Status == nil {
				return Binding{}
			}
			return text(core.FormatRange(v.Status.StartDate, v.Status.EndDate))
		}},
		{Role: "budget-status", Bind: func(v AnalyticsView) Binding {
			return Binding{Text: v.BudgetMessage.Text, Class: "budget-status--" + v.BudgetMessage.Variant, Hidden: v.BudgetMessage.Empty()}
		}},
	},
}

type AnalyticsController struct {
	deps Deps
}

func budgetButton() ButtonState { return idle("Lưu ngân sách", "Đang lưu...") }

// periodFor aligns the budget period with the report range.
func periodFor(rng core.Range) core.Range {
	if rng == core.Week {
		return core.Week
	}
	return core.Month
}

// Page renders the report for rawRange, which defaults to MONTH.
func (c *AnalyticsController) Page(ctx context.Context, sess *session.Accessor, rawRange string) Outcome {
	rng := core.ParseRange(rawRange)
	view, ok := c.reload(ctx, sess, rng, periodFor(rng))
	out := Outcome{View: ViewAnalytics, Model: view}
	if ok {
		out.Notice = alarmNotice(view)
	}
	return out
}

func (c *AnalyticsController) register(r *Registry) {
	r.Register(ActionSelectRange, c.selectRange)
	r.Register(ActionSaveBudget, c.saveBudget)
}

func (c *AnalyticsController) selectRange(ctx context.Context, cmd Command) (Outcome, error) {
	rng := core.ParseRange(cmd.Value("range"))
	view, ok := c.reload(ctx, cmd.Session, rng, periodFor(rng))
	out := Outcome{View: ViewAnalyticsPanel, Model: view}
	if ok {
		out.Notice = alarmNotice(view)
	}
	return out, nil
}

func (c *AnalyticsController) saveBudget(ctx context.Context, cmd Command) (Outcome, error) {
	rng := core.ParseRange(cmd.Value("range"))
	period := core.ParseRange(cmd.Value("period"))

	header, user := resolveUser(ctx, c.deps.Users, cmd.Session)
	if user == nil {
		view := AnalyticsView{Header: header, Range: rng, Period: period, Chip: msgLoginReport, BudgetButton: budgetButton()}
		view.Slots = analyticsTable.Apply(view)
		return Outcome{View: ViewAnalyticsPanel, Model: view}, nil
	}

	req, invalid := budgetRequest(user.ID, period, cmd.Value("amount"), cmd.Value("safeBalance"))
	var msg Message
	if invalid != "" {
		msg = errorMsg(invalid)
	} else if res := c.deps.Budgets.Save(ctx, req); !res.OK {
		msg = errorMsg(firstNonBlank(res.Message, "Không thể lưu ngân sách"))
	} else {
		msg = successMsg("Đã lưu ngân sách")
	}

	view := c.fetch(ctx, header, user.ID, rng, period)
	view.BudgetMessage = msg
	view.Slots = analyticsTable.Apply(view)

	out := Outcome{View: ViewAnalyticsPanel, Model: view, Notice: alarmNotice(view)}
	if msg.Variant == NoticeSuccess && out.Notice == nil {
		out.Notice = &Notice{Type: NoticeSuccess, Message: msg.Text}
	}
	return out, nil
}

// budgetRequest parses the budget form. The string is the validation message, "" when valid.
func budgetRequest(userID int64, period core.Range, amount, safeBalance string) (core.BudgetRequest, string) {
	limit, err := core.ParseAmount(amount)
	if err != nil {
		return core.BudgetRequest{}, "Số tiền ngân sách không hợp lệ"
	}
	safe, err := core.ParseOptionalAmount(safeBalance)
	if err != nil {
		return core.BudgetRequest{}, "Số dư an toàn không hợp lệ"
	}
	return core.BudgetRequest{UserID: userID, Period: period, Amount: limit, SafeBalance: safe}, ""
}

// reload resolves the user and fetches both report sections. It reports
// false when there is no user to report on.
func (c *AnalyticsController) reload(ctx context.Context, sess *session.Accessor, rng, period core.Range) (AnalyticsView, bool) {
	header, user := resolveUser(ctx, c.deps.Users, sess)
	if user == nil {
		view := AnalyticsView{Header: header, Range: rng, Period: period, Chip: msgLoginReport, BudgetButton: budgetButton()}
		view.Slots = analyticsTable.Apply(view)
		return view, false
	}
	view := c.fetch(ctx, header, user.ID, rng, period)
	view.Slots = analyticsTable.Apply(view)
	return view, true
}

// fetch loads the summary and the budget status concurrently. The status
// outcome decides the alert chip when it is available.
func (c *AnalyticsController) fetch(ctx context.Context, header UserHeader, userID int64, rng, period core.Range) AnalyticsView {
	view := AnalyticsView{Header: header, Range: rng, Period: period, BudgetButton: budgetButton()}

	var g errgroup.Group
	var summaryOK, statusOK bool
	var summaryMsg, statusMsg string
	g.Go(func() error {
		res := c.deps.Analytics.Summary(ctx, userID, rng)
		summaryOK, summaryMsg = res.OK, res.Message
		if res.OK {
			view.Summary = &res.Data
		}
		return nil
	})
	g.Go(func() error {
		res := c.deps.Budgets.Status(ctx, userID, period)
		statusOK, statusMsg = res.OK, res.Message
		if res.OK {
			view.Status = &res.Data
		}
		return nil
	})
	_ = g.Wait()

	if summaryOK {
		view.Categories = insights.Categories(view.Summary, nil, 0)
	} else {
		view.Chip = firstNonBlank(summaryMsg, "Không tải được thống kê")
	}

	if !statusOK {
		view.Panel = firstNonBlank(statusMsg, "Chưa có dữ liệu ngân sách")
		return view
	}
	switch {
	case view.Status.OverBudget:
		view.Chip, view.Panel = msgOverBudget, msgOverBudget
	case view.Status.UnsafeBalance:
		view.Chip, view.Panel = msgUnsafeBalance, msgUnsafeBalance
	default:
		view.Chip = ""
		view.Panel, view.PanelSafe = msgBudgetSafe, true
	}
	return view
}

// alarmNotice raises the budget alarm as an error toast.
func alarmNotice(v AnalyticsView) *Notice {
	if v.Status == nil || (!v.Status.OverBudget && !v.Status.UnsafeBalance) {
		return nil
	}
	return &Notice{Type: NoticeError, Message: v.Panel}
}
