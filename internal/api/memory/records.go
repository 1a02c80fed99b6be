package memory

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"dooto/internal/api"
	"dooto/internal/apiclient"
	"dooto/internal/core"
)

func notFound(msg string) error {
	return &apiclient.Error{Status: http.StatusNotFound, Message: msg}
}

func badRequest(msg string) error {
	return &apiclient.Error{Status: http.StatusBadRequest, Message: msg}
}

func (s *TransactionAPI) List(_ context.Context, userID int64) ([]core.Transaction, error) {
	if userID == 0 {
		return nil, api.ErrMissingUser
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.accounts[userID]; !ok {
		return nil, notFound("Không tìm thấy người dùng")
	}
	out := make([]core.Transaction, 0)
	for _, t := range s.transactions {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *TransactionAPI) apply(t *core.Transaction, req core.TransactionRequest) error {
	if err := req.Validate(); err != nil {
		return badRequest(err.Error())
	}
	t.UserID = req.UserID
	t.Type = req.Type
	t.Amount = req.Amount
	t.Category = req.Category
	t.Description = req.Description
	if req.TransactionDate != nil {
		t.TransactionDate = *req.TransactionDate
	} else {
		t.TransactionDate = core.ISODate(s.now())
	}
	return nil
}

func (s *TransactionAPI) Create(_ context.Context, req core.TransactionRequest) (core.Transaction, error) {
	if req.UserID == 0 {
		return core.Transaction{}, api.ErrMissingUser
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[req.UserID]; !ok {
		return core.Transaction{}, notFound("Không tìm thấy người dùng")
	}
	var t core.Transaction
	if err := s.apply(&t, req); err != nil {
		return core.Transaction{}, err
	}
	t.ID = s.id()
	s.transactions[t.ID] = t
	return t, nil
}

func (s *TransactionAPI) Update(_ context.Context, id int64, req core.TransactionRequest) (core.Transaction, error) {
	if id == 0 {
		return core.Transaction{}, api.ErrMissingID
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.transactions[id]
	if !ok {
		return core.Transaction{}, notFound("Transaction not found")
	}
	if req.UserID == 0 {
		req.UserID = t.UserID
	}
	if err := s.apply(&t, req); err != nil {
		return core.Transaction{}, err
	}
	s.transactions[id] = t
	return t, nil
}

func (s *TransactionAPI) Delete(_ context.Context, id int64) error {
	if id == 0 {
		return api.ErrMissingID
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.transactions[id]; !ok {
		return notFound("Transaction not found")
	}
	delete(s.transactions, id)
	return nil
}

// window returns the calendar week (Monday to Sunday) or month containing now.
func window(rng core.Range, now time.Time) (time.Time, time.Time) {
	today := core.Today(now)
	if rng == core.Week {
		offset := (int(today.Weekday()) + 6) % 7
		start := today.AddDate(0, 0, -offset)
		return start, start.AddDate(0, 0, 6)
	}
	start := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
	return start, start.AddDate(0, 1, -1)
}

type totals struct {
	income, expense decimal.Decimal
	byCategory      []core.CategoryExpense
}

// sum aggregates a user's transactions dated within [start, end].
func (s *state) sum(userID int64, start, end time.Time) totals {
	from, to := core.ISODate(start), core.ISODate(end)
	var t totals
	index := map[string]int{}

	ids := make([]int64, 0, len(s.transactions))
	for id := range s.transactions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		tx := s.transactions[id]
		if tx.UserID != userID || tx.TransactionDate < from || tx.TransactionDate > to {
			continue
		}
		switch tx.Type {
		case core.Income:
			t.income = t.income.Add(tx.Amount)
		case core.Expense:
			t.expense = t.expense.Add(tx.Amount)
			category := tx.Category
			if category == "" {
				category = "Khác"
			}
			i, ok := index[category]
			if !ok {
				i = len(t.byCategory)
				index[category] = i
				t.byCategory = append(t.byCategory, core.CategoryExpense{Category: category})
			}
			t.byCategory[i].Expense = t.byCategory[i].Expense.Add(tx.Amount)
		}
	}
	return t
}

func (s *AnalyticsAPI) Summary(_ context.Context, userID int64, rng core.Range) apiclient.Result[core.Summary] {
	if userID == 0 {
		return apiclient.Fail[core.Summary](http.StatusBadRequest, api.MsgMissingUser)
	}
	if rng == "" {
		rng = core.Month
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.accounts[userID]; !ok {
		return apiclient.Fail[core.Summary](http.StatusNotFound, "Không tìm thấy người dùng")
	}
	start, end := window(rng, s.now())
	t := s.sum(userID, start, end)
	net := t.income.Sub(t.expense)
	return apiclient.Result[core.Summary]{
		OK:     true,
		Status: http.StatusOK,
		Data: core.Summary{
			Range:             rng,
			StartDate:         core.ISODate(start),
			EndDate:           core.ISODate(end),
			TotalIncome:       t.income,
			TotalExpense:      t.expense,
			NetBalance:        &net,
			ExpenseByCategory: t.byCategory,
		},
	}
}

func (s *BudgetAPI) Save(_ context.Context, req core.BudgetRequest) apiclient.Result[core.Budget] {
	if req.UserID == 0 || req.Period == "" {
		return apiclient.Fail[core.Budget](http.StatusBadRequest, "Thiếu thông tin người dùng hoặc chu kỳ ngân sách")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[req.UserID]; !ok {
		return apiclient.Fail[core.Budget](http.StatusNotFound, "Không tìm thấy người dùng")
	}
	b, found := s.budgetFor(req.UserID, req.Period)
	if !found {
		b = core.Budget{ID: s.id(), UserID: req.UserID, Period: req.Period}
	}
	b.Amount = req.Amount
	b.SafeBalance = req.SafeBalance
	s.budgets[b.ID] = b
	return apiclient.Result[core.Budget]{OK: true, Status: http.StatusOK, Data: b}
}

func (s *state) budgetFor(userID int64, period core.Range) (core.Budget, bool) {
	for _, b := range s.budgets {
		if b.UserID == userID && b.Period == period {
			return b, true
		}
	}
	return core.Budget{}, false
}

func (s *BudgetAPI) List(_ context.Context, userID int64) apiclient.Result[[]core.Budget] {
	if userID == 0 {
		return apiclient.Fail[[]core.Budget](http.StatusBadRequest, api.MsgMissingUser)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.Budget, 0)
	for _, b := range s.budgets {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return apiclient.Result[[]core.Budget]{OK: true, Status: http.StatusOK, Data: out}
}

// Status evaluates the user's budget for period against the current window.
func (s *BudgetAPI) Status(_ context.Context, userID int64, period core.Range) apiclient.Result[core.BudgetStatus] {
	if userID == 0 {
		return apiclient.Fail[core.BudgetStatus](http.StatusBadRequest, api.MsgMissingUser)
	}
	if period == "" {
		period = core.Month
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.budgetFor(userID, period)
	if !ok {
		return apiclient.Fail[core.BudgetStatus](http.StatusNotFound, "Chưa cấu hình ngân sách cho kỳ này")
	}
	start, end := window(period, s.now())
	t := s.sum(userID, start, end)
	net := t.income.Sub(t.expense)
	return apiclient.Result[core.BudgetStatus]{
		OK:     true,
		Status: http.StatusOK,
		Data: core.BudgetStatus{
			BudgetID:      b.ID,
			UserID:        userID,
			Period:        period,
			StartDate:     core.ISODate(start),
			EndDate:       core.ISODate(end),
			LimitAmount:   b.Amount,
			Spent:         t.expense,
			Income:        t.income,
			NetBalance:    net,
			Remaining:     b.Amount.Sub(t.expense),
			OverBudget:    t.expense.GreaterThan(b.Amount),
			UnsafeBalance: b.SafeBalance != nil && net.LessThan(*b.SafeBalance),
		},
	}
}
