package pages

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"dooto/internal/api"
	apitx "dooto/internal/api/transactions"
	"dooto/internal/apiclient"
	"dooto/internal/core"
	"dooto/internal/export"
)

func seedTransactions(t *testing.T, txs ...core.Transaction) *fixture {
	t.Helper()
	f := newFixture(t)
	f.transactions.list = txs
	f.c.Transactions.Page(context.Background(), f.sess)
	return f
}

func rowIDs(v TransactionsView) []int64 {
	ids := make([]int64, 0, len(v.Rows))
	for _, r := range v.Rows {
		ids = append(ids, r.ID)
	}
	return ids
}

func TestFilters_Match(t *testing.T) {
	food := tx(1, "2024-05-02", "Food", core.Expense, 100)
	undated := tx(2, "", "Salary", core.Income, 900)

	tests := []struct {
		name    string
		filters Filters
		in      core.Transaction
		want    bool
	}{
		{"empty matches", Filters{}, food, true},
		{"type", Filters{Type: "INCOME"}, food, false},
		{"category", Filters{Category: "Food"}, food, true},
		{"term in description", Filters{Term: "FOOD NO"}, food, true},
		{"term in type", Filters{Term: "expense"}, food, true},
		{"term miss", Filters{Term: "rent"}, food, false},
		{"before from", Filters{From: "2024-05-03"}, food, false},
		{"after to", Filters{To: "2024-05-01"}, food, false},
		{"within range", Filters{From: "2024-05-02", To: "2024-05-02"}, food, true},
		{"undated passes bounds", Filters{From: "2024-05-03", To: "2024-05-04"}, undated, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filters.Match(tt.in); got != tt.want {
				t.Errorf("Match() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCategoryOptions_VietnameseOrder(t *testing.T) {
	txs := []core.Transaction{
		tx(1, "", "Điện", core.Expense, 1),
		tx(2, "", "Ăn uống", core.Expense, 1),
		tx(3, "", "Xăng", core.Expense, 1),
		tx(4, "", "An ninh", core.Expense, 1),
		tx(5, "", "Ăn uống", core.Expense, 1),
		tx(6, "", "  ", core.Expense, 1),
		tx(7, "", "Du lịch", core.Expense, 1),
	}
	want := []string{"An ninh", "Ăn uống", "Du lịch", "Điện", "Xăng"}
	if got := categoryOptions(txs); !reflect.DeepEqual(got, want) {
		t.Errorf("categoryOptions() = %v, want %v", got, want)
	}
}

func TestTransactions_PageLoads(t *testing.T) {
	f := newFixture(t)
	f.transactions.list = []core.Transaction{
		tx(1, "2024-05-02", "Food", core.Expense, 100),
		tx(2, "2024-05-09", "Salary", core.Income, 900),
	}
	view := f.c.Transactions.Page(context.Background(), f.sess).Model.(TransactionsView)

	if got := rowIDs(view); !reflect.DeepEqual(got, []int64{2, 1}) {
		t.Errorf("rows = %v, want most recent first", got)
	}
	if view.Slots.Text("transaction-count") != "2 / 2 giao dịch" {
		t.Errorf("count = %q", view.Slots.Text("transaction-count"))
	}
	if !view.Slots.Hidden("transaction-message") {
		t.Error("message should be hidden")
	}
	if view.Rows[0].Amount != "+ 900 ₫" || view.Rows[1].AmountClass != "amount-negative" {
		t.Errorf("rows = %+v", view.Rows)
	}
}

func TestTransactions_LoadMessages(t *testing.T) {
	f := newFixture(t)
	view := f.c.Transactions.Page(context.Background(), f.sess).Model.(TransactionsView)
	if view.Message != infoMsg("Chưa có giao dịch nào") {
		t.Errorf("empty message = %+v", view.Message)
	}

	f.transactions.listErr = errBackendDown
	view = f.c.Transactions.Page(context.Background(), f.sess).Model.(TransactionsView)
	if view.Message.Variant != NoticeError || view.Message.Text == "" {
		t.Errorf("error message = %+v", view.Message)
	}
}

func TestTransactions_RequiresSignedInUser(t *testing.T) {
	tests := []struct {
		name   string
		signIn bool
		lookup apiclient.Result[core.User]
		want   Message
	}{
		{"guest", false, okUser(demoUser), infoMsg("Vui lòng đăng nhập để xem giao dịch.")},
		{"user lookup fails", true, apiclient.Fail[core.User](404, "User not found"), errorMsg("Không tải được thông tin người dùng")},
		{"user lookup unreachable", true, apiclient.Fail[core.User](0, "Không thể kết nối máy chủ: refused"), errorMsg(api.MsgUnreachable)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.users.lookup = tt.lookup
			if !tt.signIn {
				_ = f.sess.ClearUser(context.Background())
			}

			view := f.c.Transactions.Page(context.Background(), f.sess).Model.(TransactionsView)
			if view.Message != tt.want {
				t.Errorf("message = %+v, want %+v", view.Message, tt.want)
			}
			if f.transactions.listCalls != 0 {
				t.Errorf("List called %d times without a user id", f.transactions.listCalls)
			}
		})
	}
}

func TestTransactions_BackendUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	client := apiclient.New(srv.URL)
	srv.Close()

	f := newFixture(t)
	c := New(Deps{
		Users:        f.users,
		Transactions: apitx.NewService(client),
		Budgets:      f.budgets,
		Analytics:    f.analytics,
		Now:          func() time.Time { return testNow },
	})

	view := c.Transactions.Page(context.Background(), f.sess).Model.(TransactionsView)
	if view.Message != errorMsg(api.MsgUnreachable) {
		t.Errorf("message = %+v, want %q", view.Message, api.MsgUnreachable)
	}
}

func TestTransactions_FilterAndReset(t *testing.T) {
	f := seedTransactions(t,
		tx(1, "2024-05-02", "Food", core.Expense, 100),
		tx(2, "2024-05-09", "Salary", core.Income, 900),
	)

	out := f.dispatch(t, ActionFilterTransactions, url.Values{"type": {"expense"}})
	view := out.Model.(TransactionsView)
	if got := rowIDs(view); !reflect.DeepEqual(got, []int64{1}) {
		t.Errorf("filtered rows = %v", got)
	}
	if view.Slots.Text("transaction-count") != "1 / 2 giao dịch" {
		t.Errorf("count = %q", view.Slots.Text("transaction-count"))
	}

	out = f.dispatch(t, ActionFilterTransactions, url.Values{"category": {"Rent"}})
	if got := out.Model.(TransactionsView).Filters.Category; got != "" {
		t.Errorf("unknown category kept: %q", got)
	}

	out = f.dispatch(t, ActionResetFilters, nil)
	view = out.Model.(TransactionsView)
	if len(view.Rows) != 2 || view.Filters.Active() {
		t.Errorf("after reset rows=%d filters=%+v", len(view.Rows), view.Filters)
	}
	if f.transactions.listCalls != 1 {
		t.Errorf("listCalls = %d, filtering should reuse the page state", f.transactions.listCalls)
	}
}

func TestTransactions_Create(t *testing.T) {
	f := seedTransactions(t,
		tx(1, "2024-05-02", "Food", core.Expense, 100),
		tx(2, "2024-05-09", "Salary", core.Income, 900),
	)

	out := f.dispatch(t, ActionEditTransaction, nil)
	view := out.Model.(TransactionsView)
	if view.Editor == nil || !view.Editor.Creating || view.Slots.Text("transaction-edit-title") != "Thêm giao dịch mới" {
		t.Fatalf("editor = %+v", view.Editor)
	}

	out = f.dispatch(t, ActionCreateTransaction, url.Values{
		"description":     {"Cafe"},
		"category":        {"Food"},
		"amount":          {"45.000"},
		"type":            {"expense"},
		"transactionDate": {"05/05/2024"},
	})
	view = out.Model.(TransactionsView)

	if len(f.transactions.created) != 1 {
		t.Fatalf("created = %d", len(f.transactions.created))
	}
	req := f.transactions.created[0]
	if req.UserID != demoUser.ID || req.Type != core.Expense || !req.Amount.Equal(decimal.NewFromInt(45000)) {
		t.Errorf("request = %+v", req)
	}
	if req.TransactionDate == nil || *req.TransactionDate != "2024-05-05" {
		t.Errorf("date = %v", req.TransactionDate)
	}
	if got := rowIDs(view); !reflect.DeepEqual(got, []int64{2, 101, 1}) {
		t.Errorf("rows = %v", got)
	}
	if view.Editor != nil {
		t.Error("editor should close after create")
	}
	if out.Notice == nil || out.Notice.Message != "Đã thêm giao dịch" {
		t.Errorf("notice = %+v", out.Notice)
	}
}

func TestTransactions_CreateInvalid(t *testing.T) {
	tests := []struct {
		name string
		form url.Values
		want string
	}{
		{"amount", url.Values{"amount": {"0"}}, "Số tiền không hợp lệ"},
		{"date", url.Values{"amount": {"10"}, "transactionDate": {"31/02/2024"}}, "Ngày giao dịch không hợp lệ"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := seedTransactions(t)
			out := f.dispatch(t, ActionCreateTransaction, tt.form)
			view := out.Model.(TransactionsView)
			if view.Editor == nil || view.Editor.Error != tt.want {
				t.Fatalf("editor = %+v", view.Editor)
			}
			if len(f.transactions.created) != 0 {
				t.Error("invalid draft reached the backend")
			}
			if out.Notice != nil {
				t.Errorf("notice = %+v", out.Notice)
			}
		})
	}
}

func TestDraftFrom(t *testing.T) {
	tests := []struct {
		name     string
		form     url.Values
		wantAmt  string
		wantType core.TransactionType
		wantDate string
	}{
		{"signed amount", url.Values{"amount": {"-45.000"}, "type": {"expense"}}, "45000", core.Expense, ""},
		{"display date", url.Values{"amount": {"1.250,5"}, "transactionDate": {"15/05/2024"}}, "1250.5", core.Income, "2024-05-15"},
		{"iso date", url.Values{"amount": {"10"}, "type": {"INCOME"}, "transactionDate": {"2024-05-01"}}, "10", core.Income, "2024-05-01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			editor := newEditor()
			req, invalid := draftFrom(Command{Form: tt.form}, 7, editor)
			if invalid != "" {
				t.Fatalf("invalid = %q", invalid)
			}
			if req.UserID != 7 || req.Type != tt.wantType || req.Amount.String() != tt.wantAmt {
				t.Errorf("req = %+v", req)
			}
			switch {
			case tt.wantDate == "" && req.TransactionDate != nil:
				t.Errorf("date = %q, want none", *req.TransactionDate)
			case tt.wantDate != "" && (req.TransactionDate == nil || *req.TransactionDate != tt.wantDate):
				t.Errorf("date = %v, want %s", req.TransactionDate, tt.wantDate)
			}
		})
	}
}

func TestTransactions_Update(t *testing.T) {
	f := seedTransactions(t,
		tx(1, "2024-05-02", "Food", core.Expense, 100),
		tx(2, "2024-05-09", "Salary", core.Income, 900),
	)

	out := f.dispatch(t, ActionEditTransaction, url.Values{"id": {"1"}})
	editor := out.Model.(TransactionsView).Editor
	if editor == nil || editor.Title != "Chỉnh sửa giao dịch #1" || editor.Amount != "100" {
		t.Fatalf("editor = %+v", editor)
	}

	out = f.dispatch(t, ActionUpdateTransaction, url.Values{
		"description":     {"Groceries"},
		"category":        {"Market"},
		"amount":          {"120"},
		"type":            {"EXPENSE"},
		"transactionDate": {"2024-05-02"},
	})
	view := out.Model.(TransactionsView)

	if _, ok := f.transactions.updated[1]; !ok {
		t.Fatalf("updated = %v", f.transactions.updated)
	}
	if len(view.Rows) != 2 {
		t.Fatalf("rows = %d, want the record replaced in place", len(view.Rows))
	}
	if view.Rows[1].Description != "Groceries" {
		t.Errorf("row = %+v", view.Rows[1])
	}
	if !reflect.DeepEqual(view.Categories, []string{"Market", "Salary"}) {
		t.Errorf("categories = %v", view.Categories)
	}
	if view.Editor != nil {
		t.Error("editor should close after update")
	}
}

func TestTransactions_EditUnknownIsNoop(t *testing.T) {
	f := seedTransactions(t, tx(1, "2024-05-02", "Food", core.Expense, 100))
	out := f.dispatch(t, ActionEditTransaction, url.Values{"id": {"42"}})
	if out.Model.(TransactionsView).Editor != nil {
		t.Error("unknown id opened the editor")
	}
}

func TestTransactions_Delete(t *testing.T) {
	f := seedTransactions(t,
		tx(1, "2024-05-02", "Food", core.Expense, 100),
		tx(2, "2024-05-09", "Salary", core.Income, 900),
	)

	out := f.dispatch(t, ActionDeleteTransaction, url.Values{"id": {"42"}})
	if out.Model.(TransactionsView).Confirm != nil {
		t.Error("unknown id opened the prompt")
	}
	out = f.dispatch(t, ActionConfirmDelete, nil)
	if len(f.transactions.deleted) != 0 || len(out.Model.(TransactionsView).Rows) != 2 {
		t.Fatalf("unknown id deleted = %v", f.transactions.deleted)
	}

	out = f.dispatch(t, ActionDeleteTransaction, url.Values{"id": {"1"}})
	confirm := out.Model.(TransactionsView).Confirm
	if confirm == nil || !strings.Contains(confirm.Prompt, "Food note") {
		t.Fatalf("confirm = %+v", confirm)
	}

	out = f.dispatch(t, ActionConfirmDelete, nil)
	view := out.Model.(TransactionsView)
	if !reflect.DeepEqual(f.transactions.deleted, []int64{1}) {
		t.Errorf("deleted = %v", f.transactions.deleted)
	}
	if got := rowIDs(view); !reflect.DeepEqual(got, []int64{2}) {
		t.Errorf("rows = %v", got)
	}
	if view.Confirm != nil {
		t.Error("prompt left open")
	}
	if out.Notice == nil || out.Notice.Message != "Đã xoá giao dịch thành công" {
		t.Errorf("notice = %+v", out.Notice)
	}
}

func TestTransactions_DeleteFailureKeepsRecord(t *testing.T) {
	f := seedTransactions(t, tx(1, "2024-05-02", "Food", core.Expense, 100))
	f.transactions.deleteErr = errBackendDown

	f.dispatch(t, ActionDeleteTransaction, url.Values{"id": {"1"}})
	out := f.dispatch(t, ActionConfirmDelete, nil)
	view := out.Model.(TransactionsView)
	if len(view.Rows) != 1 || view.Message.Variant != NoticeError {
		t.Errorf("rows=%d message=%+v", len(view.Rows), view.Message)
	}
}

func TestTransactions_ExportFilteredRows(t *testing.T) {
	f := seedTransactions(t,
		tx(1, "2024-05-02", "Food", core.Expense, 100),
		tx(2, "2024-05-09", "Salary", core.Income, 900),
	)
	f.dispatch(t, ActionFilterTransactions, url.Values{"type": {"EXPENSE"}})

	out := f.dispatch(t, ActionExportTransactions, nil)
	if out.Download == nil {
		t.Fatal("no download")
	}
	if out.Download.FileName != "dooto_transactions_20240515_100000.xlsx" {
		t.Errorf("FileName = %q", out.Download.FileName)
	}

	wb, err := excelize.OpenReader(bytes.NewReader(out.Download.Data))
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer wb.Close()
	rows, err := wb.GetRows(export.SheetName)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 2 || rows[1][2] != "Food" {
		t.Errorf("rows = %v", rows)
	}
}
