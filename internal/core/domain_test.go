package core

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestTransactionUnmarshal_NestedUser(t *testing.T) {
	raw := `{"id":7,"user":{"id":42,"username":"an"},"description":"Cơm","category":"Food","amount":50000,"type":"EXPENSE","transactionDate":"2025-03-04T00:00:00"}`

	var tx Transaction
	if err := json.Unmarshal([]byte(raw), &tx); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if tx.UserID != 42 {
		t.Errorf("UserID = %d, want 42", tx.UserID)
	}
	if tx.TransactionDate != "2025-03-04" {
		t.Errorf("TransactionDate = %q", tx.TransactionDate)
	}
	if !tx.Amount.Equal(decimal.NewFromInt(50000)) {
		t.Errorf("Amount = %s", tx.Amount)
	}
}

func TestTransactionUnmarshal_FlatUserIDWins(t *testing.T) {
	var tx Transaction
	if err := json.Unmarshal([]byte(`{"id":1,"userId":5,"user":{"id":9}}`), &tx); err != nil {
		t.Fatal(err)
	}
	if tx.UserID != 5 {
		t.Errorf("UserID = %d, want 5", tx.UserID)
	}
}

func TestTransactionRequest_EncodesNumbersAndNullDate(t *testing.T) {
	tx := Transaction{UserID: 3, Type: Expense, Amount: decimal.NewFromInt(-1200), Category: "Food"}
	body, err := json.Marshal(tx.Request())
	if err != nil {
		t.Fatal(err)
	}
	got := string(body)
	if !strings.Contains(got, `"amount":1200`) {
		t.Errorf("amount should be an unquoted magnitude: %s", got)
	}
	if !strings.Contains(got, `"transactionDate":null`) {
		t.Errorf("missing date should encode as null: %s", got)
	}
}

func TestTransactionRequest_Validate(t *testing.T) {
	date := "2025-01-31"
	bad := "31/01/2025"
	long := strings.Repeat("x", 256)
	cases := []struct {
		name string
		req  TransactionRequest
		want error
	}{
		{"valid", TransactionRequest{Type: Income, Amount: decimal.NewFromInt(1), Category: "Salary", TransactionDate: &date}, nil},
		{"bad type", TransactionRequest{Type: "GIFT", Amount: decimal.NewFromInt(1), Category: "x"}, ErrInvalidType},
		{"zero amount", TransactionRequest{Type: Expense, Category: "x"}, ErrInvalidAmount},
		{"no category", TransactionRequest{Type: Expense, Amount: decimal.NewFromInt(1)}, ErrEmptyCategory},
		{"long description", TransactionRequest{Type: Expense, Amount: decimal.NewFromInt(1), Category: "x", Description: long}, ErrDescriptionTooLong},
		{"bad date", TransactionRequest{Type: Expense, Amount: decimal.NewFromInt(1), Category: "x", TransactionDate: &bad}, ErrInvalidDate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.req.Validate(); err != tc.want {
				t.Errorf("Validate() = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestDisplayName(t *testing.T) {
	cases := []struct {
		user User
		want string
	}{
		{User{FullName: "Nguyễn An", Name: "An", Username: "an"}, "Nguyễn An"},
		{User{Name: "An", Username: "an"}, "An"},
		{User{Username: "an"}, "an"},
		{User{}, "Người dùng"},
	}
	for _, tc := range cases {
		if got := tc.user.DisplayName(); got != tc.want {
			t.Errorf("DisplayName(%+v) = %q, want %q", tc.user, got, tc.want)
		}
	}
}

func TestParseRange(t *testing.T) {
	for in, want := range map[string]Range{"WEEK": Week, "week": Week, "MONTH": Month, "": Month, "YEAR": Month} {
		if got := ParseRange(in); got != want {
			t.Errorf("ParseRange(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestSummaryNet(t *testing.T) {
	s := Summary{TotalIncome: decimal.NewFromInt(1000), TotalExpense: decimal.NewFromInt(400)}
	if !s.Net().Equal(decimal.NewFromInt(600)) {
		t.Errorf("fallback net = %s", s.Net())
	}
	reported := decimal.NewFromInt(-5)
	s.NetBalance = &reported
	if !s.Net().Equal(reported) {
		t.Errorf("reported net = %s", s.Net())
	}
}
