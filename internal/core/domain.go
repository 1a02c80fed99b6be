package core

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	Income  TransactionType = "INCOME"
	Expense TransactionType = "EXPENSE"
)

const (
	Week  Range = "WEEK"
	Month Range = "MONTH"
)

type (
	TransactionType string

	// Range is both the report range and the budget period.
	Range string

	User struct {
		ID       int64  `json:"id"`
		Username string `json:"username"`
		Email    string `json:"email"`
		Name     string `json:"name,omitempty"`
		FullName string `json:"fullName,omitempty"`
		Phone    string `json:"phone,omitempty"`
		Address  string `json:"address,omitempty"`
		Role     string `json:"role,omitempty"`
	}

	Transaction struct {
		ID              int64           `json:"id"`
		UserID          int64           `json:"userId"`
		Description     string          `json:"description"`
		Category        string          `json:"category"`
		Amount          decimal.Decimal `json:"amount"`
		Type            TransactionType `json:"type"`
		TransactionDate string          `json:"transactionDate"`
	}

	TransactionRequest struct {
		UserID          int64           `json:"userId"`
		Type            TransactionType `json:"type"`
		Amount          decimal.Decimal `json:"amount"`
		Category        string          `json:"category"`
		Description     string          `json:"description"`
		TransactionDate *string         `json:"transactionDate"`
	}

	Budget struct {
		ID            int64            `json:"id"`
		UserID        int64            `json:"userId"`
		Period        Range            `json:"period"`
		Amount        decimal.Decimal  `json:"amount"`
		SafeBalance   *decimal.Decimal `json:"safeBalance,omitempty"`
		Name          string           `json:"name,omitempty"`
		Title         string           `json:"title,omitempty"`
		TargetAmount  *decimal.Decimal `json:"targetAmount,omitempty"`
		Saved         *decimal.Decimal `json:"saved,omitempty"`
		CurrentAmount *decimal.Decimal `json:"currentAmount,omitempty"`
	}

	BudgetRequest struct {
		UserID      int64            `json:"userId"`
		Period      Range            `json:"period"`
		Amount      decimal.Decimal  `json:"amount"`
		SafeBalance *decimal.Decimal `json:"safeBalance"`
	}

	BudgetStatus struct {
		BudgetID      int64           `json:"budgetId"`
		UserID        int64           `json:"userId"`
		Period        Range           `json:"period"`
		StartDate     string          `json:"startDate"`
		EndDate       string          `json:"endDate"`
		LimitAmount   decimal.Decimal `json:"limitAmount"`
		Spent         decimal.Decimal `json:"spent"`
		Income        decimal.Decimal `json:"income"`
		NetBalance    decimal.Decimal `json:"netBalance"`
		Remaining     decimal.Decimal `json:"remaining"`
		OverBudget    bool            `json:"overBudget"`
		UnsafeBalance bool            `json:"unsafeBalance"`
	}

	CategoryExpense struct {
		Category string          `json:"category"`
		Expense  decimal.Decimal `json:"expense"`
	}

	Summary struct {
		Range                    Range             `json:"range"`
		StartDate                string            `json:"startDate"`
		EndDate                  string            `json:"endDate"`
		TotalIncome              decimal.Decimal   `json:"totalIncome"`
		TotalExpense             decimal.Decimal   `json:"totalExpense"`
		NetBalance               *decimal.Decimal  `json:"netBalance,omitempty"`
		ExpenseByCategory        []CategoryExpense `json:"expenseByCategory"`
		IncomeChangePercent      *float64          `json:"incomeChangePercent,omitempty"`
		ExpenseChangePercent     *float64          `json:"expenseChangePercent,omitempty"`
		SavingChangePercent      *float64          `json:"savingChangePercent,omitempty"`
		TransactionChangePercent *float64          `json:"transactionChangePercent,omitempty"`
	}

	UpdateUserRequest struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Username string `json:"username"`
		Phone    string `json:"phone"`
		Address  string `json:"address"`
		Role     string `json:"role"`
	}

	ChangePasswordRequest struct {
		OldPassword     string `json:"oldPassword"`
		NewPassword     string `json:"newPassword"`
		ConfirmPassword string `json:"confirmPassword"`
	}
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidType        = errors.New("invalid transaction type")
	ErrInvalidDate        = errors.New("invalid date")
	ErrEmptyCategory      = errors.New("empty category")
	ErrDescriptionTooLong = errors.New("description too long (max 255 characters)")
)

func (t TransactionType) IsValid() bool {
	return t == Income || t == Expense
}

// Label is the Vietnamese display name, or the raw value for unknown types.
func (t TransactionType) Label() string {
	switch t {
	case Income:
		return "Thu nhập"
	case Expense:
		return "Chi tiêu"
	default:
		return string(t)
	}
}

// ParseRange maps WEEK to Week and anything else to Month.
func ParseRange(s string) Range {
	if strings.EqualFold(strings.TrimSpace(s), string(Week)) {
		return Week
	}
	return Month
}

// DisplayName prefers fullName, then name, then username.
func (u User) DisplayName() string {
	for _, v := range []string{u.FullName, u.Name, u.Username} {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return "Người dùng"
}

// UnmarshalJSON accepts both a flat userId and the nested user object some endpoints return.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	type plain Transaction
	var raw struct {
		plain
		User *struct {
			ID int64 `json:"id"`
		} `json:"user"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*t = Transaction(raw.plain)
	if t.UserID == 0 && raw.User != nil {
		t.UserID = raw.User.ID
	}
	if len(t.TransactionDate) > 10 {
		t.TransactionDate = t.TransactionDate[:10]
	}
	return nil
}

// Request builds the payload for create/update. The amount is sent as a magnitude.
func (t Transaction) Request() TransactionRequest {
	req := TransactionRequest{
		UserID:      t.UserID,
		Type:        t.Type,
		Amount:      t.Amount.Abs(),
		Category:    t.Category,
		Description: t.Description,
	}
	if t.TransactionDate != "" {
		date := t.TransactionDate
		req.TransactionDate = &date
	}
	return req
}

func (r TransactionRequest) Validate() error {
	if !r.Type.IsValid() {
		return ErrInvalidType
	}
	if !r.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(r.Category) == "" {
		return ErrEmptyCategory
	}
	if len(r.Description) > 255 {
		return ErrDescriptionTooLong
	}
	if r.TransactionDate != nil {
		if _, err := ParseISODate(*r.TransactionDate); err != nil {
			return err
		}
	}
	return nil
}

// Net returns the reported net balance, falling back to income minus expense.
func (s Summary) Net() decimal.Decimal {
	if s.NetBalance != nil {
		return *s.NetBalance
	}
	return s.TotalIncome.Sub(s.TotalExpense)
}
