// Package memory is an in-process stand-in for the finance backend, used
// with DATA_BACKEND=memory for local demos and in page tests. It mirrors the
// backend's reply texts so the pages behave the same against either.
package memory

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"dooto/internal/api"
	"dooto/internal/apiclient"
	"dooto/internal/core"
)

const (
	DemoUsername = "demo"
	DemoPassword = "demo123"
)

type account struct {
	user     core.User
	password string
}

type state struct {
	mu           sync.RWMutex
	now          func() time.Time
	accounts     map[int64]*account
	transactions map[int64]core.Transaction
	budgets      map[int64]core.Budget
	nextID       int64
}

// Store bundles the four in-memory APIs over one shared data set.
type Store struct {
	Users        *UserAPI
	Transactions *TransactionAPI
	Budgets      *BudgetAPI
	Analytics    *AnalyticsAPI
}

type (
	UserAPI        struct{ *state }
	TransactionAPI struct{ *state }
	BudgetAPI      struct{ *state }
	AnalyticsAPI   struct{ *state }
)

var (
	_ api.Users        = (*UserAPI)(nil)
	_ api.Transactions = (*TransactionAPI)(nil)
	_ api.Budgets      = (*BudgetAPI)(nil)
	_ api.Analytics    = (*AnalyticsAPI)(nil)
)

type options struct {
	now  func() time.Time
	seed bool
}

// Option configures a Store.
type Option func(*options)

// WithClock overrides time.Now for seeding and report windows.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithoutSeed starts with no demo data.
func WithoutSeed() Option {
	return func(o *options) { o.seed = false }
}

// NewStore returns a store seeded with the demo account and a few transactions.
func NewStore(opts ...Option) *Store {
	o := options{now: time.Now, seed: true}
	for _, opt := range opts {
		opt(&o)
	}
	st := &state{
		now:          o.now,
		accounts:     map[int64]*account{},
		transactions: map[int64]core.Transaction{},
		budgets:      map[int64]core.Budget{},
	}
	if o.seed {
		st.seed()
	}
	return &Store{
		Users:        &UserAPI{st},
		Transactions: &TransactionAPI{st},
		Budgets:      &BudgetAPI{st},
		Analytics:    &AnalyticsAPI{st},
	}
}

func (s *state) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *state) seed() {
	demo := &account{
		user: core.User{
			ID:       s.id(),
			Username: DemoUsername,
			Email:    "demo@dooto.vn",
			Name:     "Người dùng Demo",
			Role:     "USER",
		},
		password: DemoPassword,
	}
	s.accounts[demo.user.ID] = demo

	today := core.Today(s.now())
	day := func(offset int) string { return core.ISODate(today.AddDate(0, 0, offset)) }
	seed := []core.Transaction{
		{Description: "Lương tháng", Category: "Lương", Amount: decimal.NewFromInt(18000000), Type: core.Income, TransactionDate: day(-12)},
		{Description: "Tiền nhà", Category: "Nhà ở", Amount: decimal.NewFromInt(5500000), Type: core.Expense, TransactionDate: day(-10)},
		{Description: "Đi chợ", Category: "Ăn uống", Amount: decimal.NewFromInt(850000), Type: core.Expense, TransactionDate: day(-3)},
		{Description: "Cà phê", Category: "Ăn uống", Amount: decimal.NewFromInt(65000), Type: core.Expense, TransactionDate: day(-1)},
		{Description: "Xăng xe", Category: "Di chuyển", Amount: decimal.NewFromInt(300000), Type: core.Expense, TransactionDate: day(-40)},
		{Description: "Thưởng dự án", Category: "Thưởng", Amount: decimal.NewFromInt(4000000), Type: core.Income, TransactionDate: day(-45)},
		{Description: "Internet", Category: "Hoá đơn", Amount: decimal.NewFromInt(250000), Type: core.Expense, TransactionDate: day(5)},
	}
	for _, t := range seed {
		t.ID = s.id()
		t.UserID = demo.user.ID
		s.transactions[t.ID] = t
	}
	b := core.Budget{ID: s.id(), UserID: demo.user.ID, Period: core.Month, Amount: decimal.NewFromInt(9000000)}
	s.budgets[b.ID] = b
}

func (s *state) findByUsername(username string) *account {
	for _, a := range s.accounts {
		if a.user.Username == username {
			return a
		}
	}
	return nil
}

func (s *UserAPI) Login(_ context.Context, username, password string) apiclient.FormResult {
	if username == "" || password == "" {
		return apiclient.FormResult{Text: "Vui lòng nhập đủ username và password"}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if a := s.findByUsername(username); a != nil && a.password == password {
		return apiclient.FormResult{OK: true, Status: http.StatusOK, Text: "User logged in successfully!"}
	}
	return apiclient.FormResult{Status: http.StatusOK, Text: "Invalid username or password"}
}

func (s *UserAPI) Register(_ context.Context, username, password, email string) apiclient.FormResult {
	if username == "" || password == "" || email == "" {
		return apiclient.FormResult{Text: "Nhập đủ 3 trường đi bạn ơi"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findByUsername(username) != nil {
		return apiclient.FormResult{Status: http.StatusOK, Text: "User already exists"}
	}
	a := &account{
		user:     core.User{ID: s.id(), Username: username, Email: email, Role: "USER"},
		password: password,
	}
	s.accounts[a.user.ID] = a
	return apiclient.FormResult{OK: true, Status: http.StatusOK, Text: "User registered successfully!"}
}

func (s *UserAPI) GetByUsername(_ context.Context, username string) apiclient.Result[core.User] {
	if strings.TrimSpace(username) == "" {
		return apiclient.Fail[core.User](http.StatusBadRequest, "Thiếu tên đăng nhập để tải thông tin người dùng.")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	a := s.findByUsername(username)
	if a == nil {
		return apiclient.Fail[core.User](http.StatusNotFound, "User not found")
	}
	return apiclient.Result[core.User]{OK: true, Status: http.StatusOK, Data: a.user}
}

func (s *UserAPI) List(_ context.Context) apiclient.Result[[]core.User] {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]core.User, 0, len(s.accounts))
	for _, a := range s.accounts {
		users = append(users, a.user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return apiclient.Result[[]core.User]{OK: true, Status: http.StatusOK, Data: users}
}

func (s *UserAPI) Update(_ context.Context, id int64, req core.UpdateUserRequest) apiclient.Result[core.User] {
	if id == 0 {
		return apiclient.Fail[core.User](http.StatusBadRequest, "Thiếu mã người dùng để cập nhật.")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		return apiclient.Fail[core.User](http.StatusNotFound, "Không tìm thấy người dùng")
	}
	if req.Username != "" && req.Username != a.user.Username {
		if other := s.findByUsername(req.Username); other != nil {
			return apiclient.Fail[core.User](http.StatusConflict, "Tên đăng nhập đã tồn tại")
		}
		a.user.Username = req.Username
	}
	a.user.Name = req.Name
	a.user.Email = req.Email
	a.user.Phone = req.Phone
	a.user.Address = req.Address
	if req.Role != "" {
		a.user.Role = req.Role
	}
	return apiclient.Result[core.User]{OK: true, Status: http.StatusOK, Data: a.user}
}

func (s *UserAPI) ChangePassword(_ context.Context, id int64, req core.ChangePasswordRequest) apiclient.Result[json.RawMessage] {
	if id == 0 {
		return apiclient.Fail[json.RawMessage](http.StatusBadRequest, "Thiếu mã người dùng để đổi mật khẩu.")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	switch {
	case !ok:
		return apiclient.Fail[json.RawMessage](http.StatusNotFound, "Không tìm thấy người dùng")
	case a.password != req.OldPassword:
		return apiclient.Fail[json.RawMessage](http.StatusBadRequest, "Mật khẩu hiện tại không đúng")
	case req.NewPassword != req.ConfirmPassword:
		return apiclient.Fail[json.RawMessage](http.StatusBadRequest, "Mật khẩu xác nhận không khớp.")
	}
	a.password = req.NewPassword
	return apiclient.Result[json.RawMessage]{
		OK:     true,
		Status: http.StatusOK,
		Data:   json.RawMessage(`{"message":"Đổi mật khẩu thành công."}`),
	}
}
