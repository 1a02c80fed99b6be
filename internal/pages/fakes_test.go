package pages

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"dooto/internal/apiclient"
	"dooto/internal/core"
	"dooto/internal/session"
)

var testNow = time.Date(2024, time.May, 15, 10, 0, 0, 0, time.UTC)

type fakeUsers struct {
	mu sync.Mutex

	lookup   apiclient.Result[core.User]
	login    apiclient.FormResult
	register apiclient.FormResult
	update   apiclient.Result[core.User]
	password apiclient.Result[json.RawMessage]

	lookups   int
	updates   []core.UpdateUserRequest
	passwords []core.ChangePasswordRequest
	forgotten []string
}

func okUser(u core.User) apiclient.Result[core.User] {
	return apiclient.Result[core.User]{OK: true, Status: 200, Data: u}
}

func (f *fakeUsers) Login(_ context.Context, username, password string) apiclient.FormResult {
	return f.login
}

func (f *fakeUsers) Register(_ context.Context, username, password, email string) apiclient.FormResult {
	return f.register
}

func (f *fakeUsers) GetByUsername(_ context.Context, username string) apiclient.Result[core.User] {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	return f.lookup
}

func (f *fakeUsers) List(context.Context) apiclient.Result[[]core.User] {
	return apiclient.Result[[]core.User]{OK: true, Status: 200}
}

func (f *fakeUsers) Update(_ context.Context, id int64, req core.UpdateUserRequest) apiclient.Result[core.User] {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, req)
	return f.update
}

func (f *fakeUsers) ChangePassword(_ context.Context, id int64, req core.ChangePasswordRequest) apiclient.Result[json.RawMessage] {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.passwords = append(f.passwords, req)
	return f.password
}

func (f *fakeUsers) Forget(_ context.Context, username string) {
	f.forgotten = append(f.forgotten, username)
}

type fakeTransactions struct {
	mu sync.Mutex

	list      []core.Transaction
	listErr   error
	createErr error
	updateErr error
	deleteErr error
	nextID    int64

	listCalls int
	created   []core.TransactionRequest
	updated   map[int64]core.TransactionRequest
	deleted   []int64
}

func (f *fakeTransactions) List(_ context.Context, userID int64) ([]core.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]core.Transaction(nil), f.list...), nil
}

func (f *fakeTransactions) Create(_ context.Context, req core.TransactionRequest) (core.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, req)
	if f.createErr != nil {
		return core.Transaction{}, f.createErr
	}
	f.nextID++
	return fromRequest(f.nextID, req), nil
}

func (f *fakeTransactions) Update(_ context.Context, id int64, req core.TransactionRequest) (core.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updated == nil {
		f.updated = make(map[int64]core.TransactionRequest)
	}
	f.updated[id] = req
	if f.updateErr != nil {
		return core.Transaction{}, f.updateErr
	}
	return fromRequest(id, req), nil
}

func (f *fakeTransactions) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return f.deleteErr
}

func fromRequest(id int64, req core.TransactionRequest) core.Transaction {
	t := core.Transaction{
		ID:          id,
		UserID:      req.UserID,
		Description: req.Description,
		Category:    req.Category,
		Amount:      req.Amount,
		Type:        req.Type,
	}
	if req.TransactionDate != nil {
		t.TransactionDate = *req.TransactionDate
	}
	return t
}

type fakeBudgets struct {
	mu sync.Mutex

	list   apiclient.Result[[]core.Budget]
	status apiclient.Result[core.BudgetStatus]
	save   apiclient.Result[core.Budget]

	saved   []core.BudgetRequest
	periods []core.Range
}

func (f *fakeBudgets) Save(_ context.Context, req core.BudgetRequest) apiclient.Result[core.Budget] {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, req)
	return f.save
}

func (f *fakeBudgets) List(context.Context, int64) apiclient.Result[[]core.Budget] {
	return f.list
}

func (f *fakeBudgets) Status(_ context.Context, _ int64, period core.Range) apiclient.Result[core.BudgetStatus] {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.periods = append(f.periods, period)
	return f.status
}

type fakeAnalytics struct {
	mu     sync.Mutex
	res    apiclient.Result[core.Summary]
	ranges []core.Range
}

func (f *fakeAnalytics) Summary(_ context.Context, _ int64, rng core.Range) apiclient.Result[core.Summary] {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ranges = append(f.ranges, rng)
	return f.res
}

type fixture struct {
	users        *fakeUsers
	transactions *fakeTransactions
	budgets      *fakeBudgets
	analytics    *fakeAnalytics
	kv           *session.MemoryKV
	sess         *session.Accessor
	c            *Controllers
}

var demoUser = core.User{ID: 7, Username: "thuy", Email: "thuy@dooto.finance", FullName: "Nguyễn Thuý", Role: "USER"}

// newFixture returns controllers wired to fakes with "thuy" signed in.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		users:        &fakeUsers{lookup: okUser(demoUser)},
		transactions: &fakeTransactions{nextID: 100},
		budgets:      &fakeBudgets{status: apiclient.Fail[core.BudgetStatus](404, "Not Found")},
		analytics:    &fakeAnalytics{res: apiclient.Fail[core.Summary](500, "boom")},
		kv:           session.NewMemoryKV(),
	}
	f.sess = session.NewAccessor(f.kv, "sid-1")
	if err := f.sess.SaveUser(context.Background(), demoUser.Username); err != nil {
		t.Fatalf("SaveUser() error = %v", err)
	}
	f.c = New(Deps{
		Users:         f.users,
		Transactions:  f.transactions,
		Budgets:       f.budgets,
		Analytics:     f.analytics,
		RedirectDelay: time.Second,
		Now:           func() time.Time { return testNow },
	})
	return f
}

func (f *fixture) dispatch(t *testing.T, a Action, form url.Values) Outcome {
	t.Helper()
	out, err := f.c.Registry.Dispatch(context.Background(), Command{Action: a, Session: f.sess, Form: form})
	if err != nil {
		t.Fatalf("Dispatch(%s) error = %v", a, err)
	}
	return out
}

func tx(id int64, date, category string, typ core.TransactionType, amount int64) core.Transaction {
	return core.Transaction{
		ID:              id,
		UserID:          demoUser.ID,
		Description:     category + " note",
		Category:        category,
		Amount:          decimal.NewFromInt(amount),
		Type:            typ,
		TransactionDate: date,
	}
}

var errBackendDown = errors.New("dial tcp: connection refused")
