// Package api declares the backend ports the page controllers depend on.
// The remote implementations live in the per-resource subpackages and an
// in-process double lives in api/memory.
package api

import (
	"context"
	"encoding/json"
	"errors"

	"dooto/internal/apiclient"
	"dooto/internal/core"
)

var (
	// ErrMissingUser is returned before any network call when no user id is known.
	ErrMissingUser = errors.New(MsgMissingUser)
	// ErrMissingID is returned before any network call when a record id is zero.
	ErrMissingID = errors.New("Thiếu mã giao dịch")
)

const MsgMissingUser = "Thiếu thông tin người dùng"

type Users interface {
	Login(ctx context.Context, username, password string) apiclient.FormResult
	Register(ctx context.Context, username, password, email string) apiclient.FormResult
	GetByUsername(ctx context.Context, username string) apiclient.Result[core.User]
	List(ctx context.Context) apiclient.Result[[]core.User]
	Update(ctx context.Context, id int64, req core.UpdateUserRequest) apiclient.Result[core.User]
	ChangePassword(ctx context.Context, id int64, req core.ChangePasswordRequest) apiclient.Result[json.RawMessage]
}

type Transactions interface {
	List(ctx context.Context, userID int64) ([]core.Transaction, error)
	Create(ctx context.Context, req core.TransactionRequest) (core.Transaction, error)
	Update(ctx context.Context, id int64, req core.TransactionRequest) (core.Transaction, error)
	Delete(ctx context.Context, id int64) error
}

type Budgets interface {
	Save(ctx context.Context, req core.BudgetRequest) apiclient.Result[core.Budget]
	List(ctx context.Context, userID int64) apiclient.Result[[]core.Budget]
	Status(ctx context.Context, userID int64, period core.Range) apiclient.Result[core.BudgetStatus]
}

type Analytics interface {
	Summary(ctx context.Context, userID int64, rng core.Range) apiclient.Result[core.Summary]
}

// MsgUnreachable is shown when the backend cannot be reached.
const MsgUnreachable = "Không thể kết nối máy chủ"

// ErrorMessage returns the text a page should show for err, or fallback when
// err carries nothing user-facing.
func ErrorMessage(err error, fallback string) string {
	var apiErr *apiclient.Error
	switch {
	case err == nil:
		return ""
	case errors.As(err, &apiErr) && apiErr.Message != "":
		return apiErr.Message
	case apiclient.IsUnreachable(err):
		return MsgUnreachable
	case errors.Is(err, ErrMissingUser), errors.Is(err, ErrMissingID):
		return err.Error()
	default:
		return fallback
	}
}
