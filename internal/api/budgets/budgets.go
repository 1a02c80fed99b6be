// Package budgets is the remote budget API.
package budgets

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"dooto/internal/api"
	"dooto/internal/apiclient"
	"dooto/internal/core"
)

type Service struct {
	client *apiclient.Client
}

func NewService(client *apiclient.Client) *Service {
	return &Service{client: client}
}

func (s *Service) Save(ctx context.Context, req core.BudgetRequest) apiclient.Result[core.Budget] {
	if req.UserID == 0 {
		return apiclient.Fail[core.Budget](http.StatusBadRequest, api.MsgMissingUser)
	}
	return apiclient.Do[core.Budget](ctx, s.client, apiclient.Request{
		Method: http.MethodPost,
		Path:   "/api/budgets",
		Body:   req,
	})
}

func (s *Service) List(ctx context.Context, userID int64) apiclient.Result[[]core.Budget] {
	if userID == 0 {
		return apiclient.Fail[[]core.Budget](http.StatusBadRequest, api.MsgMissingUser)
	}
	return apiclient.Do[[]core.Budget](ctx, s.client, apiclient.Request{
		Method: http.MethodGet,
		Path:   "/api/budgets/" + strconv.FormatInt(userID, 10),
	})
}

func (s *Service) Status(ctx context.Context, userID int64, period core.Range) apiclient.Result[core.BudgetStatus] {
	if userID == 0 {
		return apiclient.Fail[core.BudgetStatus](http.StatusBadRequest, api.MsgMissingUser)
	}
	if period == "" {
		period = core.Month
	}
	return apiclient.Do[core.BudgetStatus](ctx, s.client, apiclient.Request{
		Method: http.MethodGet,
		Path:   "/api/budgets/" + strconv.FormatInt(userID, 10) + "/status",
		Query:  url.Values{"period": {string(period)}},
	})
}
