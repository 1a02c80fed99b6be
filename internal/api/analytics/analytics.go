// Package analytics fetches the income/expense report.
package analytics

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

// Summary reports totals for the range containing today. An empty range means MONTH.
func (s *Service) Summary(ctx context.Context, userID int64, rng core.Range) apiclient.Result[core.Summary] {
	if userID == 0 {
		return apiclient.Fail[core.Summary](http.StatusBadRequest, api.MsgMissingUser)
	}
	if rng == "" {
		rng = core.Month
	}
	return apiclient.Do[core.Summary](ctx, s.client, apiclient.Request{
		Method: http.MethodGet,
		Path:   "/api/transactions/report",
		Query: url.Values{
			"userId": {strconv.FormatInt(userID, 10)},
			"range":  {string(rng)},
		},
	})
}
