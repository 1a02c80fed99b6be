// Package transactions is the remote transaction API. Unlike the other
// resources it reports failures as Go errors.
package transactions

import (
	"context"
	"net/http"
	"strconv"

	"dooto/internal/api"
	"dooto/internal/core"
)

// Caller is the error-style half of apiclient.Client.
type Caller interface {
	Call(ctx context.Context, method, path string, body, out any) error
}

type Service struct {
	client Caller
}

func NewService(client Caller) *Service {
	return &Service{client: client}
}

func path(id int64) string {
	return "/api/transactions/" + strconv.FormatInt(id, 10)
}

func (s *Service) List(ctx context.Context, userID int64) ([]core.Transaction, error) {
	if userID == 0 {
		return nil, api.ErrMissingUser
	}
	var out []core.Transaction
	if err := s.client.Call(ctx, http.MethodGet, path(userID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) Create(ctx context.Context, req core.TransactionRequest) (core.Transaction, error) {
	if req.UserID == 0 {
		return core.Transaction{}, api.ErrMissingUser
	}
	var out core.Transaction
	if err := s.client.Call(ctx, http.MethodPost, "/api/transactions", req, &out); err != nil {
		return core.Transaction{}, err
	}
	return out, nil
}

func (s *Service) Update(ctx context.Context, id int64, req core.TransactionRequest) (core.Transaction, error) {
	if id == 0 {
		return core.Transaction{}, api.ErrMissingID
	}
	var out core.Transaction
	if err := s.client.Call(ctx, http.MethodPut, path(id), req, &out); err != nil {
		return core.Transaction{}, err
	}
	return out, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if id == 0 {
		return api.ErrMissingID
	}
	return s.client.Call(ctx, http.MethodDelete, path(id), nil, nil)
}
