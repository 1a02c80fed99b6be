// Package users is the remote user-account API.
package users

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"dooto/internal/apiclient"
	"dooto/internal/core"
)

const (
	msgLoginFields    = "Vui lòng nhập đủ username và password"
	msgRegisterFields = "Nhập đủ 3 trường đi bạn ơi"
	msgMissingLookup  = "Thiếu tên đăng nhập để tải thông tin người dùng."
	msgNotFound       = "User not found"
	msgMissingUpdate  = "Thiếu mã người dùng để cập nhật."
	msgMissingChange  = "Thiếu mã người dùng để đổi mật khẩu."
)

type Service struct {
	client *apiclient.Client
}

func NewService(client *apiclient.Client) *Service {
	return &Service{client: client}
}

func (s *Service) Login(ctx context.Context, username, password string) apiclient.FormResult {
	if username == "" || password == "" {
		return apiclient.FormResult{Text: msgLoginFields}
	}
	return s.client.PostForm(ctx, "/users/login", url.Values{
		"username": {username},
		"password": {password},
	})
}

func (s *Service) Register(ctx context.Context, username, password, email string) apiclient.FormResult {
	if username == "" || password == "" || email == "" {
		return apiclient.FormResult{Text: msgRegisterFields}
	}
	return s.client.PostForm(ctx, "/users/register", url.Values{
		"username": {username},
		"password": {password},
		"email":    {email},
	})
}

// GetByUsername looks a user up. Every HTTP failure reads "User not found";
// transport failures keep status 0 and their own message.
func (s *Service) GetByUsername(ctx context.Context, username string) apiclient.Result[core.User] {
	if strings.TrimSpace(username) == "" {
		return apiclient.Fail[core.User](http.StatusBadRequest, msgMissingLookup)
	}
	res := apiclient.Do[core.User](ctx, s.client, apiclient.Request{
		Method: http.MethodGet,
		Path:   "/users/by-username/" + url.PathEscape(username),
	})
	if !res.OK && !res.Unreachable() {
		res.Message = msgNotFound
	}
	return res
}

func (s *Service) List(ctx context.Context) apiclient.Result[[]core.User] {
	return apiclient.Do[[]core.User](ctx, s.client, apiclient.Request{
		Method: http.MethodGet,
		Path:   "/users",
	})
}

func (s *Service) Update(ctx context.Context, id int64, req core.UpdateUserRequest) apiclient.Result[core.User] {
	if id == 0 {
		return apiclient.Fail[core.User](http.StatusBadRequest, msgMissingUpdate)
	}
	return apiclient.Do[core.User](ctx, s.client, apiclient.Request{
		Method: http.MethodPut,
		Path:   "/users/" + strconv.FormatInt(id, 10),
		Body:   req,
	})
}

func (s *Service) ChangePassword(ctx context.Context, id int64, req core.ChangePasswordRequest) apiclient.Result[json.RawMessage] {
	if id == 0 {
		return apiclient.Fail[json.RawMessage](http.StatusBadRequest, msgMissingChange)
	}
	return apiclient.Do[json.RawMessage](ctx, s.client, apiclient.Request{
		Method: http.MethodPost,
		Path:   "/users/" + strconv.FormatInt(id, 10) + "/change-password",
		Body:   req,
	})
}
