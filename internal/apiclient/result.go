package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
)

const (
	msgRequestFailed = "Yêu cầu thất bại."
	msgUnreachable   = "Không thể kết nối máy chủ: "
)

// Result is the outcome of a Do call. Status is 0 when the backend could not be reached.
type Result[T any] struct {
	OK      bool
	Status  int
	Data    T
	Text    string
	Message string
}

// Unreachable reports a transport failure.
func (r Result[T]) Unreachable() bool {
	return r.Status == 0
}

// Fail builds a failed result without touching the network.
func Fail[T any](status int, message string) Result[T] {
	return Result[T]{Status: status, Message: message}
}

// Do executes req and decodes a JSON body into T. It never returns an error:
// transport failures, HTTP errors and decode problems are all folded into the Result.
//
// On failure Message is the first present of: the JSON "message" field, the
// text body, the HTTP status text, and a generic fallback.
func Do[T any](ctx context.Context, c *Client, req Request) Result[T] {
	var res Result[T]

	resp, err := c.send(ctx, req)
	if err != nil {
		res.Message = msgUnreachable + err.Error()
		return res
	}

	res.Status = resp.status
	res.OK = resp.ok()

	var message string
	if resp.isJSON() {
		if len(resp.body) > 0 {
			if err := json.Unmarshal(resp.body, &res.Data); err != nil {
				var zero T
				res.Data = zero
			}
			message = resp.jsonMessage()
		}
	} else {
		res.Text = string(resp.body)
	}

	if !res.OK {
		res.Message = firstNonEmpty(message, res.Text, http.StatusText(resp.status), msgRequestFailed)
		return res
	}
	if res.Text != "" {
		res.Message = res.Text
	}
	return res
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
