package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

// FormResult is the reply to a form post. OK requires both a 2xx status and
// a body mentioning "successfully"; the backend answers failures with 200 too.
type FormResult struct {
	OK     bool
	Status int
	Text   string
}

// PostForm sends fields form-urlencoded and returns the plain-text reply.
func (c *Client) PostForm(ctx context.Context, path string, fields url.Values) FormResult {
	resp, err := c.send(ctx, Request{Method: http.MethodPost, Path: path, Body: fields})
	if err != nil {
		return FormResult{Text: "Server unreachable: " + err.Error()}
	}

	text := string(resp.body)
	return FormResult{
		OK:     resp.ok() && strings.Contains(strings.ToLower(text), "successfully"),
		Status: resp.status,
		Text:   text,
	}
}
