package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

// Error is a non-2xx backend reply.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// IsUnreachable reports whether err is a transport failure from Call: the
// backend could not be reached or did not answer in time.
func IsUnreachable(err error) bool {
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

// Call executes a JSON request and decodes the reply into out.
//
// A non-2xx reply returns *Error whose message is the JSON "message" field,
// else the compacted JSON, else the text body, else "Yêu cầu thất bại (<status>)".
// A 204 or empty body leaves out untouched. A text body is assigned when out is *string.
func (c *Client) Call(ctx context.Context, method, path string, body, out any) error {
	resp, err := c.send(ctx, Request{Method: method, Path: path, Body: body})
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}

	if !resp.ok() {
		return &Error{Status: resp.status, Message: callErrorMessage(resp)}
	}

	if resp.status == http.StatusNoContent || len(resp.body) == 0 {
		return nil
	}

	if resp.isJSON() {
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(resp.body, out); err != nil {
			return fmt.Errorf("decode %s %s response: %w", method, path, err)
		}
		return nil
	}

	if s, ok := out.(*string); ok {
		*s = string(resp.body)
	}
	return nil
}

func callErrorMessage(resp *response) string {
	if len(resp.body) > 0 {
		if resp.isJSON() {
			if msg := resp.jsonMessage(); msg != "" {
				return msg
			}
			var compact bytes.Buffer
			if err := json.Compact(&compact, resp.body); err == nil {
				return compact.String()
			}
		}
		return string(resp.body)
	}
	return fmt.Sprintf("Yêu cầu thất bại (%d)", resp.status)
}
