// Package apiclient talks to the finance backend over HTTP.
//
// Three calling conventions coexist because the backend endpoints differ in
// how they report outcomes:
//
//   - Do returns a Result and never an error (users, budgets, analytics).
//   - Call returns a Go error carrying the backend message (transactions).
//   - PostForm sends form fields and inspects the plain-text reply (login, register).
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	applog "dooto/internal/log"
)

const (
	acceptHeader = "application/json, text/plain;q=0.9, */*;q=0.8"

	// maxBodyBytes bounds how much of a response body is read.
	maxBodyBytes = 4 << 20
)

// Client is a thin wrapper over net/http bound to one backend base URL.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	logger     *applog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout bounds every call. Zero disables the per-call deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *applog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a client for baseURL. A trailing slash is ignored.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		timeout:    7 * time.Second,
		logger:     applog.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.WithComponent(applog.ComponentAPI)
	return c
}

// BaseURL returns the backend root this client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// response is a fully read backend reply.
type response struct {
	status      int
	contentType string
	body        []byte
}

func (r *response) ok() bool {
	return r.status >= 200 && r.status < 300
}

func (r *response) isJSON() bool {
	return strings.Contains(strings.ToLower(r.contentType), "application/json")
}

// jsonMessage extracts a top-level "message" string from a JSON body.
func (r *response) jsonMessage() string {
	var probe struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(r.body, &probe); err != nil {
		return ""
	}
	return probe.Message
}

// Request describes one backend call for Do.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	// Body is JSON-encoded unless it is a string, []byte or url.Values.
	Body   any
	Header http.Header
}

func encodeBody(body any) (io.Reader, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case url.Values:
		return strings.NewReader(b.Encode()), "application/x-www-form-urlencoded;charset=UTF-8", nil
	case string:
		return strings.NewReader(b), "text/plain;charset=UTF-8", nil
	case []byte:
		return bytes.NewReader(b), "application/octet-stream", nil
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			return nil, "", fmt.Errorf("encode request body: %w", err)
		}
		return bytes.NewReader(raw), "application/json", nil
	}
}

// send executes req and reads the whole body. Only transport and encoding
// problems are returned as errors; HTTP status codes are left to the caller.
func (c *Client) send(ctx context.Context, req Request) (*response, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	target := c.baseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	body, contentType, err := encodeBody(req.Body)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Accept", acceptHeader)
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	for k, values := range req.Header {
		httpReq.Header.Del(k)
		for _, v := range values {
			httpReq.Header.Add(k, v)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.WarnContext(ctx, "Backend unreachable",
			applog.FieldMethod, req.Method,
			applog.FieldEndpoint, req.Path,
			applog.FieldDuration, time.Since(start).Milliseconds(),
			applog.FieldError, err,
			"error_type", applog.ErrorTypeNetwork)
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	out := &response{
		status:      resp.StatusCode,
		contentType: resp.Header.Get("Content-Type"),
		body:        raw,
	}

	fields := []any{
		applog.FieldMethod, req.Method,
		applog.FieldEndpoint, req.Path,
		applog.FieldStatusCode, out.status,
		applog.FieldDuration, time.Since(start).Milliseconds(),
	}
	if out.ok() {
		c.logger.DebugContext(ctx, "Backend call", fields...)
	} else {
		c.logger.WarnContext(ctx, "Backend call failed", append(fields, "error_type", applog.ErrorTypeUpstream)...)
	}
	return out, nil
}
