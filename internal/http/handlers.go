package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	applog "dooto/internal/log"
	"dooto/internal/middleware/trace"
	"dooto/internal/pages"
	"dooto/internal/session"
)

const readinessTimeout = 2 * time.Second

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, s.pages.Login.Page(r.Context()))
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, s.pages.Register.Page(r.Context()))
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, s.pages.Home.Page(r.Context(), session.FromContext(r.Context())))
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, s.pages.Analytics.Page(r.Context(), session.FromContext(r.Context()), QueryValue(r, "range")))
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, s.pages.Transactions.Page(r.Context(), session.FromContext(r.Context())))
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, s.pages.Profile.Page(r.Context(), session.FromContext(r.Context())))
}

// handleAction decodes the body and dispatches the named command.
func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := applog.FromContext(ctx)

	action, err := pages.ParseAction(chi.URLParam(r, "action"))
	if err != nil {
		NotFoundError("Thao tác không tồn tại").Write(w)
		return
	}

	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		fields := applog.NewFields().
			WithRequestID(trace.GetRequestID(ctx)).
			WithAction(action.String()).
			WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery).
			WithError(err)
		logger.WarnContext(ctx, "Parse body error", fields.ToSlice()...)
		BadRequestError("Dữ liệu gửi lên không hợp lệ").Write(w)
		return
	}

	out, err := s.pages.Registry.Dispatch(ctx, pages.Command{
		Action:  action,
		Session: session.FromContext(ctx),
		Form:    parser.Values(),
	})
	switch {
	case errors.Is(err, pages.ErrUnknownAction):
		NotFoundError("Thao tác không tồn tại").Write(w)
		return
	case err != nil:
		InternalServerError("Đã xảy ra lỗi, vui lòng thử lại.").
			TriggerErrorNotification("Đã xảy ra lỗi, vui lòng thử lại.").
			Write(w)
		return
	}
	s.respond(w, r, out)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady reports templates and every readiness check.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	checks := map[string]string{"templates": "ok"}
	if s.templates == nil {
		checks["templates"] = "not loaded"
		status = http.StatusServiceUnavailable
	}

	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()
	for _, c := range s.checks {
		if err := c.Check(ctx); err != nil {
			applog.FromContext(ctx).WarnContext(ctx, "Readiness check failed",
				applog.FieldOperation, c.Name,
				applog.FieldError, err,
			)
			checks[c.Name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[c.Name] = "ok"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "not ready"
	}
	writeJSON(w, status, map[string]any{"status": state, "checks": checks})
}

// handleMetrics exposes request, rate limit and security counters as plain text.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	t := s.tracer.GetMetrics()
	rl := s.limiter.GetMetrics()
	sec := s.detector.GetMetrics()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "dooto_requests_total %d\n", t.TotalRequests)
	fmt.Fprintf(w, "dooto_requests_failed_total %d\n", t.FailedRequests)
	fmt.Fprintf(w, "dooto_response_time_avg_us %d\n", t.AverageResponseTime)
	fmt.Fprintf(w, "dooto_rate_limit_rejected_total %d\n", rl.Rejected)
	fmt.Fprintf(w, "dooto_rate_limit_clients %d\n", rl.ClientCount)
	fmt.Fprintf(w, "dooto_suspicious_requests_total %d\n", sec.SuspiciousRequests)
	fmt.Fprintf(w, "dooto_uptime_seconds %d\n", int64(time.Since(s.started).Seconds()))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
