// Package http serves the Dooto Finance pages. Full pages are rendered on GET;
// user actions post to /actions/{action} and return an htmx fragment plus
// HX-Trigger events for notifications and delayed redirects.
package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	applog "dooto/internal/log"
	"dooto/internal/middleware/ratelimit"
	"dooto/internal/middleware/security"
	"dooto/internal/middleware/trace"
	"dooto/internal/pages"
	"dooto/internal/session"
	appweb "dooto/web"
)

const (
	readTimeout    = 10 * time.Second
	writeTimeout   = 10 * time.Second
	idleTimeout    = 60 * time.Second
	maxHeaderBytes = 64 << 10

	staticMaxAge = 3600
)

// Config holds the HTTP settings the server needs.
type Config struct {
	Addr               string
	RateLimitPerMinute int
	SessionTTL         time.Duration
	SecureCookies      bool
	// TrustedProxies extends the private ranges whose forwarded headers are honoured.
	TrustedProxies     []string
}

// ReadinessCheck is probed by /readyz.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type Server struct {
	http.Server
	templates *template.Template
	pages     *pages.Controllers
	sessions  session.KV
	limiter   *ratelimit.Limiter
	detector  *security.Detector
	tracer    *trace.Middleware
	logger    *applog.Logger
	config    Config
	checks    []ReadinessCheck
	started   time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(cfg Config, controllers *pages.Controllers, sessions session.KV, logger *applog.Logger, checks ...ReadinessCheck) *Server {
	if logger == nil {
		logger = applog.Discard()
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 30 * 24 * time.Hour
	}

	detector := security.NewDetector()
	for _, cidr := range cfg.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring trusted proxy", applog.FieldError, err)
		}
	}
	s := &Server{
		pages:    controllers,
		sessions: sessions,
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute}),
		detector: detector,
		tracer:   trace.NewMiddleware(logger, detector.ExtractClientIP),
		logger:   logger.WithComponent(applog.ComponentHTTP),
		config:   cfg,
		checks:   checks,
		started:  time.Now(),
	}

	t, err := parseTemplates(appweb.TemplatesFS)
	if err != nil {
		s.logger.Warn("Failed parsing templates", applog.FieldError, err)
	}
	s.templates = t

	s.Server = http.Server{
		Addr:           cfg.Addr,
		Handler:        s.routes(),
		ReadTimeout:    readTimeout,
		WriteTimeout:   writeTimeout,
		IdleTimeout:    idleTimeout,
		MaxHeaderBytes: maxHeaderBytes,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.tracer.Middleware)
	r.Use(s.detector.Middleware)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(middleware.Compress(5))

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", s.handleMetrics)

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		r.With(security.StaticAssetMiddleware(staticMaxAge)).Handle("/static/*", static)
	} else {
		s.logger.Warn("Failed to mount embedded static FS", applog.FieldError, err)
	}

	r.Group(func(r chi.Router) {
		r.Use(security.NoStore)
		r.Use(s.withSession)

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/home", http.StatusSeeOther)
		})
		r.Get("/login", s.handleLogin)
		r.Get("/register", s.handleRegister)
		r.Get("/home", s.handleHome)
		r.Get("/analytics", s.handleAnalytics)
		r.Get("/transactions", s.handleTransactions)
		r.Get("/profile", s.handleProfile)

		r.With(s.limiter.Middleware(s.detector.ExtractClientIP, s.handleRateLimited)).
			Post("/actions/{action}", s.handleAction)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("Không tìm thấy trang").Write(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		MethodNotAllowedError("GET, POST").Write(w)
	})
	return r
}

// withSession binds the dooto_session cookie to a session accessor, issuing a
// new id when the browser has none. The cookie is refreshed on every request.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := session.IDFromRequest(r)
		if !ok {
			id = session.NewID()
		}
		http.SetCookie(w, session.Cookie(id, s.config.SessionTTL, s.config.SecureCookies))

		ctx := session.NewContext(r.Context(), session.NewAccessor(s.sessions, id))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WithComponent(applog.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, s.detector.ExtractClientIP(r),
		applog.FieldPath, r.URL.Path,
	)
	ErrorResponse(http.StatusTooManyRequests, "Quá nhiều yêu cầu, vui lòng thử lại sau.").
		TriggerErrorNotification("Quá nhiều yêu cầu, vui lòng thử lại sau.").
		Write(w)
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
