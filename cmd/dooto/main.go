package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"dooto/internal/backend"
	"dooto/internal/cache"
	"dooto/internal/cli"
	apphttp "dooto/internal/http"
	applog "dooto/internal/log"
	"dooto/internal/pages"
	"dooto/internal/session"
)

const (
	shutdownTimeout = 30 * time.Second
	cleanupInterval = 10 * time.Minute

	transactionStateSize = 1000
	transactionStateTTL  = time.Hour
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	apis, err := backend.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize backend",
			applog.FieldError, err,
			"error_type", applog.ErrorTypeConfiguration,
			"backend", cfg.DataBackend)
		os.Exit(1)
	}

	// Sessions live in SQLite when a path is configured, otherwise in memory.
	var (
		kv      session.KV
		purger  session.Purger
		closers []func() error
		checks  []apphttp.ReadinessCheck
	)
	if cfg.SQLiteDBPath != "" {
		repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
		kv, purger = repo, repo
		closers = append(closers, repo.Close)
		checks = append(checks, apphttp.ReadinessCheck{Name: "storage", Check: repo.Ping})
		logger.Info("Using SQLite session store", "path", cfg.SQLiteDBPath)
	} else {
		mem := session.NewMemoryKV()
		kv, purger = mem, mem
		logger.Info("Using in-memory session store")
	}

	stateCache := cache.NewLRUCache[pages.TransactionsState](transactionStateSize, transactionStateTTL)

	cacheManager := cache.NewManager(logger)
	for _, c := range apis.Cleaners {
		cacheManager.Register(c)
	}
	cacheManager.Register(stateCache)
	cacheManager.Register(session.NewJanitor(purger, cfg.SessionTTL, logger))
	cacheManager.StartCleanup(cleanupInterval)

	controllers := pages.New(pages.Deps{
		Users:            apis.Users,
		Transactions:     apis.Transactions,
		Budgets:          apis.Budgets,
		Analytics:        apis.Analytics,
		TransactionState: stateCache,
		RedirectDelay:    cfg.RedirectDelay,
		Logger:           logger,
	})

	srv := apphttp.NewServer(apphttp.Config{
		Addr:               ":" + cfg.Port,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		SessionTTL:         cfg.SessionTTL,
		SecureCookies:      cfg.SecureCookies,
		TrustedProxies:     cfg.TrustedProxies,
	}, controllers, kv, logger, checks...)

	ctx, done := cli.GracefulShutdown(logger, shutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		cacheManager.Stop()
		if err := apis.Close(); err != nil {
			logger.Error("Backend cleanup error", applog.FieldError, err)
		}
		for _, closeFn := range closers {
			if err := closeFn(); err != nil {
				logger.Error("Session store close error", applog.FieldError, err)
			}
		}
	})

	logger.Info("Starting dooto server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"rate_limit_per_minute", cfg.RateLimitPerMinute)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
