package backend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dooto/internal/amqp"
	"dooto/internal/api"
	"dooto/internal/api/analytics"
	"dooto/internal/api/budgets"
	"dooto/internal/api/memory"
	"dooto/internal/api/transactions"
	"dooto/internal/api/users"
	"dooto/internal/apiclient"
	"dooto/internal/cache"
	"dooto/internal/config"
	"dooto/internal/core"
	applog "dooto/internal/log"
	"dooto/internal/services"
)

const (
	ownerCacheSize = 10000
	ownerCacheTTL  = 24 * time.Hour
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *applog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *applog.Logger) Factory {
	if logger == nil {
		logger = applog.Discard()
	}
	return &DefaultFactory{logger: logger.WithComponent(applog.ComponentBackend)}
}

// New builds the backend selected by the application config.
func New(ctx context.Context, appConfig *config.Config, logger *applog.Logger) (*APIs, error) {
	cfg, err := FromAppConfig(appConfig)
	if err != nil {
		return nil, err
	}
	return NewFactory(logger).CreateBackend(ctx, cfg)
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, cfg Config) (*APIs, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		userAPI   api.Users
		txAPI     api.Transactions
		budgetAPI api.Budgets
		reportAPI api.Analytics
	)
	switch cfg.Type {
	case RemoteBackend:
		client := apiclient.New(cfg.BaseURL,
			apiclient.WithTimeout(cfg.Timeout),
			apiclient.WithLogger(f.logger))
		userAPI = users.NewService(client)
		txAPI = transactions.NewService(client)
		budgetAPI = budgets.NewService(client)
		reportAPI = analytics.NewService(client)
		f.logger.Info("Initialized remote backend", "base_url", cfg.BaseURL, "timeout", cfg.Timeout)
	case MemoryBackend:
		store := memory.NewStore()
		userAPI = store.Users
		txAPI = store.Transactions
		budgetAPI = store.Budgets
		reportAPI = store.Analytics
		f.logger.Info("Initialized memory backend")
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.Type)
	}

	out := &APIs{Budgets: budgetAPI, Analytics: reportAPI}
	var closers []func() error

	if cfg.UserCacheTTL > 0 {
		userCache, closeRedis := f.userCache(ctx, cfg, out)
		if closeRedis != nil {
			closers = append(closers, closeRedis)
		}
		out.Users = users.NewCached(userAPI, userCache)
	} else {
		f.logger.Info("User lookup cache disabled")
		out.Users = userAPI
	}

	var publisher services.EventPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, f.logger)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without events", applog.FieldError, err)
		} else {
			f.logger.Info("Initialized AMQP client",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
			publisher = client
			closers = append(closers, client.Close)
		}
	}

	owners := cache.NewLRUCache[int64](ownerCacheSize, ownerCacheTTL)
	out.Cleaners = append(out.Cleaners, owners)
	out.Transactions = services.NewTransactionService(txAPI, publisher, owners, f.logger)

	out.Cleanup = func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
	return out, nil
}

// userCache returns Redis when configured and reachable, otherwise an LRU
// registered for expiry sweeps.
func (f *DefaultFactory) userCache(ctx context.Context, cfg Config, out *APIs) (cache.Cache[core.User], func() error) {
	if cfg.RedisURL != "" {
		client, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err == nil {
			f.logger.Info("Using Redis for user lookups", "ttl", cfg.UserCacheTTL)
			return cache.NewRedisCache[core.User](client, "dooto:user:", cfg.UserCacheTTL, f.logger), client.Close
		}
		f.logger.Warn("Redis unavailable, falling back to in-process user cache", applog.FieldError, err)
	}
	size := cfg.UserCacheSize
	if size < 1 {
		size = 500
	}
	lru := cache.NewLRUCache[core.User](size, cfg.UserCacheTTL)
	out.Cleaners = append(out.Cleaners, lru)
	return lru, nil
}
