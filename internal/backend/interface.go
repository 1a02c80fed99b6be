package backend

import (
	"context"
	"time"

	"dooto/internal/api"
	"dooto/internal/cache"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// APIs is the set of backend ports the pages run against.
type APIs struct {
	Users        api.Users
	Transactions api.Transactions
	Budgets      api.Budgets
	Analytics    api.Analytics

	// Cleaners are in-process caches that want periodic expiry sweeps.
	Cleaners []cache.Cleaner
	Cleanup  CleanupFunc
}

// Close runs Cleanup when set.
func (a *APIs) Close() error {
	if a == nil || a.Cleanup == nil {
		return nil
	}
	return a.Cleanup()
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*APIs, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// Remote backend
	BaseURL string
	Timeout time.Duration

	// User lookup cache; Redis replaces the in-process LRU when set.
	UserCacheTTL  time.Duration
	UserCacheSize int
	RedisURL      string

	// Transaction events, optional
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of backend
type BackendType string

const (
	RemoteBackend BackendType = "remote"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case RemoteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
