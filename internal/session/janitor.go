package session

import (
	"context"
	"time"

	applog "dooto/internal/log"
)

// Janitor purges session rows idle for longer than ttl. It satisfies
// cache.Cleaner so the cache manager's ticker drives it.
type Janitor struct {
	store  Purger
	ttl    time.Duration
	now    func() time.Time
	logger *applog.Logger
}

func NewJanitor(store Purger, ttl time.Duration, logger *applog.Logger) *Janitor {
	if logger == nil {
		logger = applog.Discard()
	}
	return &Janitor{store: store, ttl: ttl, now: time.Now, logger: logger.WithComponent(applog.ComponentSession)}
}

func (j *Janitor) CleanExpired() int {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	n, err := j.store.PurgeBefore(ctx, j.now().Add(-j.ttl))
	if err != nil {
		j.logger.Warn("Session purge failed", applog.FieldError, err)
		return 0
	}
	return int(n)
}
