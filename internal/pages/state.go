package pages

import (
	"context"

	"dooto/internal/cache"
	"dooto/internal/session"
)

// StateStore keeps page-scoped state between requests of one browser session.
// Entries are disposable: a miss means the page reloads from the backend.
type StateStore[T any] struct {
	cache cache.Cache[T]
}

func NewStateStore[T any](c cache.Cache[T]) *StateStore[T] {
	return &StateStore[T]{cache: c}
}

func (s *StateStore[T]) Load(ctx context.Context, sess *session.Accessor) (T, bool) {
	if sess == nil {
		var zero T
		return zero, false
	}
	return s.cache.Get(ctx, sess.ID())
}

func (s *StateStore[T]) Save(ctx context.Context, sess *session.Accessor, v T) {
	if sess == nil {
		return
	}
	s.cache.Set(ctx, sess.ID(), v)
}

func (s *StateStore[T]) Clear(ctx context.Context, sess *session.Accessor) {
	if sess == nil {
		return
	}
	s.cache.Delete(ctx, sess.ID())
}
