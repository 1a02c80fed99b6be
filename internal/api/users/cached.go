package users

import (
	"context"

	"dooto/internal/api"
	"dooto/internal/apiclient"
	"dooto/internal/cache"
	"dooto/internal/core"
)

// Cached memoises successful username lookups. Every page load resolves the
// acting user, so this saves one backend round trip per navigation.
type Cached struct {
	api.Users
	cache cache.Cache[core.User]
}

func NewCached(backend api.Users, c cache.Cache[core.User]) *Cached {
	return &Cached{Users: backend, cache: c}
}

func (c *Cached) GetByUsername(ctx context.Context, username string) apiclient.Result[core.User] {
	if user, ok := c.cache.Get(ctx, username); ok {
		return apiclient.Result[core.User]{OK: true, Status: 200, Data: user}
	}
	res := c.Users.GetByUsername(ctx, username)
	if res.OK && res.Data.ID != 0 {
		c.cache.Set(ctx, username, res.Data)
	}
	return res
}

// Update forwards to the backend and drops the cached copy for both the
// submitted and the returned username.
func (c *Cached) Update(ctx context.Context, id int64, req core.UpdateUserRequest) apiclient.Result[core.User] {
	res := c.Users.Update(ctx, id, req)
	if req.Username != "" {
		c.cache.Delete(ctx, req.Username)
	}
	if res.OK && res.Data.Username != "" {
		c.cache.Delete(ctx, res.Data.Username)
	}
	return res
}

// Forget drops a cached lookup, e.g. on logout.
func (c *Cached) Forget(ctx context.Context, username string) {
	c.cache.Delete(ctx, username)
}
