// Package session is the per-browser key/value store that backs the pages:
// the signed-in username and the cached profile live here, keyed by the
// dooto_session cookie.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	// KeyUsername holds the active username.
	KeyUsername = "username"
	// LegacyProfileKey is the unscoped profile key older clients wrote.
	LegacyProfileKey = "dooto-user-profile"
)

// ProfileKey is the per-user profile cache key.
func ProfileKey(username string) string {
	return LegacyProfileKey + ":" + username
}

// KV is a string store partitioned by session id.
type KV interface {
	Get(ctx context.Context, sessionID, key string) (string, bool, error)
	Set(ctx context.Context, sessionID, key, value string) error
	Delete(ctx context.Context, sessionID, key string) error
}

// Purger drops rows that were not written since a cutoff.
type Purger interface {
	PurgeBefore(ctx context.Context, t time.Time) (int64, error)
}

// Accessor is a KV bound to one browser session.
type Accessor struct {
	kv KV
	id string
}

func NewAccessor(kv KV, sessionID string) *Accessor {
	return &Accessor{kv: kv, id: sessionID}
}

func (a *Accessor) ID() string { return a.id }

func (a *Accessor) SaveUser(ctx context.Context, username string) error {
	return a.kv.Set(ctx, a.id, KeyUsername, strings.TrimSpace(username))
}

// User returns the stored username, or "" when nobody is signed in.
func (a *Accessor) User(ctx context.Context) (string, error) {
	v, ok, err := a.kv.Get(ctx, a.id, KeyUsername)
	if err != nil || !ok {
		return "", err
	}
	return v, nil
}

func (a *Accessor) ClearUser(ctx context.Context) error {
	return a.kv.Delete(ctx, a.id, KeyUsername)
}

func (a *Accessor) SaveJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return a.kv.Set(ctx, a.id, key, string(data))
}

// LoadJSON decodes key into v. It reports false when the key is absent.
// A value that no longer decodes is treated as absent.
func (a *Accessor) LoadJSON(ctx context.Context, key string, v any) (bool, error) {
	raw, ok, err := a.kv.Get(ctx, a.id, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, nil
	}
	return true, nil
}

func (a *Accessor) Delete(ctx context.Context, key string) error {
	return a.kv.Delete(ctx, a.id, key)
}

type ctxKey struct{}

// NewContext returns a copy of ctx carrying the accessor.
func NewContext(ctx context.Context, a *Accessor) context.Context {
	return context.WithValue(ctx, ctxKey{}, a)
}

// FromContext returns the request's accessor, or nil outside the session middleware.
func FromContext(ctx context.Context) *Accessor {
	a, _ := ctx.Value(ctxKey{}).(*Accessor)
	return a
}
