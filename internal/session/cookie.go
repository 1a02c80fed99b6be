package session

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

const CookieName = "dooto_session"

// IDFromRequest returns the session id carried by the request cookie.
// Values that are not UUIDs are ignored.
func IDFromRequest(r *http.Request) (string, bool) {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	id, err := uuid.Parse(c.Value)
	if err != nil {
		return "", false
	}
	return id.String(), true
}

// NewID mints a random v4 session id.
func NewID() string {
	return uuid.NewString()
}

func Cookie(id string, ttl time.Duration, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}
