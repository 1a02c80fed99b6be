package pages

import (
	"context"
	"strings"
	"unicode/utf8"

	"dooto/internal/api"
	"dooto/internal/core"
	applog "dooto/internal/log"
	"dooto/internal/session"
)

// UserHeader is the signed-in user card shown in the page chrome.
type UserHeader struct {
	Username string
	Name     string
	Email    string
	Avatar   string
	Guest    bool
}

// resolveUser reads the session username and looks the user up. The returned
// user is nil whenever the page has no user id to work with.
func resolveUser(ctx context.Context, users api.Users, sess *session.Accessor) (UserHeader, *core.User) {
	guest := UserHeader{Name: "Khách", Email: "Vui lòng đăng nhập", Avatar: "--", Guest: true}
	if sess == nil {
		return guest, nil
	}

	username, err := sess.User(ctx)
	if err != nil {
		applog.FromContext(ctx).WithComponent(applog.ComponentSession).WarnContext(ctx, "Failed to read session user",
			applog.FieldSessionID, sess.ID(),
			applog.FieldError, err,
		)
	}
	if username == "" {
		return guest, nil
	}

	res := users.GetByUsername(ctx, username)
	switch {
	case res.Unreachable():
		return UserHeader{Username: username, Name: username, Email: api.MsgUnreachable, Avatar: initials(username, "--")}, nil
	case !res.OK || res.Data.ID == 0:
		return UserHeader{Username: username, Name: username, Email: "Không tải được email", Avatar: initials(username, "--")}, nil
	}

	user := res.Data
	name := user.DisplayName()
	return UserHeader{
		Username: username,
		Name:     name,
		Email:    user.Email,
		Avatar:   initials(name, "--"),
	}, &user
}

// initials takes the first letter of the first and the last word.
func initials(name, fallback string) string {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return fallback
	}
	out := firstRune(parts[0])
	if len(parts) > 1 {
		out += firstRune(parts[len(parts)-1])
	}
	return strings.ToUpper(out)
}

func firstRune(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError && size <= 1 {
		return ""
	}
	return string(r)
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
