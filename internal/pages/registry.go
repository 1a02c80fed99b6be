package pages

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	applog "dooto/internal/log"
	"dooto/internal/session"
)

// ErrUnknownAction is returned for actions that are not registered.
var ErrUnknownAction = errors.New("unknown action")

// Notification types understood by the client's show-notification handler.
const (
	NoticeSuccess = "success"
	NoticeError   = "error"
	NoticeInfo    = "info"
)

// Command is one posted user action.
type Command struct {
	Action  Action
	Session *session.Accessor
	Form    url.Values
}

// Value returns the trimmed form field.
func (c Command) Value(name string) string {
	return strings.TrimSpace(c.Form.Get(name))
}

// Notice is a transient toast shown by the client.
type Notice struct {
	Type     string
	Message  string
	Duration time.Duration
}

// Download is a file returned instead of a page fragment.
type Download struct {
	FileName    string
	ContentType string
	Data        []byte
}

// Outcome is what a page load or a command produces. View names the template
// to render with Model. Redirect, when set, navigates after RedirectDelay.
type Outcome struct {
	View          string
	Model         any
	Status        int
	Notice        *Notice
	Redirect      string
	RedirectDelay time.Duration
	Download      *Download
}

// Handler executes a command.
type Handler func(ctx context.Context, cmd Command) (Outcome, error)

// Registry routes commands to their handlers.
type Registry struct {
	handlers map[Action]Handler
	logger   *applog.Logger
}

func NewRegistry(logger *applog.Logger) *Registry {
	if logger == nil {
		logger = applog.Discard()
	}
	return &Registry{
		handlers: make(map[Action]Handler),
		logger:   logger.WithComponent(applog.ComponentPages),
	}
}

// Register binds h to a. It panics on an invalid or already registered action.
func (r *Registry) Register(a Action, h Handler) {
	if !a.IsValid() {
		panic(fmt.Sprintf("pages: register invalid action %q", a))
	}
	if _, dup := r.handlers[a]; dup {
		panic(fmt.Sprintf("pages: action %q registered twice", a))
	}
	r.handlers[a] = h
}

// Has reports whether a handler is registered for a.
func (r *Registry) Has(a Action) bool {
	_, ok := r.handlers[a]
	return ok
}

// Dispatch runs the handler registered for cmd.Action.
func (r *Registry) Dispatch(ctx context.Context, cmd Command) (Outcome, error) {
	h, ok := r.handlers[cmd.Action]
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %q", ErrUnknownAction, cmd.Action)
	}

	start := time.Now()
	out, err := h(ctx, cmd)
	logger := applog.FromContext(ctx).WithComponent(applog.ComponentPages)
	if err != nil {
		logger.ErrorContext(ctx, "Action failed",
			applog.FieldAction, string(cmd.Action),
			applog.FieldError, err,
			applog.FieldDuration, time.Since(start).Milliseconds(),
		)
		return out, err
	}
	logger.DebugContext(ctx, "Action dispatched",
		applog.FieldAction, string(cmd.Action),
		applog.FieldDuration, time.Since(start).Milliseconds(),
	)
	return out, nil
}
