package pages

import (
	"context"
	"fmt"
	"strings"
	"time"

	"dooto/internal/api"
	applog "dooto/internal/log"
)

const (
	ViewLogin         = "login.html"
	ViewLoginPanel    = "login-panel"
	ViewRegister      = "register.html"
	ViewRegisterPanel = "register-panel"

	minPasswordLength = 6
	msgConnection     = "Lỗi kết nối server!"
)

// AuthView is shared by the login and register forms.
type AuthView struct {
	Username string
	Email    string
	Message  Message
	Button   ButtonState
	Slots    Bindings
}

var authTable = Table[AuthView]{
	Fields: []Field[AuthView]{
		{Role: "auth-message", Bind: func(v AuthView) Binding {
			return Binding{Text: v.Message.Text, Class: "message--" + v.Message.Variant, Hidden: v.Message.Empty()}
		}},
	},
}

func (v AuthView) bind() AuthView {
	v.Slots = authTable.Apply(v)
	return v
}

// forgetter is implemented by user ports that cache lookups.
type forgetter interface {
	Forget(ctx context.Context, username string)
}

type LoginController struct {
	users         api.Users
	redirectDelay time.Duration
	state         *StateStore[TransactionsState]
}

func (c *LoginController) button() ButtonState { return idle("Đăng nhập", "Đang đăng nhập...") }

func (c *LoginController) Page(ctx context.Context) Outcome {
	return Outcome{View: ViewLogin, Model: AuthView{Button: c.button()}.bind()}
}

func (c *LoginController) register(r *Registry) {
	r.Register(ActionLogin, c.login)
	r.Register(ActionLogout, c.logout)
}

func (c *LoginController) login(ctx context.Context, cmd Command) (Outcome, error) {
	view := AuthView{Username: cmd.Value("username"), Button: c.button()}
	password := cmd.Value("password")

	if view.Username == "" || password == "" {
		view.Message = errorMsg("Nhập đầy đủ username và mật khẩu!")
		return Outcome{View: ViewLoginPanel, Model: view.bind()}, nil
	}

	res := c.users.Login(ctx, view.Username, password)
	if !res.OK {
		text := res.Text
		if res.Status == 0 {
			text = msgConnection
		}
		view.Message = errorMsg(text)
		return Outcome{View: ViewLoginPanel, Model: view.bind()}, nil
	}

	if err := cmd.Session.SaveUser(ctx, view.Username); err != nil {
		return Outcome{}, fmt.Errorf("save session user: %w", err)
	}
	applog.FromContext(ctx).WithComponent(applog.ComponentPages).InfoContext(ctx, "User logged in",
		applog.FieldUsername, view.Username,
	)

	view.Message = successMsg(res.Text)
	return Outcome{
		View:          ViewLoginPanel,
		Model:         view.bind(),
		Redirect:      "/home",
		RedirectDelay: c.redirectDelay,
	}, nil
}

func (c *LoginController) logout(ctx context.Context, cmd Command) (Outcome, error) {
	username, _ := cmd.Session.User(ctx)
	if err := cmd.Session.ClearUser(ctx); err != nil {
		return Outcome{}, fmt.Errorf("clear session user: %w", err)
	}
	if f, ok := c.users.(forgetter); ok && username != "" {
		f.Forget(ctx, username)
	}
	c.state.Clear(ctx, cmd.Session)
	return Outcome{View: ViewLoginPanel, Model: AuthView{Button: c.button()}.bind(), Redirect: "/login"}, nil
}

type RegisterController struct {
	users         api.Users
	redirectDelay time.Duration
}

func (c *RegisterController) button() ButtonState { return idle("Tạo tài khoản", "Đang tạo tài khoản...") }

func (c *RegisterController) Page(ctx context.Context) Outcome {
	return Outcome{View: ViewRegister, Model: AuthView{Button: c.button()}.bind()}
}

func (c *RegisterController) register(r *Registry) {
	r.Register(ActionRegister, c.submit)
}

func (c *RegisterController) submit(ctx context.Context, cmd Command) (Outcome, error) {
	view := AuthView{Username: cmd.Value("username"), Email: cmd.Value("email"), Button: c.button()}
	password := cmd.Value("password")

	if msg := validateRegistration(view.Username, view.Email, password); msg != "" {
		view.Message = errorMsg(msg)
		return Outcome{View: ViewRegisterPanel, Model: view.bind()}, nil
	}

	res := c.users.Register(ctx, view.Username, password, view.Email)
	if !res.OK {
		text := res.Text
		if res.Status == 0 {
			text = msgConnection
		}
		view.Message = errorMsg(text)
		return Outcome{View: ViewRegisterPanel, Model: view.bind()}, nil
	}

	view.Message = successMsg(res.Text)
	return Outcome{
		View:          ViewRegisterPanel,
		Model:         view.bind(),
		Redirect:      "/login",
		RedirectDelay: c.redirectDelay,
	}, nil
}

func validateRegistration(username, email, password string) string {
	switch {
	case username == "" || email == "" || password == "":
		return "Nhập đủ cả 3 trường username, email và mật khẩu!"
	case !strings.Contains(email, "@"):
		return "Email không hợp lệ!"
	case len([]rune(password)) < minPasswordLength:
		return "Mật khẩu phải có ít nhất 6 ký tự!"
	}
	return ""
}
