package pages

import (
	"context"
	"strings"
	"time"

	"dooto/internal/api"
	"dooto/internal/core"
	applog "dooto/internal/log"
	"dooto/internal/session"
)

const (
	ViewProfile         = "profile.html"
	ViewProfilePanel    = "profile-panel"
	ViewPasswordPanel   = "password-panel"
	profileSavedMessage = "Thông tin của bạn đã được cập nhật."
	profileNoticeTTL    = 2600 * time.Millisecond
)

// Profile is the locally cached profile card. Only the contact fields are
// also held by the backend.
type Profile struct {
	FullName   string   `json:"fullName"`
	Role       string   `json:"role"`
	Email      string   `json:"email"`
	Phone      string   `json:"phone"`
	Address    string   `json:"address"`
	Birthday   string   `json:"birthday"`
	Status     string   `json:"status"`
	JoinDate   string   `json:"joinDate"`
	Plan       string   `json:"plan"`
	Goals      string   `json:"goals"`
	Priorities []string `json:"priorities"`
}

// DefaultProfile is shown until the user saves their own.
func DefaultProfile() Profile {
	return Profile{
		FullName: "Nguyễn Thuý",
		Role:     "Chuyên gia phân tích tài chính cấp cao tại Dooto Finance",
		Email:    "nguyenthuy@dooto.finance",
		Phone:    "+84 912 345 678",
		Address:  "Tầng 12, Toà nhà Dooto, Quận 1, TP.HCM",
		Birthday: "1990-07-22",
		Status:   "Đang hoạt động",
		JoinDate: "12/03/2021",
		Plan:     "Doanh nghiệp Premium",
		Goals:    "Tăng trưởng danh mục đầu tư 12% mỗi năm, tối ưu chi phí cố định và chuẩn bị quỹ giáo dục cho con trong 5 năm tới.",
		Priorities: []string{
			"Phân bổ lại danh mục ETF",
			"Gia tăng quỹ khẩn cấp lên 200 triệu",
			"Tối ưu chi phí vận hành gia đình",
		},
	}
}

// overlay copies the non-blank fields of src over p. A nil Priorities keeps p's.
func (p Profile) overlay(src Profile) Profile {
	set := func(dst *string, v string) {
		if strings.TrimSpace(v) != "" {
			*dst = v
		}
	}
	set(&p.FullName, src.FullName)
	set(&p.Role, src.Role)
	set(&p.Email, src.Email)
	set(&p.Phone, src.Phone)
	set(&p.Address, src.Address)
	set(&p.Birthday, src.Birthday)
	set(&p.Status, src.Status)
	set(&p.JoinDate, src.JoinDate)
	set(&p.Plan, src.Plan)
	set(&p.Goals, src.Goals)
	if src.Priorities != nil {
		p.Priorities = src.Priorities
	}
	return p
}

// fromUser maps the backend user onto the profile fields it owns.
func fromUser(u core.User) Profile {
	return Profile{
		FullName: firstNonBlank(u.FullName, u.Name),
		Email:    u.Email,
		Phone:    u.Phone,
		Address:  u.Address,
	}
}

// ProfileInitials takes the first letter of the first two words.
func ProfileInitials(name string) string {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return "NT"
	}
	var b strings.Builder
	for _, p := range parts[:min(2, len(parts))] {
		b.WriteString(strings.ToUpper(firstRune(p)))
	}
	return b.String()
}

// FormatBirthday renders an ISO or dd/mm/yyyy birthday as dd/mm/yyyy.
// Unparseable input is returned unchanged.
func FormatBirthday(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	iso := v
	if strings.Contains(v, "/") {
		parsed, err := core.ParseDisplayDate(v)
		if err != nil {
			return v
		}
		iso = parsed
	}
	t, err := core.ParseISODate(iso)
	if err != nil {
		return v
	}
	return t.Format(core.DisplayDateLayout)
}

// normalizeBirthday stores birthdays as ISO dates when they parse.
func normalizeBirthday(v string) string {
	v = strings.TrimSpace(v)
	if strings.Contains(v, "/") {
		if iso, err := core.ParseDisplayDate(v); err == nil {
			return iso
		}
	}
	return v
}

// ParsePriorities splits one priority per line, dropping blanks.
func ParsePriorities(s string) []string {
	out := []string{}
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// ProfileView is the profile page.
type ProfileView struct {
	Header   UserHeader
	UserID   int64
	Profile  Profile
	Initials string

	Status         Message
	PasswordStatus Message
	SaveButton     ButtonState
	PasswordButton ButtonState

	Slots Bindings
}

func (v ProfileView) PrioritiesText() string {
	return strings.Join(v.Profile.Priorities, "\n")
}

func profileText(fn func(Profile) string) func(ProfileView) Binding {
	return func(v ProfileView) Binding { return text(fn(v.Profile)) }
}

var profileTable = Table[ProfileView]{
	Placeholder: "—",
	Fields: []Field[ProfileView]{
		{Role: "profile-name", Bind: profileText(func(p Profile) string { return p.FullName })},
		{Role: "profile-role", Bind: profileText(func(p Profile) string { return p.Role })},
		{Role: "profile-email", Bind: profileText(func(p Profile) string { return p.Email })},
		{Role: "profile-phone", Bind: profileText(func(p Profile) string { return p.Phone })},
		{Role: "profile-address", Bind: profileText(func(p Profile) string { return p.Address })},
		{Role: "profile-birthday", Bind: profileText(func(p Profile) string { return FormatBirthday(p.Birthday) })},
		{Role: "profile-status", Bind: profileText(func(p Profile) string { return p.Status })},
		{Role: "profile-join-date", Bind: profileText(func(p Profile) string { return p.JoinDate })},
		{Role: "profile-plan", Bind: profileText(func(p Profile) string { return p.Plan })},
		{Role: "profile-goals", Bind: profileText(func(p Profile) string { return p.Goals })},
		{Role: "profile-initials", Bind: func(v ProfileView) Binding { return text(v.Initials) }},
		{Role: "profile-form-status", Bind: func(v ProfileView) Binding {
			return Binding{Text: v.Status.Text, Class: "profile-status--" + v.Status.Variant, Hidden: v.Status.Empty()}
		}},
		{Role: "password-status", Bind: func(v ProfileView) Binding {
			return Binding{Text: v.PasswordStatus.Text, Class: "profile-status--" + v.PasswordStatus.Variant, Hidden: v.PasswordStatus.Empty()}
		}},
	},
}

type ProfileController struct {
	users  api.Users
	logger *applog.Logger
}

func (c *ProfileController) register(r *Registry) {
	r.Register(ActionSaveProfile, c.save)
	r.Register(ActionChangePassword, c.changePassword)
}

func (c *ProfileController) newView(header UserHeader, user *core.User, p Profile) ProfileView {
	v := ProfileView{
		Header:         header,
		Profile:        p,
		Initials:       ProfileInitials(p.FullName),
		SaveButton:     idle("Lưu thay đổi", "Đang lưu..."),
		PasswordButton: idle("Đổi mật khẩu", "Đang xử lý..."),
	}
	if user != nil {
		v.UserID = user.ID
	}
	return v
}

func (v ProfileView) bind() ProfileView {
	v.Slots = profileTable.Apply(v)
	return v
}

// Page merges defaults, the cached profile and the backend user, then
// persists the result under the per-user key.
func (c *ProfileController) Page(ctx context.Context, sess *session.Accessor) Outcome {
	header, user := resolveUser(ctx, c.users, sess)
	p := c.merged(ctx, sess, header.Username, user)
	c.persist(ctx, sess, header.Username, p)
	return Outcome{View: ViewProfile, Model: c.newView(header, user, p).bind()}
}

func (c *ProfileController) merged(ctx context.Context, sess *session.Accessor, username string, user *core.User) Profile {
	p := c.cached(ctx, sess, username)
	if user != nil {
		p = p.overlay(fromUser(*user))
	}
	return p
}

// cached decodes the stored profile over the defaults, so stored keys win
// even when blank. The per-user key is preferred over the legacy one.
func (c *ProfileController) cached(ctx context.Context, sess *session.Accessor, username string) Profile {
	if sess == nil {
		return DefaultProfile()
	}
	if username != "" {
		p := DefaultProfile()
		ok, err := sess.LoadJSON(ctx, session.ProfileKey(username), &p)
		if err != nil {
			c.logger.WarnContext(ctx, "Failed to read cached profile", applog.FieldUsername, username, applog.FieldError, err)
		}
		if ok {
			return p
		}
	}
	p := DefaultProfile()
	ok, err := sess.LoadJSON(ctx, session.LegacyProfileKey, &p)
	if err != nil {
		c.logger.WarnContext(ctx, "Failed to read legacy profile", applog.FieldError, err)
	}
	if !ok {
		return DefaultProfile()
	}
	return p
}

func (c *ProfileController) persist(ctx context.Context, sess *session.Accessor, username string, p Profile) {
	if sess == nil {
		return
	}
	key := session.LegacyProfileKey
	if username != "" {
		key = session.ProfileKey(username)
	}
	if err := sess.SaveJSON(ctx, key, p); err != nil {
		c.logger.WarnContext(ctx, "Failed to persist profile", applog.FieldUsername, username, applog.FieldError, err)
	}
}

func (c *ProfileController) save(ctx context.Context, cmd Command) (Outcome, error) {
	header, user := resolveUser(ctx, c.users, cmd.Session)
	p := c.merged(ctx, cmd.Session, header.Username, user)

	p.FullName = cmd.Value("fullName")
	p.Role = cmd.Value("role")
	p.Email = cmd.Value("email")
	p.Phone = cmd.Value("phone")
	p.Address = cmd.Value("address")
	p.Birthday = normalizeBirthday(cmd.Value("birthday"))
	p.Goals = cmd.Value("goals")
	p.Priorities = ParsePriorities(cmd.Form.Get("priorities"))

	view := c.newView(header, user, p)
	if p.FullName == "" || p.Email == "" {
		view.Status = errorMsg("Vui lòng điền đầy đủ họ tên và email.")
		return Outcome{View: ViewProfilePanel, Model: view.bind()}, nil
	}

	if user != nil {
		res := c.users.Update(ctx, user.ID, core.UpdateUserRequest{
			Name:     p.FullName,
			Email:    p.Email,
			Username: firstNonBlank(user.Username, header.Username),
			Phone:    p.Phone,
			Address:  p.Address,
			Role:     user.Role,
		})
		if !res.OK {
			view.Status = errorMsg(firstNonBlank(res.Message, "Không thể cập nhật thông tin."))
			return Outcome{View: ViewProfilePanel, Model: view.bind()}, nil
		}
	}

	c.persist(ctx, cmd.Session, header.Username, p)
	view.Status = successMsg(profileSavedMessage)
	return Outcome{
		View:   ViewProfilePanel,
		Model:  view.bind(),
		Notice: &Notice{Type: NoticeSuccess, Message: profileSavedMessage, Duration: profileNoticeTTL},
	}, nil
}

// validatePassword checks the change-password form. It returns "" when valid.
func validatePassword(req core.ChangePasswordRequest) string {
	switch {
	case req.OldPassword == "" || req.NewPassword == "" || req.ConfirmPassword == "":
		return "Vui lòng nhập đầy đủ mật khẩu hiện tại, mật khẩu mới và xác nhận."
	case len([]rune(req.NewPassword)) < minPasswordLength:
		return "Mật khẩu mới phải có ít nhất 6 ký tự."
	case req.NewPassword != req.ConfirmPassword:
		return "Xác nhận mật khẩu không khớp."
	}
	return ""
}

func (c *ProfileController) changePassword(ctx context.Context, cmd Command) (Outcome, error) {
	header, user := resolveUser(ctx, c.users, cmd.Session)
	view := c.newView(header, user, Profile{})

	req := core.ChangePasswordRequest{
		OldPassword:     cmd.Form.Get("oldPassword"),
		NewPassword:     cmd.Form.Get("newPassword"),
		ConfirmPassword: cmd.Form.Get("confirmPassword"),
	}
	if msg := validatePassword(req); msg != "" {
		view.PasswordStatus = errorMsg(msg)
		return Outcome{View: ViewPasswordPanel, Model: view.bind()}, nil
	}

	var id int64
	if user != nil {
		id = user.ID
	}
	res := c.users.ChangePassword(ctx, id, req)
	if !res.OK {
		view.PasswordStatus = errorMsg(firstNonBlank(res.Message, "Không thể đổi mật khẩu."))
		return Outcome{View: ViewPasswordPanel, Model: view.bind()}, nil
	}

	msg := firstNonBlank(res.Message, "Đổi mật khẩu thành công.")
	view.PasswordStatus = successMsg(msg)
	return Outcome{
		View:   ViewPasswordPanel,
		Model:  view.bind(),
		Notice: &Notice{Type: NoticeSuccess, Message: msg},
	}, nil
}
