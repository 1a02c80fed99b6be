package pages

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"dooto/internal/api"
	"dooto/internal/core"
	"dooto/internal/export"
	"dooto/internal/insights"
	applog "dooto/internal/log"
	"dooto/internal/session"
)

const (
	ViewTransactions      = "transactions.html"
	ViewTransactionsPanel = "transactions-panel"

	msgSignInForTransactions = "Vui lòng đăng nhập để xem giao dịch."
	msgUserUnavailable       = "Không tải được thông tin người dùng"
)

// Filters are independent predicates over the loaded list. Empty fields match everything.
type Filters struct {
	Term     string
	Type     string
	Category string
	From     string
	To       string
}

func (f Filters) Active() bool {
	return f != Filters{}
}

// Match reports whether t passes every set predicate. Dates compare as
// YYYY-MM-DD strings and undated records pass the date bounds.
func (f Filters) Match(t core.Transaction) bool {
	if f.Type != "" && string(t.Type) != f.Type {
		return false
	}
	if f.Category != "" && t.Category != f.Category {
		return false
	}
	if f.From != "" && t.TransactionDate != "" && t.TransactionDate < f.From {
		return false
	}
	if f.To != "" && t.TransactionDate != "" && t.TransactionDate > f.To {
		return false
	}
	if term := strings.ToLower(strings.TrimSpace(f.Term)); term != "" {
		haystack := strings.ToLower(strings.Join([]string{t.Description, t.Category, string(t.Type)}, " "))
		if !strings.Contains(haystack, term) {
			return false
		}
	}
	return true
}

func filterTransactions(txs []core.Transaction, f Filters) []core.Transaction {
	out := make([]core.Transaction, 0, len(txs))
	for _, t := range txs {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

// categoryOptions lists the distinct non-blank categories in Vietnamese collation order.
func categoryOptions(txs []core.Transaction) []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range txs {
		if strings.TrimSpace(t.Category) == "" || seen[t.Category] {
			continue
		}
		seen[t.Category] = true
		out = append(out, t.Category)
	}
	collate.New(language.Vietnamese).SortStrings(out)
	return out
}

// TransactionsState is the transactions page between requests.
type TransactionsState struct {
	Header        UserHeader
	UserID        int64
	Transactions  []core.Transaction
	Categories    []string
	Filters       Filters
	Editing       *core.Transaction
	Creating      bool
	PendingDelete int64
}

// listChanged re-sorts the list and recomputes the category options. A
// selected category that disappeared is dropped from the filters.
func (s *TransactionsState) listChanged() {
	insights.SortRecentFirst(s.Transactions)
	s.Categories = categoryOptions(s.Transactions)
	if s.Filters.Category != "" && !slices.Contains(s.Categories, s.Filters.Category) {
		s.Filters.Category = ""
	}
}

func (s *TransactionsState) find(id int64) (core.Transaction, bool) {
	for _, t := range s.Transactions {
		if t.ID == id {
			return t, true
		}
	}
	return core.Transaction{}, false
}

// upsert replaces the record with tx's id or inserts it once.
func (s *TransactionsState) upsert(tx core.Transaction) {
	for i := range s.Transactions {
		if s.Transactions[i].ID == tx.ID {
			s.Transactions[i] = tx
			s.listChanged()
			return
		}
	}
	s.Transactions = append(s.Transactions, tx)
	s.listChanged()
}

func (s *TransactionsState) remove(id int64) {
	kept := s.Transactions[:0:0]
	for _, t := range s.Transactions {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	s.Transactions = kept
	s.listChanged()
}

// TransactionRow is one rendered table row.
type TransactionRow struct {
	ID          int64
	Date        string
	Description string
	Category    string
	TypeLabel   string
	TagClass    string
	Amount      string
	AmountClass string
}

func transactionRow(t core.Transaction) TransactionRow {
	row := TransactionRow{
		ID:          t.ID,
		Date:        core.FormatDate(t.TransactionDate),
		Description: firstNonBlank(t.Description, "(Không có mô tả)"),
		Category:    firstNonBlank(t.Category, "--"),
		TypeLabel:   firstNonBlank(t.Type.Label(), "--"),
		TagClass:    "tag--expense",
		Amount:      core.FormatSigned(t.Amount, t.Type),
		AmountClass: "amount-negative",
	}
	if t.Type == core.Income {
		row.TagClass = "tag--income"
		row.AmountClass = "amount-positive"
	}
	return row
}

// EditorView is the create/edit modal.
type EditorView struct {
	Creating        bool
	ID              int64
	Title           string
	Description     string
	Category        string
	Amount          string
	Type            string
	TransactionDate string
	Error           string
}

func editorFor(t core.Transaction) *EditorView {
	return &EditorView{
		ID:              t.ID,
		Title:           fmt.Sprintf("Chỉnh sửa giao dịch #%d", t.ID),
		Description:     t.Description,
		Category:        t.Category,
		Amount:          core.FormatPlain(t.Amount.Abs()),
		Type:            firstNonBlank(string(t.Type), string(core.Income)),
		TransactionDate: t.TransactionDate,
	}
}

func newEditor() *EditorView {
	return &EditorView{Creating: true, Title: "Thêm giao dịch mới", Type: string(core.Income)}
}

// ConfirmView is the delete confirmation prompt.
type ConfirmView struct {
	ID     int64
	Prompt string
}

// TransactionsView is the rendered page.
type TransactionsView struct {
	Header     UserHeader
	Rows       []TransactionRow
	Total      int
	Categories []string
	Filters    Filters
	Message    Message
	Editor     *EditorView
	Confirm    *ConfirmView

	SaveButton   ButtonState
	DeleteButton ButtonState
	Slots        Bindings
}

var transactionsTable = Table[TransactionsView]{
	Placeholder: "--",
	Fields: []Field[TransactionsView]{
		{Role: "user-name", Bind: func(v TransactionsView) Binding { return text(v.Header.Name) }},
		{Role: "user-avatar", Bind: func(v TransactionsView) Binding { return text(v.Header.Avatar) }},
		{Role: "transaction-message", Bind: func(v TransactionsView) Binding {
			return Binding{
				Text:   v.Message.Text,
				Class:  "transaction-message--" + v.Message.Variant,
				Hidden: v.Message.Empty(),
			}
		}},
		{Role: "transaction-count", Bind: func(v TransactionsView) Binding {
			return text(fmt.Sprintf("%d / %d giao dịch", len(v.Rows), v.Total))
		}},
		{Role: "transaction-edit-title", Bind: func(v TransactionsView) Binding {
			if v.Editor == nil {
				return Binding{Hidden: true}
			}
			return text(v.Editor.Title)
		}},
	},
}

type TransactionsController struct {
	deps   Deps
	state  *StateStore[TransactionsState]
	logger *applog.Logger
}

func (c *TransactionsController) register(r *Registry) {
	r.Register(ActionFilterTransactions, c.filter)
	r.Register(ActionResetFilters, c.resetFilters)
	r.Register(ActionEditTransaction, c.edit)
	r.Register(ActionCancelEdit, c.cancelEdit)
	r.Register(ActionCreateTransaction, c.create)
	r.Register(ActionUpdateTransaction, c.update)
	r.Register(ActionDeleteTransaction, c.askDelete)
	r.Register(ActionConfirmDelete, c.confirmDelete)
	r.Register(ActionCancelDelete, c.cancelDelete)
	r.Register(ActionExportTransactions, c.export)
}

// Page always reloads from the backend and starts with no filters.
func (c *TransactionsController) Page(ctx context.Context, sess *session.Accessor) Outcome {
	st, msg := c.load(ctx, sess)
	c.state.Save(ctx, sess, st)
	return Outcome{View: ViewTransactions, Model: c.view(st, msg, nil)}
}

func (c *TransactionsController) load(ctx context.Context, sess *session.Accessor) (TransactionsState, Message) {
	header, user := resolveUser(ctx, c.deps.Users, sess)
	st := TransactionsState{Header: header}
	switch {
	case header.Guest:
		st.listChanged()
		return st, infoMsg(msgSignInForTransactions)
	case user == nil && header.Email == api.MsgUnreachable:
		st.listChanged()
		return st, errorMsg(api.MsgUnreachable)
	case user == nil:
		st.listChanged()
		return st, errorMsg(msgUserUnavailable)
	}
	st.UserID = user.ID

	txs, err := c.deps.Transactions.List(ctx, st.UserID)
	if err != nil {
		c.logger.WarnContext(ctx, "Transactions unavailable",
			applog.FieldUserID, st.UserID,
			applog.FieldError, err,
		)
		st.listChanged()
		return st, errorMsg(api.ErrorMessage(err, "Không thể tải giao dịch"))
	}
	st.Transactions = append([]core.Transaction(nil), txs...)
	st.listChanged()
	if len(st.Transactions) == 0 {
		return st, infoMsg("Chưa có giao dịch nào")
	}
	return st, Message{}
}

// current returns a private copy of the stored page state, reloading it when
// the entry expired.
func (c *TransactionsController) current(ctx context.Context, sess *session.Accessor) (TransactionsState, Message) {
	if st, ok := c.state.Load(ctx, sess); ok {
		st.Transactions = slices.Clone(st.Transactions)
		return st, Message{}
	}
	return c.load(ctx, sess)
}

func (c *TransactionsController) view(st TransactionsState, msg Message, editor *EditorView) TransactionsView {
	rows := filterTransactions(st.Transactions, st.Filters)
	v := TransactionsView{
		Header:       st.Header,
		Total:        len(st.Transactions),
		Categories:   st.Categories,
		Filters:      st.Filters,
		Message:      msg,
		SaveButton:   idle("Lưu thay đổi", "Đang lưu thay đổi..."),
		DeleteButton: idle("Xoá", "Đang xoá giao dịch..."),
	}
	for _, t := range rows {
		v.Rows = append(v.Rows, transactionRow(t))
	}

	switch {
	case editor != nil:
		v.Editor = editor
	case st.Creating:
		v.Editor = newEditor()
	case st.Editing != nil:
		v.Editor = editorFor(*st.Editing)
	}
	if st.PendingDelete != 0 {
		if t, ok := st.find(st.PendingDelete); ok {
			v.Confirm = &ConfirmView{
				ID:     t.ID,
				Prompt: fmt.Sprintf("Bạn có chắc muốn xoá giao dịch \"%s\"?", firstNonBlank(t.Description, "(không có mô tả)")),
			}
		}
	}
	v.Slots = transactionsTable.Apply(v)
	return v
}

func (c *TransactionsController) render(ctx context.Context, sess *session.Accessor, st TransactionsState, msg Message, editor *EditorView) Outcome {
	c.state.Save(ctx, sess, st)
	out := Outcome{View: ViewTransactionsPanel, Model: c.view(st, msg, editor)}
	if msg.Variant == NoticeSuccess {
		out.Notice = &Notice{Type: NoticeSuccess, Message: msg.Text}
	}
	return out
}

func filtersFromForm(cmd Command) Filters {
	return Filters{
		Term:     cmd.Value("q"),
		Type:     strings.ToUpper(cmd.Value("type")),
		Category: cmd.Form.Get("category"),
		From:     cmd.Value("from"),
		To:       cmd.Value("to"),
	}
}

func (c *TransactionsController) filter(ctx context.Context, cmd Command) (Outcome, error) {
	st, msg := c.current(ctx, cmd.Session)
	st.Filters = filtersFromForm(cmd)
	if st.Filters.Category != "" && !slices.Contains(st.Categories, st.Filters.Category) {
		st.Filters.Category = ""
	}
	return c.render(ctx, cmd.Session, st, msg, nil), nil
}

func (c *TransactionsController) resetFilters(ctx context.Context, cmd Command) (Outcome, error) {
	st, msg := c.current(ctx, cmd.Session)
	st.Filters = Filters{}
	return c.render(ctx, cmd.Session, st, msg, nil), nil
}

// edit opens the modal for the posted id, or a blank one when no id is given.
func (c *TransactionsController) edit(ctx context.Context, cmd Command) (Outcome, error) {
	st, msg := c.current(ctx, cmd.Session)
	id := parseID(cmd.Value("id"))
	if id == 0 {
		st.Editing, st.Creating = nil, true
		return c.render(ctx, cmd.Session, st, msg, nil), nil
	}
	t, ok := st.find(id)
	if !ok {
		return c.render(ctx, cmd.Session, st, msg, nil), nil
	}
	st.Editing, st.Creating = &t, false
	return c.render(ctx, cmd.Session, st, msg, nil), nil
}

func (c *TransactionsController) cancelEdit(ctx context.Context, cmd Command) (Outcome, error) {
	st, msg := c.current(ctx, cmd.Session)
	st.Editing, st.Creating = nil, false
	return c.render(ctx, cmd.Session, st, msg, nil), nil
}

// draftFrom reads the editor form. The editor view echoes the input back when
// the returned message is not empty.
func draftFrom(cmd Command, userID int64, editor *EditorView) (core.TransactionRequest, string) {
	editor.Description = cmd.Value("description")
	editor.Category = cmd.Value("category")
	editor.Amount = cmd.Value("amount")
	editor.Type = strings.ToUpper(cmd.Value("type"))
	editor.TransactionDate = cmd.Value("transactionDate")

	amount, err := core.ParseAmount(strings.TrimPrefix(editor.Amount, "-"))
	if err != nil {
		return core.TransactionRequest{}, "Số tiền không hợp lệ"
	}
	typ := core.TransactionType(editor.Type)
	if !typ.IsValid() {
		typ = core.Income
	}
	draft := core.Transaction{
		UserID:      userID,
		Type:        typ,
		Amount:      amount,
		Category:    editor.Category,
		Description: editor.Description,
	}
	if date := editor.TransactionDate; date != "" {
		if strings.Contains(date, "/") {
			iso, err := core.ParseDisplayDate(date)
			if err != nil {
				return core.TransactionRequest{}, "Ngày giao dịch không hợp lệ"
			}
			date = iso
		} else if _, err := core.ParseISODate(date); err != nil {
			return core.TransactionRequest{}, "Ngày giao dịch không hợp lệ"
		}
		draft.TransactionDate = date
	}
	return draft.Request(), ""
}

func (c *TransactionsController) create(ctx context.Context, cmd Command) (Outcome, error) {
	st, _ := c.current(ctx, cmd.Session)
	editor := newEditor()

	req, invalid := draftFrom(cmd, st.UserID, editor)
	if invalid == "" && st.UserID == 0 {
		invalid = api.MsgMissingUser
	}
	if invalid != "" {
		editor.Error = invalid
		st.Creating = true
		return c.render(ctx, cmd.Session, st, errorMsg(invalid), editor), nil
	}

	created, err := c.deps.Transactions.Create(ctx, req)
	if err != nil {
		msg := api.ErrorMessage(err, "Không thể tạo giao dịch")
		editor.Error = msg
		return c.render(ctx, cmd.Session, st, errorMsg(msg), editor), nil
	}
	if created.UserID == 0 {
		created.UserID = st.UserID
	}
	st.upsert(created)
	st.Creating = false
	return c.render(ctx, cmd.Session, st, successMsg("Đã thêm giao dịch"), nil), nil
}

func (c *TransactionsController) update(ctx context.Context, cmd Command) (Outcome, error) {
	st, msg := c.current(ctx, cmd.Session)
	if st.Editing == nil {
		return c.render(ctx, cmd.Session, st, msg, nil), nil
	}
	editing := *st.Editing
	editor := editorFor(editing)

	userID := firstNonZeroID(editing.UserID, st.UserID)
	req, invalid := draftFrom(cmd, userID, editor)
	if invalid != "" {
		editor.Error = invalid
		return c.render(ctx, cmd.Session, st, errorMsg(invalid), editor), nil
	}

	updated, err := c.deps.Transactions.Update(ctx, editing.ID, req)
	if err != nil {
		msg := api.ErrorMessage(err, "Không thể cập nhật giao dịch")
		editor.Error = msg
		return c.render(ctx, cmd.Session, st, errorMsg(msg), editor), nil
	}
	if updated.ID == 0 {
		updated.ID = editing.ID
	}
	if updated.UserID == 0 {
		updated.UserID = userID
	}
	st.upsert(updated)
	st.Editing = nil
	return c.render(ctx, cmd.Session, st, successMsg("Đã cập nhật giao dịch"), nil), nil
}

// askDelete opens the confirmation prompt. An id that is not in the list
// changes nothing.
func (c *TransactionsController) askDelete(ctx context.Context, cmd Command) (Outcome, error) {
	st, msg := c.current(ctx, cmd.Session)
	id := parseID(cmd.Value("id"))
	if _, ok := st.find(id); !ok {
		return Outcome{View: ViewTransactionsPanel, Model: c.view(st, msg, nil)}, nil
	}
	st.PendingDelete = id
	return c.render(ctx, cmd.Session, st, msg, nil), nil
}

func (c *TransactionsController) confirmDelete(ctx context.Context, cmd Command) (Outcome, error) {
	st, msg := c.current(ctx, cmd.Session)
	id := st.PendingDelete
	st.PendingDelete = 0
	if id == 0 {
		return c.render(ctx, cmd.Session, st, msg, nil), nil
	}
	if _, ok := st.find(id); !ok {
		return c.render(ctx, cmd.Session, st, msg, nil), nil
	}

	if err := c.deps.Transactions.Delete(ctx, id); err != nil {
		return c.render(ctx, cmd.Session, st, errorMsg(api.ErrorMessage(err, "Không thể xoá giao dịch")), nil), nil
	}
	st.remove(id)
	if st.Editing != nil && st.Editing.ID == id {
		st.Editing = nil
	}
	return c.render(ctx, cmd.Session, st, successMsg("Đã xoá giao dịch thành công"), nil), nil
}

func (c *TransactionsController) cancelDelete(ctx context.Context, cmd Command) (Outcome, error) {
	st, msg := c.current(ctx, cmd.Session)
	st.PendingDelete = 0
	return c.render(ctx, cmd.Session, st, msg, nil), nil
}

// export downloads the currently filtered rows.
func (c *TransactionsController) export(ctx context.Context, cmd Command) (Outcome, error) {
	st, _ := c.current(ctx, cmd.Session)
	rows := filterTransactions(st.Transactions, st.Filters)

	data, err := export.Transactions(rows)
	if err != nil {
		c.logger.ErrorContext(ctx, "Export failed",
			applog.FieldCount, len(rows),
			applog.FieldError, err,
		)
		return c.render(ctx, cmd.Session, st, errorMsg("Không thể xuất dữ liệu giao dịch"), nil), nil
	}
	return Outcome{
		Download: &Download{
			FileName:    export.FileName(c.deps.Now()),
			ContentType: export.ContentType,
			Data:        data,
		},
	}, nil
}

func parseID(s string) int64 {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id < 0 {
		return 0
	}
	return id
}

func firstNonZeroID(ids ...int64) int64 {
	for _, id := range ids {
		if id != 0 {
			return id
		}
	}
	return 0
}

