package pages

import "strings"

// Binding is what one element slot shows.
type Binding struct {
	Text   string
	Class  string
	Width  int
	Hidden bool
}

// Field binds a slot role to a view-model projection.
type Field[VM any] struct {
	Role string
	Bind func(VM) Binding
}

// Table is the declarative slot map of one page. Empty texts render as Placeholder.
type Table[VM any] struct {
	Placeholder string
	Fields      []Field[VM]
}

// Bindings are the resolved slots keyed by role.
type Bindings map[string]Binding

// Apply projects vm through every field of the table.
func (t Table[VM]) Apply(vm VM) Bindings {
	out := make(Bindings, len(t.Fields))
	for _, f := range t.Fields {
		b := f.Bind(vm)
		if strings.TrimSpace(b.Text) == "" {
			b.Text = t.Placeholder
		}
		out[f.Role] = b
	}
	return out
}

// Text is the slot's text, or "" for an unknown role.
func (b Bindings) Text(role string) string { return b[role].Text }

func (b Bindings) Class(role string) string { return b[role].Class }

func (b Bindings) Width(role string) int { return b[role].Width }

func (b Bindings) Hidden(role string) bool { return b[role].Hidden }

func text(s string) Binding { return Binding{Text: s} }

// ButtonState is a submit control. PendingLabel is shown by the client while
// the request is in flight; every rendered outcome is idle.
type ButtonState struct {
	Label        string
	PendingLabel string
	Disabled     bool
}

func idle(label, pending string) ButtonState {
	return ButtonState{Label: label, PendingLabel: pending}
}

// Message is an inline status line.
type Message struct {
	Text    string
	Variant string // info, success or error
}

func (m Message) Empty() bool { return m.Text == "" }

func infoMsg(s string) Message    { return Message{Text: s, Variant: NoticeInfo} }
func successMsg(s string) Message { return Message{Text: s, Variant: NoticeSuccess} }
func errorMsg(s string) Message   { return Message{Text: s, Variant: NoticeError} }
