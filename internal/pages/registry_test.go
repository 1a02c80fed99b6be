package pages

import (
	"context"
	"errors"
	"testing"
)

func TestAction_IsValid(t *testing.T) {
	tests := []struct {
		action Action
		want   bool
	}{
		{ActionLogin, true},
		{ActionConfirmDelete, true},
		{ActionExportTransactions, true},
		{Action("drop-tables"), false},
		{Action(""), false},
	}
	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			if got := tt.action.IsValid(); got != tt.want {
				t.Errorf("IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseAction(t *testing.T) {
	a, err := ParseAction("save-budget")
	if err != nil || a != ActionSaveBudget {
		t.Fatalf("ParseAction(save-budget) = %q, %v", a, err)
	}
	if _, err := ParseAction("nope"); !errors.Is(err, ErrUnknownAction) {
		t.Errorf("ParseAction(nope) error = %v, want ErrUnknownAction", err)
	}
}

func TestActions_ReturnsCopy(t *testing.T) {
	got := Actions()
	if len(got) != 17 {
		t.Fatalf("len(Actions()) = %d, want 17", len(got))
	}
	got[0] = "mutated"
	if Actions()[0] != ActionLogin {
		t.Error("Actions() exposed its backing slice")
	}
}

func TestRegistry_RegisterPanics(t *testing.T) {
	noop := func(context.Context, Command) (Outcome, error) { return Outcome{}, nil }

	tests := []struct {
		name  string
		setup func(r *Registry)
	}{
		{"invalid action", func(r *Registry) { r.Register(Action("bogus"), noop) }},
		{"duplicate action", func(r *Registry) {
			r.Register(ActionLogin, noop)
			r.Register(ActionLogin, noop)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("Register() did not panic")
				}
			}()
			tt.setup(NewRegistry(nil))
		})
	}
}

func TestRegistry_DispatchUnknown(t *testing.T) {
	r := NewRegistry(nil)
	_, err := r.Dispatch(context.Background(), Command{Action: ActionLogin})
	if !errors.Is(err, ErrUnknownAction) {
		t.Fatalf("Dispatch() error = %v, want ErrUnknownAction", err)
	}
}

func TestRegistry_DispatchRoutes(t *testing.T) {
	r := NewRegistry(nil)
	r.Register(ActionLogout, func(_ context.Context, cmd Command) (Outcome, error) {
		return Outcome{Redirect: "/bye/" + cmd.Value("who")}, nil
	})
	out, err := r.Dispatch(context.Background(), Command{Action: ActionLogout, Form: map[string][]string{"who": {" an "}}})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if out.Redirect != "/bye/an" {
		t.Errorf("Redirect = %q", out.Redirect)
	}
}

func TestNew_RegistersEveryAction(t *testing.T) {
	f := newFixture(t)
	for _, a := range Actions() {
		if !f.c.Registry.Has(a) {
			t.Errorf("action %q has no handler", a)
		}
	}
}

func TestTable_Apply(t *testing.T) {
	type vm struct{ Name string }
	table := Table[vm]{
		Placeholder: "--",
		Fields: []Field[vm]{
			{Role: "name", Bind: func(v vm) Binding { return text(v.Name) }},
			{Role: "bar", Bind: func(v vm) Binding { return Binding{Text: "40%", Width: 40, Class: "bar-fill--teal"} }},
		},
	}

	got := table.Apply(vm{Name: "  "})
	if got.Text("name") != "--" {
		t.Errorf("blank text = %q, want placeholder", got.Text("name"))
	}
	if got.Width("bar") != 40 || got.Class("bar") != "bar-fill--teal" {
		t.Errorf("bar = %+v", got["bar"])
	}
	if got.Text("missing") != "" || got.Hidden("missing") {
		t.Error("unknown role should be zero")
	}
}
