package pages

import "fmt"

// Action names a user interaction posted to /actions/{action}.
type Action string

const (
	ActionLogin    Action = "login"
	ActionRegister Action = "register"
	ActionLogout   Action = "logout"

	ActionSelectRange Action = "select-range"
	ActionSaveBudget  Action = "save-budget"

	ActionFilterTransactions Action = "filter-transactions"
	ActionResetFilters       Action = "reset-filters"
	ActionCreateTransaction  Action = "create-transaction"
	ActionEditTransaction    Action = "edit-transaction"
	ActionCancelEdit         Action = "cancel-edit"
	ActionUpdateTransaction  Action = "update-transaction"
	ActionDeleteTransaction  Action = "delete-transaction"
	ActionConfirmDelete      Action = "confirm-delete"
	ActionCancelDelete       Action = "cancel-delete"
	ActionExportTransactions Action = "export-transactions"

	ActionSaveProfile    Action = "save-profile"
	ActionChangePassword Action = "change-password"
)

var allActions = []Action{
	ActionLogin,
	ActionRegister,
	ActionLogout,
	ActionSelectRange,
	ActionSaveBudget,
	ActionFilterTransactions,
	ActionResetFilters,
	ActionCreateTransaction,
	ActionEditTransaction,
	ActionCancelEdit,
	ActionUpdateTransaction,
	ActionDeleteTransaction,
	ActionConfirmDelete,
	ActionCancelDelete,
	ActionExportTransactions,
	ActionSaveProfile,
	ActionChangePassword,
}

// Actions returns every known action in declaration order.
func Actions() []Action {
	return append([]Action(nil), allActions...)
}

func (a Action) IsValid() bool {
	for _, known := range allActions {
		if a == known {
			return true
		}
	}
	return false
}

func (a Action) String() string {
	return string(a)
}

// ParseAction maps a URL segment onto an Action.
func ParseAction(s string) (Action, error) {
	a := Action(s)
	if !a.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
	}
	return a, nil
}
