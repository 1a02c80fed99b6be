// Package pages holds the page controllers. A controller resolves the acting
// user, fetches what its page needs, and returns an Outcome that names a
// template and its view model. User actions arrive as Commands and are routed
// through a Registry keyed by Action.
package pages

import (
	"time"

	"dooto/internal/api"
	"dooto/internal/cache"
	applog "dooto/internal/log"
)

const defaultRedirectDelay = time.Second

// Deps are the collaborators shared by every controller.
type Deps struct {
	Users        api.Users
	Transactions api.Transactions
	Budgets      api.Budgets
	Analytics    api.Analytics

	// TransactionState holds the transactions page between requests.
	TransactionState cache.Cache[TransactionsState]

	RedirectDelay time.Duration
	Now           func() time.Time
	Logger        *applog.Logger
}

// Controllers is the full set of pages plus the registry their commands live in.
type Controllers struct {
	Login        *LoginController
	Register     *RegisterController
	Home         *HomeController
	Analytics    *AnalyticsController
	Transactions *TransactionsController
	Profile      *ProfileController

	Registry *Registry
}

// New wires every controller and registers all commands.
func New(d Deps) *Controllers {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Logger == nil {
		d.Logger = applog.Discard()
	}
	if d.RedirectDelay <= 0 {
		d.RedirectDelay = defaultRedirectDelay
	}
	if d.TransactionState == nil {
		d.TransactionState = cache.NewLRUCache[TransactionsState](1000, time.Hour)
	}
	logger := d.Logger.WithComponent(applog.ComponentPages)

	c := &Controllers{
		Login:        &LoginController{users: d.Users, redirectDelay: d.RedirectDelay, state: NewStateStore(d.TransactionState)},
		Register:     &RegisterController{users: d.Users, redirectDelay: d.RedirectDelay},
		Home:         &HomeController{deps: d},
		Analytics:    &AnalyticsController{deps: d},
		Transactions: &TransactionsController{deps: d, state: NewStateStore(d.TransactionState), logger: logger},
		Profile:      &ProfileController{users: d.Users, logger: logger},
		Registry:     NewRegistry(d.Logger),
	}

	c.Login.register(c.Registry)
	c.Register.register(c.Registry)
	c.Analytics.register(c.Registry)
	c.Transactions.register(c.Registry)
	c.Profile.register(c.Registry)
	return c
}
