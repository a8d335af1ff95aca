package gate

import (
	"strings"

	"github.com/angelmondragon/influence-market/internal/accounts"
	"github.com/angelmondragon/influence-market/internal/capabilities"
	pkgerrors "github.com/angelmondragon/influence-market/pkg/errors"
)

// Route is a view the browser may mount in the current state.
type Route struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// NavItem is an entry of the authenticated shell navigation.
type NavItem struct {
	Label string `json:"label"`
	Path  string `json:"path"`
}

// ErrorView describes a failure display.
type ErrorView struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	// Blocking errors take over the whole screen; the user has to reload.
	Blocking bool `json:"blocking"`
	// Retry names the action that re-runs resolution, if any.
	Retry string `json:"retry,omitempty"`
}

// View is the rendering contract for a router state.
type View struct {
	State      State      `json:"state"`
	Loading    bool       `json:"loading"`
	Routes     []Route    `json:"routes"`
	Navigation []NavItem  `json:"navigation"`
	Error      *ErrorView `json:"error,omitempty"`
}

const InitializationFailedCode = "INITIALIZATION_FAILED"

var (
	publicRoutes = []Route{
		{Name: "home", Path: "/"},
		{Name: "explore", Path: "/explore"},
		{Name: "login", Path: "/login"},
		{Name: "register", Path: "/register"},
	}
	registrationRoutes = []Route{
		{Name: "register", Path: "/register"},
	}
)

// Render builds the view for state. account is only consulted in Registered; err is the
// initialization or resolution error for the failure states.
func Render(state State, account *accounts.Account, err error) View {
	view := View{
		State:      state,
		Loading:    state.Loading(),
		Routes:     []Route{},
		Navigation: []NavItem{},
	}

	switch state {
	case Unauthenticated:
		view.Routes = append(view.Routes, publicRoutes...)
	case Unregistered:
		view.Routes = append(view.Routes, registrationRoutes...)
	case Registered:
		view.Navigation = Navigation(account)
		for _, item := range view.Navigation {
			view.Routes = append(view.Routes, Route{Name: routeName(item.Path), Path: item.Path})
		}
	case InitializationFailed:
		view.Error = &ErrorView{
			Code:     InitializationFailedCode,
			Message:  "We could not start your session. Please reload the page.",
			Blocking: true,
		}
	case ResolutionFailed:
		view.Error = resolutionError(err)
	}
	return view
}

// Navigation filters the shell entries by what the account may do.
func Navigation(account *accounts.Account) []NavItem {
	items := []NavItem{{Label: "Dashboard", Path: "/dashboard"}}

	switch {
	case capabilities.IsBrand(account):
		items = append(items, NavItem{Label: "My Campaigns", Path: "/campaigns"})
	case capabilities.IsInfluencer(account):
		items = append(items, NavItem{Label: "Campaigns", Path: "/campaigns"})
	}
	if capabilities.CanCreateCampaign(account) {
		items = append(items, NavItem{Label: "Create Campaign", Path: "/campaigns/new"})
	}
	if capabilities.CanStake(account) {
		items = append(items, NavItem{Label: "Staking", Path: "/staking"})
	}
	if capabilities.CanVote(account) {
		items = append(items, NavItem{Label: "Governance", Path: "/governance"})
	}
	switch {
	case capabilities.CanDepositEscrow(account):
		items = append(items, NavItem{Label: "Escrow", Path: "/escrow"})
	case capabilities.CanWithdrawEscrow(account):
		items = append(items, NavItem{Label: "Earnings", Path: "/escrow"})
	}
	items = append(items, NavItem{Label: "Profile", Path: "/profile"})
	return items
}

func resolutionError(err error) *ErrorView {
	view := &ErrorView{
		Code:    string(pkgerrors.CodeDependency),
		Message: "We could not load your account.",
		Retry:   "refresh",
	}
	if typed := pkgerrors.As(err); typed != nil {
		view.Code = string(typed.Code())
		switch typed.Code() {
		case pkgerrors.CodeAccountNotFound:
			view.Message = "Your account could not be found."
		case pkgerrors.CodeAccountInactive:
			view.Message = "Your account is inactive."
		case pkgerrors.CodeUnauthorized:
			view.Message = "Your session is no longer authorized. Please sign in again."
		default:
			if msg := typed.Message(); msg != "" {
				view.Message = msg
			}
		}
	}
	return view
}

func routeName(path string) string {
	name := strings.ReplaceAll(strings.Trim(path, "/"), "/", "_")
	if name == "" {
		return "home"
	}
	return name
}
