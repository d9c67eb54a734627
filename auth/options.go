package auth

import (
	"github.com/jrsteele09/go-auth-session/storage"
)

// Named redirect targets.
const (
	RedirectLogin    = "login"
	RedirectLogout   = "logout"
	RedirectHome     = "home"
	RedirectCallback = "callback"
)

// Options configures the orchestrator.
type Options struct {
	// ResetOnError, when set, resets the session after any broadcast error
	// for which it returns true. Use AlwaysReset to reset on every error.
	ResetOnError func(err error, payload ErrorPayload) bool

	// ScopeKey is the dotted path of the scopes inside the user claims.
	ScopeKey string

	// RewriteRedirects remembers the page that sent the user to login and
	// returns there instead of home.
	RewriteRedirects bool
	// FullPathRedirect uses the path with its query string as the "from" URL.
	FullPathRedirect bool
	// WatchLoggedIn redirects to home or logout whenever loggedIn changes on
	// a client platform.
	WatchLoggedIn bool

	// Redirect maps target names (login, logout, home, callback) to paths.
	Redirect map[string]string

	Storage storage.Options

	TokenPrefix        string
	IDTokenPrefix      string
	RefreshTokenPrefix string

	DefaultStrategy string
}

// DefaultOptions returns the stock configuration.
func DefaultOptions() Options {
	return Options{
		ScopeKey:         "scope",
		RewriteRedirects: true,
		FullPathRedirect: false,
		WatchLoggedIn:    true,
		Redirect: map[string]string{
			RedirectLogin:    "/login",
			RedirectLogout:   "/",
			RedirectHome:     "/",
			RedirectCallback: "/login",
		},
		Storage:            storage.DefaultOptions(),
		TokenPrefix:        "token.",
		IDTokenPrefix:      "id_token.",
		RefreshTokenPrefix: "refresh_token.",
	}
}

// AlwaysReset is a ResetOnError predicate that resets on every error.
func AlwaysReset(error, ErrorPayload) bool { return true }
