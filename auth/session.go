package auth

import (
	"slices"
	"strings"

	"github.com/jrsteele09/go-auth-session/internal/utils"
	"github.com/jrsteele09/go-auth-session/storage"
)

// User holds the identity claims of the logged in user.
type User map[string]any

// User returns the current user, or nil when anonymous.
func (a *Auth) User() User {
	switch u := a.storage.GetState(keyUser).(type) {
	case User:
		return u
	case map[string]any:
		return User(u)
	default:
		return nil
	}
}

// SetUser replaces the user. loggedIn is derived from it and written in the
// same update, so watchers of loggedIn always see the matching user.
func (a *Auth) SetUser(user User) {
	var value any
	if user != nil {
		value = user
	}
	a.storage.SetStates(
		storage.Entry{Key: keyUser, Value: value},
		storage.Entry{Key: keyLoggedIn, Value: user != nil},
	)
}

// LoggedIn reports whether a user is held.
func (a *Auth) LoggedIn() bool {
	v, _ := a.storage.GetState(keyLoggedIn).(bool)
	return v
}

// Busy reports whether a login is in flight.
func (a *Auth) Busy() bool {
	v, _ := a.storage.GetState(keyBusy).(bool)
	return v
}

// HasScope checks scope against the user's scopes found at ScopeKey. ok is
// false when the user carries no scopes at all, which means "unknown" rather
// than "denied".
func (a *Auth) HasScope(scope string) (granted, ok bool) {
	user := a.User()
	if user == nil {
		return false, false
	}

	scopes := utils.GetPath(map[string]any(user), a.opts.ScopeKey)
	if !utils.Truthy(scopes) {
		return false, false
	}

	switch s := scopes.(type) {
	case []any:
		return slices.Contains(utils.ToStringSlice(s), scope), true
	case []string:
		return slices.Contains(s, scope), true
	case string:
		// OAuth scope claims are space delimited.
		return slices.Contains(strings.Fields(s), scope), true
	}

	return utils.Truthy(utils.GetPath(scopes, scope)), true
}
