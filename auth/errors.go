package auth

import (
	autherrors "github.com/jrsteele09/go-auth-session/internal/errors"
)

var (
	ErrNoActiveStrategy = autherrors.ErrNoActiveStrategy
	ErrUnknownStrategy  = autherrors.ErrUnknownStrategy
)

// Method tags carried by ErrorPayload.
const (
	MethodMounted   = "mounted"
	MethodLogin     = "login"
	MethodFetchUser = "fetchUser"
	MethodLogout    = "logout"
	MethodReset     = "reset"
	MethodRequest   = "request"
)

// ErrorPayload identifies the operation that failed.
type ErrorPayload struct {
	Method string
}

// ErrorListener observes every failure broadcast by the orchestrator.
type ErrorListener func(err error, payload ErrorPayload)

// RedirectListener may rewrite a redirect target. Returning "" keeps the
// current target.
type RedirectListener func(to, from string) string
