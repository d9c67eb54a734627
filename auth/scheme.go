package auth

import "context"

// Scheme is a login strategy. What it can do is expressed by the optional
// capability interfaces below; the orchestrator checks for each one before
// calling it and falls back to its own behaviour when it is missing.
type Scheme interface{}

// LoginParams are the arguments of a login attempt.
type LoginParams struct {
	Username string
	Password string

	// Remember controls whether the refresh token is kept. nil means keep it.
	Remember *bool

	// ForceRedirect overrides the next redirect target once.
	ForceRedirect string

	// Extra carries scheme specific parameters.
	Extra map[string]any
}

// Named is a scheme that stores its tokens under a fixed strategy name.
type Named interface {
	Name() string
}

// Mounter restores session state when the scheme becomes active.
type Mounter interface {
	Mounted(ctx context.Context) error
}

// LoginScheme performs a login.
type LoginScheme interface {
	Login(ctx context.Context, params LoginParams) error
}

// UserFetcher loads the current user.
type UserFetcher interface {
	FetchUser(ctx context.Context) error
}

// LogoutScheme ends the session.
type LogoutScheme interface {
	Logout(ctx context.Context) error
}

// Resetter replaces the default session reset.
type Resetter interface {
	Reset(ctx context.Context) error
}
