package errors

import (
	"errors"
)

// Common error types shared by the session packages
var (
	// Session errors
	ErrNoActiveStrategy = errors.New("no active strategy")
	ErrUnknownStrategy  = errors.New("unknown strategy")

	// Token errors
	ErrMissingIDToken = errors.New("missing id token")
	ErrInvalidIDToken = errors.New("invalid id token")
)
