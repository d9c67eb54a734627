package openid

import (
	autherrors "github.com/jrsteele09/go-auth-session/internal/errors"
)

var (
	ErrMissingIDToken = autherrors.ErrMissingIDToken
	ErrInvalidIDToken = autherrors.ErrInvalidIDToken
)
