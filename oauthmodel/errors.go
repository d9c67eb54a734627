package oauthmodel

import "errors"

var (
	ErrMissingAccessToken = errors.New("token response has no access token")
	ErrUnsupportedGrant   = errors.New("unsupported grant type")
	ErrMissingCredentials = errors.New("missing username or password")
	ErrMissingRefresh     = errors.New("missing refresh token")
)
