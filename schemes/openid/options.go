package openid

import (
	"github.com/jrsteele09/go-auth-session/oauthmodel"
)

// Options configures an OpenID password grant scheme.
type Options struct {
	// Name is the strategy name the scheme is registered under. Token keys
	// are qualified with it.
	Name string

	ClientID     string
	ClientSecret string
	GrantType    oauthmodel.GrantType
	// Scope is the space delimited scope requested on every grant.
	Scope string

	// TokenType prefixes the access token in storage and in the header.
	// Empty stores the bare token.
	TokenType string
	// TokenName is the request header carrying the access token.
	TokenName string

	AuthorizationEndpoint string
	TokenEndpoint         string
	// RevalidationEndpoint answers conditional requests with 304 when the
	// identity has not changed. Empty skips revalidation.
	RevalidationEndpoint string
	// LogoutEndpoint is notified on logout. Empty logs out locally only.
	LogoutEndpoint string

	// UserClaims restricts the id token claims copied into the user. Empty
	// copies every claim.
	UserClaims []string

	// Decoder turns the id token into claims. Nil decodes without verifying.
	Decoder Decoder
}

// DefaultOptions returns the scheme defaults.
func DefaultOptions() Options {
	return Options{
		Name:      "openid",
		GrantType: oauthmodel.PasswordGrant,
		Scope:     "openid",
		TokenType: "Bearer",
		TokenName: "Authorization",
	}
}
