package oauthmodel

import (
	"time"

	"golang.org/x/oauth2"
)

// TokenResponse represents the response from the token endpoint.
// Returned for both the password and refresh_token grants.
type TokenResponse struct {
	// AccessToken is used to access protected resources.
	// Usage: sent as "<token_type> <access_token>" in the Authorization header
	AccessToken string `json:"access_token"`

	// TokenType indicates how to use the access token.
	TokenType string `json:"token_type,omitempty"`

	// RefreshToken is used to obtain new access tokens.
	// Optional on refresh responses; when absent the previous one stays valid
	RefreshToken string `json:"refresh_token,omitempty"`

	// IDToken is the OpenID Connect ID token carrying the identity claims.
	IDToken string `json:"id_token,omitempty"`

	// ExpiresIn is the lifetime in seconds of the access token.
	// Zero means the server declared no lifetime
	ExpiresIn Seconds `json:"expires_in,omitempty"`

	Scope string `json:"scope,omitempty"`
}

// Lifetime returns the declared lifetime scaled by factor, or zero when no
// lifetime was declared.
func (r *TokenResponse) Lifetime(factor int) time.Duration {
	if r.ExpiresIn <= 0 {
		return 0
	}
	return r.ExpiresIn.Duration() * time.Duration(factor)
}

// OAuth2Token converts the response into an *oauth2.Token whose expiry is
// computed from now. The id token is carried as the "id_token" extra.
func (r *TokenResponse) OAuth2Token(now time.Time) *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken:  r.AccessToken,
		TokenType:    r.TokenType,
		RefreshToken: r.RefreshToken,
		ExpiresIn:    int64(r.ExpiresIn),
	}
	if d := r.Lifetime(1); d > 0 {
		tok.Expiry = now.Add(d)
	}
	return tok.WithExtra(map[string]any{"id_token": r.IDToken})
}

// RevalidationResponse is returned by the revalidation endpoint when the
// identity changed since the entity tag the client presented.
type RevalidationResponse struct {
	IDToken   string `json:"id_token"`
	ExpiresIn Seconds `json:"expires_in,omitempty"`
}
