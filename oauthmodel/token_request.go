package oauthmodel

import (
	"net/url"
)

// PasswordGrantRequest holds the fields of a password grant token request.
type PasswordGrantRequest struct {
	ClientID     string
	ClientSecret string
	Scope        string

	// State is a fresh anti-replay value for every attempt.
	State string

	Username string
	Password string
}

// Values encodes the request as a form body.
func (r PasswordGrantRequest) Values() url.Values {
	return url.Values{
		FieldClientID:     {r.ClientID},
		FieldClientSecret: {r.ClientSecret},
		FieldGrantType:    {string(PasswordGrant)},
		FieldScope:        {r.Scope},
		FieldState:        {r.State},
		FieldUsername:     {r.Username},
		FieldPassword:     {r.Password},
	}
}

// RefreshGrantRequest holds the fields of a refresh token grant request.
type RefreshGrantRequest struct {
	RefreshToken string
	ClientID     string
	ClientSecret string
	Scope        string
}

// Values encodes the request as a form body.
func (r RefreshGrantRequest) Values() url.Values {
	return url.Values{
		FieldGrantType:    {string(RefreshTokenGrant)},
		FieldRefreshToken: {r.RefreshToken},
		FieldClientID:     {r.ClientID},
		FieldClientSecret: {r.ClientSecret},
		FieldScope:        {r.Scope},
	}
}

// TokenRequest is the parsed form of any supported grant, as seen by a token endpoint.
type TokenRequest struct {
	GrantType GrantType
	Password  PasswordGrantRequest
	Refresh   RefreshGrantRequest
}

// ParseTokenRequest reads a token endpoint form.
func ParseTokenRequest(form url.Values) (*TokenRequest, error) {
	grant := GrantType(form.Get(FieldGrantType))
	switch grant {
	case PasswordGrant:
		req := PasswordGrantRequest{
			ClientID:     form.Get(FieldClientID),
			ClientSecret: form.Get(FieldClientSecret),
			Scope:        form.Get(FieldScope),
			State:        form.Get(FieldState),
			Username:     form.Get(FieldUsername),
			Password:     form.Get(FieldPassword),
		}
		if req.Username == "" || req.Password == "" {
			return nil, ErrMissingCredentials
		}
		return &TokenRequest{GrantType: grant, Password: req}, nil
	case RefreshTokenGrant:
		req := RefreshGrantRequest{
			RefreshToken: form.Get(FieldRefreshToken),
			ClientID:     form.Get(FieldClientID),
			ClientSecret: form.Get(FieldClientSecret),
			Scope:        form.Get(FieldScope),
		}
		if req.RefreshToken == "" {
			return nil, ErrMissingRefresh
		}
		return &TokenRequest{GrantType: grant, Refresh: req}, nil
	}
	return nil, ErrUnsupportedGrant
}

// ClientID returns the client identifier of whichever grant was parsed.
func (r *TokenRequest) ClientID() string {
	if r.GrantType == RefreshTokenGrant {
		return r.Refresh.ClientID
	}
	return r.Password.ClientID
}

// ClientSecret returns the client secret of whichever grant was parsed.
func (r *TokenRequest) ClientSecret() string {
	if r.GrantType == RefreshTokenGrant {
		return r.Refresh.ClientSecret
	}
	return r.Password.ClientSecret
}
