package oauthmodel_test

import (
	"encoding/json"
	"net/url"
	"testing"
	"time"

	"github.com/jrsteele09/go-auth-session/oauthmodel"
	"github.com/stretchr/testify/require"
)

func TestPasswordGrantRequest(t *testing.T) {
	req := oauthmodel.PasswordGrantRequest{
		ClientID:     "web",
		ClientSecret: "secret",
		Scope:        "openid",
		State:        "s1",
		Username:     "jo@example.com",
		Password:     "pw",
	}
	values := req.Values()
	require.Equal(t, "password", values.Get("grant_type"))
	require.Equal(t, "s1", values.Get("state"))

	parsed, err := oauthmodel.ParseTokenRequest(values)
	require.NoError(t, err)
	require.Equal(t, oauthmodel.PasswordGrant, parsed.GrantType)
	require.Equal(t, req, parsed.Password)
	require.Equal(t, "web", parsed.ClientID())
	require.Equal(t, "secret", parsed.ClientSecret())
}

func TestRefreshGrantRequest(t *testing.T) {
	req := oauthmodel.RefreshGrantRequest{RefreshToken: "r1", ClientID: "web", Scope: "openid"}

	parsed, err := oauthmodel.ParseTokenRequest(req.Values())
	require.NoError(t, err)
	require.Equal(t, oauthmodel.RefreshTokenGrant, parsed.GrantType)
	require.Equal(t, "r1", parsed.Refresh.RefreshToken)
	require.Equal(t, "web", parsed.ClientID())
}

func TestParseTokenRequest_Errors(t *testing.T) {
	_, err := oauthmodel.ParseTokenRequest(url.Values{"grant_type": {"client_credentials"}})
	require.ErrorIs(t, err, oauthmodel.ErrUnsupportedGrant)

	_, err = oauthmodel.ParseTokenRequest(url.Values{"grant_type": {"password"}, "username": {"x"}})
	require.ErrorIs(t, err, oauthmodel.ErrMissingCredentials)

	_, err = oauthmodel.ParseTokenRequest(url.Values{"grant_type": {"refresh_token"}})
	require.ErrorIs(t, err, oauthmodel.ErrMissingRefresh)
}

func TestTokenResponse_OAuth2Token(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	r := oauthmodel.TokenResponse{AccessToken: "abc", TokenType: "Bearer", IDToken: "jwt", ExpiresIn: 3600}
	tok := r.OAuth2Token(now)
	require.Equal(t, now.Add(time.Hour), tok.Expiry)
	require.Equal(t, "jwt", tok.Extra("id_token"))
	require.Equal(t, 2*time.Hour, r.Lifetime(2))

	noExpiry := oauthmodel.TokenResponse{AccessToken: "abc"}
	require.True(t, noExpiry.OAuth2Token(now).Expiry.IsZero())
	require.Zero(t, noExpiry.Lifetime(1))
}

func TestTokenResponse_ExpiresIn(t *testing.T) {
	tests := []struct {
		name string
		body string
		want oauthmodel.Seconds
	}{
		{name: "integer", body: `{"access_token":"abc","expires_in":3600}`, want: 3600},
		{name: "fractional", body: `{"access_token":"abc","expires_in":3599.7}`, want: 3599},
		{name: "quoted", body: `{"access_token":"abc","expires_in":"3600"}`, want: 3600},
		{name: "empty string", body: `{"access_token":"abc","expires_in":""}`, want: 0},
		{name: "null", body: `{"access_token":"abc","expires_in":null}`, want: 0},
		{name: "absent", body: `{"access_token":"abc"}`, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r oauthmodel.TokenResponse
			require.NoError(t, json.Unmarshal([]byte(tt.body), &r))
			require.Equal(t, "abc", r.AccessToken)
			require.Equal(t, tt.want, r.ExpiresIn)
		})
	}

	t.Run("not a number", func(t *testing.T) {
		var r oauthmodel.TokenResponse
		require.Error(t, json.Unmarshal([]byte(`{"expires_in":"soon"}`), &r))
	})
}
