package openid

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-auth-session/auth"
	"github.com/jrsteele09/go-auth-session/oauthmodel"
	"github.com/jrsteele09/go-auth-session/storage"
	"github.com/jrsteele09/go-auth-session/transport"
	"golang.org/x/oauth2"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

var (
	_ auth.Mounter      = (*Scheme)(nil)
	_ auth.LoginScheme  = (*Scheme)(nil)
	_ auth.UserFetcher  = (*Scheme)(nil)
	_ auth.LogoutScheme = (*Scheme)(nil)
)

// Scheme drives the OpenID password grant lifecycle: login, token refresh,
// conditional revalidation of the identity, and logout. Session state is only
// ever written through the orchestrator.
type Scheme struct {
	auth      *auth.Auth
	transport transport.Transport
	opts      Options
}

// New creates a scheme bound to the orchestrator a. The transport must be the
// one a sends requests through, so the credential header set here is the one
// attached to every later request. Tokens are stored under opts.Name; register
// the scheme with auth.RegisterScheme so the strategy name matches.
func New(a *auth.Auth, t transport.Transport, opts Options) *Scheme {
	if opts.Decoder == nil {
		opts.Decoder = UnverifiedDecoder{}
	}
	return &Scheme{
		auth:      a,
		transport: t,
		opts:      opts,
	}
}

// Name returns the strategy name the scheme's tokens are stored under.
func (s *Scheme) Name() string {
	return s.opts.Name
}

// OAuth2Config describes the client to golang.org/x/oauth2.
func (s *Scheme) OAuth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     s.opts.ClientID,
		ClientSecret: s.opts.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:   s.opts.AuthorizationEndpoint,
			TokenURL:  s.opts.TokenEndpoint,
			AuthStyle: oauth2.AuthStyleInParams,
		},
		Scopes: strings.Fields(s.opts.Scope),
	}
}

// AuthorizationURL returns the provider's authorization page URL for state.
func (s *Scheme) AuthorizationURL(state string) string {
	return s.OAuth2Config().AuthCodeURL(state)
}

// Mounted restores the persisted access token into the credential header and
// loads the user if none is held yet. Without a token the header is cleared,
// so a previously active strategy's credential is never sent for this one.
func (s *Scheme) Mounted(ctx context.Context) error {
	if token := s.auth.SyncToken(s.opts.Name); token != "" {
		s.transport.SetHeader(s.opts.TokenName, token)
	} else {
		s.transport.ClearHeader(s.opts.TokenName)
	}
	return s.auth.FetchUserOnce(ctx)
}

// Login exchanges the user's credentials for a token triple, then loads the
// user. Any previous session is cleared first so credentials never mix.
func (s *Scheme) Login(ctx context.Context, params auth.LoginParams) error {
	if err := s.logoutLocally(ctx); err != nil {
		return err
	}

	grant := oauthmodel.PasswordGrantRequest{
		ClientID:     s.opts.ClientID,
		ClientSecret: s.opts.ClientSecret,
		Scope:        s.opts.Scope,
		State:        uuid.NewString(),
		Username:     params.Username,
		Password:     params.Password,
	}

	form := grant.Values()
	if s.opts.GrantType != "" {
		form.Set(oauthmodel.FieldGrantType, string(s.opts.GrantType))
	}

	tokens, err := s.requestTokens(ctx, form)
	if err != nil {
		return fmt.Errorf("[Scheme Login] %w", err)
	}

	remember := params.Remember == nil || *params.Remember
	s.setTokens(tokens, remember)

	return s.FetchUser(ctx)
}

// FetchUser loads the user. Without any token it does nothing. Without an
// access token it refreshes first. With an access token it revalidates the
// cached identity instead of refetching it.
func (s *Scheme) FetchUser(ctx context.Context) error {
	token := s.auth.GetToken(s.opts.Name)
	refreshToken := s.auth.GetRefreshToken(s.opts.Name)

	if token == "" && refreshToken == "" {
		return nil
	}

	if token == "" {
		s.transport.ClearHeader(s.opts.TokenName)

		grant := oauthmodel.RefreshGrantRequest{
			RefreshToken: refreshToken,
			ClientID:     s.opts.ClientID,
			ClientSecret: s.opts.ClientSecret,
			Scope:        s.opts.Scope,
		}
		tokens, err := s.requestTokens(ctx, grant.Values())
		if err != nil {
			return fmt.Errorf("[Scheme FetchUser] refresh: %w", err)
		}
		if tokens.RefreshToken == "" {
			tokens.RefreshToken = refreshToken
		}
		s.setTokens(tokens, true)

		return s.updateUser(ctx)
	}

	return s.checkChangeUser(ctx)
}

// Logout notifies the provider, then always clears the local session. A
// failed notification is returned after the local session is gone.
func (s *Scheme) Logout(ctx context.Context) error {
	var notifyErr error
	if s.opts.LogoutEndpoint != "" {
		_, notifyErr = s.auth.Request(ctx, s.opts.LogoutEndpoint, transport.Request{Method: http.MethodPost})
	}

	if err := s.logoutLocally(ctx); err != nil {
		return err
	}

	if notifyErr != nil {
		return fmt.Errorf("[Scheme Logout] %w", notifyErr)
	}
	return nil
}

func (s *Scheme) logoutLocally(ctx context.Context) error {
	s.transport.ClearHeader(s.opts.TokenName)
	return s.auth.Reset(ctx)
}

func (s *Scheme) requestTokens(ctx context.Context, form url.Values) (*oauthmodel.TokenResponse, error) {
	resp, err := s.auth.Request(ctx, s.opts.TokenEndpoint, transport.Request{
		Method: http.MethodPost,
		Form:   form,
	})
	if err != nil {
		return nil, err
	}

	var tokens oauthmodel.TokenResponse
	if err := resp.Decode(&tokens); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}
	if tokens.AccessToken == "" {
		return nil, oauthmodel.ErrMissingAccessToken
	}
	return &tokens, nil
}

// setTokens stores the triple and attaches the access token to later
// requests. Expiries are computed here from expires_in; a response without
// one yields session cookies. The refresh token lives twice as long.
func (s *Scheme) setTokens(tokens *oauthmodel.TokenResponse, remember bool) {
	now := NowTimeFunc()
	tok := tokens.OAuth2Token(now)

	access := tok.AccessToken
	if s.opts.TokenType != "" {
		access = s.opts.TokenType + " " + access
	}

	expires := storage.CookieOptions{Expires: tok.Expiry}
	s.auth.SetToken(s.opts.Name, access, expires)

	if remember {
		refreshExpires := storage.CookieOptions{}
		if d := tokens.Lifetime(2); d > 0 {
			refreshExpires.Expires = now.Add(d)
		}
		s.auth.SetRefreshToken(s.opts.Name, tok.RefreshToken, refreshExpires)
	}

	idToken, _ := tok.Extra("id_token").(string)
	s.auth.SetIDToken(s.opts.Name, idToken, expires)

	s.transport.SetHeader(s.opts.TokenName, access)
}

// updateUser derives the user from the stored id token.
func (s *Scheme) updateUser(ctx context.Context) error {
	idToken := s.auth.GetIDToken(s.opts.Name)
	if idToken == "" {
		return fmt.Errorf("[Scheme updateUser] %w", ErrMissingIDToken)
	}

	claims, err := s.opts.Decoder.Decode(ctx, idToken)
	if err != nil {
		return err
	}

	s.auth.SetUser(s.userFromClaims(claims))
	return nil
}

func (s *Scheme) userFromClaims(claims map[string]any) auth.User {
	if len(s.opts.UserClaims) == 0 {
		return auth.User(claims)
	}
	user := make(auth.User, len(s.opts.UserClaims))
	for _, name := range s.opts.UserClaims {
		if v, ok := claims[name]; ok {
			user[name] = v
		}
	}
	return user
}
