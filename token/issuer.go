package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/go-auth-session/internal/config"
	"github.com/jrsteele09/go-auth-session/oauthmodel"
	"github.com/jrsteele09/go-auth-session/token/refresh"
	"github.com/jrsteele09/go-auth-session/users"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

const tokenUseAccess = "access"

// Grant is what a token request was granted: who, for which client, with
// which scope, under which issuer URL.
type Grant struct {
	Issuer   string
	ClientID string
	Scope    string
	User     *users.User
}

// AccessClaims are the claims of a verified access token.
type AccessClaims struct {
	ID        string
	Subject   string
	ClientID  string
	Scope     string
	ExpiresAt time.Time
}

// Issuer mints and verifies the tokens handed out by the token endpoint.
type Issuer struct {
	signer  Signer
	config  config.OAuthConfig
	refresh *refresh.Manager
	revoked *Revocations
}

func NewIssuer(signer Signer, cfg config.OAuthConfig, refreshManager *refresh.Manager, revoked *Revocations) *Issuer {
	return &Issuer{
		signer:  signer,
		config:  cfg,
		refresh: refreshManager,
		revoked: revoked,
	}
}

// NewSigner signs with HS256 when a secret is configured, otherwise with a
// freshly generated RS256 key whose public half is published through JWKS.
func NewSigner(cfg config.OAuthConfig) (Signer, error) {
	if secret := cfg.GetSigningSecret(); secret != "" {
		return NewHMACSigner(secret), nil
	}
	keyPair, err := GenerateRSAKeyPair(uuid.New().String(), 2048)
	if err != nil {
		return nil, fmt.Errorf("[token NewSigner] %w", err)
	}
	return NewKeyPairSigner(keyPair), nil
}

// Signer returns the signer tokens are signed with.
func (i *Issuer) Signer() Signer {
	return i.signer
}

// Issue mints the full token triple for a grant.
func (i *Issuer) Issue(g Grant) (*oauthmodel.TokenResponse, error) {
	accessToken, err := i.accessToken(g)
	if err != nil {
		return nil, err
	}

	idToken, err := i.IDToken(g)
	if err != nil {
		return nil, err
	}

	refreshToken, err := i.refresh.Create(g.ClientID, g.User.ID, g.Scope, 2*i.config.GetAccessTokenExpiry())
	if err != nil {
		return nil, fmt.Errorf("[Issuer Issue] %w", err)
	}

	return &oauthmodel.TokenResponse{
		AccessToken:  accessToken,
		TokenType:    "Bearer",
		RefreshToken: refreshToken,
		IDToken:      idToken,
		ExpiresIn:    oauthmodel.Seconds(i.config.GetAccessTokenExpiry().Seconds()),
		Scope:        g.Scope,
	}, nil
}

// IDToken creates an OpenID Connect ID token carrying the user's identity claims.
func (i *Issuer) IDToken(g Grant) (string, error) {
	now := NowTimeFunc()
	claims := jwt.MapClaims{}
	for k, v := range g.User.Claims() {
		claims[k] = v
	}
	claims["iss"] = g.Issuer
	claims["aud"] = g.ClientID
	claims["iat"] = now.Unix()
	claims["exp"] = now.Add(i.config.GetAccessTokenExpiry()).Unix()
	claims["jti"] = uuid.New().String()

	signed, err := i.signer.Sign(claims)
	if err != nil {
		return "", fmt.Errorf("[Issuer IDToken] %w", err)
	}
	return signed, nil
}

func (i *Issuer) accessToken(g Grant) (string, error) {
	now := NowTimeFunc()
	claims := jwt.MapClaims{
		"iss":       g.Issuer,                                         // The issuer of the token
		"sub":       g.User.ID,                                        // The user the token was issued to
		"client_id": g.ClientID,                                       // The OAuth2 client that requested the token
		"scope":     g.Scope,                                          // OAuth2 scopes granted to this token
		"iat":       now.Unix(),                                       // Issued At
		"exp":       now.Add(i.config.GetAccessTokenExpiry()).Unix(), // Expiry
		"jti":       uuid.New().String(),                              // Unique token ID for revocation
		"token_use": tokenUseAccess,
	}

	signed, err := i.signer.Sign(claims)
	if err != nil {
		return "", fmt.Errorf("[Issuer accessToken] %w", err)
	}
	return signed, nil
}

// ParseAccessToken verifies an access token and returns its claims. Expired,
// revoked, and id tokens are rejected.
func (i *Issuer) ParseAccessToken(raw string) (*AccessClaims, error) {
	claims := jwt.MapClaims{}
	err := i.signer.Parse(raw, claims, jwt.WithTimeFunc(NowTimeFunc), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("[Issuer ParseAccessToken] %w: %w", ErrInvalidToken, err)
	}

	if use, _ := claims["token_use"].(string); use != tokenUseAccess {
		return nil, fmt.Errorf("[Issuer ParseAccessToken] not an access token: %w", ErrInvalidToken)
	}

	out := &AccessClaims{}
	out.ID, _ = claims["jti"].(string)
	out.Subject, _ = claims.GetSubject()
	out.ClientID, _ = claims["client_id"].(string)
	out.Scope, _ = claims["scope"].(string)
	if exp, _ := claims.GetExpirationTime(); exp != nil {
		out.ExpiresAt = exp.Time
	}

	if i.revoked.Revoked(out.ID) {
		return nil, ErrRevokedToken
	}
	return out, nil
}

// Revoke revokes the access token and every refresh token of its user.
func (i *Issuer) Revoke(rawAccessToken string) error {
	claims, err := i.ParseAccessToken(rawAccessToken)
	if err != nil {
		return err
	}

	i.revoked.Revoke(claims.ID, claims.ExpiresAt)
	return i.refresh.RevokeUser(claims.Subject)
}

// Redeem consumes a refresh token issued to clientID. Refresh tokens live
// twice as long as access tokens.
func (i *Issuer) Redeem(refreshToken, clientID string) (*refresh.Session, error) {
	rt, err := i.refresh.Redeem(refreshToken, clientID)
	if err != nil {
		return nil, fmt.Errorf("[Issuer Redeem] %w", err)
	}
	return rt, nil
}
