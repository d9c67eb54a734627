package token_test

import (
	"crypto/rsa"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-auth-session/oauthmodel"
	"github.com/jrsteele09/go-auth-session/token"
	"github.com/jrsteele09/go-auth-session/token/refresh"
	refreshrepofake "github.com/jrsteele09/go-auth-session/token/refresh/repofake"
	"github.com/jrsteele09/go-auth-session/users"
	"github.com/stretchr/testify/require"
)

const (
	testIssuer   = "http://provider.test"
	testClientID = "web"
)

type testOAuthConfig struct {
	secret string
	expiry time.Duration
}

func (c testOAuthConfig) GetSigningSecret() string             { return c.secret }
func (c testOAuthConfig) GetAccessTokenExpiry() time.Duration { return c.expiry }
func (c testOAuthConfig) GetRefreshTokenLength() int          { return 32 }

type testFixture struct {
	now    time.Time
	issuer *token.Issuer
	user   *users.User
}

func setupTestFixture(t *testing.T, secret string) *testFixture {
	t.Helper()

	f := &testFixture{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	token.NowTimeFunc = func() time.Time { return f.now }
	refresh.NowTimeFunc = func() time.Time { return f.now }
	t.Cleanup(func() {
		token.NowTimeFunc = time.Now
		refresh.NowTimeFunc = time.Now
	})

	cfg := testOAuthConfig{secret: secret, expiry: time.Hour}
	signer, err := token.NewSigner(cfg)
	require.NoError(t, err)

	f.issuer = token.NewIssuer(signer, cfg,
		refresh.NewManager(refreshrepofake.NewFakeRefreshTokenRepo(), cfg),
		token.NewRevocations())
	f.user = &users.User{ID: "u1", Email: "bob@example.com", Username: "bob", FirstName: "Bob", Scopes: []string{"read"}}
	return f
}

func (f *testFixture) grant() token.Grant {
	return token.Grant{Issuer: testIssuer, ClientID: testClientID, Scope: "openid", User: f.user}
}

func TestIssuer_Issue(t *testing.T) {
	t.Run("rs256 triple", func(t *testing.T) {
		f := setupTestFixture(t, "")
		resp, err := f.issuer.Issue(f.grant())
		require.NoError(t, err)
		require.Equal(t, "Bearer", resp.TokenType)
		require.Equal(t, oauthmodel.Seconds(3600), resp.ExpiresIn)
		require.Len(t, resp.RefreshToken, 64)

		jwks, err := f.issuer.Signer().KeySet()
		require.NoError(t, err)
		require.Len(t, jwks.Keys, 1)
		require.Equal(t, "RSA", jwks.Keys[0].Kty)

		unverified, _, err := jwt.NewParser().ParseUnverified(resp.IDToken, jwt.MapClaims{})
		require.NoError(t, err)
		require.Equal(t, jwks.Keys[0].Kid, unverified.Header["kid"])

		claims := jwt.MapClaims{}
		require.NoError(t, f.issuer.Signer().Parse(resp.IDToken, claims, jwt.WithTimeFunc(token.NowTimeFunc)))
		require.Equal(t, testIssuer, claims["iss"])
		require.Equal(t, testClientID, claims["aud"])
		require.Equal(t, "bob@example.com", claims["email"])
		require.Equal(t, "u1", claims["sub"])
	})

	t.Run("access token round trip", func(t *testing.T) {
		f := setupTestFixture(t, "secret")
		resp, err := f.issuer.Issue(f.grant())
		require.NoError(t, err)

		claims, err := f.issuer.ParseAccessToken(resp.AccessToken)
		require.NoError(t, err)
		require.Equal(t, "u1", claims.Subject)
		require.Equal(t, testClientID, claims.ClientID)
		require.Equal(t, f.now.Add(time.Hour).Unix(), claims.ExpiresAt.Unix())
	})

	t.Run("id token is not an access token", func(t *testing.T) {
		f := setupTestFixture(t, "secret")
		resp, err := f.issuer.Issue(f.grant())
		require.NoError(t, err)

		_, err = f.issuer.ParseAccessToken(resp.IDToken)
		require.ErrorIs(t, err, token.ErrInvalidToken)
	})

	t.Run("expired access token", func(t *testing.T) {
		f := setupTestFixture(t, "secret")
		resp, err := f.issuer.Issue(f.grant())
		require.NoError(t, err)

		f.now = f.now.Add(2 * time.Hour)
		_, err = f.issuer.ParseAccessToken(resp.AccessToken)
		require.ErrorIs(t, err, token.ErrInvalidToken)
	})
}

func TestIssuer_RefreshAndRevoke(t *testing.T) {
	t.Run("refresh token is single use", func(t *testing.T) {
		f := setupTestFixture(t, "secret")
		resp, err := f.issuer.Issue(f.grant())
		require.NoError(t, err)

		rt, err := f.issuer.Redeem(resp.RefreshToken, testClientID)
		require.NoError(t, err)
		require.Equal(t, "u1", rt.UserID)

		_, err = f.issuer.Redeem(resp.RefreshToken, testClientID)
		require.ErrorIs(t, err, refresh.ErrNotFound)
	})

	t.Run("refresh token bound to client", func(t *testing.T) {
		f := setupTestFixture(t, "secret")
		resp, err := f.issuer.Issue(f.grant())
		require.NoError(t, err)

		_, err = f.issuer.Redeem(resp.RefreshToken, "other")
		require.ErrorIs(t, err, refresh.ErrNotFound)

		_, err = f.issuer.Redeem(resp.RefreshToken, testClientID)
		require.NoError(t, err)
	})

	t.Run("one refresh token per client", func(t *testing.T) {
		f := setupTestFixture(t, "secret")
		first, err := f.issuer.Issue(f.grant())
		require.NoError(t, err)
		second, err := f.issuer.Issue(f.grant())
		require.NoError(t, err)

		other := f.grant()
		other.ClientID = "cli"
		cli, err := f.issuer.Issue(other)
		require.NoError(t, err)

		_, err = f.issuer.Redeem(first.RefreshToken, testClientID)
		require.ErrorIs(t, err, refresh.ErrNotFound)
		_, err = f.issuer.Redeem(second.RefreshToken, testClientID)
		require.NoError(t, err)
		_, err = f.issuer.Redeem(cli.RefreshToken, "cli")
		require.NoError(t, err)
	})

	t.Run("refresh token expires", func(t *testing.T) {
		f := setupTestFixture(t, "secret")
		resp, err := f.issuer.Issue(f.grant())
		require.NoError(t, err)

		f.now = f.now.Add(3 * time.Hour)
		_, err = f.issuer.Redeem(resp.RefreshToken, testClientID)
		require.ErrorIs(t, err, refresh.ErrNotFound)
	})

	t.Run("revoke", func(t *testing.T) {
		f := setupTestFixture(t, "secret")
		resp, err := f.issuer.Issue(f.grant())
		require.NoError(t, err)

		require.NoError(t, f.issuer.Revoke(resp.AccessToken))
		_, err = f.issuer.ParseAccessToken(resp.AccessToken)
		require.ErrorIs(t, err, token.ErrRevokedToken)
		_, err = f.issuer.Redeem(resp.RefreshToken, testClientID)
		require.Error(t, err)
	})
}

func TestSigner(t *testing.T) {
	t.Run("shared secret publishes no keys", func(t *testing.T) {
		signer := token.NewHMACSigner("secret")
		require.Equal(t, "HS256", signer.Algorithm())
		jwks, err := signer.KeySet()
		require.NoError(t, err)
		require.Empty(t, jwks.Keys)
	})

	t.Run("rejects a token signed with another algorithm", func(t *testing.T) {
		kp, err := token.GenerateECDSAKeyPair("k3")
		require.NoError(t, err)
		raw, err := token.NewKeyPairSigner(kp).Sign(jwt.MapClaims{"sub": "u1"})
		require.NoError(t, err)

		err = token.NewHMACSigner("secret").Parse(raw, jwt.MapClaims{})
		require.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
	})

	t.Run("round trip", func(t *testing.T) {
		signer := token.NewHMACSigner("secret")
		raw, err := signer.Sign(jwt.MapClaims{"sub": "u1"})
		require.NoError(t, err)

		claims := jwt.MapClaims{}
		require.NoError(t, signer.Parse(raw, claims))
		require.Equal(t, "u1", claims["sub"])
	})
}

func TestKeyPair(t *testing.T) {
	t.Run("rsa", func(t *testing.T) {
		kp, err := token.GenerateRSAKeyPair("k1", 1024)
		require.NoError(t, err)
		require.Equal(t, 2048, kp.Private.(*rsa.PrivateKey).N.BitLen())
		require.Equal(t, jwt.SigningMethodRS256, kp.Method)
	})

	t.Run("ecdsa jwk", func(t *testing.T) {
		kp, err := token.GenerateECDSAKeyPair("k2")
		require.NoError(t, err)
		jwk, err := kp.JWK()
		require.NoError(t, err)
		require.Equal(t, "EC", jwk.Kty)
		require.Equal(t, "P-256", jwk.Crv)
		require.Equal(t, "ES256", jwk.Alg)
		require.Len(t, jwk.X, 43)
		require.Len(t, jwk.Y, 43)
	})
}

func TestRevocations(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	token.NowTimeFunc = func() time.Time { return now }
	t.Cleanup(func() { token.NowTimeFunc = time.Now })

	r := token.NewRevocations()
	r.Revoke("a", now.Add(time.Minute))
	require.True(t, r.Revoked("a"))
	require.False(t, r.Revoked("b"))

	now = now.Add(2 * time.Minute)
	require.False(t, r.Revoked("a"))

	r.Revoke("b", now.Add(time.Minute))
	require.Equal(t, 1, r.Len())
}
