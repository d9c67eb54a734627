package openid_test

import (
	"context"
	"net/http/httptest"
	"testing"

	fakeclientrepo "github.com/jrsteele09/go-auth-session/clients/fakerepo"
	"github.com/jrsteele09/go-auth-session/auth"
	"github.com/jrsteele09/go-auth-session/internal/config"
	"github.com/jrsteele09/go-auth-session/schemes/openid"
	"github.com/jrsteele09/go-auth-session/server"
	"github.com/jrsteele09/go-auth-session/storage"
	refreshrepofake "github.com/jrsteele09/go-auth-session/token/refresh/repofake"
	"github.com/jrsteele09/go-auth-session/transport"
	fakeuserrepo "github.com/jrsteele09/go-auth-session/users/repofake"
	"github.com/stretchr/testify/require"
)

const providerAdminPassword = "Passw0rdForTests"

func TestScheme_AgainstProvider(t *testing.T) {
	ctx := context.Background()

	t.Setenv("ENV", "TEST")
	t.Setenv("SIGNING_SECRET", "")
	t.Setenv("SYSTEM_ADMIN_USER", "admin")
	t.Setenv("SYSTEM_ADMIN_PASSWORD", providerAdminPassword)
	t.Setenv("SEED_CLIENT_ID", "cli")

	repos := server.Repos{
		Users:         fakeuserrepo.NewFakeUserRepo(),
		Clients:       fakeclientrepo.NewFakeClientRepo(),
		RefreshTokens: refreshrepofake.NewFakeRefreshTokenRepo(),
	}
	srv, err := server.New(config.New(), repos)
	require.NoError(t, err)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	t.Setenv("BASE_URL", ts.URL)
	require.NoError(t, srv.InitialiseSystem(config.New()))

	opts := openid.DefaultOptions()
	opts.ClientID = "cli"
	opts, err = openid.Discover(ctx, ts.URL, opts)
	require.NoError(t, err)
	require.Equal(t, ts.URL+server.RouteToken, opts.TokenEndpoint)
	require.Equal(t, ts.URL+server.RouteRevalidation, opts.RevalidationEndpoint)
	require.Equal(t, ts.URL+server.RouteLogout, opts.LogoutEndpoint)
	require.IsType(t, openid.VerifiedDecoder{}, opts.Decoder)

	doc, err := storage.NewJarDocument("http://localhost")
	require.NoError(t, err)
	client := transport.New(ts.Client())
	authOpts := auth.DefaultOptions()
	authOpts.DefaultStrategy = strategyName
	a := auth.New(auth.Context{
		Platform:  storage.BrowserPlatform{Document: doc},
		Transport: client,
	}, authOpts)
	a.RegisterScheme(openid.New(a, client, opts))
	a.Init(ctx)

	require.NoError(t, a.Login(ctx, auth.LoginParams{Username: "admin", Password: providerAdminPassword}))
	require.True(t, a.LoggedIn())
	require.Equal(t, "admin", a.User()["preferred_username"])
	require.Equal(t, "System Administrator", a.User()["name"])
	granted, ok := a.HasScope("admin")
	require.True(t, ok)
	require.True(t, granted)

	t.Run("unchanged identity keeps the id token", func(t *testing.T) {
		idToken := a.GetIDToken(strategyName)
		require.NoError(t, a.FetchUser(ctx))
		require.Equal(t, idToken, a.GetIDToken(strategyName))
	})

	t.Run("changed identity is picked up", func(t *testing.T) {
		user, err := repos.Users.GetByLogin("admin")
		require.NoError(t, err)
		user.FirstName = "Chief"

		require.NoError(t, a.FetchUser(ctx))
		require.Equal(t, "Chief Administrator", a.User()["name"])
	})

	t.Run("expired access token is refreshed", func(t *testing.T) {
		a.SetToken(strategyName, "", storage.CookieOptions{})
		require.NoError(t, a.FetchUser(ctx))
		require.NotEmpty(t, a.GetToken(strategyName))
		require.True(t, a.LoggedIn())
	})

	t.Run("logout revokes the session", func(t *testing.T) {
		accessToken := a.GetToken(strategyName)
		require.NoError(t, a.Logout(ctx))
		require.False(t, a.LoggedIn())

		client.SetHeader("Authorization", accessToken)
		_, err := client.Do(ctx, opts.RevalidationEndpoint, transport.Request{})
		require.Equal(t, 401, transport.StatusCode(err))
	})
}
