package auth_test

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/jrsteele09/go-auth-session/auth"
	"github.com/jrsteele09/go-auth-session/storage"
	"github.com/stretchr/testify/require"
)

const strategyName = "local"

type fakeScheme struct {
	a *auth.Auth

	mountErr  error
	loginErr  error
	logoutErr error

	mounts       int
	logins       int
	fetches      int
	busyInLogin  bool
	lastErrLogin error
}

func (s *fakeScheme) Mounted(ctx context.Context) error {
	s.mounts++
	return s.mountErr
}

func (s *fakeScheme) Login(ctx context.Context, params auth.LoginParams) error {
	s.logins++
	s.busyInLogin = s.a.Busy()
	s.lastErrLogin = s.a.LastError()
	if s.loginErr != nil {
		return s.loginErr
	}
	s.a.SetToken(strategyName, "Bearer "+params.Username, storage.CookieOptions{})
	return s.FetchUser(ctx)
}

func (s *fakeScheme) FetchUser(ctx context.Context) error {
	s.fetches++
	if s.a.GetToken(strategyName) == "" {
		return nil
	}
	s.a.SetUser(auth.User{"sub": "u1", "scope": []any{"read", "write"}})
	return nil
}

func (s *fakeScheme) Logout(ctx context.Context) error {
	err := s.logoutErr
	_ = s.a.Reset(ctx)
	return err
}

type namedScheme struct {
	name string
}

func (s namedScheme) Name() string { return s.name }

type resettingScheme struct {
	resets int
}

func (s *resettingScheme) Reset(ctx context.Context) error {
	s.resets++
	return errors.New("reset failed")
}

type fakeNavigator struct {
	route     auth.Route
	redirects []string
	replaced  []string
}

func (n *fakeNavigator) Route() auth.Route { return n.route }

func (n *fakeNavigator) Redirect(to string, query url.Values) {
	n.redirects = append(n.redirects, to)
}

func (n *fakeNavigator) Replace(to string) {
	n.replaced = append(n.replaced, to)
}

type testFixture struct {
	doc    *storage.JarDocument
	host   *storage.Store
	nav    *fakeNavigator
	auth   *auth.Auth
	scheme *fakeScheme
}

func setupTestFixture(t *testing.T, mutate func(*auth.Options)) *testFixture {
	t.Helper()

	doc, err := storage.NewJarDocument("http://localhost")
	require.NoError(t, err)

	opts := auth.DefaultOptions()
	opts.DefaultStrategy = strategyName
	if mutate != nil {
		mutate(&opts)
	}

	f := &testFixture{
		doc:  doc,
		host: storage.NewStore(nil),
		nav:  &fakeNavigator{route: auth.Route{Path: "/"}},
	}
	f.auth = auth.New(auth.Context{
		Platform:  storage.BrowserPlatform{Document: doc},
		Store:     f.host,
		Navigator: f.nav,
	}, opts)
	f.scheme = &fakeScheme{a: f.auth}
	f.auth.RegisterStrategy(strategyName, f.scheme)
	return f
}

func TestAuth_Init(t *testing.T) {
	ctx := context.Background()

	t.Run("initial state is anonymous", func(t *testing.T) {
		f := setupTestFixture(t, nil)
		require.Nil(t, f.auth.User())
		require.False(t, f.auth.LoggedIn())
		require.Equal(t, false, f.host.Get("auth.loggedIn"))
	})

	t.Run("default strategy is persisted and mounted", func(t *testing.T) {
		f := setupTestFixture(t, nil)
		f.auth.Init(ctx)

		require.Equal(t, strategyName, f.auth.StrategyName())
		require.Same(t, f.scheme, f.auth.Strategy())
		require.Equal(t, 1, f.scheme.mounts)
		require.Contains(t, f.doc.Cookie(), "auth.strategy=local")
	})

	t.Run("unknown persisted strategy falls back to default", func(t *testing.T) {
		f := setupTestFixture(t, nil)
		f.doc.SetCookie("auth.strategy=ghost; Path=/")

		f.auth.Init(ctx)
		require.Equal(t, strategyName, f.auth.StrategyName())
		require.Equal(t, 1, f.scheme.mounts)
	})

	t.Run("no valid strategy stays anonymous", func(t *testing.T) {
		f := setupTestFixture(t, func(o *auth.Options) { o.DefaultStrategy = "" })
		f.auth.Init(ctx)

		require.Nil(t, f.auth.Strategy())
		require.Zero(t, f.scheme.mounts)
		require.False(t, f.auth.LoggedIn())
	})

	t.Run("mount failure is broadcast once and swallowed", func(t *testing.T) {
		f := setupTestFixture(t, nil)
		f.scheme.mountErr = errors.New("boom")

		var methods []string
		f.auth.OnError(func(err error, payload auth.ErrorPayload) {
			methods = append(methods, payload.Method)
		})

		f.auth.Init(ctx)
		require.Equal(t, []string{auth.MethodMounted}, methods)
		require.ErrorIs(t, f.auth.LastError(), f.scheme.mountErr)
	})

	t.Run("set strategy with the active name does not remount", func(t *testing.T) {
		f := setupTestFixture(t, nil)
		f.auth.Init(ctx)
		require.Equal(t, 1, f.scheme.mounts)

		require.NoError(t, f.auth.SetStrategy(ctx, strategyName))
		require.NoError(t, f.auth.SetStrategy(ctx, strategyName))
		require.Equal(t, 1, f.scheme.mounts)
	})
}

func TestAuth_FetchUserOnce(t *testing.T) {
	ctx := context.Background()

	t.Run("fetch user once skips when a user is held", func(t *testing.T) {
		f := setupTestFixture(t, nil)
		f.auth.Init(ctx)
		f.auth.SetUser(auth.User{"sub": "u1"})

		require.NoError(t, f.auth.FetchUserOnce(ctx))
		require.NoError(t, f.auth.FetchUserOnce(ctx))
		require.Zero(t, f.scheme.fetches)
	})

	t.Run("fetches until a user is loaded", func(t *testing.T) {
		f := setupTestFixture(t, nil)
		f.auth.Init(ctx)
		f.auth.SetToken(strategyName, "Bearer abc", storage.CookieOptions{})

		require.NoError(t, f.auth.FetchUserOnce(ctx))
		require.True(t, f.auth.LoggedIn())
		require.NoError(t, f.auth.FetchUserOnce(ctx))
		require.Equal(t, 1, f.scheme.fetches)
	})
}

func TestAuth_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("busy during login only", func(t *testing.T) {
		f := setupTestFixture(t, nil)
		f.auth.Init(ctx)

		require.NoError(t, f.auth.Login(ctx, auth.LoginParams{Username: "bob"}))
		require.True(t, f.scheme.busyInLogin)
		require.False(t, f.auth.Busy())
		require.True(t, f.auth.LoggedIn())
		require.Equal(t, "Bearer bob", f.auth.GetToken(strategyName))
	})

	t.Run("failure is broadcast and returned", func(t *testing.T) {
		f := setupTestFixture(t, nil)
		f.auth.Init(ctx)
		f.scheme.loginErr = errors.New("invalid_grant")

		var got []auth.ErrorPayload
		f.auth.OnError(func(err error, payload auth.ErrorPayload) { got = append(got, payload) })

		err := f.auth.Login(ctx, auth.LoginParams{Username: "bob"})
		require.ErrorIs(t, err, f.scheme.loginErr)
		require.Equal(t, []auth.ErrorPayload{{Method: auth.MethodLogin}}, got)
		require.False(t, f.auth.Busy())
		require.ErrorIs(t, f.auth.LastError(), f.scheme.loginErr)

		// The next attempt starts with a clean error.
		f.scheme.loginErr = nil
		require.NoError(t, f.auth.Login(ctx, auth.LoginParams{Username: "bob"}))
		require.NoError(t, f.scheme.lastErrLogin)
		require.NoError(t, f.auth.LastError())
	})

	t.Run("no active strategy", func(t *testing.T) {
		f := setupTestFixture(t, func(o *auth.Options) { o.DefaultStrategy = "" })
		f.auth.Init(ctx)

		err := f.auth.Login(ctx, auth.LoginParams{})
		require.ErrorIs(t, err, auth.ErrNoActiveStrategy)
	})

	t.Run("login with unknown strategy", func(t *testing.T) {
		f := setupTestFixture(t, nil)
		f.auth.Init(ctx)

		err := f.auth.LoginWith(ctx, "ghost", auth.LoginParams{})
		require.ErrorIs(t, err, auth.ErrUnknownStrategy)
		require.Equal(t, strategyName, f.auth.StrategyName())
	})

	t.Run("login with switches strategy and mounts it", func(t *testing.T) {
		f := setupTestFixture(t, nil)
		f.auth.Init(ctx)

		other := &fakeScheme{a: f.auth}
		f.auth.RegisterStrategy("other", other)

		require.NoError(t, f.auth.LoginWith(ctx, "other", auth.LoginParams{Username: "amy"}))
		require.Equal(t, "other", f.auth.StrategyName())
		require.Equal(t, 1, other.mounts)
		require.Equal(t, 1, other.logins)
		require.Contains(t, f.doc.Cookie(), "auth.strategy=other")
	})
}

func TestAuth_SessionState(t *testing.T) {
	ctx := context.Background()

	t.Run("loggedIn is observed together with user", func(t *testing.T) {
		f := setupTestFixture(t, nil)

		var userSeen []any
		f.host.Watch("auth.loggedIn", func(v any) {
			userSeen = append(userSeen, f.host.Get("auth.user"))
		})

		f.auth.SetUser(auth.User{"sub": "u1"})
		f.auth.SetUser(nil)

		require.Len(t, userSeen, 2)
		require.Equal(t, auth.User{"sub": "u1"}, userSeen[0])
		require.Nil(t, userSeen[1])
	})

	t.Run("unset token removes both layers", func(t *testing.T) {
		f := setupTestFixture(t, nil)

		f.auth.SetRefreshToken(strategyName, "r1", storage.CookieOptions{})
		require.Contains(t, f.doc.Cookie(), "auth.refresh_token.local=r1")

		f.auth.SetRefreshToken(strategyName, "", storage.CookieOptions{})
		require.Empty(t, f.auth.GetRefreshToken(strategyName))
		require.NotContains(t, f.doc.Cookie(), "auth.refresh_token.local")
		require.False(t, f.host.Has("auth.refresh_token.local"))
	})

	t.Run("token is restored from cookie", func(t *testing.T) {
		f := setupTestFixture(t, nil)
		f.doc.SetCookie("auth.token.local=Bearer%20abc; Path=/")

		require.Equal(t, "Bearer abc", f.auth.SyncToken(strategyName))
		require.Equal(t, "Bearer abc", f.host.Get("auth.token.local"))
	})

	t.Run("default reset", func(t *testing.T) {
		f := setupTestFixture(t, nil)
		f.auth.Init(ctx)
		require.NoError(t, f.auth.Login(ctx, auth.LoginParams{Username: "bob"}))
		f.auth.SetIDToken(strategyName, "jwt", storage.CookieOptions{})
		f.auth.SetRefreshToken(strategyName, "r1", storage.CookieOptions{})
		f.auth.Storage().SetState("_etag.local", `"v1"`)

		require.NoError(t, f.auth.Reset(ctx))
		require.Nil(t, f.auth.User())
		require.False(t, f.auth.LoggedIn())
		require.Empty(t, f.auth.GetToken(strategyName))
		require.Empty(t, f.auth.GetIDToken(strategyName))
		require.Empty(t, f.auth.GetRefreshToken(strategyName))
		require.Nil(t, f.auth.Storage().GetState("_etag.local"))
		require.Equal(t, strategyName, f.auth.StrategyName())
	})

	t.Run("default reset clears tokens under the scheme's own name", func(t *testing.T) {
		f := setupTestFixture(t, nil)
		f.auth.RegisterStrategy("alias", namedScheme{name: "real"})
		f.auth.Init(ctx)
		require.NoError(t, f.auth.SetStrategy(ctx, "alias"))
		f.auth.SetToken("real", "Bearer abc", storage.CookieOptions{})
		f.auth.SetRefreshToken("real", "r1", storage.CookieOptions{})

		require.NoError(t, f.auth.Reset(ctx))
		require.Empty(t, f.auth.GetToken("real"))
		require.Empty(t, f.auth.GetRefreshToken("real"))
	})

	t.Run("register scheme uses its name", func(t *testing.T) {
		f := setupTestFixture(t, nil)
		f.auth.RegisterScheme(namedScheme{name: "real"})
		f.auth.Init(ctx)

		require.NoError(t, f.auth.SetStrategy(ctx, "real"))
		require.Equal(t, namedScheme{name: "real"}, f.auth.Strategy())
	})

	t.Run("logout without scheme logout resets", func(t *testing.T) {
		f := setupTestFixture(t, nil)
		f.auth.RegisterStrategy("plain", struct{}{})
		f.auth.Init(ctx)
		require.NoError(t, f.auth.SetStrategy(ctx, "plain"))
		f.auth.SetUser(auth.User{"sub": "u1"})

		require.NoError(t, f.auth.Logout(ctx))
		require.False(t, f.auth.LoggedIn())
	})

	t.Run("logout failure is broadcast after local reset", func(t *testing.T) {
		f := setupTestFixture(t, nil)
		f.auth.Init(ctx)
		require.NoError(t, f.auth.Login(ctx, auth.LoginParams{Username: "bob"}))
		f.scheme.logoutErr = errors.New("network down")

		var methods []string
		f.auth.OnError(func(err error, payload auth.ErrorPayload) { methods = append(methods, payload.Method) })

		err := f.auth.Logout(ctx)
		require.ErrorIs(t, err, f.scheme.logoutErr)
		require.Equal(t, []string{auth.MethodLogout}, methods)
		require.False(t, f.auth.LoggedIn())
		require.Empty(t, f.auth.GetToken(strategyName))
	})

	t.Run("reset on error", func(t *testing.T) {
		f := setupTestFixture(t, func(o *auth.Options) { o.ResetOnError = auth.AlwaysReset })
		f.auth.Init(ctx)
		require.NoError(t, f.auth.Login(ctx, auth.LoginParams{Username: "bob"}))

		f.auth.CallOnError(errors.New("401"), auth.ErrorPayload{Method: auth.MethodRequest})
		require.False(t, f.auth.LoggedIn())
		require.Empty(t, f.auth.GetToken(strategyName))
	})

	t.Run("failing scheme reset does not recurse", func(t *testing.T) {
		f := setupTestFixture(t, func(o *auth.Options) { o.ResetOnError = auth.AlwaysReset })
		r := &resettingScheme{}
		f.auth.RegisterStrategy(strategyName, r)
		f.auth.Init(ctx)

		f.auth.CallOnError(errors.New("boom"), auth.ErrorPayload{Method: auth.MethodRequest})
		require.Equal(t, 1, r.resets)
	})
}

func TestAuth_HasScope(t *testing.T) {
	tests := []struct {
		name     string
		user     auth.User
		scopeKey string
		scope    string
		granted  bool
		ok       bool
	}{
		{name: "anonymous", scope: "read"},
		{name: "no scopes", user: auth.User{"sub": "u1"}, scope: "read"},
		{name: "array member", user: auth.User{"scope": []any{"read"}}, scope: "read", granted: true, ok: true},
		{name: "array non member", user: auth.User{"scope": []any{"read"}}, scope: "admin", ok: true},
		{name: "string list", user: auth.User{"scope": "openid read"}, scope: "read", granted: true, ok: true},
		{name: "empty array", user: auth.User{"scope": []any{}}, scope: "read", ok: true},
		{
			name:     "nested object",
			user:     auth.User{"perms": map[string]any{"scopes": map[string]any{"admin": true, "read": false}}},
			scopeKey: "perms.scopes",
			scope:    "admin",
			granted:  true,
			ok:       true,
		},
		{
			name:     "nested object falsy",
			user:     auth.User{"perms": map[string]any{"scopes": map[string]any{"read": false}}},
			scopeKey: "perms.scopes",
			scope:    "read",
			ok:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupTestFixture(t, func(o *auth.Options) {
				if tt.scopeKey != "" {
					o.ScopeKey = tt.scopeKey
				}
			})
			if tt.user != nil {
				f.auth.SetUser(tt.user)
			}

			granted, ok := f.auth.HasScope(tt.scope)
			require.Equal(t, tt.granted, granted)
			require.Equal(t, tt.ok, ok)
		})
	}
}

func TestAuth_Redirect(t *testing.T) {
	ctx := context.Background()

	t.Run("login remembers the page and home returns to it", func(t *testing.T) {
		f := setupTestFixture(t, func(o *auth.Options) { o.WatchLoggedIn = false })
		f.nav.route = auth.Route{Path: "/secret"}

		f.auth.Redirect(auth.RedirectLogin, false)
		require.Equal(t, []string{"/login"}, f.nav.redirects)
		require.Equal(t, "/secret", f.auth.Storage().GetUniversal("redirect"))

		f.nav.route = auth.Route{Path: "/login"}
		f.auth.Redirect(auth.RedirectHome, false)
		require.Equal(t, []string{"/login", "/secret"}, f.nav.redirects)
		require.Nil(t, f.auth.Storage().GetUniversal("redirect"))
	})

	t.Run("unsafe remembered path is ignored", func(t *testing.T) {
		f := setupTestFixture(t, nil)
		f.auth.Storage().SetUniversal("redirect", "//evil.example", storage.CookieOptions{})
		f.nav.route = auth.Route{Path: "/login"}

		f.auth.Redirect(auth.RedirectHome, false)
		require.Equal(t, []string{"/"}, f.nav.redirects)
	})

	t.Run("self redirect is a no-op", func(t *testing.T) {
		f := setupTestFixture(t, nil)
		f.nav.route = auth.Route{Path: "/", FullPath: "/?tab=1"}

		f.auth.Redirect(auth.RedirectHome, false)
		require.Empty(t, f.nav.redirects)
	})

	t.Run("listeners reduce the target", func(t *testing.T) {
		f := setupTestFixture(t, nil)
		f.nav.route = auth.Route{Path: "/login"}

		var seen []string
		f.auth.OnRedirect(func(to, from string) string { seen = append(seen, to); return "/first" })
		f.auth.OnRedirect(func(to, from string) string { seen = append(seen, to); return "" })
		f.auth.OnRedirect(func(to, from string) string { seen = append(seen, to); return "/final" })

		f.auth.Redirect(auth.RedirectHome, false)
		require.Equal(t, []string{"/", "/first", "/first"}, seen)
		require.Equal(t, []string{"/final"}, f.nav.redirects)
	})

	t.Run("force redirect is used once", func(t *testing.T) {
		f := setupTestFixture(t, nil)
		f.auth.Init(ctx)
		f.nav.route = auth.Route{Path: "/login", SkipAuth: true}

		require.NoError(t, f.auth.LoginWith(ctx, strategyName, auth.LoginParams{Username: "bob", ForceRedirect: "/welcome"}))
		f.auth.Redirect(auth.RedirectHome, false)
		f.auth.Redirect(auth.RedirectHome, false)
		require.Equal(t, []string{"/welcome", "/"}, f.nav.redirects)
	})

	t.Run("no router replaces location on client", func(t *testing.T) {
		f := setupTestFixture(t, nil)
		f.nav.route = auth.Route{Path: "/login"}

		f.auth.Redirect(auth.RedirectHome, true)
		require.Equal(t, []string{"/"}, f.nav.replaced)
		require.Empty(t, f.nav.redirects)
	})

	t.Run("watch loggedIn redirects on change", func(t *testing.T) {
		f := setupTestFixture(t, nil)
		f.auth.Init(ctx)
		f.nav.route = auth.Route{Path: "/login"}

		require.NoError(t, f.auth.Login(ctx, auth.LoginParams{Username: "bob"}))
		require.Equal(t, []string{"/"}, f.nav.redirects)
	})

	t.Run("skip auth routes are not redirected", func(t *testing.T) {
		f := setupTestFixture(t, nil)
		f.auth.Init(ctx)
		f.nav.route = auth.Route{Path: "/login", SkipAuth: true}

		require.NoError(t, f.auth.Login(ctx, auth.LoginParams{Username: "bob"}))
		require.Empty(t, f.nav.redirects)
	})
}
