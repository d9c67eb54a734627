package server

import "github.com/jrsteele09/go-auth-session/providers"

// Route path constants
// All provider routes are defined here so the client side presets and the
// server can never disagree
const (
	// Passport Routes
	RouteAuthorize    = providers.PassportAuthorizePath
	RouteToken        = providers.PassportTokenPath
	RouteRevalidation = providers.PassportRevalidationPath
	RouteLogout       = providers.PassportLogoutPath

	// OIDC Discovery Routes
	RouteWellKnownOpenIDConfig = "/.well-known/openid-configuration"
	RouteWellKnownJWKS         = "/.well-known/jwks.json"
)
