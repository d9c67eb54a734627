package providers

import (
	"strings"

	"github.com/jrsteele09/go-auth-session/schemes/openid"
)

// Passport endpoint paths, relative to the provider's base URL.
const (
	PassportAuthorizePath    = "/oauth/authorize"
	PassportTokenPath        = "/oauth/token"
	PassportRevalidationPath = "/oauth/openid"
	PassportLogoutPath       = "/logout"
)

// Passport fills the OpenID options left unset in opts with the defaults of
// a Passport provider served from baseURL. Values already set are kept.
func Passport(baseURL string, opts openid.Options) openid.Options {
	baseURL = strings.TrimSuffix(baseURL, "/")
	defaults := openid.DefaultOptions()

	setDefault(&opts.Name, "passport")
	setDefault(&opts.AuthorizationEndpoint, baseURL+PassportAuthorizePath)
	setDefault(&opts.TokenEndpoint, baseURL+PassportTokenPath)
	setDefault(&opts.RevalidationEndpoint, baseURL+PassportRevalidationPath)
	setDefault(&opts.LogoutEndpoint, baseURL+PassportLogoutPath)
	setDefault(&opts.TokenType, defaults.TokenType)
	setDefault(&opts.TokenName, defaults.TokenName)
	setDefault(&opts.Scope, defaults.Scope)
	if opts.GrantType == "" {
		opts.GrantType = defaults.GrantType
	}
	return opts
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}
