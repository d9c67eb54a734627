package auth

import (
	"github.com/jrsteele09/go-auth-session/storage"
)

// Tokens are persisted universally under <prefix><strategy>. An empty value
// is "unset" and removes the key from both storage layers.

// GetToken returns the access token of strategy, including its type prefix.
func (a *Auth) GetToken(strategy string) string {
	return stringValue(a.storage.GetUniversal(a.opts.TokenPrefix + strategy))
}

// SetToken stores the access token of strategy.
func (a *Auth) SetToken(strategy, token string, opts storage.CookieOptions) string {
	return stringValue(a.storage.SetUniversal(a.opts.TokenPrefix+strategy, unsetIfEmpty(token), opts))
}

// SyncToken reconciles the access token of strategy between the in-memory
// layer and the cookie layer.
func (a *Auth) SyncToken(strategy string) string {
	return stringValue(a.storage.SyncUniversal(a.opts.TokenPrefix+strategy, nil))
}

func (a *Auth) GetIDToken(strategy string) string {
	return stringValue(a.storage.GetUniversal(a.opts.IDTokenPrefix + strategy))
}

func (a *Auth) SetIDToken(strategy, token string, opts storage.CookieOptions) string {
	return stringValue(a.storage.SetUniversal(a.opts.IDTokenPrefix+strategy, unsetIfEmpty(token), opts))
}

func (a *Auth) GetRefreshToken(strategy string) string {
	return stringValue(a.storage.GetUniversal(a.opts.RefreshTokenPrefix + strategy))
}

func (a *Auth) SetRefreshToken(strategy, token string, opts storage.CookieOptions) string {
	return stringValue(a.storage.SetUniversal(a.opts.RefreshTokenPrefix+strategy, unsetIfEmpty(token), opts))
}
