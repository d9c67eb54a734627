package config

import (
	"strconv"
	"time"
)

type OAuthConfig interface {
	GetSigningSecret() string
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenLength() int
}

type OAuth struct{}

var _ OAuthConfig = OAuth{}

// GetSigningSecret returns the HS256 secret. Empty means tokens are signed
// with a generated RS256 key published through JWKS.
func (OAuth) GetSigningSecret() string {
	return GetEnv("SIGNING_SECRET", "")
}

// GetAccessTokenExpiry reads ACCESS_TOKEN_EXPIRY in seconds
func (OAuth) GetAccessTokenExpiry() time.Duration {
	seconds, err := strconv.Atoi(GetEnv("ACCESS_TOKEN_EXPIRY", "3600"))
	if err != nil || seconds <= 0 {
		return 1 * time.Hour
	}
	return time.Duration(seconds) * time.Second
}

func (OAuth) GetRefreshTokenLength() int {
	return 32 // 32 bytes = 256 bits
}
