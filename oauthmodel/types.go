package oauthmodel

// GrantType represents the OAuth 2.0 grant type used at the token endpoint.
// Determines what credentials are sent alongside the client credentials.
type GrantType string

const (
	// PasswordGrant exchanges a username and password for tokens.
	// Token request includes: client_id, client_secret, scope, state, username, password
	// Returns: access_token, id_token, refresh_token
	PasswordGrant GrantType = "password"

	// RefreshTokenGrant exchanges a refresh token for new tokens.
	// Used in: Token refresh flow (new access token without re-authenticating the user)
	// Token request includes: refresh_token, client_id, client_secret, scope
	// Returns: new access_token and id_token, optionally a rotated refresh_token
	RefreshTokenGrant GrantType = "refresh_token"
)

// Form field names used by the token endpoint.
const (
	FieldGrantType    = "grant_type"
	FieldClientID     = "client_id"
	FieldClientSecret = "client_secret"
	FieldScope        = "scope"
	FieldState        = "state"
	FieldUsername     = "username"
	FieldPassword     = "password"
	FieldRefreshToken = "refresh_token"
)
