package clients

import (
	"crypto/subtle"
	"slices"
	"strings"
)

type ClientType string

const (
	ClientTypeConfidential ClientType = "confidential" // Holds a secret (server side apps)
	ClientTypePublic       ClientType = "public"       // No secret (CLIs, SPAs)
)

// Client is an application allowed to request tokens.
type Client struct {
	ID          string     `json:"id"`
	Type        ClientType `json:"type"`
	Description string     `json:"description"`
	Secret      string     `json:"secret"`
	// Scopes the client may request
	Scopes []string `json:"scopes"`
}

func (c *Client) IsPublic() bool {
	return c.Type == ClientTypePublic
}

// Authenticate checks the presented secret. Public clients have none.
func (c *Client) Authenticate(secret string) bool {
	if c.IsPublic() {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(c.Secret), []byte(secret)) == 1
}

// ValidateScopes rejects a space delimited scope list naming any scope the
// client was not registered for.
func (c *Client) ValidateScopes(requested string) error {
	for _, scope := range strings.Fields(requested) {
		if !slices.Contains(c.Scopes, scope) {
			return ErrInvalidScope
		}
	}
	return nil
}
