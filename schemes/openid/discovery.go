package openid

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
)

// providerMetadata holds the discovery fields go-oidc does not expose.
type providerMetadata struct {
	EndSessionEndpoint   string `json:"end_session_endpoint"`
	RevalidationEndpoint string `json:"revalidation_endpoint"`
}

// Discover fills the endpoints missing from opts using the issuer's
// discovery document. When no decoder is configured, id tokens are verified
// against the issuer's keys.
func Discover(ctx context.Context, issuer string, opts Options) (Options, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return opts, fmt.Errorf("[openid Discover] %s: %w", issuer, err)
	}

	var meta providerMetadata
	if err := provider.Claims(&meta); err != nil {
		return opts, fmt.Errorf("[openid Discover] failed to read provider metadata: %w", err)
	}

	endpoint := provider.Endpoint()
	if opts.AuthorizationEndpoint == "" {
		opts.AuthorizationEndpoint = endpoint.AuthURL
	}
	if opts.TokenEndpoint == "" {
		opts.TokenEndpoint = endpoint.TokenURL
	}
	if opts.RevalidationEndpoint == "" {
		opts.RevalidationEndpoint = meta.RevalidationEndpoint
	}
	if opts.LogoutEndpoint == "" {
		opts.LogoutEndpoint = meta.EndSessionEndpoint
	}
	if opts.Decoder == nil {
		opts.Decoder = VerifiedDecoder{Verifier: provider.Verifier(&oidc.Config{ClientID: opts.ClientID})}
	}
	return opts, nil
}
