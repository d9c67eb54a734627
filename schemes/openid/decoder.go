package openid

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
)

// Decoder extracts the claims carried by an id token.
type Decoder interface {
	Decode(ctx context.Context, rawIDToken string) (map[string]any, error)
}

// UnverifiedDecoder reads the claims without checking the signature. The
// token came straight from the token endpoint over the same connection, so
// this is what a browser client usually does.
type UnverifiedDecoder struct{}

func (UnverifiedDecoder) Decode(_ context.Context, rawIDToken string) (map[string]any, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(rawIDToken, claims); err != nil {
		return nil, fmt.Errorf("[UnverifiedDecoder Decode] %w: %w", ErrInvalidIDToken, err)
	}
	return map[string]any(claims), nil
}

// VerifiedDecoder checks the signature, issuer, audience and expiry of the id
// token against the provider's published keys before returning its claims.
type VerifiedDecoder struct {
	Verifier *oidc.IDTokenVerifier
}

func (d VerifiedDecoder) Decode(ctx context.Context, rawIDToken string) (map[string]any, error) {
	idToken, err := d.Verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("[VerifiedDecoder Decode] %w: %w", ErrInvalidIDToken, err)
	}

	claims := map[string]any{}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("[VerifiedDecoder Decode] failed to read claims: %w", err)
	}
	return claims, nil
}
