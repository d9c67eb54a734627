package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-auth-session/token"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyClaims stores the verified access token claims
	ContextKeyClaims ContextKey = "claims"
	// ContextKeyAccessToken stores the raw access token
	ContextKeyAccessToken ContextKey = "access_token"
)

// RequireBearer rejects requests without a valid, unrevoked access token in
// the Authorization header.
func (s *Server) RequireBearer(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r)
		if !ok {
			writeBearerError(w, "invalid_request", "missing bearer token")
			return
		}

		claims, err := s.issuer.ParseAccessToken(raw)
		if err != nil {
			description := "invalid access token"
			if errors.Is(err, token.ErrRevokedToken) {
				description = "access token has been revoked"
			}
			writeBearerError(w, "invalid_token", description)
			return
		}

		ctx := context.WithValue(r.Context(), ContextKeyClaims, claims)
		ctx = context.WithValue(ctx, ContextKeyAccessToken, raw)
		next(w, r.WithContext(ctx))
	}
}

func claimsFromContext(ctx context.Context) *token.AccessClaims {
	claims, _ := ctx.Value(ContextKeyClaims).(*token.AccessClaims)
	return claims
}

func accessTokenFromContext(ctx context.Context) string {
	raw, _ := ctx.Value(ContextKeyAccessToken).(string)
	return raw
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, raw, found := strings.Cut(r.Header.Get("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || raw == "" {
		return "", false
	}
	return strings.TrimSpace(raw), true
}

func writeBearerError(w http.ResponseWriter, errorCode, description string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="`+errorCode+`"`)
	writeJSONError(w, errorCode, description, http.StatusUnauthorized)
}
