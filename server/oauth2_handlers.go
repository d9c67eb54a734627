package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jrsteele09/go-auth-session/clients"
	"github.com/jrsteele09/go-auth-session/oauthmodel"
	"github.com/jrsteele09/go-auth-session/token"
	"github.com/rs/zerolog/log"
)

const (
	contentTypeJSON = "application/json; charset=utf-8"
)

// WellKnownOpenIDConfig serves the OIDC discovery document
func (s *Server) WellKnownOpenIDConfig() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		baseURL := s.Issuer()

		resp := map[string]any{
			"issuer":                 baseURL,
			"authorization_endpoint": baseURL + RouteAuthorize,
			"token_endpoint":         baseURL + RouteToken,
			"jwks_uri":               baseURL + RouteWellKnownJWKS,
			"end_session_endpoint":   baseURL + RouteLogout,

			// Conditional identity revalidation, answered with 304 or a fresh id token
			"revalidation_endpoint": baseURL + RouteRevalidation,

			"response_types_supported": []string{"token", "id_token"},
			"subject_types_supported":  []string{"public"},

			// Signing algorithms
			"id_token_signing_alg_values_supported": []string{s.issuer.Signer().Algorithm()},

			"scopes_supported": []string{
				"openid",  // Returns ID token
				"profile", // Returns name and preferred_username
				"email",   // Returns email
			},

			// Token endpoint auth methods
			"token_endpoint_auth_methods_supported": []string{
				"client_secret_post", // Credentials in POST body
				"none",               // Public clients
			},

			// Grant types
			"grant_types_supported": []string{
				string(oauthmodel.PasswordGrant),
				string(oauthmodel.RefreshTokenGrant),
			},

			"claims_supported": []string{
				"sub",                // User ID
				"email",              // User email
				"name",               // Display name
				"preferred_username", // Username
				"scope",              // Scopes granted to the user
			},
		}

		w.Header().Set("Cache-Control", "public, max-age=3600") // Cache for 1 hour
		writeJSON(w, http.StatusOK, resp)
	}
}

// JWKS returns the JSON Web Key Set used to validate tokens. A provider
// signing with a shared secret publishes an empty set.
func (s *Server) JWKS() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jwks, err := s.issuer.Signer().KeySet()
		if err != nil {
			logError(r.Method, r.URL.Path, err.Error())
			writeJSONError(w, "server_error", "failed to build key set", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Cache-Control", "public, max-age=3600") // Cache for 1 hour
		writeJSON(w, http.StatusOK, jwks)
	}
}

// Authorize is published for discovery only. Interactive authorization is not
// offered; clients use the password grant at the token endpoint.
func (s *Server) Authorize() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, "unsupported_response_type", "use the password grant at "+RouteToken, http.StatusBadRequest)
	}
}

// Token exchanges user credentials or a refresh token for a token triple
func (s *Server) Token() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			writeJSONError(w, "invalid_request", "Failed to parse form data", http.StatusBadRequest)
			return
		}

		tokenReq, err := oauthmodel.ParseTokenRequest(r.PostForm)
		if err != nil {
			if errors.Is(err, oauthmodel.ErrUnsupportedGrant) {
				writeJSONError(w, "unsupported_grant_type", err.Error(), http.StatusBadRequest)
				return
			}
			writeJSONError(w, "invalid_request", err.Error(), http.StatusBadRequest)
			return
		}

		client, err := s.repos.Clients.Get(tokenReq.ClientID())
		if err != nil || !client.Authenticate(tokenReq.ClientSecret()) {
			writeJSONError(w, "invalid_client", "client authentication failed", http.StatusUnauthorized)
			return
		}

		var grant *token.Grant
		switch tokenReq.GrantType {
		case oauthmodel.PasswordGrant:
			grant, err = s.passwordGrant(client, tokenReq.Password)
		case oauthmodel.RefreshTokenGrant:
			grant, err = s.refreshGrant(client, tokenReq.Refresh)
		}
		if err != nil {
			if errors.Is(err, clients.ErrInvalidScope) {
				writeJSONError(w, "invalid_scope", err.Error(), http.StatusBadRequest)
				return
			}
			log.Debug().Err(err).Str("client_id", client.ID).Str("grant_type", string(tokenReq.GrantType)).Msg("Token request rejected")
			writeJSONError(w, "invalid_grant", "the provided grant is invalid", http.StatusBadRequest)
			return
		}

		tokenResponse, err := s.issuer.Issue(*grant)
		if err != nil {
			logError(r.Method, r.URL.Path, err.Error())
			writeJSONError(w, "server_error", "failed to issue tokens", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, tokenResponse)
	}
}

// Revalidate answers whether the caller's identity changed since the entity
// tag presented in If-None-Match. Unchanged yields 304; otherwise a fresh id
// token and the new entity tag are returned.
func (s *Server) Revalidate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFromContext(r.Context())

		user, err := s.repos.Users.GetByID(claims.Subject)
		if err != nil || user.Blocked {
			writeBearerError(w, "invalid_token", "unknown or blocked user")
			return
		}

		etag := user.Version()
		w.Header().Set("ETag", etag)
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}

		idToken, err := s.issuer.IDToken(token.Grant{
			Issuer:   s.Issuer(),
			ClientID: claims.ClientID,
			Scope:    claims.Scope,
			User:     user,
		})
		if err != nil {
			logError(r.Method, r.URL.Path, err.Error())
			writeJSONError(w, "server_error", "failed to issue id token", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, oauthmodel.RevalidationResponse{
			IDToken:   idToken,
			ExpiresIn: oauthmodel.Seconds(s.config.GetAccessTokenExpiry().Seconds()),
		})
	}
}

// Logout revokes the presented access token and the user's refresh token.
func (s *Server) Logout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.issuer.Revoke(accessTokenFromContext(r.Context())); err != nil {
			logError(r.Method, r.URL.Path, err.Error())
			writeBearerError(w, "invalid_token", "failed to revoke token")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) passwordGrant(client *clients.Client, req oauthmodel.PasswordGrantRequest) (*token.Grant, error) {
	if err := client.ValidateScopes(req.Scope); err != nil {
		return nil, err
	}

	user, err := s.repos.Users.GetByLogin(req.Username)
	if err != nil {
		return nil, err
	}
	if user.Blocked {
		return nil, errors.New("user is blocked")
	}
	if !user.CheckPassword(req.Password) {
		return nil, errors.New("password mismatch")
	}

	return &token.Grant{Issuer: s.Issuer(), ClientID: client.ID, Scope: req.Scope, User: user}, nil
}

func (s *Server) refreshGrant(client *clients.Client, req oauthmodel.RefreshGrantRequest) (*token.Grant, error) {
	stored, err := s.issuer.Redeem(req.RefreshToken, client.ID)
	if err != nil {
		return nil, err
	}

	user, err := s.repos.Users.GetByID(stored.UserID)
	if err != nil {
		return nil, err
	}
	if user.Blocked {
		return nil, errors.New("user is blocked")
	}

	return &token.Grant{Issuer: s.Issuer(), ClientID: client.ID, Scope: stored.Scope, User: user}, nil
}


func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, errorCode, description string, statusCode int) {
	writeJSON(w, statusCode, map[string]string{
		"error":             errorCode,
		"error_description": description,
	})
}
