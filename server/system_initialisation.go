package server

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/jrsteele09/go-auth-session/clients"
	"github.com/jrsteele09/go-auth-session/internal/config"
	"github.com/jrsteele09/go-auth-session/users"
	"github.com/rs/zerolog/log"
)

// InitialiseSystem registers the public CLI client and the system admin user
// when they do not exist yet.
func (s *Server) InitialiseSystem(config config.Config) error {
	baseURL := s.Issuer()

	seedClient, err := s.createSeedClient(config.GetSeedClientID())
	if err != nil {
		return fmt.Errorf("[Server InitialiseSystem] failed to bootstrap client: %w", err)
	}

	adminEmail := generateEmailFromBaseURL(config.GetSystemAdminUser(), baseURL)
	generatedPassword, err := s.createSystemAdmin(config.GetSystemAdminUser(), adminEmail, config.GetSystemAdminPassword())
	if err != nil {
		return fmt.Errorf("[Server InitialiseSystem] failed to bootstrap system admin: %w", err)
	}

	if generatedPassword != "" {
		log.Info().Msg("📋 System Configuration:")
		log.Info().Msgf("   Issuer:      %s", baseURL)
		log.Info().Msg("👤 System Admin Credentials:")
		log.Info().Msgf("   Email:       %s", adminEmail)
		log.Info().Msgf("   Password:    %s", generatedPassword)
		log.Info().Msg("🔐 OAuth2 Client Configured:")
		log.Info().Msgf("   %s (public, password grant)", seedClient.ID)
		log.Info().Msgf("       Token:        %s%s", baseURL, RouteToken)
		log.Info().Msgf("       Revalidation: %s%s", baseURL, RouteRevalidation)
		log.Info().Msg("🌐 Discovery Endpoint:")
		log.Info().Msgf("       %s%s", baseURL, RouteWellKnownOpenIDConfig)
	}
	return nil
}

func (s *Server) createSeedClient(clientID string) (*clients.Client, error) {
	existingClient, err := s.repos.Clients.Get(clientID)
	if err == nil && existingClient != nil {
		log.Debug().Str("client_id", clientID).Msg("Seed client already exists")
		return existingClient, nil
	}
	if err != nil && !errors.Is(err, clients.ErrNotFound) {
		return nil, fmt.Errorf("[server createSeedClient] %w", err)
	}

	seedClient := &clients.Client{
		ID:          clientID,
		Type:        clients.ClientTypePublic,
		Description: "Command line client",
		Scopes: []string{
			"openid",
			"profile",
			"email",
		},
	}

	if err := s.repos.Clients.Upsert(seedClient); err != nil {
		return nil, fmt.Errorf("[server createSeedClient] failed to create client: %w", err)
	}
	return seedClient, nil
}

// createSystemAdmin returns the password it generated, or "" when the user
// already existed or the password was configured.
func (s *Server) createSystemAdmin(username, email, defaultPassword string) (generatedPassword string, err error) {
	if _, err := s.repos.Users.GetByLogin(username); err == nil {
		return "", nil
	}

	password := defaultPassword
	if password == "" {
		if password, err = generatePassword(); err != nil {
			return "", fmt.Errorf("[server createSystemAdmin] %w", err)
		}
		generatedPassword = password
	}

	admin, err := users.New(username, email, password)
	if err != nil {
		return "", fmt.Errorf("[server createSystemAdmin] %w", err)
	}
	admin.FirstName = "System"
	admin.LastName = "Administrator"
	admin.Scopes = []string{"admin"}

	if err := s.repos.Users.Upsert(admin); err != nil {
		return "", fmt.Errorf("[server createSystemAdmin] failed to create system admin: %w", err)
	}
	return generatedPassword, nil
}

// generatePassword draws random passwords until one is strong enough.
func generatePassword() (string, error) {
	b := make([]byte, 16)
	for {
		if _, err := rand.Read(b); err != nil {
			return "", fmt.Errorf("failed to generate password: %w", err)
		}
		password := base64.RawURLEncoding.EncodeToString(b)
		if users.CheckPasswordStrength(password) == nil {
			return password, nil
		}
	}
}

// generateEmailFromBaseURL creates an email address from a username and base URL
// Example: ("admin", "https://auth.example.com/path") -> "admin@auth.example.com"
func generateEmailFromBaseURL(user, baseURL string) string {
	domain := strings.ReplaceAll(strings.ReplaceAll(baseURL, "https://", ""), "http://", "")
	domain = strings.SplitN(domain, "/", 2)[0] // Remove any path
	domain = strings.SplitN(domain, ":", 2)[0] // Remove port if present
	return fmt.Sprintf("%s@%s", user, domain)
}
