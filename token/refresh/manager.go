package refresh

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/jrsteele09/go-auth-session/internal/config"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Manager issues and redeems refresh tokens. A user holds at most one
// refresh token per client; logging in again at the same client replaces it.
type Manager struct {
	repo   Repo
	config config.OAuthConfig
}

func NewManager(repo Repo, cfg config.OAuthConfig) *Manager {
	return &Manager{
		repo:   repo,
		config: cfg,
	}
}

// Create issues a refresh token valid for lifetime. A zero lifetime never
// expires.
func (m *Manager) Create(clientID, userID, scope string, lifetime time.Duration) (string, error) {
	if err := m.repo.DeleteUser(userID, clientID); err != nil {
		return "", fmt.Errorf("[Manager Create] failed to replace refresh token: %w", err)
	}

	raw := make([]byte, m.config.GetRefreshTokenLength())
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("[Manager Create] failed to generate refresh token: %w", err)
	}

	now := NowTimeFunc()
	session := &Session{
		Token:    hex.EncodeToString(raw),
		UserID:   userID,
		ClientID: clientID,
		Scope:    scope,
		IssuedAt: now,
	}
	if lifetime > 0 {
		session.ExpiresAt = now.Add(lifetime)
	}
	if err := m.repo.Save(session); err != nil {
		return "", fmt.Errorf("[Manager Create] failed to store refresh token: %w", err)
	}
	return session.Token, nil
}

// Redeem consumes a refresh token issued to clientID. A token presented by
// another client is left in place for its owner.
func (m *Manager) Redeem(token, clientID string) (*Session, error) {
	session, err := m.repo.Take(token)
	if err != nil {
		return nil, fmt.Errorf("[Manager Redeem] %w", err)
	}

	if session.ClientID != clientID {
		if err := m.repo.Save(session); err != nil {
			return nil, fmt.Errorf("[Manager Redeem] failed to restore refresh token: %w", err)
		}
		return nil, fmt.Errorf("[Manager Redeem] issued to another client: %w", ErrNotFound)
	}
	if !session.ExpiresAt.IsZero() && NowTimeFunc().After(session.ExpiresAt) {
		return nil, fmt.Errorf("[Manager Redeem] expired: %w", ErrNotFound)
	}
	return session, nil
}

// RevokeUser drops every refresh token of userID.
func (m *Manager) RevokeUser(userID string) error {
	return m.repo.DeleteUser(userID, "")
}
