package refresh

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("refresh token not found")

// Session is what the provider remembers about a refresh token. The client
// only ever sees Token.
type Session struct {
	Token    string
	UserID   string
	ClientID string
	// Scope granted at login, reused on refresh
	Scope     string
	IssuedAt  time.Time
	ExpiresAt time.Time // zero never expires
}

// Repo stores refresh sessions keyed by token.
type Repo interface {
	Save(s *Session) error

	// Take removes and returns the session for token. A token can therefore
	// be taken once.
	Take(token string) (*Session, error)

	// DeleteUser removes the sessions of userID at clientID, or at every
	// client when clientID is empty.
	DeleteUser(userID, clientID string) error
}
