package refreshrepofake

import (
	"sync"

	"github.com/jrsteele09/go-auth-session/token/refresh"
)

var _ refresh.Repo = (*FakeRefreshTokenRepo)(nil)

type FakeRefreshTokenRepo struct {
	sessions map[string]refresh.Session
	lock     sync.Mutex
}

func NewFakeRefreshTokenRepo() refresh.Repo {
	return &FakeRefreshTokenRepo{
		sessions: map[string]refresh.Session{},
	}
}

func (r *FakeRefreshTokenRepo) Save(s *refresh.Session) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.sessions[s.Token] = *s
	return nil
}

func (r *FakeRefreshTokenRepo) Take(token string) (*refresh.Session, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	s, ok := r.sessions[token]
	if !ok {
		return nil, refresh.ErrNotFound
	}
	delete(r.sessions, token)
	return &s, nil
}

func (r *FakeRefreshTokenRepo) DeleteUser(userID, clientID string) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	for token, s := range r.sessions {
		if s.UserID == userID && (clientID == "" || s.ClientID == clientID) {
			delete(r.sessions, token)
		}
	}
	return nil
}
