package fakeuserrepo

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-auth-session/users"
)

var _ users.UserRepo = (*FakeUserRepo)(nil)

type FakeUserRepo struct {
	users map[string]*users.User
	lock  sync.RWMutex
}

func NewFakeUserRepo() users.UserRepo {
	return &FakeUserRepo{users: map[string]*users.User{}}
}

func (r *FakeUserRepo) Upsert(user *users.User) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.UpdatedAt = time.Now()
	r.users[user.ID] = user
	return nil
}

func (r *FakeUserRepo) Delete(id string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if _, ok := r.users[id]; !ok {
		return users.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *FakeUserRepo) GetByID(id string) (*users.User, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, users.ErrNotFound
	}
	return u, nil
}

func (r *FakeUserRepo) GetByLogin(login string) (*users.User, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	if login == "" {
		return nil, users.ErrNotFound
	}
	var byUsername *users.User
	for _, u := range r.users {
		if u.Email != "" && strings.EqualFold(u.Email, login) {
			return u, nil
		}
		if u.Username == login {
			byUsername = u
		}
	}
	if byUsername == nil {
		return nil, users.ErrNotFound
	}
	return byUsername, nil
}
