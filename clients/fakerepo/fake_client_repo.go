package fakeclientrepo

import (
	"sync"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-auth-session/clients"
)

var _ clients.Repo = (*FakeClientRepo)(nil)

// FakeClientRepo keeps registered clients in memory.
type FakeClientRepo struct {
	clients sync.Map // client id -> *clients.Client
}

func NewFakeClientRepo() clients.Repo {
	return &FakeClientRepo{}
}

func (r *FakeClientRepo) Upsert(c *clients.Client) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	r.clients.Store(c.ID, c)
	return nil
}

func (r *FakeClientRepo) Delete(id string) error {
	r.clients.Delete(id)
	return nil
}

func (r *FakeClientRepo) Get(id string) (*clients.Client, error) {
	c, ok := r.clients.Load(id)
	if !ok {
		return nil, clients.ErrNotFound
	}
	return c.(*clients.Client), nil
}
