package token

import (
	"sync"
	"time"
)

// Revocations remembers revoked access tokens by jti until they would have
// expired anyway.
type Revocations struct {
	mu    sync.Mutex
	until map[string]time.Time
}

func NewRevocations() *Revocations {
	return &Revocations{until: map[string]time.Time{}}
}

// Revoke records jti until exp and forgets entries that have run out.
func (r *Revocations) Revoke(jti string, exp time.Time) {
	now := NowTimeFunc()

	r.mu.Lock()
	defer r.mu.Unlock()
	for id, until := range r.until {
		if now.After(until) {
			delete(r.until, id)
		}
	}
	r.until[jti] = exp
}

func (r *Revocations) Revoked(jti string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	until, ok := r.until[jti]
	return ok && !NowTimeFunc().After(until)
}

// Len is the number of tokens currently remembered.
func (r *Revocations) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.until)
}
