package storage

import (
	"sync"
)

// WatchFunc is called with the new value after every write to a watched key.
type WatchFunc func(value any)

// Entry is a single key/value write used by SetMany.
type Entry struct {
	Key   string
	Value any
}

// Store is an observable key/value store. Watchers run synchronously after
// the write that triggered them, outside the store lock.
type Store struct {
	mu       sync.RWMutex
	values   map[string]any
	watchers map[string][]*watcher
}

type watcher struct {
	fn WatchFunc
}

// NewStore creates a store seeded with the given values.
func NewStore(initial map[string]any) *Store {
	s := &Store{
		values:   make(map[string]any, len(initial)),
		watchers: make(map[string][]*watcher),
	}
	for k, v := range initial {
		s.values[k] = v
	}
	return s
}

// Get returns the value held for key, or nil.
func (s *Store) Get(key string) any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[key]
}

// Has reports whether key has ever been written and not deleted.
func (s *Store) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.values[key]
	return ok
}

// Set writes value under key and notifies the key's watchers.
func (s *Store) Set(key string, value any) {
	s.SetMany(Entry{Key: key, Value: value})
}

// SetMany applies all writes under a single lock, then notifies watchers in
// the order the entries were given. No watcher observes a partial update.
func (s *Store) SetMany(entries ...Entry) {
	type notification struct {
		fns   []WatchFunc
		value any
	}

	s.mu.Lock()
	pending := make([]notification, 0, len(entries))
	for _, e := range entries {
		if e.Value == nil {
			delete(s.values, e.Key)
		} else {
			s.values[e.Key] = e.Value
		}
		if ws := s.watchers[e.Key]; len(ws) > 0 {
			fns := make([]WatchFunc, 0, len(ws))
			for _, w := range ws {
				fns = append(fns, w.fn)
			}
			pending = append(pending, notification{fns: fns, value: e.Value})
		}
	}
	s.mu.Unlock()

	for _, n := range pending {
		for _, fn := range n.fns {
			fn(n.value)
		}
	}
}

// Delete removes key. Watchers are notified with nil.
func (s *Store) Delete(key string) {
	s.Set(key, nil)
}

// Watch registers fn for key and returns a function that removes it.
func (s *Store) Watch(key string, fn WatchFunc) (unwatch func()) {
	w := &watcher{fn: fn}

	s.mu.Lock()
	s.watchers[key] = append(s.watchers[key], w)
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		ws := s.watchers[key]
		for i, candidate := range ws {
			if candidate == w {
				s.watchers[key] = append(ws[:i:i], ws[i+1:]...)
				return
			}
		}
	}
}

// Keys returns the keys currently holding a value.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	return keys
}

// Snapshot returns a shallow copy of every value, suitable for handing to a
// renderer for hydration on the client.
func (s *Store) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]any, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Clear removes every value without notifying watchers.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = make(map[string]any)
}
