package storage

import (
	"strings"
	"time"
)

// PrivatePrefix marks state keys that live in the private namespace. Values
// under these keys are never visible through the host store, so they cannot
// leak into server-rendered markup.
const PrivatePrefix = "_"

// Options configures a Storage.
type Options struct {
	// Namespace qualifies public state keys inside a host-provided store.
	Namespace string
	// CookiePrefix is prepended to every cookie name.
	CookiePrefix string
	// CookieOptions are the defaults merged under per-write options.
	CookieOptions CookieOptions
	// InitialState seeds public state keys that are not already present.
	InitialState map[string]any
}

// DefaultOptions returns the stock namespace and cookie settings.
func DefaultOptions() Options {
	return Options{
		Namespace:     "auth",
		CookiePrefix:  "auth.",
		CookieOptions: CookieOptions{Path: "/"},
	}
}

// Storage keeps every universal value in two layers: an in-memory reactive
// state and a cookie. Reads prefer the in-memory layer. An unavailable layer
// degrades to a no-op for that layer only; nothing here returns an error.
type Storage struct {
	opts     Options
	platform Platform

	state      *Store
	observable bool
	private    *Store
}

// New creates a Storage. When host is non-nil, public state is written into it
// under the configured namespace and can be watched by the host. When host is
// nil, public state is kept in an internal store and WatchState is a no-op.
func New(platform Platform, host *Store, opts Options) *Storage {
	s := &Storage{
		opts:       opts,
		platform:   platform,
		state:      host,
		observable: host != nil,
		private:    NewStore(nil),
	}
	if s.state == nil {
		s.state = NewStore(nil)
	}
	if s.platform == nil {
		s.platform = BrowserPlatform{}
	}

	// State hydrated from a previous render is preserved.
	for k, v := range opts.InitialState {
		if !s.state.Has(s.stateKey(k)) {
			s.state.Set(s.stateKey(k), v)
		}
	}
	return s
}

// Platform returns the execution context this storage writes through.
func (s *Storage) Platform() Platform {
	return s.platform
}

// State returns the public store. Private keys are never in it.
func (s *Storage) State() *Store {
	return s.state
}

// ------------------------------------
// Universal
// ------------------------------------

// SetUniversal writes value to both layers and returns it. A nil value
// removes the key from both layers instead.
func (s *Storage) SetUniversal(key string, value any, opts CookieOptions) any {
	if isUnset(value) {
		s.RemoveUniversal(key)
		return nil
	}
	s.SetState(key, value)
	s.SetCookie(key, value, opts)
	return value
}

// GetUniversal reads the in-memory layer, falling back to the cookie layer.
func (s *Storage) GetUniversal(key string) any {
	value := s.GetState(key)
	if isUnset(value) {
		value = s.GetCookie(key)
	}
	return value
}

// SyncUniversal reconciles the two layers for key. If neither layer has a
// value the default is adopted (when set). A resulting value is re-written to
// both layers. It returns the final value.
func (s *Storage) SyncUniversal(key string, defaultValue any) any {
	value := s.GetUniversal(key)
	if isUnset(value) && !isUnset(defaultValue) {
		value = defaultValue
	}
	if !isUnset(value) {
		s.SetUniversal(key, value, CookieOptions{})
	}
	return value
}

// RemoveUniversal removes key from both layers.
func (s *Storage) RemoveUniversal(key string) {
	s.RemoveState(key)
	s.RemoveCookie(key, CookieOptions{})
}

// ------------------------------------
// Local state (reactive)
// ------------------------------------

// SetState writes to the in-memory layer only.
func (s *Storage) SetState(key string, value any) any {
	if isPrivate(key) {
		s.private.Set(key, value)
	} else {
		s.state.Set(s.stateKey(key), value)
	}
	return value
}

// SetStates writes several public keys at once; watchers run only after
// every write has landed, in the order given.
func (s *Storage) SetStates(entries ...Entry) {
	public := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if isPrivate(e.Key) {
			s.private.Set(e.Key, e.Value)
			continue
		}
		public = append(public, Entry{Key: s.stateKey(e.Key), Value: e.Value})
	}
	s.state.SetMany(public...)
}

// GetState reads the in-memory layer only.
func (s *Storage) GetState(key string) any {
	if isPrivate(key) {
		return s.private.Get(key)
	}
	return s.state.Get(s.stateKey(key))
}

// RemoveState clears key from the in-memory layer.
func (s *Storage) RemoveState(key string) {
	s.SetState(key, nil)
}

// WatchState calls fn after each write to key. It is a no-op, returning a
// no-op unwatch, when the storage was built without a host store.
func (s *Storage) WatchState(key string, fn WatchFunc) (unwatch func()) {
	if !s.observable || isPrivate(key) {
		return func() {}
	}
	return s.state.Watch(s.stateKey(key), fn)
}

// ClearPrivate drops every value in the private namespace.
func (s *Storage) ClearPrivate() {
	s.private.Clear()
}

func (s *Storage) stateKey(key string) string {
	if s.opts.Namespace == "" || !s.observable {
		return key
	}
	return s.opts.Namespace + "." + key
}

// ------------------------------------
// Cookies
// ------------------------------------

// GetCookies returns every cookie visible in this context, undecoded.
func (s *Storage) GetCookies() map[string]string {
	header, ok := s.platform.CookieHeader()
	if !ok {
		return map[string]string{}
	}
	return ParseCookies(header)
}

// SetCookie writes the prefixed cookie for key. A nil value expires it.
func (s *Storage) SetCookie(key string, value any, opts CookieOptions) any {
	merged := s.opts.CookieOptions.merge(opts)
	encoded := ""
	if isUnset(value) {
		merged.MaxAge = -1
		merged.Expires = time.Unix(0, 0)
	} else {
		encoded = EncodeValue(value)
	}
	s.platform.WriteCookie(merged.cookie(s.opts.CookiePrefix+key, encoded))
	return value
}

// GetCookie reads and decodes the prefixed cookie for key, or returns nil.
func (s *Storage) GetCookie(key string) any {
	raw, ok := s.GetCookies()[s.opts.CookiePrefix+key]
	if !ok || raw == "" {
		return nil
	}
	return DecodeValue(raw)
}

// RemoveCookie expires the prefixed cookie for key.
func (s *Storage) RemoveCookie(key string, opts CookieOptions) {
	s.SetCookie(key, nil, opts)
}

func isPrivate(key string) bool {
	return strings.HasPrefix(key, PrivatePrefix)
}

func isUnset(v any) bool {
	return v == nil
}
