package auth

import (
	"context"
	"fmt"
	"sync"

	"github.com/jrsteele09/go-auth-session/storage"
	"github.com/jrsteele09/go-auth-session/transport"
	"github.com/rs/zerolog/log"
)

const (
	keyStrategy = "strategy"
	keyUser     = "user"
	keyLoggedIn = "loggedIn"
	keyBusy     = "busy"
	keyRedirect = "redirect"
)

// Context is the execution context the orchestrator runs in.
type Context struct {
	// Platform decides how cookies are read and written.
	Platform storage.Platform
	// Store is the host's observable state store. Optional.
	Store *storage.Store
	// Transport sends requests on behalf of schemes.
	Transport transport.Doer
	// Navigator performs redirects. Optional; without it Redirect is a no-op.
	Navigator Navigator
}

// Auth owns the active scheme and the session state, and funnels every
// scheme call through busy tracking and the error listeners.
type Auth struct {
	opts      Options
	storage   *storage.Storage
	transport transport.Doer
	navigator Navigator

	mu                sync.Mutex
	strategies        map[string]Scheme
	errorListeners    []ErrorListener
	redirectListeners []RedirectListener
	lastErr           error
	forceRedirect     string
	resetting         bool
}

// New creates an orchestrator with the initial state {user: nil, loggedIn: false}.
func New(c Context, opts Options) *Auth {
	storageOpts := opts.Storage
	storageOpts.InitialState = map[string]any{keyUser: nil, keyLoggedIn: false}

	return &Auth{
		opts:       opts,
		storage:    storage.New(c.Platform, c.Store, storageOpts),
		transport:  c.Transport,
		navigator:  c.Navigator,
		strategies: make(map[string]Scheme),
	}
}

// Storage returns the universal storage backing the session.
func (a *Auth) Storage() *storage.Storage {
	return a.storage
}

// Init restores the persisted strategy, falling back to the default, and
// mounts it. It never fails: without a valid strategy the session stays
// anonymous, and mount failures go to the error listeners only.
func (a *Auth) Init(ctx context.Context) {
	if a.opts.ResetOnError != nil {
		resetCtx := context.WithoutCancel(ctx)
		a.OnError(func(err error, payload ErrorPayload) {
			if a.opts.ResetOnError(err, payload) {
				_ = a.Reset(resetCtx)
			}
		})
	}

	a.storage.SyncUniversal(keyStrategy, unsetIfEmpty(a.opts.DefaultStrategy))

	if a.Strategy() == nil {
		a.storage.SetUniversal(keyStrategy, unsetIfEmpty(a.opts.DefaultStrategy), storage.CookieOptions{})
		if a.Strategy() == nil {
			log.Debug().Str("strategy", a.StrategyName()).Msg("No valid strategy, session stays anonymous")
			return
		}
	}

	if err := a.mounted(ctx); err != nil {
		log.Warn().Err(err).Str("strategy", a.StrategyName()).Msg("Mounting strategy failed")
	}

	if a.opts.WatchLoggedIn && a.storage.Platform().Client() {
		a.storage.WatchState(keyLoggedIn, func(v any) {
			if a.navigator == nil || a.navigator.Route().SkipAuth {
				return
			}
			if loggedIn, _ := v.(bool); loggedIn {
				a.Redirect(RedirectHome, false)
			} else {
				a.Redirect(RedirectLogout, false)
			}
		})
	}
}

// ---------------------------------------------------------------
// Strategy and Scheme
// ---------------------------------------------------------------

// RegisterStrategy adds a scheme under name. Re-registering a name replaces it.
func (a *Auth) RegisterStrategy(name string, scheme Scheme) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.strategies[name] = scheme
}

// RegisterScheme registers a scheme under its own name, which is the name its
// tokens are stored under.
func (a *Auth) RegisterScheme(scheme Named) {
	a.RegisterStrategy(scheme.Name(), scheme)
}

// StrategyName returns the name of the active strategy, or "".
func (a *Auth) StrategyName() string {
	return stringValue(a.storage.GetState(keyStrategy))
}

// Strategy returns the active scheme, or nil when none is active.
func (a *Auth) Strategy() Scheme {
	name := a.StrategyName()
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.strategies[name]
}

func (a *Auth) registered(name string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.strategies[name]
	return ok
}

// SetStrategy makes name the active strategy and mounts it. It does nothing
// when name is already the persisted active strategy.
func (a *Auth) SetStrategy(ctx context.Context, name string) error {
	if name == stringValue(a.storage.GetUniversal(keyStrategy)) {
		return nil
	}
	if !a.registered(name) {
		return fmt.Errorf("[Auth SetStrategy] %q: %w", name, ErrUnknownStrategy)
	}

	a.storage.SetUniversal(keyStrategy, name, storage.CookieOptions{})

	return a.mounted(ctx)
}

func (a *Auth) mounted(ctx context.Context) error {
	s := a.Strategy()
	if s == nil {
		return ErrNoActiveStrategy
	}
	m, ok := s.(Mounter)
	if !ok {
		return a.FetchUserOnce(ctx)
	}
	if err := m.Mounted(ctx); err != nil {
		a.CallOnError(err, ErrorPayload{Method: MethodMounted})
		return err
	}
	return nil
}

// LoginWith switches to the named strategy and logs in with it.
func (a *Auth) LoginWith(ctx context.Context, name string, params LoginParams) error {
	if params.ForceRedirect != "" {
		a.mu.Lock()
		a.forceRedirect = params.ForceRedirect
		a.mu.Unlock()
	}

	if err := a.SetStrategy(ctx, name); err != nil {
		return err
	}
	return a.Login(ctx, params)
}

// Login logs in with the active strategy. Busy is true for the duration of
// the call. Failures are broadcast with method "login" and returned.
func (a *Auth) Login(ctx context.Context, params LoginParams) error {
	s := a.Strategy()
	if s == nil {
		a.CallOnError(ErrNoActiveStrategy, ErrorPayload{Method: MethodLogin})
		return ErrNoActiveStrategy
	}
	ls, ok := s.(LoginScheme)
	if !ok {
		return nil
	}

	if err := a.wrapLogin(func() error { return ls.Login(ctx, params) }); err != nil {
		a.CallOnError(err, ErrorPayload{Method: MethodLogin})
		return err
	}
	return nil
}

func (a *Auth) wrapLogin(login func() error) error {
	a.storage.SetState(keyBusy, true)
	a.mu.Lock()
	a.lastErr = nil
	a.mu.Unlock()

	defer a.storage.SetState(keyBusy, false)
	return login()
}

// FetchUser asks the active strategy to load the user.
func (a *Auth) FetchUser(ctx context.Context) error {
	s := a.Strategy()
	if s == nil {
		return nil
	}
	f, ok := s.(UserFetcher)
	if !ok {
		return nil
	}
	if err := f.FetchUser(ctx); err != nil {
		a.CallOnError(err, ErrorPayload{Method: MethodFetchUser})
		return err
	}
	return nil
}

// FetchUserOnce fetches the user only when none is held.
func (a *Auth) FetchUserOnce(ctx context.Context) error {
	if a.User() == nil {
		return a.FetchUser(ctx)
	}
	return nil
}

// Logout ends the session through the active strategy, or resets locally
// when the strategy has no logout.
func (a *Auth) Logout(ctx context.Context) error {
	s := a.Strategy()
	lo, ok := s.(LogoutScheme)
	if !ok {
		return a.Reset(ctx)
	}
	if err := lo.Logout(ctx); err != nil {
		a.CallOnError(err, ErrorPayload{Method: MethodLogout})
		return err
	}
	return nil
}

// Reset clears the session. A strategy providing its own reset is used
// instead of the default, which clears the user, the active strategy's
// three tokens, and the private in-memory state.
func (a *Auth) Reset(ctx context.Context) error {
	a.mu.Lock()
	if a.resetting {
		a.mu.Unlock()
		return nil
	}
	a.resetting = true
	a.mu.Unlock()
	defer func() {
		a.mu.Lock()
		a.resetting = false
		a.mu.Unlock()
	}()

	if r, ok := a.Strategy().(Resetter); ok {
		if err := r.Reset(ctx); err != nil {
			a.CallOnError(err, ErrorPayload{Method: MethodReset})
			return err
		}
		return nil
	}

	name := a.StrategyName()
	if n, ok := a.Strategy().(Named); ok {
		name = n.Name()
	}
	a.SetUser(nil)
	a.SetToken(name, "", storage.CookieOptions{})
	a.SetIDToken(name, "", storage.CookieOptions{})
	a.SetRefreshToken(name, "", storage.CookieOptions{})
	a.storage.ClearPrivate()
	return nil
}

// ---------------------------------------------------------------
// Utils
// ---------------------------------------------------------------

// Request sends a request through the transport. Failures are broadcast with
// method "request" before being returned.
func (a *Auth) Request(ctx context.Context, endpoint string, req transport.Request) (*transport.Response, error) {
	resp, err := a.transport.Do(ctx, endpoint, req)
	if err != nil {
		a.CallOnError(err, ErrorPayload{Method: MethodRequest})
		return nil, err
	}
	return resp, nil
}

// OnError registers a listener for every broadcast failure.
func (a *Auth) OnError(listener ErrorListener) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.errorListeners = append(a.errorListeners, listener)
}

// CallOnError records err as the last error and passes it to every listener
// in registration order. Listeners observe; they cannot suppress the error.
func (a *Auth) CallOnError(err error, payload ErrorPayload) {
	a.mu.Lock()
	a.lastErr = err
	listeners := append([]ErrorListener(nil), a.errorListeners...)
	a.mu.Unlock()

	for _, fn := range listeners {
		fn(err, payload)
	}
}

// LastError returns the most recently broadcast error. It is cleared when a
// login starts.
func (a *Auth) LastError() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastErr
}

func stringValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

func unsetIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
