package auth

import (
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/jrsteele09/go-auth-session/storage"
)

// Route describes the location the user is currently on.
type Route struct {
	Path     string
	FullPath string
	Query    url.Values
	// SkipAuth marks routes that opt out of loggedIn driven redirects.
	SkipAuth bool
}

// Navigator performs router level redirects.
type Navigator interface {
	Route() Route
	Redirect(to string, query url.Values)
}

// Replacer is implemented by navigators on client platforms that can replace
// the whole location instead of routing.
type Replacer interface {
	Replace(to string)
}

// HTTPNavigator redirects a server rendered request.
type HTTPNavigator struct {
	W        http.ResponseWriter
	R        *http.Request
	SkipAuth bool
}

func (n HTTPNavigator) Route() Route {
	return Route{
		Path:     n.R.URL.Path,
		FullPath: n.R.URL.RequestURI(),
		Query:    n.R.URL.Query(),
		SkipAuth: n.SkipAuth,
	}
}

func (n HTTPNavigator) Redirect(to string, query url.Values) {
	if len(query) > 0 {
		sep := "?"
		if strings.Contains(to, "?") {
			sep = "&"
		}
		to += sep + query.Encode()
	}
	http.Redirect(n.W, n.R, to, http.StatusFound)
}

// OnRedirect registers a listener that may rewrite redirect targets.
func (a *Auth) OnRedirect(listener RedirectListener) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.redirectListeners = append(a.redirectListeners, listener)
}

// CallOnRedirect passes to through every listener in order. A non-empty
// return replaces the target seen by later listeners.
func (a *Auth) CallOnRedirect(to, from string) string {
	a.mu.Lock()
	listeners := append([]RedirectListener(nil), a.redirectListeners...)
	a.mu.Unlock()

	for _, fn := range listeners {
		if next := fn(to, from); next != "" {
			to = next
		}
	}
	return to
}

// Redirect navigates to the named target. Redirecting to login remembers the
// current page; redirecting home returns to it when it is a safe relative URL.
// A pending force redirect wins over the resolved target and is used once.
func (a *Auth) Redirect(name string, noRouter bool) {
	a.mu.Lock()
	force := a.forceRedirect
	a.forceRedirect = ""
	a.mu.Unlock()

	if len(a.opts.Redirect) == 0 || a.navigator == nil {
		return
	}

	route := a.navigator.Route()
	from := route.Path
	if a.opts.FullPathRedirect {
		from = route.FullPath
	}

	to := a.opts.Redirect[name]
	if to == "" {
		return
	}

	if a.opts.RewriteRedirects {
		if name == RedirectLogin && isRelativeURL(from) && !isSameURL(to, from) {
			a.storage.SetUniversal(keyRedirect, from, storage.CookieOptions{})
		}

		if name == RedirectHome {
			remembered := stringValue(a.storage.GetUniversal(keyRedirect))
			a.storage.RemoveUniversal(keyRedirect)
			if isRelativeURL(remembered) {
				to = remembered
			}
		}
	}

	to = a.CallOnRedirect(to, from)

	if isSameURL(to, from) {
		return
	}
	if force != "" {
		if !isSameURL(force, from) {
			a.navigator.Redirect(force, nil)
		}
		return
	}

	if noRouter && a.storage.Platform().Client() {
		if r, ok := a.navigator.(Replacer); ok {
			r.Replace(to)
			return
		}
	}
	a.navigator.Redirect(to, route.Query)
}

var relativeURL = regexp.MustCompile(`^/[a-zA-Z0-9@\-%_~][/a-zA-Z0-9@\-%_~]*[?]?([^#]*)#?([^#]*)$`)

func isRelativeURL(u string) bool {
	return u != "" && relativeURL.MatchString(u)
}

func isSameURL(a, b string) bool {
	return strings.SplitN(a, "?", 2)[0] == strings.SplitN(b, "?", 2)[0]
}
