package storage

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
)

// Platform describes what the current execution context can do with cookies.
// A server render reads the incoming request and writes Set-Cookie headers,
// a client reads and writes a cookie document directly.
type Platform interface {
	// Client reports whether this is a client (browser-like) context.
	Client() bool
	// CookieHeader returns the raw cookie string visible to this context.
	// ok is false when there is nothing to read from.
	CookieHeader() (header string, ok bool)
	// WriteCookie emits a cookie. It returns false when there is no sink.
	WriteCookie(c *http.Cookie) bool
}

// ServerPlatform is the server-render context. Either field may be nil, in
// which case the corresponding direction degrades to a no-op.
type ServerPlatform struct {
	Request  *http.Request
	Response http.ResponseWriter
}

var _ Platform = ServerPlatform{}

func (ServerPlatform) Client() bool { return false }

func (p ServerPlatform) CookieHeader() (string, bool) {
	if p.Request == nil {
		return "", false
	}
	return p.Request.Header.Get("Cookie"), true
}

func (p ServerPlatform) WriteCookie(c *http.Cookie) bool {
	if p.Response == nil {
		return false
	}
	http.SetCookie(p.Response, c)
	return true
}

// Document is a client-side cookie surface, the equivalent of document.cookie:
// reading returns "name=value; name2=value2", writing takes one serialized
// Set-Cookie line.
type Document interface {
	Cookie() string
	SetCookie(line string)
}

// BrowserPlatform is the client context. A nil Document means there is no
// page to write to and the cookie layer is skipped.
type BrowserPlatform struct {
	Document Document
}

var _ Platform = BrowserPlatform{}

func (BrowserPlatform) Client() bool { return true }

func (p BrowserPlatform) CookieHeader() (string, bool) {
	if p.Document == nil {
		return "", false
	}
	return p.Document.Cookie(), true
}

func (p BrowserPlatform) WriteCookie(c *http.Cookie) bool {
	if p.Document == nil {
		return false
	}
	p.Document.SetCookie(c.String())
	return true
}

// JarDocument is an in-process cookie document scoped to a single origin.
type JarDocument struct {
	mu     sync.Mutex
	origin *url.URL
	jar    *cookiejar.Jar
}

// NewJarDocument creates a document for origin, e.g. "http://localhost:3000".
func NewJarDocument(origin string) (*JarDocument, error) {
	u, err := url.Parse(origin)
	if err != nil {
		return nil, err
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &JarDocument{origin: u, jar: jar}, nil
}

func (d *JarDocument) Cookie() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return joinCookies(d.jar.Cookies(d.origin))
}

func (d *JarDocument) SetCookie(line string) {
	c, err := http.ParseSetCookie(line)
	if err != nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.jar.SetCookies(d.origin, []*http.Cookie{c})
}

// Jar exposes the underlying jar so an http.Client can share the same cookies.
func (d *JarDocument) Jar() http.CookieJar {
	return d.jar
}

func joinCookies(cookies []*http.Cookie) string {
	parts := make([]string, 0, len(cookies))
	for _, c := range cookies {
		parts = append(parts, c.Name+"="+c.Value)
	}
	return strings.Join(parts, "; ")
}
