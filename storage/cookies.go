package storage

import (
	"encoding/json"
	"net/http"
	"net/url"
	"time"
)

// CookieOptions are the attributes written with a cookie. Zero fields mean
// "not set" and fall back to the storage defaults when merged.
type CookieOptions struct {
	Path     string
	Domain   string
	Expires  time.Time
	MaxAge   int
	Secure   bool
	HTTPOnly bool
	SameSite http.SameSite
}

// merge returns o with every non-zero field of over applied on top.
func (o CookieOptions) merge(over CookieOptions) CookieOptions {
	if over.Path != "" {
		o.Path = over.Path
	}
	if over.Domain != "" {
		o.Domain = over.Domain
	}
	if !over.Expires.IsZero() {
		o.Expires = over.Expires
	}
	if over.MaxAge != 0 {
		o.MaxAge = over.MaxAge
	}
	if over.Secure {
		o.Secure = true
	}
	if over.HTTPOnly {
		o.HTTPOnly = true
	}
	if over.SameSite != 0 {
		o.SameSite = over.SameSite
	}
	return o
}

func (o CookieOptions) cookie(name, value string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     o.Path,
		Domain:   o.Domain,
		Expires:  o.Expires,
		MaxAge:   o.MaxAge,
		Secure:   o.Secure,
		HttpOnly: o.HTTPOnly,
		SameSite: o.SameSite,
	}
}

// ExpiresIn returns options expiring d from now. A non-positive d yields
// options without an expiry bound, i.e. a session cookie.
func ExpiresIn(d time.Duration) CookieOptions {
	if d <= 0 {
		return CookieOptions{}
	}
	return CookieOptions{Expires: NowTimeFunc().Add(d)}
}

// EncodeValue serializes a value for a cookie. Strings pass through, other
// values are JSON encoded, and the result is percent-encoded.
func EncodeValue(value any) string {
	var raw string
	switch v := value.(type) {
	case string:
		raw = v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		raw = string(b)
	}
	return url.PathEscape(raw)
}

// DecodeValue reverses EncodeValue. The percent-decoded text is parsed as JSON
// when possible, which recovers booleans, numbers and objects; anything else
// is returned as the raw string.
func DecodeValue(encoded string) any {
	raw, err := url.PathUnescape(encoded)
	if err != nil {
		raw = encoded
	}
	var decoded any
	if err := json.Unmarshal([]byte(raw), &decoded); err == nil {
		return decoded
	}
	return raw
}

// ParseCookies parses a Cookie header into a name to raw value map. Later
// duplicates win. Malformed pairs are skipped.
func ParseCookies(header string) map[string]string {
	out := map[string]string{}
	if header == "" {
		return out
	}
	cookies, err := http.ParseCookie(header)
	if err != nil {
		// fall back to pair by pair so one bad pair does not hide the rest
		for _, line := range splitCookieHeader(header) {
			if cs, err := http.ParseCookie(line); err == nil {
				for _, c := range cs {
					out[c.Name] = c.Value
				}
			}
		}
		return out
	}
	for _, c := range cookies {
		out[c.Name] = c.Value
	}
	return out
}

func splitCookieHeader(header string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(header); i++ {
		if header[i] == ';' {
			parts = append(parts, header[start:i])
			start = i + 1
		}
	}
	return append(parts, header[start:])
}
