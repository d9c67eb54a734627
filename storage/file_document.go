package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

type storedCookie struct {
	Name    string    `json:"name"`
	Value   string    `json:"value"`
	Path    string    `json:"path,omitempty"`
	Expires time.Time `json:"expires,omitempty"`
}

// FileDocument is a cookie document persisted to a JSON file, so a command
// line client keeps its session between runs the way a browser keeps cookies
// between page loads. Session cookies (no expiry) are persisted too.
type FileDocument struct {
	mu   sync.Mutex
	path string
}

// NewFileDocument returns a document backed by path. The file is created on
// the first write.
func NewFileDocument(path string) *FileDocument {
	return &FileDocument{path: path}
}

func (d *FileDocument) Cookie() string {
	d.mu.Lock()
	defer d.mu.Unlock()

	cookies, err := d.load()
	if err != nil {
		log.Warn().Err(err).Str("path", d.path).Msg("Failed to read cookie file")
		return ""
	}
	out := make([]*http.Cookie, 0, len(cookies))
	for _, c := range cookies {
		out = append(out, &http.Cookie{Name: c.Name, Value: c.Value})
	}
	return joinCookies(out)
}

func (d *FileDocument) SetCookie(line string) {
	c, err := http.ParseSetCookie(line)
	if err != nil {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	cookies, err := d.load()
	if err != nil {
		log.Warn().Err(err).Str("path", d.path).Msg("Failed to read cookie file")
		cookies = map[string]storedCookie{}
	}

	expired := c.MaxAge < 0 || (!c.Expires.IsZero() && !c.Expires.After(NowTimeFunc()))
	if expired {
		delete(cookies, c.Name)
	} else {
		expires := c.Expires
		if c.MaxAge > 0 {
			expires = NowTimeFunc().Add(time.Duration(c.MaxAge) * time.Second)
		}
		cookies[c.Name] = storedCookie{Name: c.Name, Value: c.Value, Path: c.Path, Expires: expires}
	}

	if err := d.save(cookies); err != nil {
		log.Warn().Err(err).Str("path", d.path).Msg("Failed to write cookie file")
	}
}

func (d *FileDocument) load() (map[string]storedCookie, error) {
	cookies := map[string]storedCookie{}
	data, err := os.ReadFile(d.path)
	if errors.Is(err, os.ErrNotExist) {
		return cookies, nil
	}
	if err != nil {
		return nil, err
	}
	var list []storedCookie
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("[FileDocument load] invalid cookie file: %w", err)
	}
	now := NowTimeFunc()
	for _, c := range list {
		if !c.Expires.IsZero() && !c.Expires.After(now) {
			continue
		}
		cookies[c.Name] = c
	}
	return cookies, nil
}

func (d *FileDocument) save(cookies map[string]storedCookie) error {
	list := make([]storedCookie, 0, len(cookies))
	for _, c := range cookies {
		list = append(list, c)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })

	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(d.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(d.path, data, 0o600)
}
