package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/narrate/internal/store"
)

// Jar is an [http.CookieJar] that persists the backend's cookies (the refresh
// cookie in particular) to the durable store, so a later process can refresh
// the access token without signing in again.
type Jar struct {
	mu      sync.Mutex
	inner   *cookiejar.Jar
	base    *url.URL
	cookies map[string]*http.Cookie
	store   store.Store
	logger  *log.Logger
}

type storedCookie struct {
	Name    string    `json:"name"`
	Value   string    `json:"value"`
	Path    string    `json:"path,omitempty"`
	Expires time.Time `json:"expires,omitzero"`
}

// NewJar creates a jar for the backend at baseURL and restores any cookies saved in st.
func NewJar(ctx context.Context, baseURL string, st store.Store, logger *log.Logger) (*Jar, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", baseURL, err)
	}
	inner, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	j := &Jar{
		inner:   inner,
		base:    base,
		cookies: make(map[string]*http.Cookie),
		store:   st,
		logger:  logger,
	}

	raw, ok, err := st.Get(ctx, store.KeyRefreshCookie)
	if err != nil {
		return nil, fmt.Errorf("failed to load cookies: %w", err)
	}
	if ok && raw != "" {
		var saved []storedCookie
		if err := json.Unmarshal([]byte(raw), &saved); err != nil {
			logger.Warn("discarding unreadable saved cookies", "error", err)
		} else {
			restored := make([]*http.Cookie, 0, len(saved))
			for _, s := range saved {
				c := &http.Cookie{Name: s.Name, Value: s.Value, Path: s.Path, Expires: s.Expires}
				j.cookies[c.Name] = c
				restored = append(restored, c)
			}
			j.inner.SetCookies(base, restored)
		}
	}

	return j, nil
}

// SetCookies implements [http.CookieJar].
func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.inner.SetCookies(u, cookies)
	if u.Hostname() != j.base.Hostname() {
		return
	}

	now := time.Now()
	for _, c := range cookies {
		if c.MaxAge < 0 || (!c.Expires.IsZero() && !c.Expires.After(now)) {
			delete(j.cookies, c.Name)
			continue
		}
		cp := *c
		if cp.MaxAge > 0 {
			cp.Expires = now.Add(time.Duration(cp.MaxAge) * time.Second)
			cp.MaxAge = 0
		}
		j.cookies[c.Name] = &cp
	}
	j.persist()
}

// Cookies implements [http.CookieJar].
func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.inner.Cookies(u)
}

// Import adds cookies taken from elsewhere (a browser session) for the backend host.
func (j *Jar) Import(cookies []*http.Cookie) {
	for _, c := range cookies {
		if c.Path == "" {
			c.Path = "/"
		}
	}
	j.SetCookies(j.base, cookies)
}

// Names returns the names of the cookies held for the backend.
func (j *Jar) Names() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	names := make([]string, 0, len(j.cookies))
	for name := range j.cookies {
		names = append(names, name)
	}
	return names
}

// Clear forgets every cookie, in memory and in the store.
func (j *Jar) Clear(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	inner, err := cookiejar.New(nil)
	if err != nil {
		return err
	}
	j.inner = inner
	j.cookies = make(map[string]*http.Cookie)
	return j.store.Delete(ctx, store.KeyRefreshCookie)
}

// persist must be called with j.mu held.
func (j *Jar) persist() {
	ctx := context.Background()
	if len(j.cookies) == 0 {
		if err := j.store.Delete(ctx, store.KeyRefreshCookie); err != nil {
			j.logger.Warn("failed to clear saved cookies", "error", err)
		}
		return
	}

	saved := make([]storedCookie, 0, len(j.cookies))
	for _, c := range j.cookies {
		saved = append(saved, storedCookie{Name: c.Name, Value: c.Value, Path: c.Path, Expires: c.Expires})
	}
	data, err := json.Marshal(saved)
	if err != nil {
		j.logger.Warn("failed to encode cookies", "error", err)
		return
	}
	if err := j.store.Set(ctx, store.KeyRefreshCookie, string(data)); err != nil {
		j.logger.Warn("failed to save cookies", "error", err)
	}
}
