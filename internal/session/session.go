// Package session owns the bearer-token lifecycle.
//
// A [Manager] is created once per process and passed to everything that makes
// privileged requests. Before each such request the caller asks
// [Manager.EnsureValidToken] for a token; an expired token is refreshed
// transparently with the refresh cookie, and a failed refresh signs the user
// out locally.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/golang-jwt/jwt/v5"

	"github.com/desertthunder/narrate/internal/services"
	"github.com/desertthunder/narrate/internal/shared"
	"github.com/desertthunder/narrate/internal/store"
)

// AuthAPI is the part of the backend the session manager talks to.
type AuthAPI interface {
	Refresh(ctx context.Context) (string, error)
	Logout(ctx context.Context, token string) error
	Login(ctx context.Context, email, password string) (string, error)
	Register(ctx context.Context, req services.RegisterRequest) error
	GoogleSignIn(ctx context.Context, code string) (string, error)
	GoogleRegister(ctx context.Context, code string) (string, error)
}

// CookieClearer drops the refresh cookie on sign-out. [*Jar] implements it.
type CookieClearer interface {
	Clear(ctx context.Context) error
}

// Info describes the stored session without touching the network.
type Info struct {
	SignedIn  bool
	ExpiresAt time.Time
	Expired   bool
}

// Manager validates, refreshes and clears the access token.
type Manager struct {
	api    AuthAPI
	store  store.Store
	jar    CookieClearer
	logger *log.Logger
	now    func() time.Time

	refreshMu sync.Mutex

	mu     sync.RWMutex
	token  string
	nextID int
	subs   map[int]func(token string)
}

// Options configures [New].
type Options struct {
	API    AuthAPI
	Store  store.Store
	Jar    CookieClearer
	Logger *log.Logger
	// Now defaults to [time.Now].
	Now func() time.Time
}

// New creates a session manager and loads the stored token into memory.
func New(ctx context.Context, opts Options) *Manager {
	m := &Manager{
		api:    opts.API,
		store:  opts.Store,
		jar:    opts.Jar,
		logger: opts.Logger,
		now:    opts.Now,
		subs:   make(map[int]func(string)),
	}
	if m.logger == nil {
		m.logger = shared.NewLogger(io.Discard)
	}
	if m.now == nil {
		m.now = time.Now
	}
	m.token = store.GetString(ctx, m.store, store.KeyAccessToken)
	return m
}

// DecodeExpiry reads the exp claim of a JWT without verifying its signature.
func DecodeExpiry(token string) (time.Time, error) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, shared.ErrMissingExpiry
	}
	return claims.ExpiresAt.Time, nil
}

// Token returns the in-memory token, which may be expired. Use [Manager.EnsureValidToken] before privileged calls.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// Info reports whether a token is stored and when it expires.
func (m *Manager) Info(ctx context.Context) Info {
	tok := store.GetString(ctx, m.store, store.KeyAccessToken)
	if tok == "" {
		return Info{}
	}
	exp, err := DecodeExpiry(tok)
	if err != nil {
		return Info{SignedIn: true, Expired: true}
	}
	return Info{SignedIn: true, ExpiresAt: exp, Expired: !exp.After(m.now())}
}

// EnsureValidToken returns a token that is valid right now, refreshing it if needed.
//
// A stored token whose expiry is strictly in the future is returned without a
// network call. Otherwise the refresh endpoint is tried once; on any failure
// the stored token is deleted and ok is false.
func (m *Manager) EnsureValidToken(ctx context.Context) (token string, ok bool) {
	m.refreshMu.Lock()
	defer m.refreshMu.Unlock()

	current, _, err := m.store.Get(ctx, store.KeyAccessToken)
	if err != nil {
		m.logger.Warn("failed to read stored token", "error", err)
	}
	if current != "" {
		if exp, err := DecodeExpiry(current); err == nil && exp.After(m.now()) {
			m.setToken(current)
			return current, true
		}
	}

	fresh, err := m.api.Refresh(ctx)
	if err != nil || fresh == "" {
		m.logger.Info("session refresh failed", "error", err)
		if err := m.store.Delete(ctx, store.KeyAccessToken); err != nil {
			m.logger.Warn("failed to delete stored token", "error", err)
		}
		m.setToken("")
		return "", false
	}

	if err := m.store.Set(ctx, store.KeyAccessToken, fresh); err != nil {
		m.logger.Warn("failed to persist refreshed token", "error", err)
	}
	m.setToken(fresh)
	m.logger.Debug("session refreshed")
	return fresh, true
}

// RequireToken is [Manager.EnsureValidToken] as an error: [shared.ErrNeedsSignIn] when no valid token exists.
func (m *Manager) RequireToken(ctx context.Context) (string, error) {
	tok, ok := m.EnsureValidToken(ctx)
	if !ok {
		return "", shared.ErrNeedsSignIn
	}
	return tok, nil
}

// SignOut clears the local session and tells the backend, ignoring its answer.
func (m *Manager) SignOut(ctx context.Context) {
	tok := m.Token()
	if tok == "" {
		tok = store.GetString(ctx, m.store, store.KeyAccessToken)
	}

	for _, key := range []string{store.KeyAccessToken, store.KeyAuthenticated} {
		if err := m.store.Delete(ctx, key); err != nil {
			m.logger.Warn("failed to clear session state", "key", key, "error", err)
		}
	}

	if err := m.api.Logout(ctx, tok); err != nil {
		m.logger.Debug("logout request failed", "error", err)
	}

	if m.jar != nil {
		if err := m.jar.Clear(ctx); err != nil {
			m.logger.Warn("failed to clear cookies", "error", err)
		}
	}

	m.setToken("")
}

// SignIn signs in with email and password.
func (m *Manager) SignIn(ctx context.Context, email, password string) error {
	tok, err := m.api.Login(ctx, email, password)
	if err != nil {
		return authError(err)
	}
	return m.adopt(ctx, tok)
}

// Register creates an account and signs in with the same credentials.
func (m *Manager) Register(ctx context.Context, req services.RegisterRequest) error {
	if req.Password != req.ConfirmPassword {
		return fmt.Errorf("%w: passwords do not match", shared.ErrInvalidInput)
	}
	if err := m.api.Register(ctx, req); err != nil {
		return authError(err)
	}
	return m.SignIn(ctx, req.Email, req.Password)
}

// SignInWithGoogle exchanges a Google authorization code for a session.
// When register is true a new account is created from the Google profile.
func (m *Manager) SignInWithGoogle(ctx context.Context, code string, register bool) error {
	exchange := m.api.GoogleSignIn
	if register {
		exchange = m.api.GoogleRegister
	}
	tok, err := exchange(ctx, code)
	if err != nil {
		return authError(err)
	}
	return m.adopt(ctx, tok)
}

// Adopt stores a token obtained elsewhere, such as one imported from a browser session.
func (m *Manager) Adopt(ctx context.Context, token string) error {
	if _, err := DecodeExpiry(token); err != nil {
		return err
	}
	return m.adopt(ctx, token)
}

func (m *Manager) adopt(ctx context.Context, token string) error {
	if err := m.store.Set(ctx, store.KeyAccessToken, token); err != nil {
		return fmt.Errorf("failed to persist token: %w", err)
	}
	if err := m.store.Set(ctx, store.KeyAuthenticated, "true"); err != nil {
		return fmt.Errorf("failed to persist session flag: %w", err)
	}
	m.setToken(token)
	return nil
}

// Subscribe registers fn to be called with the new token whenever it changes ("" on sign-out).
func (m *Manager) Subscribe(fn func(token string)) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

func (m *Manager) setToken(token string) {
	m.mu.Lock()
	if m.token == token {
		m.mu.Unlock()
		return
	}
	m.token = token
	subs := make([]func(string), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	for _, fn := range subs {
		fn(token)
	}
}

// authError keeps the backend's message for failed sign-ins.
func authError(err error) error {
	if apiErr, ok := services.AsAPIError(err); ok {
		return fmt.Errorf("%w: %s", shared.ErrAuthFailed, apiErr.Message)
	}
	if errors.Is(err, shared.ErrAuthFailed) {
		return err
	}
	return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
}
