// Package store defines the durable key-value state shared by the session manager and the job workflows.
//
// It plays the role a browser's local storage plays for the web dashboard: the
// access token and the ids of in-flight jobs survive process restarts so a
// later invocation can resume polling.
package store

import (
	"context"
	"sort"
	"sync"
)

// Well-known keys.
const (
	KeyAccessToken       = "access_token"
	KeyAuthenticated     = "is_authenticated"
	KeyRefreshCookie     = "refresh_cookie"
	KeyFormatTaskID      = "task_id"
	KeyAudioTaskID       = "audio_id"
	KeyNarratorVoice     = "narrator_voice"
	KeyHasSeenOnboarding = "has_seen_onboarding"
	KeyCookieConsent     = "cookie_consent"
)

// Store is durable string key-value storage. Get reports ok=false for missing keys.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Lister is implemented by stores that can enumerate their keys.
type Lister interface {
	List(ctx context.Context) (map[string]string, error)
}

// GetString returns the value for key, or "" when it is missing or unreadable.
func GetString(ctx context.Context, s Store, key string) string {
	v, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return ""
	}
	return v
}

// Memory is an in-process [Store], used in tests and as a fallback when no database is configured.
type Memory struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemory creates an empty [Memory] store, optionally seeded with initial values.
func NewMemory(initial map[string]string) *Memory {
	m := &Memory{data: make(map[string]string, len(initial))}
	for k, v := range initial {
		m.data[k] = v
	}
	return m
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *Memory) List(_ context.Context) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(m.data))
	for k, v := range m.data {
		out[k] = v
	}
	return out, nil
}

// Keys returns the stored keys in sorted order.
func (m *Memory) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
