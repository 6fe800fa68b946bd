package tasks

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/narrate/internal/models"
	"github.com/desertthunder/narrate/internal/shared"
)

// SubscriptionAPI fetches plan and quota.
type SubscriptionAPI interface {
	CurrentSubscription(ctx context.Context, token string) (*models.Subscription, error)
}

// SubscriptionCache holds the last known plan and quota.
// Workflows refresh it after every successful job.
type SubscriptionCache struct {
	api    SubscriptionAPI
	tokens TokenSource
	logger *log.Logger

	mu        sync.RWMutex
	sub       *models.Subscription
	fetchedAt time.Time
	listeners []func(*models.Subscription)
}

// NewSubscriptionCache creates an empty cache.
func NewSubscriptionCache(api SubscriptionAPI, tokens TokenSource, logger *log.Logger) *SubscriptionCache {
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &SubscriptionCache{api: api, tokens: tokens, logger: logger}
}

// Refresh reloads the subscription from the backend.
func (c *SubscriptionCache) Refresh(ctx context.Context) error {
	token, ok := c.tokens.EnsureValidToken(ctx)
	if !ok {
		return shared.ErrNeedsSignIn
	}

	sub, err := c.api.CurrentSubscription(ctx, token)
	if err != nil {
		return fmt.Errorf("failed to load subscription: %w", err)
	}

	c.mu.Lock()
	c.sub = sub
	c.fetchedAt = time.Now()
	listeners := append([]func(*models.Subscription){}, c.listeners...)
	c.mu.Unlock()

	c.logger.Debug("subscription refreshed", "plan", sub.Plan, "scripts", sub.ScriptsRemaining, "audio", sub.AudioRemaining)
	for _, fn := range listeners {
		fn(sub)
	}
	return nil
}

// Current returns the cached subscription and when it was fetched; nil before the first refresh.
func (c *SubscriptionCache) Current() (*models.Subscription, time.Time) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sub, c.fetchedAt
}

// Get returns the cached subscription if it is younger than maxAge, refreshing it otherwise.
func (c *SubscriptionCache) Get(ctx context.Context, maxAge time.Duration) (*models.Subscription, error) {
	if sub, at := c.Current(); sub != nil && time.Since(at) < maxAge {
		return sub, nil
	}
	if err := c.Refresh(ctx); err != nil {
		return nil, err
	}
	sub, _ := c.Current()
	return sub, nil
}

// OnChange registers fn to run after each successful refresh.
func (c *SubscriptionCache) OnChange(fn func(*models.Subscription)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}
