package services

import (
	"context"
	"net/http"

	"github.com/desertthunder/narrate/internal/models"
)

// CurrentSubscription returns the plan and remaining quotas.
func (c *Client) CurrentSubscription(ctx context.Context, token string) (*models.Subscription, error) {
	var sub models.Subscription
	if err := c.doJSON(ctx, http.MethodGet, "/subscription/current_subscription/", token, nil, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// CancelSubscription cancels the active plan at the end of the billing period.
func (c *Client) CancelSubscription(ctx context.Context, token string) error {
	return c.doJSON(ctx, http.MethodPost, "/subscription/cancel_subscription/", token, nil, nil)
}
