package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

// SubscriptionStatus prints the plan and remaining quota.
func (r *Runner) SubscriptionStatus(ctx context.Context, cmd *cli.Command) error {
	if err := r.subs.Refresh(ctx); err != nil {
		return err
	}
	sub, fetchedAt := r.subs.Current()

	if cmd.Bool("json") {
		return r.writeJSON(sub, true)
	}

	plan := sub.Plan
	if plan == "" {
		plan = "none"
	}
	r.writePlainHeader("Subscription")
	r.writePlain("Plan:              %s\n", plan)
	r.writePlain("Scripts remaining: %d\n", sub.ScriptsRemaining)
	r.writePlain("Audio remaining:   %d\n", sub.AudioRemaining)
	r.logger.Debug("subscription shown", "fetched_at", fetchedAt)
	return nil
}

// SubscriptionCancel cancels the plan after confirmation.
func (r *Runner) SubscriptionCancel(ctx context.Context, cmd *cli.Command) error {
	token, err := r.token(ctx)
	if err != nil {
		return err
	}

	if !cmd.Bool("yes") {
		if !r.confirm("Cancel your subscription? Remaining quota stays usable until the end of the billing period.") {
			return r.writePlain("Subscription unchanged.\n")
		}
	}

	if err := r.api.CancelSubscription(ctx, token); err != nil {
		return fmt.Errorf("failed to cancel subscription: %w", err)
	}
	if err := r.subs.Refresh(ctx); err != nil {
		r.logger.Warn("could not reload subscription", "error", err)
	}

	r.logger.Info("subscription cancelled")
	return r.writePlain("✓ Subscription cancelled\n")
}
