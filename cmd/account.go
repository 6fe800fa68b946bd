package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/narrate/internal/services"
	"github.com/desertthunder/narrate/internal/shared"
)

// AccountProfile prints the signed-in user's details.
func (r *Runner) AccountProfile(ctx context.Context, cmd *cli.Command) error {
	token, err := r.token(ctx)
	if err != nil {
		return err
	}
	p, err := r.api.Profile(ctx, token)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(p, true)
	}
	r.writePlainHeader("Account")
	r.writePlain("Name:  %s %s\n", p.FirstName, p.LastName)
	return r.writePlain("Email: %s\n", p.Email)
}

// AccountUpdate changes the fields given as flags.
func (r *Runner) AccountUpdate(ctx context.Context, cmd *cli.Command) error {
	p := services.Profile{
		FirstName: cmd.String("first-name"),
		LastName:  cmd.String("last-name"),
		Email:     cmd.String("email"),
	}
	if p == (services.Profile{}) {
		return fmt.Errorf("%w: pass --first-name, --last-name or --email", shared.ErrMissingArgument)
	}

	token, err := r.token(ctx)
	if err != nil {
		return err
	}
	if err := r.api.UpdateProfile(ctx, token, p); err != nil {
		return err
	}
	return r.writePlain("✓ Profile updated\n")
}

// AccountForgotPassword requests a reset email.
func (r *Runner) AccountForgotPassword(ctx context.Context, cmd *cli.Command) error {
	email, err := r.valueOr(cmd.String("email"), "Email")
	if err != nil {
		return err
	}
	msg, err := r.api.ForgotPassword(ctx, email)
	if err != nil {
		return err
	}
	if msg == "" {
		msg = "Check your inbox for a reset link"
	}
	return r.writePlain("✓ %s\n", msg)
}

// AccountResetPassword sets a new password from a reset token.
func (r *Runner) AccountResetPassword(ctx context.Context, cmd *cli.Command) error {
	resetToken, err := r.valueOr(cmd.String("token"), "Reset token")
	if err != nil {
		return err
	}
	password, err := r.promptSecret("New password")
	if err != nil {
		return err
	}
	confirm, err := r.promptSecret("Confirm password")
	if err != nil {
		return err
	}
	if password != confirm {
		return fmt.Errorf("%w: passwords do not match", shared.ErrInvalidInput)
	}

	msg, err := r.api.ResetPassword(ctx, resetToken, password, confirm)
	if err != nil {
		return err
	}
	if msg == "" {
		msg = "Password changed, sign in with `narrate auth login`"
	}
	return r.writePlain("✓ %s\n", msg)
}

// AccountDelete removes the account and forgets the local session.
func (r *Runner) AccountDelete(ctx context.Context, cmd *cli.Command) error {
	token, err := r.token(ctx)
	if err != nil {
		return err
	}
	if !cmd.Bool("yes") && !r.confirm("Permanently delete your account and all generated audio?") {
		return r.writePlain("Account unchanged.\n")
	}

	if err := r.api.DeleteAccount(ctx, token); err != nil {
		return err
	}
	r.session.SignOut(ctx)
	if err := r.assignments.Clear(ctx); err != nil {
		r.logger.Warn("failed to clear voice assignment", "error", err)
	}
	r.logger.Info("account deleted")
	return r.writePlain("✓ Account deleted\n")
}
