package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/narrate/internal/server"
	"github.com/desertthunder/narrate/internal/services"
	"github.com/desertthunder/narrate/internal/shared"
)

const googleAuthTimeout = 2 * time.Minute

// AuthLogin signs in with email and password.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	email, err := r.valueOr(cmd.String("email"), "Email")
	if err != nil {
		return err
	}
	password, err := r.promptSecret("Password")
	if err != nil {
		return err
	}

	r.logger.Info("signing in", "email", email)
	if err := r.session.SignIn(ctx, email, password); err != nil {
		return err
	}
	return r.writePlain("✓ Signed in as %s\n", email)
}

// AuthRegister creates an account, then signs in.
func (r *Runner) AuthRegister(ctx context.Context, cmd *cli.Command) error {
	first, err := r.valueOr(cmd.String("first-name"), "First name")
	if err != nil {
		return err
	}
	last, err := r.valueOr(cmd.String("last-name"), "Last name")
	if err != nil {
		return err
	}
	email, err := r.valueOr(cmd.String("email"), "Email")
	if err != nil {
		return err
	}
	password, err := r.promptSecret("Password")
	if err != nil {
		return err
	}
	confirm, err := r.promptSecret("Confirm password")
	if err != nil {
		return err
	}

	r.logger.Info("registering", "email", email)
	req := services.RegisterRequest{
		FirstName:       first,
		LastName:        last,
		Email:           email,
		Password:        password,
		ConfirmPassword: confirm,
	}
	if err := r.session.Register(ctx, req); err != nil {
		return err
	}
	return r.writePlain("✓ Account created, signed in as %s\n", email)
}

// AuthGoogle runs the Google authorization code flow with a local callback server
// and hands the code to the backend.
func (r *Runner) AuthGoogle(ctx context.Context, cmd *cli.Command) error {
	g := r.config.Google
	if g.ClientID == "" || g.ClientID == "your_google_client_id" {
		return fmt.Errorf("%w: set google.client_id in config.toml or %s", shared.ErrInvalidConfig, shared.EnvGoogleClientID)
	}

	code, err := r.doOAuth(ctx, g.ClientID, g.RedirectURI, cmd.Bool("no-browser"))
	if err != nil {
		return err
	}

	register := cmd.Bool("register")
	if err := r.session.SignInWithGoogle(ctx, code, register); err != nil {
		return err
	}
	if register {
		return r.writePlain("✓ Account created with Google\n")
	}
	return r.writePlain("✓ Signed in with Google\n")
}

// doOAuth executes the authorization code flow and returns the code.
func (r *Runner) doOAuth(ctx context.Context, clientID, redirectURI string, noBrowser bool) (string, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return "", fmt.Errorf("failed to generate state token: %w", err)
	}

	addr, err := server.ListenAddr(redirectURI)
	if err != nil {
		return "", err
	}

	handler := server.NewOAuthHandler(server.GoogleConfig(clientID, redirectURI), state)
	cs, err := server.StartCallbackServer(addr, handler, shared.WithLogger(r.logger, "component", "oauth"))
	if err != nil {
		return "", err
	}

	authURL := handler.AuthURL()
	if noBrowser {
		r.writePlain("Open this URL in your browser:\n%s\n\n", authURL)
	} else {
		r.writePlain("→ Opening browser for Google sign-in...\n")
		if err := shared.OpenBrowser(authURL); err != nil {
			r.logger.Warn("failed to open browser automatically", "error", err)
			r.writePlain("⚠ Could not open browser automatically.\n")
			r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
		}
	}

	r.writePlain("→ Waiting for authorization (%s timeout)...\n", googleAuthTimeout)
	waitCtx, cancel := context.WithTimeout(ctx, googleAuthTimeout)
	defer cancel()

	code, err := cs.Wait(waitCtx)
	if err != nil {
		return "", fmt.Errorf("authorization failed: %w", err)
	}
	return code, nil
}

// AuthLogout signs out locally and on the backend.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	r.session.SignOut(ctx)
	return r.writePlain("✓ Signed out\n")
}

// AuthStatus reports the stored session without refreshing it.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	info := r.session.Info(ctx)

	if cmd.Bool("json") {
		out := map[string]any{
			"signed_in": info.SignedIn,
			"expired":   info.Expired,
			"cookies":   r.jar.Names(),
		}
		if !info.ExpiresAt.IsZero() {
			out["expires_at"] = info.ExpiresAt.Format(time.RFC3339)
		}
		return r.writeJSON(out, true)
	}

	switch {
	case !info.SignedIn:
		r.writePlain("✗ Not signed in\n")
	case info.Expired && info.ExpiresAt.IsZero():
		r.writePlain("⚠ Signed in, but the stored token is unreadable\n")
	case info.Expired:
		r.writePlain("⚠ Signed in, token expired at %s (it will be refreshed on next use)\n", info.ExpiresAt.Local().Format(time.DateTime))
	default:
		r.writePlain("✓ Signed in, token valid until %s\n", info.ExpiresAt.Local().Format(time.DateTime))
	}

	if names := r.jar.Names(); len(names) > 0 {
		r.writePlain("Refresh cookies: %s\n", strings.Join(names, ", "))
	}
	r.writePlain("Backend: %s\n", r.api.BaseURL())
	return nil
}

// AuthToken prints a valid access token for use with other tools.
func (r *Runner) AuthToken(ctx context.Context, cmd *cli.Command) error {
	token, err := r.token(ctx)
	if err != nil {
		return err
	}
	return r.writePlain("%s\n", token)
}

// AuthImport adopts the session of a signed-in browser from a copied cURL command.
func (r *Runner) AuthImport(ctx context.Context, cmd *cli.Command) error {
	curlCmd := cmd.String("curl")
	curlFile := cmd.String("curl-file")

	if curlCmd == "" && curlFile == "" {
		return fmt.Errorf("%w: either --curl or --curl-file must be provided", shared.ErrMissingArgument)
	}
	if curlCmd != "" && curlFile != "" {
		return fmt.Errorf("%w: cannot specify both --curl and --curl-file", shared.ErrInvalidArgument)
	}

	var sess *shared.BrowserSession
	var err error
	if curlFile != "" {
		sess, err = shared.ParseCurlFile(curlFile)
	} else {
		sess, err = shared.ParseCurlCommand([]byte(curlCmd))
	}
	if err != nil {
		return fmt.Errorf("failed to parse cURL command: %w", err)
	}

	if len(sess.Cookies) > 0 {
		r.jar.Import(sess.Cookies)
		r.logger.Info("imported cookies", "count", len(sess.Cookies))
	}

	if sess.AccessToken != "" {
		if err := r.session.Adopt(ctx, sess.AccessToken); err != nil {
			r.logger.Warn("imported token rejected", "error", err)
		}
	}

	if _, err := r.token(ctx); err != nil {
		return fmt.Errorf("%w: the imported session is not usable", err)
	}
	return r.writePlain("✓ Browser session imported\n")
}
