package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/desertthunder/narrate/internal/shared"
)

// RegisterRequest is the body of an account registration.
type RegisterRequest struct {
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// Profile is the signed-in user's account details.
type Profile struct {
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Email     string `json:"email,omitempty"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func (c *Client) tokenCall(ctx context.Context, path string, in any) (string, error) {
	var out tokenResponse
	if err := c.doJSON(ctx, http.MethodPost, path, "", in, &out); err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", fmt.Errorf("%w: %s returned no token", shared.ErrAuthFailed, path)
	}
	return out.Token, nil
}

// Refresh exchanges the refresh cookie held by the cookie jar for a new access token.
// No Authorization header is sent.
func (c *Client) Refresh(ctx context.Context) (string, error) {
	return c.tokenCall(ctx, "/user/refresh/", nil)
}

// Logout ends the server-side session and clears the refresh cookie.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.doJSON(ctx, http.MethodPost, "/user/logout/", token, nil, nil)
}

// Login signs in with email and password.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	return c.tokenCall(ctx, "/user/login/", map[string]string{"email": email, "password": password})
}

// Register creates an account. The user signs in afterwards.
func (c *Client) Register(ctx context.Context, req RegisterRequest) error {
	return c.doJSON(ctx, http.MethodPost, "/user/register/", "", req, nil)
}

// GoogleSignIn exchanges a Google authorization code for an access token.
func (c *Client) GoogleSignIn(ctx context.Context, code string) (string, error) {
	return c.tokenCall(ctx, "/user/googlesignin/", map[string]string{"code": code})
}

// GoogleRegister creates an account from a Google authorization code and signs in.
func (c *Client) GoogleRegister(ctx context.Context, code string) (string, error) {
	return c.tokenCall(ctx, "/user/googleregister/", map[string]string{"code": code})
}

// ForgotPassword asks the backend to email a reset link and returns its confirmation message.
func (c *Client) ForgotPassword(ctx context.Context, email string) (string, error) {
	var out messageResponse
	err := c.doJSON(ctx, http.MethodPost, "/user/forgot/", "", map[string]string{"email": email}, &out)
	return out.Message, err
}

// ResetPassword sets a new password using the token from the reset email.
func (c *Client) ResetPassword(ctx context.Context, resetToken, password, confirm string) (string, error) {
	body := map[string]string{
		"new_password":     password,
		"confirm_password": confirm,
		"token":            resetToken,
	}
	var out messageResponse
	err := c.doJSON(ctx, http.MethodPost, "/user/reset/", "", body, &out)
	return out.Message, err
}

// Profile returns the signed-in user's account details.
func (c *Client) Profile(ctx context.Context, token string) (*Profile, error) {
	var p Profile
	if err := c.doJSON(ctx, http.MethodGet, "/user/users/", token, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProfile changes the non-empty fields of p.
func (c *Client) UpdateProfile(ctx context.Context, token string, p Profile) error {
	return c.doJSON(ctx, http.MethodPatch, "/user/users/", token, p, nil)
}

// DeleteAccount permanently removes the signed-in account.
func (c *Client) DeleteAccount(ctx context.Context, token string) error {
	return c.doJSON(ctx, http.MethodDelete, "/user/delete_user/", token, nil, nil)
}
