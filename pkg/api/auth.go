package api

import (
	"context"
	"net/http"
	"strings"
)

// Signup registers a new account. The response may or may not carry tokens
// depending on whether the server requires email confirmation.
func (c *Client) Signup(ctx context.Context, creds Credentials) (AuthResponse, error) {
	if err := validateCredentials("signup", creds); err != nil {
		return AuthResponse{}, err
	}
	var raw rawAuth
	err := c.do(ctx, call{op: "signup", method: http.MethodPost, path: "/signup", body: creds, out: &raw, public: true})
	if err != nil {
		return AuthResponse{}, err
	}
	return raw.normalize(), nil
}

// Login exchanges credentials for an access token.
func (c *Client) Login(ctx context.Context, creds Credentials) (AuthResponse, error) {
	if err := validateCredentials("login", creds); err != nil {
		return AuthResponse{}, err
	}
	var raw rawAuth
	err := c.do(ctx, call{op: "login", method: http.MethodPost, path: "/login", body: creds, out: &raw, public: true})
	if err != nil {
		return AuthResponse{}, err
	}
	return raw.normalize(), nil
}

// Refresh trades a refresh token for a new token pair.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (AuthResponse, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return AuthResponse{}, Validation("refresh", "No refresh token available.")
	}
	var raw rawAuth
	body := map[string]string{"refresh_token": refreshToken}
	err := c.do(ctx, call{op: "refresh", method: http.MethodPost, path: "/refresh", body: body, out: &raw, public: true})
	if err != nil {
		return AuthResponse{}, err
	}
	return raw.normalize(), nil
}

// Protected resolves the user behind the current token.
func (c *Client) Protected(ctx context.Context) (User, error) {
	var raw struct {
		Message string   `json:"message"`
		User    *rawUser `json:"user"`
	}
	if err := c.do(ctx, call{op: "protected", method: http.MethodGet, path: "/protected", out: &raw}); err != nil {
		return User{}, err
	}
	if raw.User == nil {
		return User{}, &Error{Kind: KindServer, Op: "protected", Message: "Unexpected response from server."}
	}
	return raw.User.normalize(), nil
}

func validateCredentials(op string, creds Credentials) error {
	if strings.TrimSpace(creds.Email) == "" || strings.TrimSpace(creds.Password) == "" {
		return Validation(op, "Email and password are required.")
	}
	return nil
}
