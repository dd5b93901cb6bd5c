package api

import (
	"context"
	"fmt"

	"github.com/subflowhq/subflow/internal/model"
)

// RegisterRequest is the payload for account creation.
type RegisterRequest struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Token   string      `json:"token"`
	User    *model.User `json:"user"`
	Message string      `json:"message"`
}

// Register creates an account and returns the session token.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.post(ctx, "/auth/register", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login exchanges credentials for a bearer token. The token is installed
// on the client for subsequent requests.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	req := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{email, password}

	var out AuthResponse
	if err := c.post(ctx, "/auth/login", req, &out); err != nil {
		return nil, err
	}
	if out.Token != "" {
		c.SetToken(out.Token)
	}
	return &out, nil
}

// Me returns the authenticated user.
func (c *Client) Me(ctx context.Context) (*model.User, error) {
	var u model.User
	if err := c.get(ctx, "/users/me", &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// ProfileUpdate is the editable slice of the account profile.
type ProfileUpdate struct {
	Name        string `json:"name"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	CompanyName string `json:"companyName"`
}

// UpdateMe updates the authenticated user's profile.
func (c *Client) UpdateMe(ctx context.Context, req ProfileUpdate) error {
	return c.put(ctx, "/users/me", req, nil)
}

// ChangePassword rotates the account password.
func (c *Client) ChangePassword(ctx context.Context, current, next string) error {
	req := struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}{current, next}
	return c.post(ctx, "/users/me/change-password", req, nil)
}

// AdminListUsers returns every account. Requires the admin role.
func (c *Client) AdminListUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := c.get(ctx, "/users/admin/all", &users); err != nil {
		return nil, err
	}
	return users, nil
}

// AdminCreateUser creates an account on behalf of another user.
func (c *Client) AdminCreateUser(ctx context.Context, req RegisterRequest) (*model.User, error) {
	var out struct {
		User *model.User `json:"user"`
	}
	if err := c.post(ctx, "/users/admin/create", req, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

// AdminUpdateUser updates an arbitrary account.
func (c *Client) AdminUpdateUser(ctx context.Context, id string, req ProfileUpdate) error {
	return c.put(ctx, fmt.Sprintf("/users/admin/%s", id), req, nil)
}

// AdminDeleteUser removes an account.
func (c *Client) AdminDeleteUser(ctx context.Context, id string) error {
	return c.delete(ctx, fmt.Sprintf("/users/admin/%s", id))
}
