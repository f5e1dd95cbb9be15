package apiclient

import (
	"context"
	"net/http"

	"github.com/abhidhakal/HReady-WebApp-sub001/internal/api/dto"
	"github.com/abhidhakal/HReady-WebApp-sub001/internal/domain"
)

// Backend routes consumed by the client.
const (
	PathLogin           = "/auth/login"
	PathLogout          = "/auth/logout"
	PathAdminProfile    = "/admins/me"
	PathEmployeeProfile = "/employees/me"
	PathHealth          = "/health"
)

// Login exchanges credentials for a session token.
func (c *Client) Login(ctx context.Context, email, password string) (*dto.LoginResponse, error) {
	var out dto.LoginResponse
	err := c.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   PathLogin,
		Body:   dto.LoginRequest{Email: email, Password: password},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout tells the backend the session is over.
func (c *Client) Logout(ctx context.Context) error {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: PathLogout}, nil)
}

// AdminProfile returns the live profile of the signed-in admin.
func (c *Client) AdminProfile(ctx context.Context) (*domain.Profile, error) {
	return c.profile(ctx, PathAdminProfile)
}

// EmployeeProfile returns the live profile of the signed-in employee.
func (c *Client) EmployeeProfile(ctx context.Context) (*domain.Profile, error) {
	return c.profile(ctx, PathEmployeeProfile)
}

// Profile picks the profile endpoint for role.
func (c *Client) Profile(ctx context.Context, role domain.Role) (*domain.Profile, error) {
	if role == domain.RoleAdmin {
		return c.AdminProfile(ctx)
	}
	return c.EmployeeProfile(ctx)
}

func (c *Client) profile(ctx context.Context, path string) (*domain.Profile, error) {
	var out dto.ProfileResponse
	if err := c.Do(ctx, Request{Method: http.MethodGet, Path: path}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health checks backend liveness with the shorter health timeout.
func (c *Client) Health(ctx context.Context) error {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: PathHealth, Timeout: c.healthTimeout}, nil)
}
