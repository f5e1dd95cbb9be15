package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhidhakal/HReady-WebApp-sub001/internal/domain"
	"github.com/abhidhakal/HReady-WebApp-sub001/internal/repository"
	apperrors "github.com/abhidhakal/HReady-WebApp-sub001/pkg/util/errorutil"
)

func newProtectedApp(t *testing.T) (*fiber.App, *TokenManager, repository.UserRepository) {
	t.Helper()
	tm := NewTokenManager("secret", 15)
	users := repository.NewMemoryUserRepository()

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var domainErr *apperrors.DomainError
			if errors.As(err, &domainErr) {
				return c.Status(domainErr.HTTPStatus).SendString(domainErr.Message)
			}
			return c.SendStatus(fiber.StatusInternalServerError)
		},
	})
	mw := NewAuthMiddleware(tm, users)
	app.Get("/admins/me", mw.Handle, RequireRole(domain.RoleAdmin), func(c *fiber.Ctx) error {
		p, _ := PrincipalFromContext(c)
		return c.SendString(p.User.ID)
	})
	return app, tm, users
}

func call(t *testing.T, app *fiber.App, header string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/admins/me", nil)
	if header != "" {
		req.Header.Set(fiber.HeaderAuthorization, header)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	buf := make([]byte, 256)
	n, _ := resp.Body.Read(buf)
	return resp.StatusCode, string(buf[:n])
}

func TestAuthMiddleware(t *testing.T) {
	app, tm, users := newProtectedApp(t)
	ctx := context.Background()
	require.NoError(t, users.Create(ctx, &domain.User{ID: "a1", Email: "a@x", Role: domain.RoleAdmin, Active: true}))
	require.NoError(t, users.Create(ctx, &domain.User{ID: "e1", Email: "e@x", Role: domain.RoleEmployee, Active: true}))
	require.NoError(t, users.Create(ctx, &domain.User{ID: "d1", Email: "d@x", Role: domain.RoleAdmin, Active: false}))

	tokenFor := func(id string, role domain.Role) string {
		token, _, err := tm.GenerateToken(&domain.User{ID: id, Role: role})
		require.NoError(t, err)
		return "Bearer " + token
	}

	cases := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"missing", "", http.StatusUnauthorized, "missing authorization token"},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, "invalid authorization header"},
		{"garbage token", "Bearer abc", http.StatusUnauthorized, "invalid or expired token"},
		{"unknown account", tokenFor("ghost", domain.RoleAdmin), http.StatusUnauthorized, "account not found"},
		{"disabled account", tokenFor("d1", domain.RoleAdmin), http.StatusUnauthorized, "account disabled"},
		{"wrong role", tokenFor("e1", domain.RoleEmployee), http.StatusForbidden, "insufficient role"},
		{"admin", tokenFor("a1", domain.RoleAdmin), http.StatusOK, "a1"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := call(t, app, tc.header)
			assert.Equal(t, tc.status, status)
			assert.Contains(t, body, tc.body)
		})
	}
}
