package portal

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httptransport "github.com/abhidhakal/HReady-WebApp-sub001/internal/api/http"
	"github.com/abhidhakal/HReady-WebApp-sub001/internal/apiclient"
	"github.com/abhidhakal/HReady-WebApp-sub001/internal/auth"
	"github.com/abhidhakal/HReady-WebApp-sub001/internal/config"
	"github.com/abhidhakal/HReady-WebApp-sub001/internal/domain"
	"github.com/abhidhakal/HReady-WebApp-sub001/internal/events"
	"github.com/abhidhakal/HReady-WebApp-sub001/internal/observability"
	"github.com/abhidhakal/HReady-WebApp-sub001/internal/repository"
	"github.com/abhidhakal/HReady-WebApp-sub001/internal/service"
	"github.com/abhidhakal/HReady-WebApp-sub001/internal/tokenstore"
)

const cookieName = "hready_sid"

type portalFixture struct {
	app  *fiber.App
	keys *tokenstore.MemoryKeyspace
}

func newPortalFixture(t *testing.T) *portalFixture {
	t.Helper()
	var cfg config.Config
	cfg.Auth = config.AuthConfig{JWTSecret: "backend-secret", AccessTokenTTLMinutes: 30, BcryptCost: 4}
	users := repository.NewMemoryUserRepository()
	authService := service.NewAuthService(cfg, users, nil)
	_, err := authService.SeedUsers(context.Background(), "admin:admin@hready.local:pw-admin:Asha,employee:ram@hready.local:pw-ram:Ram")
	require.NoError(t, err)

	backend := httptransport.NewApp(httptransport.AppConfig{Name: "mockapi", Auth: authService, Users: users})
	srv := httptest.NewServer(adaptor.FiberApp(backend))
	t.Cleanup(srv.Close)

	metrics := observability.NewMetrics()
	client, err := apiclient.New(apiclient.Options{BaseURL: srv.URL + httptransport.APIPrefix, Metrics: metrics})
	require.NoError(t, err)

	keys := tokenstore.NewMemory()
	server := NewServer(Config{Name: "portal", CookieName: cookieName}, Dependencies{
		Client:     client,
		Keyspace:   keys,
		Dispatcher: events.NewBusDispatcher(nil),
		Metrics:    metrics,
	})
	return &portalFixture{app: server.App(), keys: keys}
}

type result struct {
	status   int
	location string
	body     string
	cookie   string
}

func (f *portalFixture) do(t *testing.T, method, path, browserID string, body any) result {
	t.Helper()
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = strings.NewReader(string(encoded))
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if browserID != "" {
		req.AddCookie(&http.Cookie{Name: cookieName, Value: browserID})
	}

	resp, err := f.app.Test(req, int((10 * time.Second).Milliseconds()))
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	out := result{status: resp.StatusCode, location: resp.Header.Get("Location"), body: string(data)}
	for _, c := range resp.Cookies() {
		if c.Name == cookieName {
			out.cookie = c.Value
		}
	}
	return out
}

func (f *portalFixture) login(t *testing.T, email, password string) string {
	t.Helper()
	browserID := uuid.NewString()
	res := f.do(t, http.MethodPost, "/login", browserID, map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusOK, res.status, res.body)
	return browserID
}

func TestFirstVisitIssuesCookieAndPrompts(t *testing.T) {
	f := newPortalFixture(t)

	res := f.do(t, http.MethodGet, "/dashboard", "", nil)
	assert.Equal(t, http.StatusUnauthorized, res.status)
	assert.Contains(t, res.body, "Please log in to continue.")
	_, err := uuid.Parse(res.cookie)
	assert.NoError(t, err)
}

func TestLoginThenGuardedDashboards(t *testing.T) {
	f := newPortalFixture(t)
	browserID := f.login(t, "admin@hready.local", "pw-admin")

	rec, err := f.keys.For(browserID).Read(context.Background())
	require.NoError(t, err)
	assert.True(t, rec.Complete())
	assert.Equal(t, "admin", rec.Role)

	res := f.do(t, http.MethodGet, "/admin/dashboard", browserID, nil)
	assert.Equal(t, http.StatusOK, res.status)
	assert.Contains(t, res.body, `"view":"admin-dashboard"`)

	res = f.do(t, http.MethodGet, "/employee/dashboard", browserID, nil)
	assert.Equal(t, http.StatusForbidden, res.status)
	assert.Contains(t, res.body, "This page requires the employee role; you are signed in as admin.")

	res = f.do(t, http.MethodGet, "/login", browserID, nil)
	assert.Equal(t, http.StatusFound, res.status)
	assert.Equal(t, "/admin/dashboard", res.location)
}

func TestLoginFailureKeepsStoreEmpty(t *testing.T) {
	f := newPortalFixture(t)
	browserID := uuid.NewString()

	res := f.do(t, http.MethodPost, "/login", browserID, map[string]string{"email": "admin@hready.local", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, res.status)
	assert.Contains(t, res.body, "Invalid credentials")

	rec, err := f.keys.For(browserID).Read(context.Background())
	require.NoError(t, err)
	assert.True(t, rec.Empty())
}

func TestLogoutClearsBrowserSession(t *testing.T) {
	f := newPortalFixture(t)
	browserID := f.login(t, "ram@hready.local", "pw-ram")

	res := f.do(t, http.MethodPost, "/logout", browserID, nil)
	assert.Equal(t, http.StatusSeeOther, res.status)
	assert.Equal(t, "/login", res.location)

	rec, err := f.keys.For(browserID).Read(context.Background())
	require.NoError(t, err)
	assert.True(t, rec.Empty())

	res = f.do(t, http.MethodGet, "/dashboard", browserID, nil)
	assert.Equal(t, http.StatusUnauthorized, res.status)
}

func TestRejectedTokenRedirectsToLogin(t *testing.T) {
	f := newPortalFixture(t)
	browserID := uuid.NewString()

	forged, _, err := auth.NewTokenManager("some-other-secret", 30).GenerateToken(&domain.User{ID: "x1", Name: "Eve", Role: domain.RoleAdmin})
	require.NoError(t, err)
	f.keys.Put(browserID, domain.Record{Token: forged, Role: "admin", UserID: "x1", UserName: "Eve"})

	res := f.do(t, http.MethodGet, "/admin/dashboard", browserID, nil)
	assert.Equal(t, http.StatusFound, res.status)
	assert.Equal(t, "/login", res.location)

	rec, err := f.keys.For(browserID).Read(context.Background())
	require.NoError(t, err)
	assert.True(t, rec.Empty(), "forced logout clears the browser's store")
}

func TestHealthzAndMetrics(t *testing.T) {
	f := newPortalFixture(t)

	res := f.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, res.status)

	res = f.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, res.status)
	assert.Contains(t, res.body, "hready_client_requests_total")
	assert.Contains(t, res.body, "hready_portal_requests_total")
}
