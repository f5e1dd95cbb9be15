// Package portal is the browser-facing front end. Every browser is identified by a
// cookie and gets its own token store namespace, session manager and route guards.
package portal

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"go.uber.org/zap"

	httptransport "github.com/abhidhakal/HReady-WebApp-sub001/internal/api/http"
	"github.com/abhidhakal/HReady-WebApp-sub001/internal/apiclient"
	"github.com/abhidhakal/HReady-WebApp-sub001/internal/domain"
	"github.com/abhidhakal/HReady-WebApp-sub001/internal/events"
	"github.com/abhidhakal/HReady-WebApp-sub001/internal/guard"
	"github.com/abhidhakal/HReady-WebApp-sub001/internal/observability"
	"github.com/abhidhakal/HReady-WebApp-sub001/internal/tokenstore"
)

// Config tunes the portal.
type Config struct {
	Name         string
	CookieName   string
	CookieSecure bool
	LoginPath    string
	Timeout      time.Duration
}

// Server hosts the portal routes.
type Server struct {
	cfg        Config
	client     *apiclient.Client
	keyspace   tokenstore.Keyspace
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
	now        func() time.Time
}

// Dependencies are the collaborators shared by every browser session.
type Dependencies struct {
	Client     *apiclient.Client
	Keyspace   tokenstore.Keyspace
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Metrics    *observability.Metrics
	Now        func() time.Time
}

// NewServer builds the portal.
func NewServer(cfg Config, deps Dependencies) *Server {
	if cfg.CookieName == "" {
		cfg.CookieName = "hready_sid"
	}
	if cfg.LoginPath == "" {
		cfg.LoginPath = "/login"
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Server{
		cfg:        cfg,
		client:     deps.Client,
		keyspace:   deps.Keyspace,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		metrics:    deps.Metrics,
		now:        now,
	}
}

// App returns the fiber app with every portal route registered.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{AppName: s.cfg.Name, DisableStartupMessage: true})
	httptransport.RegisterMiddlewares(app, s.logger, s.metrics, s.cfg.Timeout)

	app.Get("/healthz", s.healthz)
	if s.metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(s.metrics.Handler()))
	}

	pages := app.Group("", s.browserSession)
	pages.Get(s.cfg.LoginPath, s.loginPage)
	pages.Post(s.cfg.LoginPath, s.login)
	pages.Post("/logout", s.logout)

	opts := guard.Options{Logger: s.logger, Metrics: s.metrics}
	pages.Get("/dashboard", guard.Middleware(resolveSession, "", opts), s.dashboard("dashboard"))
	pages.Get("/admin/dashboard", guard.Middleware(resolveSession, domain.RoleAdmin, opts), s.dashboard("admin-dashboard"))
	pages.Get("/employee/dashboard", guard.Middleware(resolveSession, domain.RoleEmployee, opts), s.dashboard("employee-dashboard"))

	return app
}

func resolveSession(c *fiber.Ctx) (guard.Session, error) {
	b := browserFrom(c)
	if b == nil {
		return nil, fiber.ErrInternalServerError
	}
	return b.manager, nil
}

// homeFor is where a signed-in user lands.
func homeFor(role domain.Role) string {
	switch role {
	case domain.RoleAdmin:
		return "/admin/dashboard"
	case domain.RoleEmployee:
		return "/employee/dashboard"
	default:
		return "/dashboard"
	}
}
