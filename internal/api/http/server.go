package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/abhidhakal/HReady-WebApp-sub001/internal/api/http/handlers"
	"github.com/abhidhakal/HReady-WebApp-sub001/internal/auth"
	"github.com/abhidhakal/HReady-WebApp-sub001/internal/observability"
	"github.com/abhidhakal/HReady-WebApp-sub001/internal/repository"
	"github.com/abhidhakal/HReady-WebApp-sub001/internal/service"
)

// AppConfig bundles what the stub backend app needs.
type AppConfig struct {
	Name    string
	Version string
	Timeout time.Duration
	Logger  *zap.Logger
	Metrics *observability.Metrics
	Auth    *service.AuthService
	Users   repository.UserRepository
	Checks  map[string]handlers.Check
}

// NewApp builds the stub backend fiber app.
func NewApp(cfg AppConfig) *fiber.App {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	app := fiber.New(fiber.Config{AppName: cfg.Name, DisableStartupMessage: true})
	RegisterMiddlewares(app, logger, cfg.Metrics, cfg.Timeout)

	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.Name, cfg.Version, cfg.Checks),
		Auth:           handlers.NewAuthHandler(cfg.Auth),
		Profiles:       handlers.NewProfileHandler(cfg.Auth),
		AuthMiddleware: auth.NewAuthMiddleware(cfg.Auth.TokenManager(), cfg.Users),
	})
	return app
}
