package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/abhidhakal/HReady-WebApp-sub001/internal/api/http/handlers"
	"github.com/abhidhakal/HReady-WebApp-sub001/internal/auth"
	"github.com/abhidhakal/HReady-WebApp-sub001/internal/domain"
)

// APIPrefix is where the stub backend mounts the HReady REST contract.
const APIPrefix = "/api"

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Profiles       *handlers.ProfileHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	api := app.Group(APIPrefix)

	api.Get("/health", cfg.Health.Live)
	api.Get("/health/ready", cfg.Health.Ready)

	authGroup := api.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/logout", cfg.AuthMiddleware.Handle, cfg.Auth.Logout)

	api.Get("/admins/me", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleAdmin), cfg.Profiles.Me)
	api.Get("/employees/me", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleEmployee), cfg.Profiles.Me)
}
