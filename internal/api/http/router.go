package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/nile-labs/registration-service/internal/api/http/handlers"
	"github.com/nile-labs/registration-service/internal/auth"
	"github.com/nile-labs/registration-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Auth           *handlers.AuthHandler
	AuthMiddleware *auth.Middleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Get("/user", cfg.AuthMiddleware.Handle, auth.RequireRole(), cfg.Auth.CurrentUser)

	users := app.Group("/users")
	users.Post("/register", cfg.Users.Register)
	users.Get("", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleAdmin), cfg.Users.List)
	users.Get("/:id", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleMember, domain.RoleAdmin), cfg.Users.GetByID)
}
