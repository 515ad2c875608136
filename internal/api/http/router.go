package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/cheese-market/internal/api/http/handlers"
	"github.com/spec-kit/cheese-market/internal/auth"
	"github.com/spec-kit/cheese-market/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Listings       *handlers.ListingsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes. Per-operation authorization is declared
// here: listing creation needs an authenticated user, deletion needs
// ROLE_ADMIN, reads and updates are open. Anonymous reads still resolve a
// principal when a token is supplied so views can widen for administrators.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/api/login_check", cfg.Users.Login)

	app.Post("/users", cfg.Users.Register)
	app.Get("/users/:id", cfg.AuthMiddleware.Handle, cfg.Users.GetUser)

	cheeses := app.Group("/cheeses", cfg.AuthMiddleware.HandleOptional)
	cheeses.Get("", cfg.Listings.ListListings)
	cheeses.Post("", auth.RequireAuthenticated(), cfg.Listings.CreateListing)
	cheeses.Get("/:id", cfg.Listings.GetListing)
	cheeses.Put("/:id", cfg.Listings.UpdateListing)
	cheeses.Delete("/:id", auth.RequireRole(domain.RoleAdmin), cfg.Listings.DeleteListing)

	// Legacy item route kept for compatibility with existing clients.
	app.Get("/icheeses/:id", cfg.AuthMiddleware.HandleOptional, cfg.Listings.GetListing)
}
