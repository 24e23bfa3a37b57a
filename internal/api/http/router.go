package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/tecnico-console/internal/api/http/handlers"
	"github.com/spec-kit/tecnico-console/internal/auth"
	"github.com/spec-kit/tecnico-console/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health     *handlers.HealthHandler
	Auth       *handlers.AuthHandler
	Console    *handlers.ConsoleHandler
	Assignment *handlers.AssignmentHandler
	Resolution *handlers.ResolutionHandler
	// AuthMiddleware is nil when the console API runs without tokens.
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Metrics.Registry(), promhttp.HandlerOpts{})))
	}

	if cfg.Auth != nil {
		app.Post("/auth/login", cfg.Auth.Login)
	}

	console := app.Group("/console")
	if cfg.AuthMiddleware != nil {
		console.Use(cfg.AuthMiddleware.Handle, auth.RequireRole(auth.RoleTechnician))
	}

	console.Get("/session", cfg.Console.Session)
	console.Get("/tickets", cfg.Console.ListTickets)
	console.Post("/tickets/reload", cfg.Console.Reload)
	console.Get("/tickets/:id", cfg.Console.OpenDetail)
	console.Delete("/detail", cfg.Console.CloseDetail)
	console.Get("/detail", cfg.Console.Detail)
	console.Get("/counters", cfg.Console.Counters)
	console.Post("/counters/refresh", cfg.Console.RefreshCounters)
	console.Get("/notifications", cfg.Console.Notifications)

	console.Post("/tickets/:id/assignment", cfg.Assignment.Begin)
	console.Get("/assignment", cfg.Assignment.Get)
	console.Put("/assignment", cfg.Assignment.Update)
	console.Post("/assignment/confirm", cfg.Assignment.Confirm)
	console.Delete("/assignment", cfg.Assignment.Cancel)

	console.Post("/tickets/:id/state", cfg.Resolution.ChangeState)
	console.Post("/tickets/:id/notes", cfg.Resolution.AddNote)
}
