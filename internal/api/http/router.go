package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/dispatch-service/internal/api/http/handlers"
	"github.com/spec-kit/dispatch-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Payouts        *handlers.PayoutsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/admin/login", cfg.Auth.AdminLogin)
	authGroup.Post("/workers/login", cfg.Auth.WorkerLogin)

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	tickets.Get("/refresh", cfg.Tickets.Refresh)
	tickets.Get("/open", auth.RequireWorker(), cfg.Tickets.ListOpen)
	tickets.Get("/mine", auth.RequireWorker(), cfg.Tickets.ListMine)
	tickets.Post("/:id/claim", auth.RequireWorker(), cfg.Tickets.Claim)
	tickets.Post("/:id/report", auth.RequireWorker(), cfg.Tickets.Report)

	tickets.Get("/", auth.RequireAdmin(), cfg.Tickets.List)
	tickets.Post("/", auth.RequireAdmin(), cfg.Tickets.Create)
	tickets.Post("/analyze", auth.RequireAdmin(), cfg.Tickets.Analyze)
	tickets.Post("/:id/approve", auth.RequireAdmin(), cfg.Tickets.Approve)
	tickets.Post("/:id/reject", auth.RequireAdmin(), cfg.Tickets.Reject)
	tickets.Post("/:id/reopen", auth.RequireAdmin(), cfg.Tickets.Reopen)

	payouts := app.Group("/payouts", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	payouts.Get("/me", auth.RequireWorker(), cfg.Payouts.Me)
	payouts.Get("/summary", cfg.Payouts.Summary)
}
