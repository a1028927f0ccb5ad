package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sla-engine/internal/api/http/handlers"
	"github.com/spec-kit/sla-engine/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Tickets        *handlers.TicketsHandler
	Reports        *handlers.ReportsHandler
	Policies       *handlers.PoliciesHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	protected := app.Group("", cfg.AuthMiddleware.Handle)

	tickets := protected.Group("/tickets")
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Post("/:id/first-response", cfg.Tickets.RecordFirstResponse)
	tickets.Post("/:id/resolve", cfg.Tickets.ResolveTicket)

	reports := protected.Group("/reports")
	reports.Get("/technician-performance", cfg.Reports.TechnicianPerformance)

	sla := protected.Group("/sla")
	sla.Get("/breach-report", cfg.Reports.BreachReport)
	sla.Get("/policies", cfg.Policies.ListPolicies)
	sla.Put("/policies/:priority", auth.RequireAdmin(), cfg.Policies.UpsertPolicy)
}
