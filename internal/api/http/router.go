package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/counsellor-desk/internal/api/http/handlers"
	"github.com/spec-kit/counsellor-desk/internal/auth"
	"github.com/spec-kit/counsellor-desk/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Tickets        *handlers.TicketsHandler
	Queries        *handlers.QueriesHandler
	Broadcasts     *handlers.BroadcastsHandler
	Webhook        *handlers.WebhookHandler
	Counsellors    *handlers.CounsellorsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/auth/counsellors/login", cfg.Counsellors.Login)

	// Provider webhooks are authenticated upstream by the gateway, not here.
	app.Post("/webhook/wati", cfg.Webhook.Receive)

	api := app.Group("/api", cfg.AuthMiddleware.Handle, auth.RequireRole())
	api.Get("/tickets", cfg.Tickets.List)
	api.Get("/tickets/:id", cfg.Tickets.Get)
	api.Post("/tickets/:id/reply", cfg.Tickets.Reply)
	api.Patch("/tickets/:id/status", cfg.Tickets.SetStatus)

	api.Post("/queries/:phone/resolve", cfg.Queries.Resolve)

	api.Get("/broadcasts/failed", cfg.Broadcasts.ListFailed)
	api.Post("/broadcasts/:id/resend", cfg.Broadcasts.MarkResent)

	api.Get("/webhook-events", cfg.Webhook.ListEvents)

	admin := app.Group("/api/admin", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleAdmin))
	admin.Post("/counsellors", cfg.Counsellors.Register)
}
