package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sla-engine/internal/api/http/handlers"
	"github.com/spec-kit/sla-engine/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Rules          *handlers.RulesHandler
	Violations     *handlers.ViolationsHandler
	Escalations    *handlers.EscalationsHandler
	Notifications  *handlers.NotificationsHandler
	Reports        *handlers.ReportsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	sla := app.Group("/sla", cfg.AuthMiddleware.Handle)

	// Scheduler-triggered evaluation passes.
	check := sla.Group("/check", auth.RequireRole(auth.RoleScheduler, auth.RoleAdmin))
	check.Post("/violations", cfg.Violations.CheckViolations)
	check.Post("/escalations", cfg.Escalations.CheckEscalations)

	admin := sla.Group("", auth.RequireRole(auth.RoleAdmin))
	admin.Get("/rules", cfg.Rules.ListRules)
	admin.Post("/rules", cfg.Rules.CreateRule)
	admin.Get("/rules/:id", cfg.Rules.GetRule)
	admin.Put("/rules/:id", cfg.Rules.UpdateRule)
	admin.Delete("/rules/:id", cfg.Rules.DeactivateRule)
	admin.Get("/rules/:id/escalations", cfg.Rules.ListEscalationRules)
	admin.Post("/rules/:id/escalations", cfg.Rules.CreateEscalationRule)

	admin.Get("/violations", cfg.Violations.ListViolations)
	admin.Post("/violations/:id/resolve", cfg.Violations.ResolveViolation)
	admin.Post("/tickets/:id/violations/resolve", cfg.Violations.ResolveTicketViolations)

	admin.Get("/escalations", cfg.Escalations.ListEscalations)
	admin.Post("/escalations/:id/resolve", cfg.Escalations.ResolveEscalation)

	admin.Get("/notifications", cfg.Notifications.ListNotifications)
	admin.Post("/notifications/:id/read", cfg.Notifications.MarkRead)

	admin.Get("/reports/compliance", cfg.Reports.ComplianceReport)
}
