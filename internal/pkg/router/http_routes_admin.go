package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fcescuela/clubhouse/internal/pkg/middleware"
)

func (h HttpRouter) registerAdminRoutes(app *fiber.App) {
	ac := h.deps.Admin
	adminGroup := app.Group("/admin", middleware.RequireAdmin)

	// Content
	adminGroup.Post("/matches", ac.HandleCreateMatch)
	adminGroup.Put("/matches/:id", ac.HandleUpdateMatch)
	adminGroup.Post("/news", ac.HandleCreateNews)

	// Refund queue + capacity audit
	adminGroup.Get("/refunds", ac.HandleRefundRequests)
	adminGroup.Post("/refunds/:id/resolve", ac.HandleResolveRefund)
	adminGroup.Get("/capacity-audit", ac.HandleCapacityAudit)
	adminGroup.Get("/counters", ac.HandleCounters)
	adminGroup.Get("/jobs", ac.HandleJobStats)
}
