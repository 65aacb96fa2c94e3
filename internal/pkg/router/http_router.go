package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fcescuela/clubhouse/internal/pkg/middleware"
)

type HttpRouter struct {
	deps Dependencies
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// Apply UserContext middleware globally as first middleware
	app.Use(middleware.UserContextMiddleware(h.deps.Sessions, h.deps.Users))
	app.Use(middleware.AdminAPIKeyMiddleware(h.deps.AdminAPIKey))

	h.registerPublicRoutes(app)
	h.registerAdminRoutes(app)
}

func NewHttpRouter(deps Dependencies) *HttpRouter {
	return &HttpRouter{deps: deps}
}
