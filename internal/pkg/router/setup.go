package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"

	"github.com/fcescuela/clubhouse/app/controllers"
	"github.com/fcescuela/clubhouse/internal/pkg/middleware"
)

type Router interface {
	InstallRouter(app *fiber.App)
}

// Dependencies carries everything the routers hand to middleware and handlers.
type Dependencies struct {
	Sessions    *session.Store
	Users       middleware.UserLoader
	AdminAPIKey string
	// DevLogin exposes /dev/login/:id for local testing without the identity provider.
	DevLogin    bool
	CORSOrigins string
	RateLimit   int

	Checkout *controllers.CheckoutController
	Webhook  *controllers.WebhookController
	Listings *controllers.ListingsController
	Account  *controllers.AccountController
	Admin    *controllers.AdminController
}

func InstallRouter(app *fiber.App, deps Dependencies) {
	// HttpRouter installs the global user context middleware the API routes
	// depend on, so it goes first.
	setup(app, NewHttpRouter(deps), NewApiRouter(deps))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
