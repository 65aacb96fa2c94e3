package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/fcescuela/clubhouse/internal/pkg/middleware"
)

const webhookPath = "/api/webhook"

type ApiRouter struct {
	deps Dependencies
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	limit := h.deps.RateLimit
	if limit <= 0 {
		limit = 120
	}
	origins := h.deps.CORSOrigins
	if origins == "" {
		origins = "*"
	}

	api := app.Group("/api",
		cors.New(cors.Config{AllowOrigins: origins}),
		limiter.New(limiter.Config{
			Max:        limit,
			Expiration: time.Minute,
			// payment provider retries must never be throttled
			Next: func(c *fiber.Ctx) bool { return c.Path() == webhookPath },
		}),
	)
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	// Payment provider callback; authenticated by signature, not session.
	api.Post("/webhook", h.deps.Webhook.HandleStripeWebhook)

	lc := h.deps.Listings
	api.Get("/matches", lc.HandleMatches)
	api.Get("/matches/next", lc.HandleNextMatch)
	api.Get("/matches/stats", lc.HandleStats)
	api.Get("/matches/:id", lc.HandleMatch)
	api.Get("/recent-matches", lc.HandleRecentMatches)
	api.Get("/tickets", lc.HandleTickets)
	api.Get("/news", lc.HandleNews)
	api.Get("/news/:slug", lc.HandleArticle)
	api.Get("/team", lc.HandleTeam)
	api.Get("/search", lc.HandleSearch)

	api.Get("/me", h.deps.Account.HandleMe)
	api.Get("/membership", h.deps.Account.HandleMembershipPlans)

	requireAuth := middleware.RequireAPISessionAuth
	api.Get("/orders", requireAuth, h.deps.Account.HandleOrders)

	cc := h.deps.Checkout
	api.Post("/checkout/tickets", requireAuth, cc.HandleTicketCheckout)
	api.Post("/checkout/payment-intent", requireAuth, cc.HandleTicketPaymentIntent)
	api.Post("/checkout/membership", requireAuth, cc.HandleMembershipCheckout)
}

func NewApiRouter(deps Dependencies) *ApiRouter {
	return &ApiRouter{deps: deps}
}
