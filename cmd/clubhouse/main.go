package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/fcescuela/clubhouse/app/controllers"
	"github.com/fcescuela/clubhouse/app/repository"
	"github.com/fcescuela/clubhouse/internal/pkg/billing"
	"github.com/fcescuela/clubhouse/internal/pkg/cache"
	"github.com/fcescuela/clubhouse/internal/pkg/capacity"
	"github.com/fcescuela/clubhouse/internal/pkg/checkout"
	"github.com/fcescuela/clubhouse/internal/pkg/database"
	"github.com/fcescuela/clubhouse/internal/pkg/entitlements"
	"github.com/fcescuela/clubhouse/internal/pkg/env"
	"github.com/fcescuela/clubhouse/internal/pkg/events"
	"github.com/fcescuela/clubhouse/internal/pkg/fulfillment"
	"github.com/fcescuela/clubhouse/internal/pkg/jobqueue"
	"github.com/fcescuela/clubhouse/internal/pkg/listings"
	"github.com/fcescuela/clubhouse/internal/pkg/mail"
	"github.com/fcescuela/clubhouse/internal/pkg/membership"
	"github.com/fcescuela/clubhouse/internal/pkg/metrics/counter"
	"github.com/fcescuela/clubhouse/internal/pkg/orders"
	"github.com/fcescuela/clubhouse/internal/pkg/router"
	"github.com/fcescuela/clubhouse/internal/pkg/session"
)

func main() {
	env.SetupEnvFile()

	db, err := database.SetupDatabase()
	if err != nil {
		log.Fatalf("Database: %v", err)
	}
	redisClient := cache.NewClientFromEnv()
	store := cache.New(redisClient)
	repos := repository.NewRepositories(db)

	// background jobs: purchase emails and the capacity audit
	ledger := capacity.NewLedgerFromRepositories(repos)
	queue := jobqueue.NewQueue(redisClient, env.GetEnvInt("JOBQUEUE_WORKERS", 3))
	checkoutCfg := checkout.ConfigFromEnv()
	jobqueue.RegisterMailHandlers(queue, mail.NewSMTPMailerFromEnv(), env.GetEnv("CLUB_OFFICE_EMAIL", ""), checkoutCfg.PublicURL)
	manager := jobqueue.NewManager(queue, auditCapacity(ledger), env.GetEnvDuration("CAPACITY_AUDIT_INTERVAL", time.Hour))
	if err := manager.Start(); err != nil {
		log.Fatalf("Job queue: %v", err)
	}

	publisher := events.FromEnv()
	processor := billing.NewStripeClientFromEnv()
	plans := entitlements.NewCatalogFromEnv()
	members := membership.NewServiceFromDB(db, nil)
	counters := counter.New(redisClient)

	site := listings.NewService(repos, store, listings.Config{
		BasePriceCents: checkoutCfg.BasePriceCents,
		TeamName:       env.GetEnv("CLUB_TEAM_NAME", ""),
	})
	initiator := checkout.NewInitiator(ledger, processor, plans, checkoutCfg)
	fulfiller := fulfillment.NewProcessor(fulfillment.Deps{
		WebhookSecret: env.GetEnv("STRIPE_WEBHOOK_SECRET", ""),
		Billing:       processor,
		Tickets:       fulfillment.NewTicketStore(db),
		Memberships:   members,
		Plans:         plans,
		Cache:         store,
		Notifier:      queue,
		Events:        publisher,
	})

	app := fiber.New(fiber.Config{
		BodyLimit: 1 << 20,
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber metrics
	app.Get("/metrics", basicauth.New(basicauth.Config{
		Users: map[string]string{
			env.GetEnv("METRICS_USER", "admin"): env.GetEnv("METRICS_PASSWORD", "change-me"),
		},
	}), monitor.New())

	sessionCfg := session.ConfigFromEnv()
	router.InstallRouter(app, router.Dependencies{
		Sessions:    session.NewStore(session.NewRedisStorage(redisClient), sessionCfg),
		Users:       repos.User,
		AdminAPIKey: env.GetEnv("ADMIN_API_KEY", ""),
		DevLogin:    env.IsDev() && env.GetEnvBool("DEV_LOGIN", false),
		CORSOrigins: env.GetEnv("CORS_ORIGINS", ""),
		RateLimit:   env.GetEnvInt("API_RATE_LIMIT", 120),
		Checkout:    controllers.NewCheckoutController(initiator),
		Webhook:     controllers.NewWebhookController(fulfiller).WithCounter(counters),
		Listings:    controllers.NewListingsController(site),
		Account:     controllers.NewAccountController(plans, members, orders.NewService(repos.Ticket, members)),
		Admin:       controllers.NewAdminController(site, repos.Refund, ledger).WithCounters(counters).WithJobs(queue),
	})

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("Shutdown: %v", err)
		}
	}()

	addr := fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000"))
	if err := app.Listen(addr); err != nil {
		log.Printf("Listen: %v", err)
	}

	manager.Stop()
	if err := publisher.Close(); err != nil {
		log.Printf("Events: %v", err)
	}
	if err := redisClient.Close(); err != nil {
		log.Printf("Cache: %v", err)
	}
}

// auditCapacity adapts the ledger audit to the scheduler; overbooked matches
// are logged by the ledger itself.
func auditCapacity(ledger *capacity.Ledger) jobqueue.Auditor {
	return func(ctx context.Context) error {
		_, err := ledger.Audit(ctx)
		return err
	}
}
