package session

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/storage/redis/v3"
	goredis "github.com/redis/go-redis/v9"

	"github.com/fcescuela/clubhouse/internal/pkg/env"
)

// Session keys written by the identity provider's login flow.
const (
	KeyUserID = "user_id"
)

type Config struct {
	Expiration   time.Duration
	CookieSecure bool
}

// ConfigFromEnv reads SESSION_EXPIRATION and derives CookieSecure from APP_ENV.
func ConfigFromEnv() Config {
	return Config{
		Expiration:   env.GetEnvDuration("SESSION_EXPIRATION", time.Hour),
		CookieSecure: env.GetEnv("APP_ENV", "dev") == "prod",
	}
}

// NewStore creates the session store. A nil storage keeps sessions in memory.
func NewStore(storage fiber.Storage, cfg Config) *session.Store {
	if cfg.Expiration <= 0 {
		cfg.Expiration = time.Hour
	}
	return session.New(session.Config{
		Storage:        storage,
		CookieHTTPOnly: true,
		CookieSecure:   cfg.CookieSecure,
		CookieSameSite: "Lax",
		Expiration:     cfg.Expiration,
		KeyLookup:      "cookie:session_id",
	})
}

// NewRedisStorage places sessions on the cache server, in database 1 so they
// never collide with cache keys in database 0.
func NewRedisStorage(client *goredis.Client) fiber.Storage {
	host := "localhost"
	port := 6379
	password := env.GetEnv("CACHE_PASSWORD", "")
	if client != nil {
		opts := client.Options()
		if h, p, err := net.SplitHostPort(opts.Addr); err == nil {
			host = h
			if v, err := strconv.Atoi(p); err == nil {
				port = v
			}
		}
		if opts.Password != "" {
			password = opts.Password
		}
	}

	return redis.New(redis.Config{
		Host:     host,
		Port:     port,
		Password: password,
		Database: 1,
		Reset:    false,
	})
}

// UserID returns the logged-in user id held by the request's session.
func UserID(store *session.Store, c *fiber.Ctx) (uint, error) {
	sess, err := store.Get(c)
	if err != nil {
		return 0, fmt.Errorf("failed to get session: %w", err)
	}
	switch v := sess.Get(KeyUserID).(type) {
	case uint:
		return v, nil
	case int:
		if v > 0 {
			return uint(v), nil
		}
	case uint64:
		return uint(v), nil
	case string:
		if id, err := strconv.ParseUint(v, 10, 64); err == nil {
			return uint(id), nil
		}
	}
	return 0, nil
}

// Login binds userID to the request's session.
func Login(store *session.Store, c *fiber.Ctx, userID uint) error {
	sess, err := store.Get(c)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}
	sess.Set(KeyUserID, userID)
	return sess.Save()
}
