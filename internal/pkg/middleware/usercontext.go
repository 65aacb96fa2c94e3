package middleware

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/session"

	"github.com/fcescuela/clubhouse/app/models"
	"github.com/fcescuela/clubhouse/app/repository"
	appsession "github.com/fcescuela/clubhouse/internal/pkg/session"
	"github.com/fcescuela/clubhouse/internal/pkg/usercontext"
)

// UserLoader is the part of the user repository the middleware needs.
type UserLoader interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
}

// UserContextMiddleware resolves the session's user for every request. Any
// failure leaves the request anonymous.
func UserContextMiddleware(store *session.Store, users UserLoader) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := appsession.UserID(store, c)
		if err != nil {
			log.Warnf("[Session] %v", err)
		}
		if userID == 0 {
			usercontext.Set(c, usercontext.UserContext{}, nil)
			return c.Next()
		}

		user, err := users.GetByID(c.UserContext(), userID)
		if err != nil {
			if !errors.Is(err, repository.ErrNotFound) {
				log.Errorf("[Session] Loading user %d failed: %v", userID, err)
			}
			usercontext.Set(c, usercontext.UserContext{}, nil)
			return c.Next()
		}

		usercontext.Set(c, usercontext.FromUser(user), user)
		return c.Next()
	}
}
