package router

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/fcescuela/clubhouse/internal/pkg/session"
)

func (h HttpRouter) registerPublicRoutes(app *fiber.App) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	if h.deps.DevLogin {
		log.Warn("[Router] Dev login route enabled")
		app.Get("/dev/login/:id", h.handleDevLogin)
	}
}

func (h HttpRouter) handleDevLogin(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_id"})
	}
	if _, err := h.deps.Users.GetByID(c.UserContext(), uint(id)); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found"})
	}
	if err := session.Login(h.deps.Sessions, c, uint(id)); err != nil {
		log.Errorf("[Router] Dev login failed: %v", err)
		return c.SendStatus(fiber.StatusInternalServerError)
	}
	return c.JSON(fiber.Map{"user_id": id})
}
