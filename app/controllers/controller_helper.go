package controllers

import (
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

func jsonError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error":   code,
		"message": message,
	})
}

func internalError(c *fiber.Ctx) error {
	return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Something went wrong")
}

// parseID reads a positive numeric route parameter.
func parseID(c *fiber.Ctx, name string) (uint, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(c.Params(name)), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// bindJSON decodes and validates the request body into out.
func bindJSON(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_request", "Request body could not be parsed")
	}
	if err := validate.Struct(out); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_request", err.Error())
	}
	return nil
}
