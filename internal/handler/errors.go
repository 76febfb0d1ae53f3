package handler

import (
	"errors"
	"log/slog"
	"strconv"

	"cafe-inventory/internal/middleware"
	"cafe-inventory/internal/service"

	"github.com/gofiber/fiber/v2"
)

// respondError maps service errors onto HTTP responses.
func respondError(c *fiber.Ctx, err error) error {
	var verr *service.ValidationError

	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "validation failed",
			"fields": verr.Fields,
		})
	case errors.Is(err, service.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": service.ErrNotFound.Error()})
	case errors.Is(err, service.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidCredentials):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrStorage):
		slog.Error("storage failure", "path", c.Path(), "error", err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "storage unavailable, retry later"})
	default:
		slog.Error("unhandled error", "path", c.Path(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
	}
}

func invalidJSON(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid JSON"})
}

// actor reads the authenticated user set by middleware.RequireAuth.
func actor(c *fiber.Ctx) service.Actor {
	id, _ := c.Locals(middleware.LocalUserID).(string)
	name, _ := c.Locals(middleware.LocalUserName).(string)
	return service.Actor{ID: id, Name: name}
}

func parseID(c *fiber.Ctx) (uint, bool) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 0)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}
