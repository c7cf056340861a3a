package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"shopbill/internal/domain"
	applog "shopbill/internal/log"
	"shopbill/internal/services"
)

// jsonError maps service error kinds onto statuses: absent or
// cross-shop resources are 404, business-rule rejections 400,
// ownership violations 403, bad credentials 401, everything else 500.
func jsonError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrDuplicate):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, domain.ErrUnauthorized):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrBadCreds), errors.Is(err, services.ErrNotVerified):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}
	applog.Error(c, "server.error", err, nil)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
}
