package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"shopbill/internal/domain"
	applog "shopbill/internal/log"
	"shopbill/internal/services"
)

// RequireAuth resolves the bearer token into a user and stashes it in
// Locals for the handlers downstream.
func RequireAuth(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing bearer token"})
		}
		u, err := auth.ParseToken(token)
		if err != nil {
			applog.Security(c, "auth.token.reject", nil)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid or expired token"})
		}
		c.Locals("user", u)
		c.Locals("username", u.Username)
		return c.Next()
	}
}

func currentUser(c *fiber.Ctx) *domain.User {
	u, _ := c.Locals("user").(*domain.User)
	return u
}
