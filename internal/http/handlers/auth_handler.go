package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "shopbill/internal/log"
	"shopbill/internal/services"
	"shopbill/internal/validate"
)

type AuthHandler struct {
	Auth *services.AuthService
}

func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req services.SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed body"})
	}
	username, ok := validate.Username(req.Username)
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "username"})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid username"})
	}
	email, ok := validate.Email(req.Email)
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "email"})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid email"})
	}
	if !validate.Password(req.Password) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "password must be 8-64 chars with upper, lower and digit"})
	}
	req.Username = username
	req.Email = email

	u, err := h.Auth.Signup(req)
	if err != nil {
		return jsonError(c, err)
	}
	applog.Audit(c, "user.signup", map[string]any{"username": u.Username, "role": u.Role})
	return c.JSON(u)
}

func (h *AuthHandler) Verify(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed body"})
	}
	if err := h.Auth.Verify(req.Email, req.Code); err != nil {
		applog.Security(c, "user.verify.fail", map[string]any{"email": req.Email})
		return jsonError(c, err)
	}
	applog.Audit(c, "user.verify", map[string]any{"email": req.Email})
	return c.JSON(fiber.Map{"message": "verification successful"})
}

func (h *AuthHandler) Resend(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed body"})
	}
	if err := h.Auth.ResendCode(req.Email); err != nil {
		return jsonError(c, err)
	}
	return c.JSON(fiber.Map{"message": "verification code sent"})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed body"})
	}
	if req.Email == "" || req.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "email and password are required"})
	}
	token, err := h.Auth.Login(req.Email, req.Password)
	if err != nil {
		applog.Security(c, "login.fail", map[string]any{"email": req.Email})
		return jsonError(c, err)
	}
	applog.Audit(c, "login.ok", map[string]any{"email": req.Email})
	return c.JSON(fiber.Map{"token": token})
}
