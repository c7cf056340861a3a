package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "shopbill/internal/log"
	"shopbill/internal/services"
	"shopbill/internal/validate"
)

type ShopHandler struct {
	Shops *services.ShopService
}

func (h *ShopHandler) Create(c *fiber.Ctx) error {
	var req struct {
		Name          string `json:"name"`
		Address       string `json:"address"`
		ContactNumber string `json:"contactNumber"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed body"})
	}
	name, ok := validate.Name(req.Name)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid shop name"})
	}

	u := currentUser(c)
	shop, err := h.Shops.CreateShop(u.Username, name, req.Address, req.ContactNumber)
	if err != nil {
		return jsonError(c, err)
	}
	applog.Audit(c, "shop.create", map[string]any{"shop_id": shop.ID})
	return c.JSON(shop)
}

func (h *ShopHandler) AttachStaff(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed body"})
	}
	staff, ok := validate.Username(req.Username)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid username"})
	}

	u := currentUser(c)
	if err := h.Shops.AttachStaff(u.Username, staff); err != nil {
		return jsonError(c, err)
	}
	applog.Audit(c, "shop.staff.attach", map[string]any{"staff": staff})
	return c.JSON(fiber.Map{"message": "staff attached"})
}

func (h *ShopHandler) Mine(c *fiber.Ctx) error {
	u := currentUser(c)
	shop, err := h.Shops.ResolveMemberShop(u.Username)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(shop)
}
