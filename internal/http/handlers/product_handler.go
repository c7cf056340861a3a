package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "shopbill/internal/log"
	"shopbill/internal/services"
	"shopbill/internal/validate"
)

type ProductHandler struct {
	Shops   *services.ShopService
	Catalog *services.CatalogService
}

// Add lets any member of the shop (owner or staff) register a product.
func (h *ProductHandler) Add(c *fiber.Ctx) error {
	u := currentUser(c)
	shop, err := h.Shops.ResolveMemberShop(u.Username)
	if err != nil {
		return jsonError(c, err)
	}

	var in services.ProductInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed body"})
	}
	barcode, ok := validate.Barcode(in.Barcode)
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "barcode"})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid barcode"})
	}
	in.Barcode = barcode

	p, err := h.Catalog.AddProduct(shop, in)
	if err != nil {
		return jsonError(c, err)
	}
	applog.Audit(c, "product.add", map[string]any{"product_id": p.ID, "barcode": p.Barcode})
	return c.JSON(p)
}

func (h *ProductHandler) List(c *fiber.Ctx) error {
	u := currentUser(c)
	shop, err := h.Shops.ResolveMemberShop(u.Username)
	if err != nil {
		return jsonError(c, err)
	}
	products, err := h.Catalog.ListProducts(shop)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(products)
}

func (h *ProductHandler) ByBarcode(c *fiber.Ctx) error {
	barcode, ok := validate.Barcode(c.Params("barcode"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid barcode"})
	}
	u := currentUser(c)
	shop, err := h.Shops.ResolveMemberShop(u.Username)
	if err != nil {
		return jsonError(c, err)
	}
	p, err := h.Catalog.GetByBarcode(shop, barcode)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(p)
}

// Update and Delete are owner-only.
func (h *ProductHandler) Update(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid product id"})
	}
	u := currentUser(c)
	shop, err := h.Shops.ResolveOwnedShop(u.Username)
	if err != nil {
		return jsonError(c, err)
	}

	var in services.ProductInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed body"})
	}
	p, err := h.Catalog.UpdateProduct(shop, id, in)
	if err != nil {
		return jsonError(c, err)
	}
	applog.Audit(c, "product.update", map[string]any{"product_id": p.ID})
	return c.JSON(p)
}

func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid product id"})
	}
	u := currentUser(c)
	shop, err := h.Shops.ResolveOwnedShop(u.Username)
	if err != nil {
		return jsonError(c, err)
	}
	if err := h.Catalog.DeleteProduct(shop, id); err != nil {
		return jsonError(c, err)
	}
	applog.Audit(c, "product.delete", map[string]any{"product_id": id})
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *ProductHandler) Search(c *fiber.Ctx) error {
	q, ok := validate.Q(c.Query("q"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid search query"})
	}
	u := currentUser(c)
	shop, err := h.Shops.ResolveMemberShop(u.Username)
	if err != nil {
		return jsonError(c, err)
	}
	products, err := h.Catalog.Search(shop, q, c.QueryInt("page", 1), c.QueryInt("pageSize", 20))
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(products)
}
