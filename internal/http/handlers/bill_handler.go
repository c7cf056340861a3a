package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "shopbill/internal/log"
	"shopbill/internal/services"
	"shopbill/internal/validate"
)

type BillHandler struct {
	Shops   *services.ShopService
	Billing *services.BillingService
}

type billRequest struct {
	CustomerName string              `json:"customerName"`
	Items        []services.CartLine `json:"items"`
}

func (h *BillHandler) Create(c *fiber.Ctx) error {
	u := currentUser(c)
	shop, err := h.Shops.ResolveMemberShop(u.Username)
	if err != nil {
		return jsonError(c, err)
	}

	var req billRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed body"})
	}
	name, ok := validate.Name(req.CustomerName)
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "customerName"})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid customer name"})
	}
	for _, ln := range req.Items {
		if _, ok := validate.Barcode(ln.Barcode); !ok {
			applog.Security(c, "validation.fail", map[string]any{"field": "barcode"})
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid barcode in cart"})
		}
	}

	bill, err := h.Billing.CreateBill(shop, name, req.Items)
	if err != nil {
		applog.Info(c, "bill.create.fail", map[string]any{"shop_id": shop.ID, "error": err.Error()})
		return jsonError(c, err)
	}
	applog.Audit(c, "bill.create", map[string]any{
		"bill_id": bill.ID,
		"shop_id": shop.ID,
		"total":   bill.TotalAmount.String(),
		"lines":   len(bill.Items),
	})
	return c.JSON(bill)
}

func (h *BillHandler) List(c *fiber.Ctx) error {
	u := currentUser(c)
	shop, err := h.Shops.ResolveMemberShop(u.Username)
	if err != nil {
		return jsonError(c, err)
	}
	bills, err := h.Billing.ListBills(shop)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(bills)
}

func (h *BillHandler) View(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid bill id"})
	}
	u := currentUser(c)
	shop, err := h.Shops.ResolveMemberShop(u.Username)
	if err != nil {
		return jsonError(c, err)
	}
	bill, err := h.Billing.GetBill(shop, id)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(bill)
}
