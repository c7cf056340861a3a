package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"shopbill/internal/domain"
	applog "shopbill/internal/log"
	"shopbill/internal/repos"
)

// CartLine is one scanned entry at the counter. Duplicate barcodes stay
// separate lines; quantities are never merged.
type CartLine struct {
	Barcode  string `json:"barcode"`
	Quantity int    `json:"quantity"`
}

type BillingService struct {
	Products *repos.ProductRepo
	Bills    *repos.BillRepo
}

func NewBillingService(products *repos.ProductRepo, bills *repos.BillRepo) *BillingService {
	return &BillingService{Products: products, Bills: bills}
}

type reservation struct {
	productID string
	qty       int
}

// CreateBill turns a cart into a persisted bill while keeping inventory
// consistent. It runs in phases:
//
//  1. resolve every barcode within the shop; nothing is mutated if any
//     line fails to resolve,
//  2. reserve stock line by line with conditional decrements, unwinding
//     all applied decrements in reverse order if one line comes up short,
//  3. compose line items from the product state at decrement time, so a
//     concurrent price edit between phases cannot produce stale totals,
//  4. persist header and items as one unit, compensating the decrements
//     if the write fails.
//
// There is no cross-row database transaction around the whole call; the
// explicit compensation is what makes the operation all-or-nothing.
func (s *BillingService) CreateBill(shop domain.Shop, customerName string, lines []CartLine) (domain.Bill, error) {
	if len(lines) == 0 {
		return domain.Bill{}, fmt.Errorf("empty cart: %w", domain.ErrInvalidInput)
	}
	for _, ln := range lines {
		if ln.Quantity <= 0 {
			return domain.Bill{}, fmt.Errorf("quantity for %s must be positive: %w", ln.Barcode, domain.ErrInvalidInput)
		}
	}

	// Resolve phase.
	resolved := make([]domain.Product, 0, len(lines))
	for _, ln := range lines {
		p, err := s.Products.FindByBarcode(shop.ID, ln.Barcode)
		if err != nil {
			return domain.Bill{}, err
		}
		resolved = append(resolved, p)
	}

	// Reserve phase, in cart order.
	applied := make([]reservation, 0, len(lines))
	items := make([]domain.BillItem, 0, len(lines))
	total := decimal.Zero
	for i, ln := range lines {
		snap, err := s.Products.TryDecrement(resolved[i].ID, ln.Quantity)
		if err != nil {
			s.compensate(applied)
			if errors.Is(err, domain.ErrInsufficientStock) {
				return domain.Bill{}, &domain.StockError{ProductName: resolved[i].Name, Requested: ln.Quantity}
			}
			return domain.Bill{}, err
		}
		applied = append(applied, reservation{productID: snap.ID, qty: ln.Quantity})

		lineTotal := snap.Price.Mul(decimal.NewFromInt(int64(ln.Quantity)))
		items = append(items, domain.BillItem{
			ProductName:  snap.Name,
			Barcode:      snap.Barcode,
			Quantity:     ln.Quantity,
			PricePerUnit: snap.Price,
			TotalPrice:   lineTotal,
		})
		total = total.Add(lineTotal)
	}

	bill := domain.Bill{
		ID:           uuid.NewString(),
		ShopID:       shop.ID,
		CustomerName: customerName,
		TotalAmount:  total,
		CreatedAt:    domain.BillTimestamp(time.Now()),
		Items:        items,
	}
	if err := s.Bills.Save(&bill); err != nil {
		// Stock was already taken; give it back before surfacing.
		s.compensate(applied)
		return domain.Bill{}, &domain.PersistError{Err: err}
	}
	return bill, nil
}

// compensate restores reservations newest first, with the exact amounts
// previously subtracted.
func (s *BillingService) compensate(applied []reservation) {
	for i := len(applied) - 1; i >= 0; i-- {
		if err := s.Products.Restore(applied[i].productID, applied[i].qty); err != nil {
			applog.Error(nil, "billing.restore.fail", err, map[string]any{
				"product_id": applied[i].productID,
				"qty":        applied[i].qty,
			})
		}
	}
}

func (s *BillingService) ListBills(shop domain.Shop) ([]domain.Bill, error) {
	return s.Bills.ListByShop(shop.ID)
}

func (s *BillingService) GetBill(shop domain.Shop, billID string) (domain.Bill, error) {
	b, err := s.Bills.Get(billID)
	if err != nil {
		return domain.Bill{}, err
	}
	if b.ShopID != shop.ID {
		// Cross-shop bills look absent, never forbidden.
		return domain.Bill{}, fmt.Errorf("bill %s: %w", billID, domain.ErrNotFound)
	}
	return b, nil
}
