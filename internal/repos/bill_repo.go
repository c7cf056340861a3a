package repos

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"shopbill/internal/domain"
)

type BillRepo struct{ db *sqlx.DB }

func NewBillRepo(db *sqlx.DB) *BillRepo { return &BillRepo{db: db} }

// Save persists the bill header and its line items as one transaction.
// The commit here is the sole visibility point: readers either see the
// whole bill or nothing.
func (r *BillRepo) Save(b *domain.Bill) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`
	  INSERT INTO bills(id, shop_id, customer_name, total_amount, created_at)
	  VALUES (?, ?, ?, ?, ?)`,
		b.ID, b.ShopID, b.CustomerName, b.TotalAmount, b.CreatedAt); err != nil {
		return err
	}

	for i := range b.Items {
		it := &b.Items[i]
		it.BillID = b.ID
		it.Position = i
		if _, err := tx.Exec(`
		  INSERT INTO bill_items(bill_id, position, product_name, barcode, quantity, price_per_unit, total_price)
		  VALUES (?, ?, ?, ?, ?, ?, ?)`,
			it.BillID, it.Position, it.ProductName, it.Barcode, it.Quantity, it.PricePerUnit, it.TotalPrice); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *BillRepo) Get(billID string) (domain.Bill, error) {
	var b domain.Bill
	err := r.db.Get(&b, `
	  SELECT id, shop_id, customer_name, total_amount, created_at
	  FROM bills WHERE id = ?`, billID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Bill{}, fmt.Errorf("bill %s: %w", billID, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Bill{}, err
	}
	if err := r.db.Select(&b.Items, `
	  SELECT bill_id, position, product_name, barcode, quantity, price_per_unit, total_price
	  FROM bill_items WHERE bill_id = ? ORDER BY position`, billID); err != nil {
		return domain.Bill{}, err
	}
	return b, nil
}

// ListByShop returns a shop's bills oldest first; ties on created_at
// break on id so the order is stable.
func (r *BillRepo) ListByShop(shopID string) ([]domain.Bill, error) {
	var bills []domain.Bill
	if err := r.db.Select(&bills, `
	  SELECT id, shop_id, customer_name, total_amount, created_at
	  FROM bills
	  WHERE shop_id = ?
	  ORDER BY created_at, id`, shopID); err != nil {
		return nil, err
	}
	for i := range bills {
		if err := r.db.Select(&bills[i].Items, `
		  SELECT bill_id, position, product_name, barcode, quantity, price_per_unit, total_price
		  FROM bill_items WHERE bill_id = ? ORDER BY position`, bills[i].ID); err != nil {
			return nil, err
		}
	}
	return bills, nil
}
