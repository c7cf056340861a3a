package repos

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"shopbill/internal/domain"
)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

const productCols = `
  id, shop_id, barcode, name, COALESCE(brand,'') AS brand, COALESCE(category,'') AS category,
  price, quantity, COALESCE(image_url,'') AS image_url,
  created_at, COALESCE(updated_at,'') AS updated_at`

func (r *ProductRepo) Get(id string) (domain.Product, error) {
	var p domain.Product
	err := r.db.Get(&p, `SELECT `+productCols+` FROM products WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
	}
	return p, err
}

// FindByBarcode is scoped to one shop; a barcode belonging to another
// shop is indistinguishable from an absent one.
func (r *ProductRepo) FindByBarcode(shopID, barcode string) (domain.Product, error) {
	var p domain.Product
	err := r.db.Get(&p, `SELECT `+productCols+` FROM products WHERE shop_id = ? AND barcode = ?`, shopID, barcode)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, fmt.Errorf("product %s: %w", barcode, domain.ErrNotFound)
	}
	return p, err
}

func (r *ProductRepo) ListByShop(shopID string) ([]domain.Product, error) {
	var out []domain.Product
	err := r.db.Select(&out, `SELECT `+productCols+` FROM products WHERE shop_id = ? ORDER BY name`, shopID)
	return out, err
}

// Search matches name or brand substrings, case-insensitive, within one shop.
func (r *ProductRepo) Search(shopID, q string, limit, offset int) ([]domain.Product, error) {
	like := "%" + strings.ToLower(q) + "%"
	var out []domain.Product
	err := r.db.Select(&out, `
	  SELECT `+productCols+`
	  FROM products
	  WHERE shop_id = ? AND (LOWER(name) LIKE ? OR LOWER(brand) LIKE ?)
	  ORDER BY name
	  LIMIT ? OFFSET ?`, shopID, like, like, limit, offset)
	return out, err
}

func (r *ProductRepo) Insert(p domain.Product) error {
	_, err := r.db.Exec(`
	  INSERT INTO products(id, shop_id, barcode, name, brand, category, price, quantity, image_url)
	  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.ShopID, p.Barcode, p.Name, p.Brand, p.Category, p.Price, p.Quantity, p.ImageURL)
	if err != nil && strings.Contains(err.Error(), "UNIQUE") {
		return fmt.Errorf("barcode %s: %w", p.Barcode, domain.ErrDuplicate)
	}
	return err
}

func (r *ProductRepo) Update(p domain.Product) error {
	res, err := r.db.Exec(`
	  UPDATE products
	  SET name = ?, brand = ?, category = ?, price = ?, quantity = ?, image_url = ?, updated_at = CURRENT_TIMESTAMP
	  WHERE id = ?`,
		p.Name, p.Brand, p.Category, p.Price, p.Quantity, p.ImageURL, p.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("product %s: %w", p.ID, domain.ErrNotFound)
	}
	return nil
}

func (r *ProductRepo) Delete(id string) error {
	res, err := r.db.Exec(`DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// TryDecrement atomically subtracts "by" units if enough stock exists.
// The conditional UPDATE is the sole synchronization point: two callers
// racing for the last units can never both pass the qty guard. On
// success it returns the product row as of the decrement, which billing
// uses for its name/price snapshots. UPDATE and snapshot read share one
// transaction so a failed read rolls the decrement back instead of
// stranding stock.
func (r *ProductRepo) TryDecrement(productID string, by int) (domain.Product, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return domain.Product{}, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`
	  UPDATE products
	  SET quantity = quantity - ?, updated_at = CURRENT_TIMESTAMP
	  WHERE id = ? AND quantity >= ?`, by, productID, by)
	if err != nil {
		return domain.Product{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.Product{}, domain.ErrInsufficientStock
	}

	var p domain.Product
	if err := tx.Get(&p, `SELECT `+productCols+` FROM products WHERE id = ?`, productID); err != nil {
		return domain.Product{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

// Restore is the compensating increment for a reservation that has to
// be unwound. It must never fail on a row TryDecrement just touched.
func (r *ProductRepo) Restore(productID string, by int) error {
	_, err := r.db.Exec(`
	  UPDATE products
	  SET quantity = quantity + ?, updated_at = CURRENT_TIMESTAMP
	  WHERE id = ?`, by, productID)
	return err
}
