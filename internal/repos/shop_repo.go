package repos

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"shopbill/internal/domain"
)

type ShopRepo struct{ db *sqlx.DB }

func NewShopRepo(db *sqlx.DB) *ShopRepo { return &ShopRepo{db: db} }

const shopCols = `id, name, COALESCE(address,'') AS address, COALESCE(contact_number,'') AS contact_number, owner_username`

func (r *ShopRepo) Get(id string) (domain.Shop, error) {
	var s domain.Shop
	err := r.db.Get(&s, `SELECT `+shopCols+` FROM shops WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Shop{}, fmt.Errorf("shop %s: %w", id, domain.ErrNotFound)
	}
	return s, err
}

func (r *ShopRepo) ByOwner(username string) (domain.Shop, error) {
	var s domain.Shop
	err := r.db.Get(&s, `SELECT `+shopCols+` FROM shops WHERE LOWER(owner_username) = LOWER(?)`, username)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Shop{}, fmt.Errorf("shop for %s: %w", username, domain.ErrNotFound)
	}
	return s, err
}

// ByMember resolves the shop a username works in: the one they own, or
// the one their staff account is attached to.
func (r *ShopRepo) ByMember(username string) (domain.Shop, error) {
	var s domain.Shop
	err := r.db.Get(&s, `
	  SELECT `+shopCols+`
	  FROM shops
	  WHERE LOWER(owner_username) = LOWER(?)
	     OR id = (SELECT shop_id FROM users WHERE LOWER(username) = LOWER(?) AND shop_id IS NOT NULL)`,
		username, username)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Shop{}, fmt.Errorf("shop for %s: %w", username, domain.ErrNotFound)
	}
	return s, err
}

func (r *ShopRepo) Create(s domain.Shop) error {
	_, err := r.db.Exec(`
	  INSERT INTO shops(id, name, address, contact_number, owner_username)
	  VALUES (?, ?, ?, ?, ?)`,
		s.ID, s.Name, s.Address, s.ContactNumber, s.OwnerUsername)
	if err != nil && strings.Contains(err.Error(), "UNIQUE") {
		return fmt.Errorf("shop for %s: %w", s.OwnerUsername, domain.ErrDuplicate)
	}
	return err
}
