package repos

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"shopbill/internal/domain"
)

type UserRepo struct{ db *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{db: db} }

const userCols = `
  id, username, email, COALESCE(mobile,'') AS mobile, password_hash, role,
  COALESCE(shop_id,'') AS shop_id, verified, COALESCE(verification_code,'') AS verification_code`

func (r *UserRepo) ByUsername(username string) (*domain.User, error) {
	var u domain.User
	err := r.db.Get(&u, `SELECT `+userCols+` FROM users WHERE LOWER(username) = LOWER(?)`, username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", username, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) ByEmail(email string) (*domain.User, error) {
	var u domain.User
	err := r.db.Get(&u, `SELECT `+userCols+` FROM users WHERE LOWER(email) = LOWER(?)`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", email, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) Create(u domain.User) error {
	shopID := sql.NullString{String: u.ShopID, Valid: u.ShopID != ""}
	_, err := r.db.Exec(`
	  INSERT INTO users(id, username, email, mobile, password_hash, role, shop_id, verified, verification_code)
	  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.Email, u.Mobile, u.Hash, u.Role, shopID, u.Verified, u.VerificationCode)
	if err != nil && strings.Contains(err.Error(), "UNIQUE") {
		return fmt.Errorf("user %s: %w", u.Username, domain.ErrDuplicate)
	}
	return err
}

// MarkVerified flips the flag and burns the code in one statement.
func (r *UserRepo) MarkVerified(userID string) error {
	_, err := r.db.Exec(`UPDATE users SET verified = 1, verification_code = NULL WHERE id = ?`, userID)
	return err
}

func (r *UserRepo) SetVerificationCode(userID, code string) error {
	_, err := r.db.Exec(`UPDATE users SET verification_code = ? WHERE id = ?`, code, userID)
	return err
}

// AttachShop links a staff account to the shop it works in.
func (r *UserRepo) AttachShop(userID, shopID string) error {
	_, err := r.db.Exec(`UPDATE users SET shop_id = ? WHERE id = ?`, shopID, userID)
	return err
}
