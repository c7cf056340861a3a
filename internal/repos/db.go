package repos

import (
	"log"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}

	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	// Seed a demo owner, shop and catalog if the DB is empty
	// (idempotent; safe to run every start).
	if err := seedIfEmpty(db); err != nil {
		return nil, err
	}

	return db, nil
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
PRAGMA foreign_keys = ON;

-- Users
CREATE TABLE IF NOT EXISTS users(
  id TEXT PRIMARY KEY,
  username TEXT NOT NULL,
  email TEXT NOT NULL,
  mobile TEXT,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL CHECK (role IN ('SHOP_OWNER','STAFF')),
  shop_id TEXT,
  verified INTEGER NOT NULL DEFAULT 0,
  verification_code TEXT,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username ON users(LOWER(username));
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email    ON users(LOWER(email));

-- Shops (one per owner)
CREATE TABLE IF NOT EXISTS shops(
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  address TEXT,
  contact_number TEXT,
  owner_username TEXT NOT NULL UNIQUE,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);

-- Products (barcode unique within a shop)
CREATE TABLE IF NOT EXISTS products(
  id TEXT PRIMARY KEY,
  shop_id TEXT NOT NULL REFERENCES shops(id) ON DELETE CASCADE,
  barcode TEXT NOT NULL,
  name TEXT NOT NULL,
  brand TEXT,
  category TEXT,
  price NUMERIC NOT NULL CHECK (price >= 0),
  quantity INTEGER NOT NULL DEFAULT 0 CHECK (quantity >= 0),
  image_url TEXT,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT,
  UNIQUE(shop_id, barcode)
);
CREATE INDEX IF NOT EXISTS idx_products_shop ON products(shop_id);
CREATE INDEX IF NOT EXISTS idx_products_name ON products(LOWER(name));

-- Bills (append-only; items snapshot the product at billing time)
CREATE TABLE IF NOT EXISTS bills(
  id TEXT PRIMARY KEY,
  shop_id TEXT NOT NULL REFERENCES shops(id),
  customer_name TEXT NOT NULL,
  total_amount NUMERIC NOT NULL,
  created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_bills_shop_created ON bills(shop_id, created_at);

CREATE TABLE IF NOT EXISTS bill_items(
  bill_id TEXT NOT NULL REFERENCES bills(id) ON DELETE CASCADE,
  position INTEGER NOT NULL,
  product_name TEXT NOT NULL,
  barcode TEXT NOT NULL,
  quantity INTEGER NOT NULL CHECK (quantity >= 1),
  price_per_unit NUMERIC NOT NULL,
  total_price NUMERIC NOT NULL,
  PRIMARY KEY(bill_id, position)
);
`
	_, err := db.Exec(schema)
	return err
}

func seedIfEmpty(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM users`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	log.Println("[seed] inserting demo owner/shop/products")

	hash, err := bcrypt.GenerateFromPassword([]byte("Passw0rd!"), 12)
	if err != nil {
		return err
	}

	tx := db.MustBegin()
	defer func() { _ = tx.Rollback() }()

	tx.MustExec(`INSERT INTO users(id,username,email,mobile,password_hash,role,verified) VALUES
	  ('u-demo','demo-owner','owner@shopbill.test','+10000000000',?, 'SHOP_OWNER',1)`, string(hash))

	tx.MustExec(`INSERT INTO shops(id,name,address,contact_number,owner_username) VALUES
	  ('shop-demo','Demo General Store','1 Market St','+10000000000','demo-owner')`)

	tx.MustExec(`INSERT INTO products(id,shop_id,barcode,name,brand,category,price,quantity,image_url) VALUES
	  ('p-rice','shop-demo','8901001','Basmati Rice 1kg','Daawat','grocery','95.50',40,''),
	  ('p-soap','shop-demo','8901002','Bath Soap','Lux','personal care','32.00',120,''),
	  ('p-tea','shop-demo','8901003','Black Tea 250g','Taj','beverages','140.00',18,'')`)

	return tx.Commit()
}
