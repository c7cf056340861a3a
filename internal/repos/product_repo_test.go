package repos_test

import (
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"shopbill/internal/domain"
	"shopbill/internal/repos"
)

func memdb(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	db.SetMaxOpenConns(1)
	schema := `
	CREATE TABLE shops(id TEXT PRIMARY KEY, name TEXT, address TEXT, contact_number TEXT,
	  owner_username TEXT UNIQUE, created_at TEXT);
	CREATE TABLE products(id TEXT PRIMARY KEY, shop_id TEXT, barcode TEXT, name TEXT, brand TEXT,
	  category TEXT, price NUMERIC, quantity INTEGER CHECK (quantity >= 0), image_url TEXT,
	  created_at TEXT DEFAULT CURRENT_TIMESTAMP, updated_at TEXT, UNIQUE(shop_id, barcode));
	CREATE TABLE bills(id TEXT PRIMARY KEY, shop_id TEXT, customer_name TEXT,
	  total_amount NUMERIC, created_at TEXT);
	CREATE TABLE bill_items(bill_id TEXT, position INTEGER, product_name TEXT, barcode TEXT,
	  quantity INTEGER, price_per_unit NUMERIC, total_price NUMERIC, PRIMARY KEY(bill_id, position));

	INSERT INTO shops(id,name,owner_username) VALUES
	  ('shop-1','Corner Store','owner1'),
	  ('shop-2','Other Store','owner2');
	INSERT INTO products(id,shop_id,barcode,name,brand,price,quantity) VALUES
	  ('p-1','shop-1','111','Soap','Lux','32.0',6),
	  ('p-2','shop-2','111','Other Soap','Dove','30.0',3),
	  ('p-3','shop-2','222','Candles','Wix','15.0',4);
	`
	if _, err := db.Exec(schema); err != nil {
		t.Fatal(err)
	}
	return db
}

func TestProductRepo_FindByBarcodeIsShopScoped(t *testing.T) {
	db := memdb(t)
	r := repos.NewProductRepo(db)

	p, err := r.FindByBarcode("shop-1", "111")
	if err != nil {
		t.Fatal(err)
	}
	if p.ID != "p-1" || p.Name != "Soap" {
		t.Fatalf("wrong product resolved: %+v", p)
	}

	// Barcode 222 only exists in shop-2; from shop-1 it must look absent.
	if _, err := r.FindByBarcode("shop-1", "222"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want NotFound for another shop's barcode, got %v", err)
	}
}

func TestProductRepo_TryDecrementAndRestore(t *testing.T) {
	db := memdb(t)
	r := repos.NewProductRepo(db)

	snap, err := r.TryDecrement("p-1", 4)
	if err != nil {
		t.Fatal(err)
	}
	if snap.Quantity != 2 {
		t.Fatalf("want remaining 2, got %d", snap.Quantity)
	}
	if !snap.Price.Equal(decimal.RequireFromString("32")) {
		t.Fatalf("snapshot price wrong: %s", snap.Price)
	}

	// Not enough left; the row must be untouched.
	if _, err := r.TryDecrement("p-1", 3); !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("want InsufficientStock, got %v", err)
	}
	p, err := r.Get("p-1")
	if err != nil {
		t.Fatal(err)
	}
	if p.Quantity != 2 {
		t.Fatalf("failed decrement changed quantity: %d", p.Quantity)
	}

	if err := r.Restore("p-1", 4); err != nil {
		t.Fatal(err)
	}
	p, err = r.Get("p-1")
	if err != nil {
		t.Fatal(err)
	}
	if p.Quantity != 6 {
		t.Fatalf("restore should return to 6, got %d", p.Quantity)
	}
}

func TestProductRepo_TryDecrementRollsBackWhenSnapshotFails(t *testing.T) {
	// A products table missing the created_at column: the conditional
	// UPDATE still succeeds, but the snapshot read inside the same
	// transaction fails. The decrement must be rolled back, not
	// stranded with no error path to restore it.
	db, err := sqlx.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`
	CREATE TABLE products(id TEXT PRIMARY KEY, shop_id TEXT, barcode TEXT, name TEXT, brand TEXT,
	  category TEXT, price NUMERIC, quantity INTEGER CHECK (quantity >= 0), image_url TEXT,
	  updated_at TEXT, UNIQUE(shop_id, barcode));
	INSERT INTO products(id,shop_id,barcode,name,price,quantity) VALUES
	  ('p-1','shop-1','111','Soap','32.0',6);
	`); err != nil {
		t.Fatal(err)
	}
	r := repos.NewProductRepo(db)

	if _, err := r.TryDecrement("p-1", 4); err == nil {
		t.Fatal("want error from failed snapshot read")
	}

	var qty int
	if err := db.Get(&qty, `SELECT quantity FROM products WHERE id = 'p-1'`); err != nil {
		t.Fatal(err)
	}
	if qty != 6 {
		t.Fatalf("decrement not rolled back: quantity %d", qty)
	}
}

func TestProductRepo_InsertRejectsDuplicateBarcode(t *testing.T) {
	db := memdb(t)
	r := repos.NewProductRepo(db)

	err := r.Insert(domain.Product{
		ID:      "p-dup",
		ShopID:  "shop-1",
		Barcode: "111",
		Name:    "Another Soap",
		Price:   decimal.RequireFromString("12.0"),
	})
	if !errors.Is(err, domain.ErrDuplicate) {
		t.Fatalf("want Duplicate, got %v", err)
	}

	// Same barcode in a different shop is fine.
	err = r.Insert(domain.Product{
		ID:      "p-ok",
		ShopID:  "shop-1",
		Barcode: "333",
		Name:    "Shampoo",
		Price:   decimal.RequireFromString("99.0"),
	})
	if err != nil {
		t.Fatal(err)
	}
}
