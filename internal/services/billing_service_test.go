package services_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"shopbill/internal/domain"
	"shopbill/internal/repos"
	"shopbill/internal/services"
)

func memdb(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	// One connection so every caller shares the same in-memory DB.
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

	INSERT INTO shops(id,name,owner_username) VALUES ('shop-1','Corner Store','owner1');
	INSERT INTO products(id,shop_id,barcode,name,brand,category,price,quantity) VALUES
	  ('p-123','shop-1','123','Product123','BrandA','grocery','10.0',5),
	  ('p-456','shop-1','456','Product456','BrandB','grocery','2.5',10);
	`
	if _, err := db.Exec(schema); err != nil {
		t.Fatal(err)
	}
	return db
}

func billingFixture(t *testing.T) (*sqlx.DB, *services.BillingService, *repos.ProductRepo, *repos.BillRepo) {
	t.Helper()
	db := memdb(t)
	prodRepo := repos.NewProductRepo(db)
	billRepo := repos.NewBillRepo(db)
	return db, services.NewBillingService(prodRepo, billRepo), prodRepo, billRepo
}

func qtyOf(t *testing.T, db *sqlx.DB, id string) int {
	t.Helper()
	var n int
	if err := db.Get(&n, `SELECT quantity FROM products WHERE id = ?`, id); err != nil {
		t.Fatal(err)
	}
	return n
}

var shop1 = domain.Shop{ID: "shop-1", Name: "Corner Store", OwnerUsername: "owner1"}

func TestCreateBill_DebitsStockAndTotals(t *testing.T) {
	db, svc, _, _ := billingFixture(t)

	bill, err := svc.CreateBill(shop1, "Alice", []services.CartLine{{Barcode: "123", Quantity: 3}})
	if err != nil {
		t.Fatal(err)
	}
	if len(bill.Items) != 1 {
		t.Fatalf("want 1 line item, got %d", len(bill.Items))
	}
	it := bill.Items[0]
	if it.ProductName != "Product123" || it.Barcode != "123" || it.Quantity != 3 {
		t.Fatalf("bad line item: %+v", it)
	}
	if !it.TotalPrice.Equal(decimal.RequireFromString("30")) {
		t.Fatalf("want lineTotal 30, got %s", it.TotalPrice)
	}
	if !bill.TotalAmount.Equal(decimal.RequireFromString("30")) {
		t.Fatalf("want total 30, got %s", bill.TotalAmount)
	}
	if q := qtyOf(t, db, "p-123"); q != 2 {
		t.Fatalf("want quantity 2 after billing, got %d", q)
	}
}

func TestCreateBill_MultiLineTotalOrdered(t *testing.T) {
	_, svc, _, _ := billingFixture(t)

	bill, err := svc.CreateBill(shop1, "Alice", []services.CartLine{
		{Barcode: "123", Quantity: 2},
		{Barcode: "456", Quantity: 4},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(bill.Items) != 2 {
		t.Fatalf("want 2 items, got %d", len(bill.Items))
	}
	if bill.Items[0].Barcode != "123" || bill.Items[1].Barcode != "456" {
		t.Fatalf("items out of cart order: %+v", bill.Items)
	}
	// 2*10.0 + 4*2.5 = 30
	if !bill.TotalAmount.Equal(decimal.RequireFromString("30")) {
		t.Fatalf("want total 30, got %s", bill.TotalAmount)
	}
}

func TestCreateBill_InsufficientStockRollsBack(t *testing.T) {
	db, svc, _, billRepo := billingFixture(t)

	// First line succeeds, second overdraws; the first decrement must be undone.
	_, err := svc.CreateBill(shop1, "Bob", []services.CartLine{
		{Barcode: "456", Quantity: 2},
		{Barcode: "123", Quantity: 6},
	})
	if err == nil {
		t.Fatal("expected insufficient stock error")
	}
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("want InsufficientStock, got %v", err)
	}
	var stockErr *domain.StockError
	if !errors.As(err, &stockErr) || stockErr.ProductName != "Product123" {
		t.Fatalf("error should carry product name, got %v", err)
	}
	if q := qtyOf(t, db, "p-456"); q != 10 {
		t.Fatalf("first line not rolled back, qty=%d", q)
	}
	if q := qtyOf(t, db, "p-123"); q != 5 {
		t.Fatalf("failed line mutated stock, qty=%d", q)
	}
	bills, err := billRepo.ListByShop("shop-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(bills) != 0 {
		t.Fatalf("no bill should persist on failure, got %d", len(bills))
	}
}

func TestCreateBill_UnknownBarcodeFailsBeforeAnyDecrement(t *testing.T) {
	db, svc, _, _ := billingFixture(t)

	_, err := svc.CreateBill(shop1, "Carol", []services.CartLine{
		{Barcode: "123", Quantity: 2},
		{Barcode: "999", Quantity: 1},
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want NotFound, got %v", err)
	}
	if q := qtyOf(t, db, "p-123"); q != 5 {
		t.Fatalf("resolve failure must not touch stock, qty=%d", q)
	}
}

func TestCreateBill_CrossShopBarcodeLooksAbsent(t *testing.T) {
	db, svc, _, _ := billingFixture(t)
	db.MustExec(`INSERT INTO shops(id,name,owner_username) VALUES ('shop-2','Other Store','owner2')`)
	db.MustExec(`INSERT INTO products(id,shop_id,barcode,name,price,quantity) VALUES
	  ('p-other','shop-2','777','OtherProduct','5.0',9)`)

	_, err := svc.CreateBill(shop1, "Dave", []services.CartLine{{Barcode: "777", Quantity: 1}})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("cross-shop barcode must be NotFound, got %v", err)
	}
	if q := qtyOf(t, db, "p-other"); q != 9 {
		t.Fatalf("other shop's stock touched, qty=%d", q)
	}
}

func TestCreateBill_DuplicateBarcodesAreIndependentLines(t *testing.T) {
	db, svc, _, _ := billingFixture(t)

	bill, err := svc.CreateBill(shop1, "Eve", []services.CartLine{
		{Barcode: "123", Quantity: 2},
		{Barcode: "123", Quantity: 1},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(bill.Items) != 2 {
		t.Fatalf("duplicate barcodes must stay separate lines, got %d", len(bill.Items))
	}
	if bill.Items[0].Quantity != 2 || bill.Items[1].Quantity != 1 {
		t.Fatalf("quantities merged: %+v", bill.Items)
	}
	if !bill.TotalAmount.Equal(decimal.RequireFromString("30")) {
		t.Fatalf("want total 30, got %s", bill.TotalAmount)
	}
	if q := qtyOf(t, db, "p-123"); q != 2 {
		t.Fatalf("want quantity 2, got %d", q)
	}
}

func TestCreateBill_ValidationBeforeStock(t *testing.T) {
	db, svc, _, _ := billingFixture(t)

	if _, err := svc.CreateBill(shop1, "Frank", nil); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("empty cart should be InvalidInput, got %v", err)
	}
	_, err := svc.CreateBill(shop1, "Frank", []services.CartLine{
		{Barcode: "123", Quantity: 2},
		{Barcode: "456", Quantity: 0},
	})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("non-positive quantity should be InvalidInput, got %v", err)
	}
	if q := qtyOf(t, db, "p-123"); q != 5 {
		t.Fatalf("validation failure touched stock, qty=%d", q)
	}
}

func TestCreateBill_PersistFailureCompensatesStock(t *testing.T) {
	db, svc, _, _ := billingFixture(t)

	// Force the persist phase to fail mid-transaction.
	db.MustExec(`DROP TABLE bill_items`)

	_, err := svc.CreateBill(shop1, "Grace", []services.CartLine{{Barcode: "123", Quantity: 3}})
	if err == nil {
		t.Fatal("expected persistence failure")
	}
	var pe *domain.PersistError
	if !errors.As(err, &pe) {
		t.Fatalf("want PersistError, got %v", err)
	}
	if q := qtyOf(t, db, "p-123"); q != 5 {
		t.Fatalf("decrement not compensated after persist failure, qty=%d", q)
	}
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM bills`); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("bill header leaked out of rolled-back tx, count=%d", n)
	}
}

func TestCreateBill_SnapshotSurvivesCatalogEdits(t *testing.T) {
	_, svc, prodRepo, billRepo := billingFixture(t)

	bill, err := svc.CreateBill(shop1, "Heidi", []services.CartLine{{Barcode: "123", Quantity: 1}})
	if err != nil {
		t.Fatal(err)
	}

	// Reprice and rename the product after billing.
	p, err := prodRepo.Get("p-123")
	if err != nil {
		t.Fatal(err)
	}
	p.Name = "Renamed"
	p.Price = decimal.RequireFromString("99.99")
	if err := prodRepo.Update(p); err != nil {
		t.Fatal(err)
	}

	got, err := billRepo.Get(bill.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Items[0].ProductName != "Product123" {
		t.Fatalf("snapshot name changed: %s", got.Items[0].ProductName)
	}
	if !got.Items[0].PricePerUnit.Equal(decimal.RequireFromString("10")) {
		t.Fatalf("snapshot price changed: %s", got.Items[0].PricePerUnit)
	}
	if !got.TotalAmount.Equal(decimal.RequireFromString("10")) {
		t.Fatalf("snapshot total changed: %s", got.TotalAmount)
	}

	// Even deletion must not corrupt history.
	if err := prodRepo.Delete("p-123"); err != nil {
		t.Fatal(err)
	}
	got, err = billRepo.Get(bill.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Items[0].ProductName != "Product123" {
		t.Fatalf("snapshot lost after product deletion: %+v", got.Items[0])
	}
}

func TestCreateBill_ConcurrentLastUnitsRace(t *testing.T) {
	db, svc, _, billRepo := billingFixture(t)

	// Two checkouts race for 3 of the 5 units; only one can win.
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.CreateBill(shop1, "Racer", []services.CartLine{{Barcode: "123", Quantity: 3}})
		}(i)
	}
	wg.Wait()

	var ok, short int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrInsufficientStock):
			short++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || short != 1 {
		t.Fatalf("want exactly one winner, got ok=%d short=%d", ok, short)
	}
	if q := qtyOf(t, db, "p-123"); q != 2 {
		t.Fatalf("want final quantity 2, got %d", q)
	}
	bills, err := billRepo.ListByShop("shop-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(bills) != 1 {
		t.Fatalf("want exactly one persisted bill, got %d", len(bills))
	}
}
