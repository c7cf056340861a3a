package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// billTimeLayout keeps the fractional seconds fixed-width. RFC3339Nano
// trims trailing zeros, which would make lexicographic order on the
// stored text disagree with chronological order.
const billTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// BillTimestamp formats a bill creation time so that string comparison
// of stored values matches time order.
func BillTimestamp(t time.Time) string {
	return t.UTC().Format(billTimeLayout)
}

type Shop struct {
	ID            string `db:"id" json:"id"`
	Name          string `db:"name" json:"name"`
	Address       string `db:"address" json:"address"`
	ContactNumber string `db:"contact_number" json:"contactNumber"`
	OwnerUsername string `db:"owner_username" json:"ownerUsername"`
}

type Product struct {
	ID        string          `db:"id" json:"id"`
	ShopID    string          `db:"shop_id" json:"shopId"`
	Barcode   string          `db:"barcode" json:"barcode"`
	Name      string          `db:"name" json:"name"`
	Brand     string          `db:"brand" json:"brand"`
	Category  string          `db:"category" json:"category"`
	Price     decimal.Decimal `db:"price" json:"price"`
	Quantity  int             `db:"quantity" json:"quantity"`
	ImageURL  string          `db:"image_url" json:"imageUrl"`
	CreatedAt string          `db:"created_at" json:"-"`
	UpdatedAt string          `db:"updated_at" json:"-"`
}

// Bill is append-only: once saved it is never updated or deleted.
type Bill struct {
	ID           string          `db:"id" json:"id"`
	ShopID       string          `db:"shop_id" json:"shopId"`
	CustomerName string          `db:"customer_name" json:"customerName"`
	TotalAmount  decimal.Decimal `db:"total_amount" json:"totalAmount"`
	CreatedAt    string          `db:"created_at" json:"createdAt"`
	Items        []BillItem      `json:"items"`
}

// BillItem snapshots the product at billing time so later catalog edits
// never change what a saved bill displays.
type BillItem struct {
	BillID       string          `db:"bill_id" json:"-"`
	Position     int             `db:"position" json:"-"`
	ProductName  string          `db:"product_name" json:"productName"`
	Barcode      string          `db:"barcode" json:"barcode"`
	Quantity     int             `db:"quantity" json:"quantity"`
	PricePerUnit decimal.Decimal `db:"price_per_unit" json:"pricePerUnit"`
	TotalPrice   decimal.Decimal `db:"total_price" json:"totalPrice"`
}
