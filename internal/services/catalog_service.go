package services

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"shopbill/internal/domain"
	"shopbill/internal/repos"
)

type CatalogService struct {
	Products *repos.ProductRepo
}

func NewCatalogService(products *repos.ProductRepo) *CatalogService {
	return &CatalogService{Products: products}
}

type ProductInput struct {
	Barcode  string          `json:"barcode"`
	Name     string          `json:"name"`
	Brand    string          `json:"brand"`
	Category string          `json:"category"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	ImageURL string          `json:"imageUrl"`
}

func (in ProductInput) check() error {
	if in.Name == "" {
		return fmt.Errorf("name required: %w", domain.ErrInvalidInput)
	}
	if in.Price.IsNegative() {
		return fmt.Errorf("price must not be negative: %w", domain.ErrInvalidInput)
	}
	if in.Quantity < 0 {
		return fmt.Errorf("quantity must not be negative: %w", domain.ErrInvalidInput)
	}
	return nil
}

func (s *CatalogService) AddProduct(shop domain.Shop, in ProductInput) (domain.Product, error) {
	if in.Barcode == "" {
		return domain.Product{}, fmt.Errorf("barcode required: %w", domain.ErrInvalidInput)
	}
	if err := in.check(); err != nil {
		return domain.Product{}, err
	}
	p := domain.Product{
		ID:       uuid.NewString(),
		ShopID:   shop.ID,
		Barcode:  in.Barcode,
		Name:     in.Name,
		Brand:    in.Brand,
		Category: in.Category,
		Price:    in.Price,
		Quantity: in.Quantity,
		ImageURL: in.ImageURL,
	}
	if err := s.Products.Insert(p); err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

func (s *CatalogService) ListProducts(shop domain.Shop) ([]domain.Product, error) {
	return s.Products.ListByShop(shop.ID)
}

func (s *CatalogService) GetByBarcode(shop domain.Shop, barcode string) (domain.Product, error) {
	return s.Products.FindByBarcode(shop.ID, barcode)
}

// UpdateProduct edits a product the shop owns. The barcode is fixed for
// the product's lifetime; only descriptive fields, price and stock move.
func (s *CatalogService) UpdateProduct(shop domain.Shop, productID string, in ProductInput) (domain.Product, error) {
	if err := in.check(); err != nil {
		return domain.Product{}, err
	}
	p, err := s.Products.Get(productID)
	if err != nil {
		return domain.Product{}, err
	}
	if p.ShopID != shop.ID {
		return domain.Product{}, fmt.Errorf("product %s belongs to another shop: %w", productID, domain.ErrUnauthorized)
	}
	p.Name = in.Name
	p.Brand = in.Brand
	p.Category = in.Category
	p.Price = in.Price
	p.Quantity = in.Quantity
	p.ImageURL = in.ImageURL
	if err := s.Products.Update(p); err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

func (s *CatalogService) DeleteProduct(shop domain.Shop, productID string) error {
	p, err := s.Products.Get(productID)
	if err != nil {
		return err
	}
	if p.ShopID != shop.ID {
		return fmt.Errorf("product %s belongs to another shop: %w", productID, domain.ErrUnauthorized)
	}
	return s.Products.Delete(productID)
}

func (s *CatalogService) Search(shop domain.Shop, q string, page, pageSize int) ([]domain.Product, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize
	return s.Products.Search(shop.ID, q, pageSize, offset)
}
