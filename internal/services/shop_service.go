package services

import (
	"fmt"

	"github.com/google/uuid"

	"shopbill/internal/domain"
	"shopbill/internal/repos"
)

// ShopService is the directory that maps an authenticated principal to
// the shop they may act on. It never mutates catalog or billing state.
type ShopService struct {
	Shops *repos.ShopRepo
	Users *repos.UserRepo
}

func NewShopService(shops *repos.ShopRepo, users *repos.UserRepo) *ShopService {
	return &ShopService{Shops: shops, Users: users}
}

// ResolveOwnedShop returns the shop the principal owns. Catalog
// mutations require ownership, not mere membership.
func (s *ShopService) ResolveOwnedShop(username string) (domain.Shop, error) {
	return s.Shops.ByOwner(username)
}

// ResolveMemberShop returns the shop the principal works in, whether as
// owner or attached staff. Billing admits both.
func (s *ShopService) ResolveMemberShop(username string) (domain.Shop, error) {
	return s.Shops.ByMember(username)
}

// CreateShop registers the principal's shop. One shop per owner.
func (s *ShopService) CreateShop(username, name, address, contact string) (domain.Shop, error) {
	u, err := s.Users.ByUsername(username)
	if err != nil {
		return domain.Shop{}, err
	}
	if u.Role != domain.RoleShopOwner {
		return domain.Shop{}, fmt.Errorf("only owners can register a shop: %w", domain.ErrUnauthorized)
	}
	shop := domain.Shop{
		ID:            uuid.NewString(),
		Name:          name,
		Address:       address,
		ContactNumber: contact,
		OwnerUsername: u.Username,
	}
	if err := s.Shops.Create(shop); err != nil {
		return domain.Shop{}, err
	}
	return shop, nil
}

// AttachStaff links an existing staff account to the caller's shop, so
// signup and shop registration can happen in either order.
func (s *ShopService) AttachStaff(ownerUsername, staffUsername string) error {
	shop, err := s.Shops.ByOwner(ownerUsername)
	if err != nil {
		return err
	}
	u, err := s.Users.ByUsername(staffUsername)
	if err != nil {
		return err
	}
	if u.Role != domain.RoleStaff {
		return fmt.Errorf("%s is not a staff account: %w", staffUsername, domain.ErrInvalidInput)
	}
	if u.ShopID != "" && u.ShopID != shop.ID {
		return fmt.Errorf("%s already works in another shop: %w", staffUsername, domain.ErrDuplicate)
	}
	return s.Users.AttachShop(u.ID, shop.ID)
}
