package domain

type User struct {
	ID               string `db:"id" json:"id"`
	Username         string `db:"username" json:"username"`
	Email            string `db:"email" json:"email"`
	Mobile           string `db:"mobile" json:"mobile"`
	Hash             string `db:"password_hash" json:"-"`
	Role             string `db:"role" json:"role"` // SHOP_OWNER | STAFF
	ShopID           string `db:"shop_id" json:"-"` // staff attachment; owners resolve via shops.owner_username
	Verified         bool   `db:"verified" json:"verified"`
	VerificationCode string `db:"verification_code" json:"-"`
}

const (
	RoleShopOwner = "SHOP_OWNER"
	RoleStaff     = "STAFF"
)
