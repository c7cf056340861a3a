package handlers

import (
	"github.com/jmoiron/sqlx"

	"shopbill/internal/config"
	"shopbill/internal/notify"
	"shopbill/internal/repos"
	"shopbill/internal/services"
)

type Deps struct {
	Auth           *services.AuthService
	AuthHandler    *AuthHandler
	ShopHandler    *ShopHandler
	ProductHandler *ProductHandler
	BillHandler    *BillHandler
}

func NewDeps(db *sqlx.DB, cfg config.Config) *Deps {
	userRepo := repos.NewUserRepo(db)
	shopRepo := repos.NewShopRepo(db)
	prodRepo := repos.NewProductRepo(db)
	billRepo := repos.NewBillRepo(db)

	var notifier notify.Notifier = notify.LogNotifier{}
	if cfg.SMTPHost != "" {
		notifier = notify.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom)
	}

	authSvc := &services.AuthService{Users: userRepo, Shops: shopRepo, Notify: notifier, Secret: []byte(cfg.JWTSecret)}
	shopSvc := services.NewShopService(shopRepo, userRepo)
	catalogSvc := services.NewCatalogService(prodRepo)
	billingSvc := services.NewBillingService(prodRepo, billRepo)

	return &Deps{
		Auth:           authSvc,
		AuthHandler:    &AuthHandler{Auth: authSvc},
		ShopHandler:    &ShopHandler{Shops: shopSvc},
		ProductHandler: &ProductHandler{Shops: shopSvc, Catalog: catalogSvc},
		BillHandler:    &BillHandler{Shops: shopSvc, Billing: billingSvc},
	}
}
