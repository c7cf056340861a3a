package main

import (
	"io"
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"shopbill/internal/config"
	"shopbill/internal/http/handlers"
	applog "shopbill/internal/log"
	"shopbill/internal/repos"
)

func main() {
	cfg := config.Load()

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			mw := io.MultiWriter(os.Stdout, f)
			log.SetOutput(mw)
		}
	}

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}

	deps := handlers.NewDeps(db, cfg)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Error(c, "server.error", err, nil)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
		},
	})
	// Global body size guard
	app.Server().MaxRequestBodySize = 1 << 20 // 1 MiB

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
	}))

	// ---------- Routes ----------
	api := app.Group("/api")

	user := api.Group("/user")
	user.Post("/signup", deps.AuthHandler.Signup)
	user.Post("/verify", deps.AuthHandler.Verify)
	user.Post("/resend", deps.AuthHandler.Resend)
	user.Post("/login", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "too many attempts, try again later"})
		},
	}), deps.AuthHandler.Login)

	authed := api.Group("", handlers.RequireAuth(deps.Auth))

	authed.Post("/shops", deps.ShopHandler.Create)
	authed.Get("/shops/mine", deps.ShopHandler.Mine)
	authed.Post("/shops/staff", deps.ShopHandler.AttachStaff)

	authed.Post("/products", deps.ProductHandler.Add)
	authed.Get("/products", deps.ProductHandler.List)
	authed.Get("/products/search", limiter.New(limiter.Config{Max: 20, Expiration: time.Minute}), deps.ProductHandler.Search)
	authed.Get("/products/barcode/:barcode", deps.ProductHandler.ByBarcode)
	authed.Put("/products/:id", deps.ProductHandler.Update)
	authed.Delete("/products/:id", deps.ProductHandler.Delete)

	authed.Post("/bills", deps.BillHandler.Create)
	authed.Get("/bills", deps.BillHandler.List)
	authed.Get("/bills/:id", deps.BillHandler.View)

	// Health
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })

	log.Fatal(app.Listen(":" + cfg.Port))
}
