package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	applog "whatsstore/internal/log"
)

// Routes mounts the JSON API on app.
func Routes(app fiber.Router, d *Deps) {
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })

	api := app.Group("", LoadSession(d.Auth))

	// Catalog
	api.Get("/products", d.ProductHandler.List)
	api.Get("/products/:id", d.ProductHandler.Get)
	api.Get("/featured", d.ProductHandler.Featured)
	api.Get("/categories", d.ProductHandler.Categories)

	// Cart
	api.Get("/cart", d.CartHandler.View)
	api.Post("/cart", d.CartHandler.Add)
	api.Patch("/cart/:productId", d.CartHandler.UpdateQuantity)
	api.Delete("/cart/:productId", d.CartHandler.Remove)
	api.Delete("/cart", d.CartHandler.Clear)

	// Orders
	api.Post("/checkout", RequireUser(), d.OrderHandler.Checkout)
	api.Post("/products/:id/buy", RequireUser(), d.OrderHandler.BuyNow)
	api.Get("/orders", RequireUser(), d.OrderHandler.List)
	api.Get("/orders/:id", RequireUser(), d.OrderHandler.Get)
	api.Post("/orders/:id/followup", RequireUser(), d.OrderHandler.FollowUp)

	admin := api.Group("/admin", RequireAdmin())
	admin.Patch("/orders/:id", d.AdminHandler.Edit)
	admin.Post("/orders/:id/confirm", d.AdminHandler.Confirm)
	admin.Post("/orders/:id/status", d.AdminHandler.SetStatus)
	admin.Get("/overview", d.AdminHandler.Overview)

	// Session (OTP throttled)
	api.Post("/auth/request-otp", otpLimiter(), d.AuthHandler.RequestOTP)
	api.Post("/auth/verify-otp", otpLimiter(), d.AuthHandler.VerifyOTP)
	api.Post("/logout", d.AuthHandler.Logout)
	api.Get("/me", d.AuthHandler.Me)

	api.Get("/settings/backend", d.SettingsHandler.Backend)
	api.Put("/settings/backend", d.SettingsHandler.SetBackend)

	api.Post("/assistant", limiter.New(limiter.Config{Max: 20, Expiration: time.Minute}), d.AssistantHandler.Chat)
}

func otpLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.otp.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate_limited", "message": "Too many attempts. Please try again later."})
		},
	})
}
