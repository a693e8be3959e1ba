package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	applog "whatsstore/internal/log"
	"whatsstore/internal/services"
)

type AuthHandler struct {
	Auth *services.AuthService
}

func (h *AuthHandler) RequestOTP(c *fiber.Ctx) error {
	var in struct {
		Phone string `json:"phone"`
	}
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body", "Invalid request body.")
	}
	if err := h.Auth.RequestOTP(c.UserContext(), in.Phone); err != nil {
		return fail(c, "auth.otp.request", err)
	}
	applog.Audit(c, "auth.otp.request", nil)
	return c.JSON(fiber.Map{"success": true})
}

func (h *AuthHandler) VerifyOTP(c *fiber.Ctx) error {
	var in struct {
		Phone string `json:"phone"`
		OTP   string `json:"otp"`
	}
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body", "Invalid request body.")
	}
	sess, err := h.Auth.VerifyOTP(c.UserContext(), session(c).ID, in.Phone, in.OTP)
	if err != nil {
		return fail(c, "auth.login", err)
	}
	applog.Audit(c, "auth.login.success", map[string]any{"admin": sess.Admin})
	return c.JSON(sess)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	sid := session(c).ID
	_ = h.Auth.Logout(c.UserContext(), sid)
	// Expire cookie
	c.Cookie(&fiber.Cookie{
		Name:     "sid",
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   false,
		Expires:  time.Now().Add(-1 * time.Hour),
	})
	applog.Audit(c, "auth.logout", map[string]any{"sid": sid})
	return c.JSON(fiber.Map{"success": true})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	return c.JSON(session(c))
}
