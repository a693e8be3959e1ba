package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "whatsstore/internal/log"
	"whatsstore/internal/services"
)

type SettingsHandler struct {
	Settings *services.SettingsService
}

func (h *SettingsHandler) view(c *fiber.Ctx) error {
	u, err := h.Settings.BackendURL(c.UserContext())
	if err != nil {
		return fail(c, "settings.backend", err)
	}
	return c.JSON(fiber.Map{"backend_url": u, "configured": u != "", "locked": h.Settings.Locked()})
}

func (h *SettingsHandler) Backend(c *fiber.Ctx) error { return h.view(c) }

func (h *SettingsHandler) SetBackend(c *fiber.Ctx) error {
	var in struct {
		BackendURL string `json:"backend_url"`
	}
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body", "Invalid request body.")
	}
	u, err := h.Settings.SetBackendURL(c.UserContext(), session(c), in.BackendURL)
	if err != nil {
		return fail(c, "settings.backend.set", err)
	}
	applog.Audit(c, "settings.backend.set", map[string]any{"backend_url": u})
	return h.view(c)
}
