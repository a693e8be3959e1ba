package handlers

import (
	"github.com/gofiber/fiber/v2"

	"whatsstore/internal/services"
	"whatsstore/internal/validate"
)

type AssistantHandler struct {
	Advisor *services.AdvisorService
	Cart    *services.CartService
}

func (h *AssistantHandler) Chat(c *fiber.Ctx) error {
	var cmd services.ChatCommand
	if err := c.BodyParser(&cmd); err != nil {
		return badRequest(c, "body", "Invalid request body.")
	}
	msg, ok := validate.Message(cmd.Message)
	if !ok {
		return badRequest(c, "message", "Message is required.")
	}
	cmd.Message = msg
	sess := session(c)
	// Without a cart the assistant still answers.
	cart, _ := h.Cart.Store(c.UserContext(), sess.ID)
	return c.JSON(fiber.Map{"reply": h.Advisor.Ask(c.UserContext(), sess, cart, cmd)})
}
