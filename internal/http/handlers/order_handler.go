package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "whatsstore/internal/log"
	"whatsstore/internal/services"
	"whatsstore/internal/validate"
)

type OrderHandler struct {
	Cart    *services.CartService
	Orders  *services.OrderService
	Catalog *services.CatalogService
}

// Checkout turns the session's cart into an order and returns the WhatsApp handoff.
func (h *OrderHandler) Checkout(c *fiber.Ctx) error {
	sess := session(c)
	cart, err := h.Cart.Store(c.UserContext(), sess.ID)
	if err != nil {
		return fail(c, "order.checkout", err)
	}
	co, err := h.Orders.Checkout(c.UserContext(), sess, cart)
	if err != nil {
		return fail(c, "order.checkout", err)
	}
	applog.Audit(c, "order.create", map[string]any{"order_id": co.Order.ID, "total": co.Order.Total.String(), "lines": len(co.Order.Items)})
	return c.Status(fiber.StatusCreated).JSON(co)
}

// BuyNow orders one product directly, bypassing the cart.
func (h *OrderHandler) BuyNow(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "id", "Invalid product id.")
	}
	var in struct {
		Quantity int `json:"quantity"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return badRequest(c, "body", "Invalid request body.")
		}
	}
	sess := session(c)
	p, err := h.Catalog.Get(backendCtx(c), id)
	if err != nil {
		return fail(c, "order.buy_now", err)
	}
	o, err := h.Orders.BuyNow(c.UserContext(), sess, p, validate.Qty(in.Quantity))
	if err != nil {
		return fail(c, "order.buy_now", err)
	}
	applog.Audit(c, "order.create", map[string]any{"order_id": o.ID, "total": o.Total.String(), "lines": 1})
	return c.Status(fiber.StatusCreated).JSON(h.Orders.Handoff(o))
}

func (h *OrderHandler) List(c *fiber.Ctx) error {
	orders, err := h.Orders.List(c.UserContext(), session(c))
	if err != nil {
		return fail(c, "order.list", err)
	}
	return c.JSON(orders)
}

func (h *OrderHandler) Get(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "id", "Invalid order id.")
	}
	o, err := h.Orders.Get(c.UserContext(), session(c), id)
	if err != nil {
		return fail(c, "order.get", err)
	}
	return c.JSON(o)
}

func (h *OrderHandler) FollowUp(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "id", "Invalid order id.")
	}
	o, err := h.Orders.Get(c.UserContext(), session(c), id)
	if err != nil {
		return fail(c, "order.followup", err)
	}
	fu, err := h.Orders.FollowUp(o)
	if err != nil {
		return fail(c, "order.followup", err)
	}
	return c.JSON(fu)
}
