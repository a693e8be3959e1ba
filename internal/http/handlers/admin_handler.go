package handlers

import (
	"github.com/gofiber/fiber/v2"

	"whatsstore/internal/domain"
	applog "whatsstore/internal/log"
	"whatsstore/internal/services"
	"whatsstore/internal/validate"
)

type AdminHandler struct {
	Orders *services.OrderService
}

type editRequest struct {
	Items []struct {
		ProductID string `json:"product_id"`
		Quantity  int    `json:"quantity"`
	} `json:"items"`
}

// Edit changes line quantities of a pending order.
func (h *AdminHandler) Edit(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "id", "Invalid order id.")
	}
	var in editRequest
	if err := c.BodyParser(&in); err != nil || len(in.Items) == 0 {
		return badRequest(c, "items", "Items are required.")
	}
	qty := make(map[string]int, len(in.Items))
	for _, it := range in.Items {
		pid, ok := validate.ID(it.ProductID)
		if !ok {
			return badRequest(c, "product_id", "Invalid product id.")
		}
		qty[pid] = it.Quantity
	}
	o, err := h.Orders.EditByID(c.UserContext(), session(c), id, qty)
	if err != nil {
		return fail(c, "admin.order.edit", err)
	}
	applog.Audit(c, "admin.order.edit", map[string]any{"order_id": id, "total": o.Total.String()})
	return c.JSON(o)
}

func (h *AdminHandler) Confirm(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "id", "Invalid order id.")
	}
	sess := session(c)
	cur, err := h.Orders.Get(c.UserContext(), sess, id)
	if err != nil {
		return fail(c, "admin.order.confirm", err)
	}
	o, err := h.Orders.Confirm(c.UserContext(), sess, cur)
	if err != nil {
		return fail(c, "admin.order.confirm", err)
	}
	applog.Audit(c, "admin.order.status", map[string]any{"order_id": id, "from": string(cur.Status), "to": string(o.Status)})
	return c.JSON(o)
}

func (h *AdminHandler) SetStatus(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "id", "Invalid order id.")
	}
	var in struct {
		Status domain.Status `json:"status"`
	}
	if err := c.BodyParser(&in); err != nil || !in.Status.Valid() {
		return badRequest(c, "status", "Status must be pending, confirmed or delivered.")
	}
	sess := session(c)
	cur, err := h.Orders.Get(c.UserContext(), sess, id)
	if err != nil {
		return fail(c, "admin.order.status", err)
	}
	o, err := h.Orders.SetStatus(c.UserContext(), sess, cur, in.Status)
	if err != nil {
		return fail(c, "admin.order.status", err)
	}
	applog.Audit(c, "admin.order.status", map[string]any{"order_id": id, "from": string(cur.Status), "to": string(o.Status)})
	return c.JSON(o)
}

func (h *AdminHandler) Overview(c *fiber.Ctx) error {
	ov, err := h.Orders.Overview(c.UserContext(), session(c))
	if err != nil {
		return fail(c, "admin.overview", err)
	}
	return c.JSON(ov)
}
