package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"whatsstore/internal/domain"
	applog "whatsstore/internal/log"
	"whatsstore/internal/money"
	"whatsstore/internal/services"
	"whatsstore/internal/validate"
)

type CartHandler struct {
	Cart    *services.CartService
	Catalog *services.CatalogService
}

type cartView struct {
	Items          []domain.CartItem `json:"items"`
	Total          decimal.Decimal   `json:"total"`
	FormattedTotal string            `json:"formatted_total"`
	Count          int               `json:"count"`
}

func viewOf(s *services.CartStore) cartView {
	items := s.Items()
	count := 0
	for _, it := range items {
		count += it.Quantity
	}
	total := domain.Total(items)
	return cartView{Items: items, Total: total, FormattedTotal: money.FormatCurrency(total), Count: count}
}

func (h *CartHandler) store(c *fiber.Ctx) (*services.CartStore, error) {
	return h.Cart.Store(c.UserContext(), session(c).ID)
}

func (h *CartHandler) View(c *fiber.Ctx) error {
	s, err := h.store(c)
	if err != nil {
		return fail(c, "cart.view", err)
	}
	return c.JSON(viewOf(s))
}

type addRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// Add snapshots the product from the catalog so prices come from the backend.
func (h *CartHandler) Add(c *fiber.Ctx) error {
	var in addRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body", "Invalid request body.")
	}
	pid, ok := validate.ID(in.ProductID)
	if !ok {
		return badRequest(c, "product_id", "Invalid product id.")
	}
	p, err := h.Catalog.Get(backendCtx(c), pid)
	if err != nil {
		return fail(c, "cart.add", err)
	}
	s, err := h.store(c)
	if err != nil {
		return fail(c, "cart.add", err)
	}
	if err := s.Add(c.UserContext(), p, validate.Qty(in.Quantity)); err != nil {
		return fail(c, "cart.add", err)
	}
	applog.Info(c, "cart.add", map[string]any{"product_id": pid, "qty": validate.Qty(in.Quantity)})
	return c.JSON(viewOf(s))
}

func (h *CartHandler) UpdateQuantity(c *fiber.Ctx) error {
	pid, ok := validate.ID(c.Params("productId"))
	if !ok {
		return badRequest(c, "productId", "Invalid product id.")
	}
	var in struct {
		Quantity int `json:"quantity"`
	}
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body", "Invalid request body.")
	}
	s, err := h.store(c)
	if err != nil {
		return fail(c, "cart.update", err)
	}
	if err := s.UpdateQuantity(c.UserContext(), pid, validate.Qty(in.Quantity)); err != nil {
		return fail(c, "cart.update", err)
	}
	return c.JSON(viewOf(s))
}

func (h *CartHandler) Remove(c *fiber.Ctx) error {
	pid, ok := validate.ID(c.Params("productId"))
	if !ok {
		return badRequest(c, "productId", "Invalid product id.")
	}
	s, err := h.store(c)
	if err != nil {
		return fail(c, "cart.remove", err)
	}
	if err := s.Remove(c.UserContext(), pid); err != nil {
		return fail(c, "cart.remove", err)
	}
	return c.JSON(viewOf(s))
}

func (h *CartHandler) Clear(c *fiber.Ctx) error {
	s, err := h.store(c)
	if err != nil {
		return fail(c, "cart.clear", err)
	}
	if err := s.Clear(c.UserContext()); err != nil {
		return fail(c, "cart.clear", err)
	}
	return c.JSON(viewOf(s))
}
