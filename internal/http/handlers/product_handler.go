package handlers

import (
	"github.com/gofiber/fiber/v2"

	"whatsstore/internal/services"
	"whatsstore/internal/validate"
)

type ProductHandler struct {
	Catalog *services.CatalogService
}

func (h *ProductHandler) List(c *fiber.Ctx) error {
	ps, err := h.Catalog.List(backendCtx(c), c.Query("category"), c.Query("q"))
	if err != nil {
		return fail(c, "products.list", err)
	}
	return c.JSON(ps)
}

func (h *ProductHandler) Get(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "id", "Invalid product id.")
	}
	p, err := h.Catalog.Get(backendCtx(c), id)
	if err != nil {
		return fail(c, "products.get", err)
	}
	return c.JSON(p)
}

func (h *ProductHandler) Featured(c *fiber.Ctx) error {
	ps, err := h.Catalog.Featured(backendCtx(c))
	if err != nil {
		return fail(c, "products.featured", err)
	}
	return c.JSON(ps)
}

func (h *ProductHandler) Categories(c *fiber.Ctx) error {
	cats, err := h.Catalog.Categories(backendCtx(c))
	if err != nil {
		return fail(c, "products.categories", err)
	}
	return c.JSON(cats)
}
