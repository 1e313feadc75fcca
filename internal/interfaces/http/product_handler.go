package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jorgeomarnegrete/fact-arca/internal/application/catalog"
	"github.com/jorgeomarnegrete/fact-arca/internal/application/dto"
)

// ProductHandler expone el CRUD del catálogo de productos.
type ProductHandler struct {
	useCase *catalog.UseCase
}

// NewProductHandler construye el handler de productos.
func NewProductHandler(useCase *catalog.UseCase) *ProductHandler {
	return &ProductHandler{useCase: useCase}
}

// Create maneja POST /api/products.
func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var req dto.ProductRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo de la solicitud inválido"})
	}
	resp, err := h.useCase.CreateProduct(req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// Get maneja GET /api/products/:id.
func (h *ProductHandler) Get(c *fiber.Ctx) error {
	resp, err := h.useCase.GetProduct(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

// List maneja GET /api/products.
func (h *ProductHandler) List(c *fiber.Ctx) error {
	limit, offset := pagination(c)
	items, err := h.useCase.ListProducts(limit, offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"data": items,
		"meta": dto.ListMeta{Limit: limit, Offset: offset, Count: len(items)},
	})
}

// Update maneja PUT /api/products/:id.
func (h *ProductHandler) Update(c *fiber.Ctx) error {
	var req dto.ProductRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo de la solicitud inválido"})
	}
	resp, err := h.useCase.UpdateProduct(c.Params("id"), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

// Delete maneja DELETE /api/products/:id.
func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	if err := h.useCase.DeleteProduct(c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
