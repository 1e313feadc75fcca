package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jorgeomarnegrete/fact-arca/internal/application/catalog"
	"github.com/jorgeomarnegrete/fact-arca/internal/application/dto"
)

// CustomerHandler expone el CRUD del padrón de clientes.
type CustomerHandler struct {
	useCase *catalog.UseCase
}

// NewCustomerHandler construye el handler de clientes.
func NewCustomerHandler(useCase *catalog.UseCase) *CustomerHandler {
	return &CustomerHandler{useCase: useCase}
}

// Create maneja POST /api/customers.
func (h *CustomerHandler) Create(c *fiber.Ctx) error {
	var req dto.CustomerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo de la solicitud inválido"})
	}
	resp, err := h.useCase.CreateCustomer(req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// Get maneja GET /api/customers/:id.
func (h *CustomerHandler) Get(c *fiber.Ctx) error {
	resp, err := h.useCase.GetCustomer(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

// List maneja GET /api/customers.
func (h *CustomerHandler) List(c *fiber.Ctx) error {
	limit, offset := pagination(c)
	items, err := h.useCase.ListCustomers(limit, offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"data": items,
		"meta": dto.ListMeta{Limit: limit, Offset: offset, Count: len(items)},
	})
}

// Update maneja PUT /api/customers/:id.
func (h *CustomerHandler) Update(c *fiber.Ctx) error {
	var req dto.CustomerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo de la solicitud inválido"})
	}
	resp, err := h.useCase.UpdateCustomer(c.Params("id"), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

// Delete maneja DELETE /api/customers/:id.
func (h *CustomerHandler) Delete(c *fiber.Ctx) error {
	if err := h.useCase.DeleteCustomer(c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
