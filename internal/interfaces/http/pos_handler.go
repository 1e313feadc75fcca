package http

import (
	"io"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"

	"github.com/jorgeomarnegrete/fact-arca/internal/application/dto"
	"github.com/jorgeomarnegrete/fact-arca/internal/application/pos"
)

// PointOfSaleHandler expone el registro de puntos de venta y sus credenciales.
// El certificado X.509 y la clave privada viajan como archivos multipart y se
// tratan como blobs opacos: nunca se devuelven en ninguna respuesta.
type PointOfSaleHandler struct {
	useCase *pos.UseCase
}

// NewPointOfSaleHandler construye el handler de puntos de venta.
func NewPointOfSaleHandler(useCase *pos.UseCase) *PointOfSaleHandler {
	return &PointOfSaleHandler{useCase: useCase}
}

// Register maneja POST /api/points-of-sale (multipart/form-data).
// Campos: number, cuit, name, environment + archivos certificate y private_key.
func (h *PointOfSaleHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterPointOfSaleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "formulario inválido"})
	}

	certificate, err := readFormFile(c, "certificate")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "archivo certificate ilegible"})
	}
	privateKey, err := readFormFile(c, "private_key")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "archivo private_key ilegible"})
	}

	resp, err := h.useCase.Register(req, certificate, privateKey)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// Get maneja GET /api/points-of-sale/:id.
func (h *PointOfSaleHandler) Get(c *fiber.Ctx) error {
	resp, err := h.useCase.Get(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

// List maneja GET /api/points-of-sale.
func (h *PointOfSaleHandler) List(c *fiber.Ctx) error {
	limit, offset := pagination(c)
	items, err := h.useCase.List(limit, offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"data": items,
		"meta": dto.ListMeta{Limit: limit, Offset: offset, Count: len(items)},
	})
}

// ReplaceCredentials maneja PUT /api/points-of-sale/:id/credentials.
// Reemplazo atómico: siempre viaja el juego completo certificado + clave.
func (h *PointOfSaleHandler) ReplaceCredentials(c *fiber.Ctx) error {
	certificate, err := readFormFile(c, "certificate")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "archivo certificate ilegible"})
	}
	privateKey, err := readFormFile(c, "private_key")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "archivo private_key ilegible"})
	}

	resp, err := h.useCase.ReplaceCredentials(c.Params("id"), certificate, privateKey, c.FormValue("environment"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

// Probe maneja POST /api/points-of-sale/:id/probe: prueba de conectividad y
// credenciales contra AFIP sin emitir ningún comprobante. Acepta ?cbte_tipo=.
func (h *PointOfSaleHandler) Probe(c *fiber.Ctx) error {
	resp, err := h.useCase.Probe(c.UserContext(), c.Params("id"), c.QueryInt("cbte_tipo", 0))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

// readFormFile lee un archivo del formulario multipart. Devuelve nil sin error
// si el campo no vino: la validación de presencia es del caso de uso.
func readFormFile(c *fiber.Ctx, field string) ([]byte, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, nil
	}
	return readMultipartFile(fh)
}

func readMultipartFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
