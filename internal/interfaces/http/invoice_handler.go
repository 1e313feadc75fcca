package http

import (
	"github.com/gofiber/fiber/v2"

	appbilling "github.com/jorgeomarnegrete/fact-arca/internal/application/billing"
	"github.com/jorgeomarnegrete/fact-arca/internal/application/dto"
)

// InvoiceHandler expone la emisión, consulta y conciliación de comprobantes.
type InvoiceHandler struct {
	orchestrator *appbilling.Orchestrator
	pdfUseCase   *appbilling.PDFUseCase
}

// NewInvoiceHandler construye el handler de facturación.
func NewInvoiceHandler(orchestrator *appbilling.Orchestrator, pdfUseCase *appbilling.PDFUseCase) *InvoiceHandler {
	return &InvoiceHandler{orchestrator: orchestrator, pdfUseCase: pdfUseCase}
}

// Create maneja POST /api/invoices: arma la factura, la numera contra AFIP y
// solicita el CAE en la misma llamada. Un rechazo de AFIP devuelve 201 con
// status rejected; solo las fallas devuelven error.
func (h *InvoiceHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateInvoiceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo de la solicitud inválido"})
	}
	resp, err := h.orchestrator.CreateAndAuthorize(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// Get maneja GET /api/invoices/:id.
func (h *InvoiceHandler) Get(c *fiber.Ctx) error {
	resp, err := h.orchestrator.Get(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

// ListByPointOfSale maneja GET /api/points-of-sale/:id/invoices.
func (h *InvoiceHandler) ListByPointOfSale(c *fiber.Ctx) error {
	limit, offset := pagination(c)
	items, err := h.orchestrator.List(c.Params("id"), limit, offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"data": items,
		"meta": dto.ListMeta{Limit: limit, Offset: offset, Count: len(items)},
	})
}

// Reconcile maneja POST /api/points-of-sale/:id/reconcile: resuelve las
// facturas en submitted consultando a AFIP comprobante por comprobante.
func (h *InvoiceHandler) Reconcile(c *fiber.Ctx) error {
	resp, err := h.orchestrator.Reconcile(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

// DownloadPDF maneja GET /api/invoices/:id/pdf.
func (h *InvoiceHandler) DownloadPDF(c *fiber.Ctx) error {
	pdfBytes, filename, err := h.pdfUseCase.DownloadInvoicePDF(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(pdfBytes)
}
