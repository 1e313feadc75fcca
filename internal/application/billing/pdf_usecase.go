package billing

import (
	"fmt"

	"github.com/jorgeomarnegrete/fact-arca/internal/domain"
	"github.com/jorgeomarnegrete/fact-arca/internal/domain/entity"
	"github.com/jorgeomarnegrete/fact-arca/internal/domain/repository"
)

// PDFUseCase genera la representación gráfica (PDF) de un comprobante.
// Solo se permite sobre facturas autorizadas: sin CAE no hay comprobante.
type PDFUseCase struct {
	invoiceRepo repository.InvoiceRepository
	posRepo     repository.PointOfSaleRepository
	generator   PDFGenerator
}

// NewPDFUseCase construye el caso de uso.
func NewPDFUseCase(
	invoiceRepo repository.InvoiceRepository,
	posRepo repository.PointOfSaleRepository,
	generator PDFGenerator,
) *PDFUseCase {
	return &PDFUseCase{invoiceRepo: invoiceRepo, posRepo: posRepo, generator: generator}
}

// DownloadInvoicePDF recupera la factura, verifica que esté autorizada y
// genera el PDF. Devuelve además el nombre de archivo sugerido.
func (uc *PDFUseCase) DownloadInvoicePDF(invoiceID string) (pdfBytes []byte, filename string, err error) {
	inv, err := uc.invoiceRepo.GetByID(invoiceID)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: obtener factura: %w", err)
	}
	if inv.Status != entity.InvoiceStatusAuthorized {
		return nil, "", fmt.Errorf("%w: la factura %s no está autorizada", domain.ErrInvalidInput, invoiceID)
	}

	pos, err := uc.posRepo.GetByID(inv.PointOfSaleID)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: obtener punto de venta: %w", err)
	}

	pdfBytes, err = uc.generator.Generate(inv, pos)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: generar: %w", err)
	}
	filename = fmt.Sprintf("factura_%s.pdf", inv.FormattedNumber(pos.Number))
	return pdfBytes, filename, nil
}
