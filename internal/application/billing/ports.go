package billing

import (
	"context"

	domainbilling "github.com/jorgeomarnegrete/fact-arca/internal/domain/billing"
	"github.com/jorgeomarnegrete/fact-arca/internal/domain/entity"
)

// Authorizer es el puerto hacia el web service de facturación electrónica de
// AFIP (WSFEv1). La implementación vive en infrastructure/afip.
type Authorizer interface {
	// LastAuthorized devuelve el último número de comprobante autorizado para
	// el punto de venta y tipo dados. AFIP es la única fuente de verdad de la
	// numeración; cualquier caché local es apenas una pista.
	LastAuthorized(ctx context.Context, pos *entity.PointOfSale, cbteTipo int) (int64, error)

	// Authorize solicita el CAE para la factura, ya numerada. Una falla de red
	// se reporta como error que envuelve domain.ErrTransport; un rechazo de
	// AFIP NO es error de esta llamada, llega como outcome no autorizado.
	Authorize(ctx context.Context, pos *entity.PointOfSale, inv *entity.Invoice, vat []domainbilling.VATGroup) (*entity.AuthorizationOutcome, error)

	// Query consulta un comprobante puntual ya enviado (conciliación).
	// Devuelve domain.ErrNotFound si AFIP nunca registró ese número.
	Query(ctx context.Context, pos *entity.PointOfSale, cbteTipo int, number int64) (*entity.AuthorizationOutcome, error)
}

// PDFGenerator es el puerto de render de comprobantes autorizados.
type PDFGenerator interface {
	Generate(inv *entity.Invoice, pos *entity.PointOfSale) ([]byte, error)
}
