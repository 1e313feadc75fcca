package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Estados del ciclo de vida de una factura.
//
//	draft      → construida y persistida, aún sin enviar a AFIP
//	submitted  → solicitud en vuelo o con resultado desconocido (falla de
//	             transporte); solo la conciliación puede resolverla
//	authorized → AFIP otorgó CAE; estado terminal
//	rejected   → AFIP rechazó la solicitud; estado terminal
const (
	InvoiceStatusDraft      = "draft"
	InvoiceStatusSubmitted  = "submitted"
	InvoiceStatusAuthorized = "authorized"
	InvoiceStatusRejected   = "rejected"
)

// Invoice es un comprobante electrónico. El número de comprobante lo asigna
// el flujo de autorización (último autorizado por AFIP + 1) y una vez
// consumido jamás se reutiliza, ni siquiera si AFIP rechaza la solicitud.
type Invoice struct {
	ID            string
	PointOfSaleID string
	CbteTipo      int   // tipo de comprobante AFIP (1, 6, 11, ...)
	Concepto      int   // 1=Productos
	Number        int64 // 0 mientras es borrador
	Status        string
	Customer      CustomerDetail
	Items         []InvoiceItem
	NetTotal      decimal.Decimal
	TaxTotal      decimal.Decimal
	GrandTotal    decimal.Decimal
	CAE           string
	CAEExpiry     string // vencimiento del CAE, formato AAAAMMDD tal como lo informa AFIP
	Observations  string // detalle de observaciones/rechazo de AFIP
	IssuedAt      time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsTerminal indica si la factura alcanzó un estado final.
func (i *Invoice) IsTerminal() bool {
	return i.Status == InvoiceStatusAuthorized || i.Status == InvoiceStatusRejected
}

// FormattedNumber devuelve el número completo del comprobante con el formato
// habitual punto de venta-número (0001-00000042).
func (i *Invoice) FormattedNumber(posNumber int) string {
	return fmt.Sprintf("%04d-%08d", posNumber, i.Number)
}

// AuthorizationOutcome es la decisión definitiva de AFIP sobre una solicitud.
type AuthorizationOutcome struct {
	Authorized   bool
	CAE          string
	CAEExpiry    string
	Number       int64
	Observations string
}
