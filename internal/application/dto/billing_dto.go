package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CustomerDetailDTO datos del receptor dentro de una solicitud de factura.
// DocType en 0 delega la clasificación al motor.
type CustomerDetailDTO struct {
	Name            string `json:"name"`
	DocType         int    `json:"doc_type,omitempty"`
	DocNumber       string `json:"doc_number"`
	FiscalCondition string `json:"fiscal_condition"`
	Address         string `json:"address,omitempty"`
	Email           string `json:"email,omitempty"`
}

// InvoiceItemRequest línea de la solicitud. Si trae ProductID, descripción,
// precio y alícuota se toman del catálogo salvo que vengan explícitos.
type InvoiceItemRequest struct {
	ProductID   string           `json:"product_id,omitempty"`
	Description string           `json:"description,omitempty"`
	Quantity    decimal.Decimal  `json:"quantity"`
	UnitPrice   *decimal.Decimal `json:"unit_price,omitempty"`
	TaxRate     *decimal.Decimal `json:"tax_rate,omitempty"`
}

// CreateInvoiceRequest solicitud de emisión y autorización de factura.
type CreateInvoiceRequest struct {
	PointOfSaleID string               `json:"point_of_sale_id"`
	CbteTipo      int                  `json:"cbte_tipo,omitempty"` // 0 usa el tipo por defecto
	CustomerID    string               `json:"customer_id,omitempty"`
	Customer      *CustomerDetailDTO   `json:"customer,omitempty"`
	Items         []InvoiceItemRequest `json:"items"`
}

// InvoiceItemResponse línea con montos calculados.
type InvoiceItemResponse struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	Net         decimal.Decimal `json:"net"`
	Tax         decimal.Decimal `json:"tax"`
	Gross       decimal.Decimal `json:"gross"`
}

// InvoiceResponse representación pública de la factura.
type InvoiceResponse struct {
	ID              string                `json:"id"`
	PointOfSaleID   string                `json:"point_of_sale_id"`
	CbteTipo        int                   `json:"cbte_tipo"`
	Number          int64                 `json:"number"`
	FormattedNumber string                `json:"formatted_number,omitempty"`
	Status          string                `json:"status"`
	Customer        CustomerDetailDTO     `json:"customer"`
	Items           []InvoiceItemResponse `json:"items"`
	NetTotal        decimal.Decimal       `json:"net_total"`
	TaxTotal        decimal.Decimal       `json:"tax_total"`
	GrandTotal      decimal.Decimal       `json:"grand_total"`
	CAE             string                `json:"cae,omitempty"`
	CAEExpiry       string                `json:"cae_expiry,omitempty"`
	Observations    string                `json:"observations,omitempty"`
	IssuedAt        time.Time             `json:"issued_at"`
	CreatedAt       time.Time             `json:"created_at"`
}

// ReconcileResponse resultado de una corrida de conciliación sobre las
// facturas en estado submitted de un punto de venta.
type ReconcileResponse struct {
	Examined   int `json:"examined"`
	Authorized int `json:"authorized"`
	Rejected   int `json:"rejected"`
	Reverted   int `json:"reverted"` // volvieron a borrador: AFIP nunca las vio
	Pending    int `json:"pending"`  // no se pudo determinar, siguen submitted
}
