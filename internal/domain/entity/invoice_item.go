package entity

import "github.com/shopspring/decimal"

// InvoiceItem es una línea de factura. Los montos derivados (Gross, Net, Tax)
// se calculan una sola vez al construir la factura y quedan congelados.
//
// El precio unitario es IVA incluido: el neto se obtiene dividiendo el bruto
// por (1 + alícuota), nunca al revés.
type InvoiceItem struct {
	ID          string
	InvoiceID   string
	ProductID   string // opcional: referencia al catálogo
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal // precio unitario IVA incluido
	TaxRate     decimal.Decimal // alícuota IVA en porcentaje por línea
	Gross       decimal.Decimal // Quantity × UnitPrice, redondeado a 2 decimales
	Net         decimal.Decimal // Gross / (1 + TaxRate/100), redondeado a 2 decimales
	Tax         decimal.Decimal // Gross − Net
}
