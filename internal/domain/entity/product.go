package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product es un artículo del catálogo. Las líneas de factura pueden
// referenciarlo para tomar precio y alícuota por defecto; la descripción se
// copia a la línea para preservar el histórico.
type Product struct {
	ID          string
	Code        string // código interno, único
	Description string
	UnitPrice   decimal.Decimal
	TaxRate     decimal.Decimal // alícuota IVA en porcentaje (0, 10.5, 21, 27)
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
