package billing

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jorgeomarnegrete/fact-arca/internal/domain/entity"
	"github.com/jorgeomarnegrete/fact-arca/pkg/afip"
)

var one = decimal.NewFromInt(1)
var hundred = decimal.NewFromInt(100)

// VATGroup agrupa el IVA de todas las líneas que comparten alícuota, tal como
// lo exige el bloque AlicIva de la solicitud de autorización.
type VATGroup struct {
	AlicuotaID int // id de alícuota según catálogo AFIP
	Net        decimal.Decimal
	Tax        decimal.Decimal
}

// Totals es el resultado agregado del cálculo de una factura.
type Totals struct {
	Net       decimal.Decimal
	Tax       decimal.Decimal
	Grand     decimal.Decimal
	VATGroups []VATGroup
}

// ComputeItem completa los montos derivados de una línea a partir de cantidad,
// precio unitario (IVA incluido) y alícuota. Cada monto se redondea a 2
// decimales en el momento en que se deriva; el impuesto es la diferencia
// exacta entre bruto y neto, así la línea siempre cierra.
func ComputeItem(item *entity.InvoiceItem) error {
	if item.Quantity.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("cantidad debe ser positiva, recibida %s", item.Quantity)
	}
	if item.UnitPrice.LessThan(decimal.Zero) {
		return fmt.Errorf("precio unitario no puede ser negativo, recibido %s", item.UnitPrice)
	}
	if !afip.IsValidTaxRate(item.TaxRate) {
		return fmt.Errorf("alícuota %s%% no habilitada", item.TaxRate)
	}

	item.Gross = item.Quantity.Mul(item.UnitPrice).Round(2)
	divisor := one.Add(item.TaxRate.Div(hundred))
	item.Net = item.Gross.Div(divisor).Round(2)
	item.Tax = item.Gross.Sub(item.Net)
	return nil
}

// ComputeTotals calcula los montos de cada línea y los agrega. El total general
// es exactamente la suma de los brutos de línea ya redondeados: no existe un
// redondeo final que pueda desviarse de la suma de subtotales.
func ComputeTotals(items []entity.InvoiceItem) (Totals, error) {
	if len(items) == 0 {
		return Totals{}, fmt.Errorf("la factura debe tener al menos una línea")
	}

	t := Totals{
		Net:   decimal.Zero,
		Tax:   decimal.Zero,
		Grand: decimal.Zero,
	}
	byAlicuota := make(map[int]*VATGroup)

	for i := range items {
		if err := ComputeItem(&items[i]); err != nil {
			return Totals{}, fmt.Errorf("línea %d: %w", i+1, err)
		}
		t.Net = t.Net.Add(items[i].Net)
		t.Tax = t.Tax.Add(items[i].Tax)
		t.Grand = t.Grand.Add(items[i].Gross)

		id, _ := afip.AlicuotaID(items[i].TaxRate)
		g, ok := byAlicuota[id]
		if !ok {
			g = &VATGroup{AlicuotaID: id, Net: decimal.Zero, Tax: decimal.Zero}
			byAlicuota[id] = g
		}
		g.Net = g.Net.Add(items[i].Net)
		g.Tax = g.Tax.Add(items[i].Tax)
	}

	for _, g := range byAlicuota {
		t.VATGroups = append(t.VATGroups, *g)
	}
	sort.Slice(t.VATGroups, func(a, b int) bool {
		return t.VATGroups[a].AlicuotaID < t.VATGroups[b].AlicuotaID
	})
	return t, nil
}
