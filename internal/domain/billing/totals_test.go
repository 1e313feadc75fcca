package billing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jorgeomarnegrete/fact-arca/internal/domain/entity"
)

func item(qty, price, rate string) entity.InvoiceItem {
	return entity.InvoiceItem{
		Quantity:  decimal.RequireFromString(qty),
		UnitPrice: decimal.RequireFromString(price),
		TaxRate:   decimal.RequireFromString(rate),
	}
}

func TestComputeTotals_DosLineasMismaAlicuota(t *testing.T) {
	// 2 × $100 + 1 × $50, todo al 21%: bruto $250.00, neto $206.61, IVA $43.39.
	items := []entity.InvoiceItem{
		item("2", "100", "21"),
		item("1", "50", "21"),
	}

	totals, err := ComputeTotals(items)
	require.NoError(t, err)

	assert.Equal(t, "250.00", totals.Grand.StringFixed(2), "total general")
	assert.Equal(t, "206.61", totals.Net.StringFixed(2), "neto gravado")
	assert.Equal(t, "43.39", totals.Tax.StringFixed(2), "IVA")

	// Subtotales de línea ya redondeados.
	assert.Equal(t, "165.29", items[0].Net.StringFixed(2))
	assert.Equal(t, "34.71", items[0].Tax.StringFixed(2))
	assert.Equal(t, "41.32", items[1].Net.StringFixed(2))
	assert.Equal(t, "8.68", items[1].Tax.StringFixed(2))

	require.Len(t, totals.VATGroups, 1)
	assert.Equal(t, 5, totals.VATGroups[0].AlicuotaID, "alícuota 21% es id 5")
}

func TestComputeTotals_AlicuotasMixtas(t *testing.T) {
	items := []entity.InvoiceItem{
		item("1", "121", "21"),
		item("1", "110.50", "10.5"),
		item("1", "30", "0"),
	}

	totals, err := ComputeTotals(items)
	require.NoError(t, err)

	assert.Equal(t, "261.50", totals.Grand.StringFixed(2))
	require.Len(t, totals.VATGroups, 3)
	// Ordenados por id de alícuota: 0% (3), 10.5% (4), 21% (5).
	assert.Equal(t, 3, totals.VATGroups[0].AlicuotaID)
	assert.Equal(t, "30.00", totals.VATGroups[0].Net.StringFixed(2))
	assert.Equal(t, "0.00", totals.VATGroups[0].Tax.StringFixed(2))
	assert.Equal(t, 4, totals.VATGroups[1].AlicuotaID)
	assert.Equal(t, "100.00", totals.VATGroups[1].Net.StringFixed(2))
	assert.Equal(t, "10.50", totals.VATGroups[1].Tax.StringFixed(2))
	assert.Equal(t, 5, totals.VATGroups[2].AlicuotaID)
	assert.Equal(t, "100.00", totals.VATGroups[2].Net.StringFixed(2))
	assert.Equal(t, "21.00", totals.VATGroups[2].Tax.StringFixed(2))
}

func TestComputeTotals_TotalIgualSumaDeSubtotales(t *testing.T) {
	// Caso con redondeos antipáticos: el total general debe seguir siendo la
	// suma exacta de los brutos de línea.
	items := []entity.InvoiceItem{
		item("3", "33.333", "21"),
		item("7", "0.07", "10.5"),
	}

	totals, err := ComputeTotals(items)
	require.NoError(t, err)

	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.Gross)
		assert.True(t, it.Net.Add(it.Tax).Equal(it.Gross),
			"neto + IVA debe cerrar exacto contra el bruto de la línea")
	}
	assert.True(t, totals.Grand.Equal(sum), "total %s ≠ suma de subtotales %s", totals.Grand, sum)
}

func TestComputeItem_Validaciones(t *testing.T) {
	bad := item("0", "100", "21")
	assert.Error(t, ComputeItem(&bad), "cantidad cero debe rechazarse")

	bad = item("1", "-5", "21")
	assert.Error(t, ComputeItem(&bad), "precio negativo debe rechazarse")

	bad = item("1", "100", "13")
	assert.Error(t, ComputeItem(&bad), "alícuota fuera de catálogo debe rechazarse")
}

func TestComputeTotals_SinLineas(t *testing.T) {
	_, err := ComputeTotals(nil)
	assert.Error(t, err)
}
