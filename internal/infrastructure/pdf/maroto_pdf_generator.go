// Package pdf genera la representación gráfica del comprobante electrónico
// autorizado, con CAE, vencimiento y el código QR de verificación de AFIP.
package pdf

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	appbilling "github.com/jorgeomarnegrete/fact-arca/internal/application/billing"
	"github.com/jorgeomarnegrete/fact-arca/internal/domain/entity"
)

var (
	colorPrimary = &props.Color{Red: 0, Green: 90, Blue: 60}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

var _ appbilling.PDFGenerator = (*MarotoPDFGenerator)(nil)

// MarotoPDFGenerator implementa billing.PDFGenerator usando Maroto v2.
type MarotoPDFGenerator struct{}

// NewMarotoPDFGenerator construye el generador.
func NewMarotoPDFGenerator() *MarotoPDFGenerator { return &MarotoPDFGenerator{} }

// Generate genera el PDF del comprobante autorizado y devuelve sus bytes.
func (g *MarotoPDFGenerator) Generate(inv *entity.Invoice, pos *entity.PointOfSale) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Factura Electrónica", true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(inv, pos))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(receptorRow(inv.Customer))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	for _, r := range tableItemRows(inv.Items) {
		m.AddRows(r)
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(inv))

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	for _, r := range caeFooterRows(inv, pos) {
		m.AddRows(r)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ──────────────────────────────────────────────────────────────

func cbteTipoLabel(cbteTipo int) string {
	switch cbteTipo {
	case 1:
		return "FACTURA A"
	case 6:
		return "FACTURA B"
	case 11:
		return "FACTURA C"
	case 3:
		return "NOTA DE CRÉDITO A"
	case 8:
		return "NOTA DE CRÉDITO B"
	case 13:
		return "NOTA DE CRÉDITO C"
	default:
		return fmt.Sprintf("COMPROBANTE TIPO %d", cbteTipo)
	}
}

// headerRow: emisor (izq) y tipo + número + fecha (der).
func headerRow(inv *entity.Invoice, pos *entity.PointOfSale) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New(nonEmpty(pos.Name, "Punto de venta "+strconv.Itoa(pos.Number)), props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("CUIT: "+pos.CUIT, props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New(cbteTipoLabel(inv.CbteTipo), props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New(inv.FormattedNumber(pos.Number), props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7,
			}),
			text.New("Fecha: "+inv.IssuedAt.Format("02/01/2006"), props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

// receptorRow: datos del receptor congelados en la factura.
func receptorRow(c entity.CustomerDetail) core.Row {
	doc := c.DocNumber
	if c.DocType == 99 {
		doc = "Consumidor Final"
	}
	return row.New(14).Add(
		col.New(12).Add(
			text.New("RECEPTOR", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(nonEmpty(c.Name, "Consumidor Final"), props.Text{
				Style: fontstyle.Bold, Size: 10, Top: 6,
			}),
			text.New(fmt.Sprintf("Documento: %s   |   Condición IVA: %s",
				doc, c.FiscalCondition,
			), props.Text{Size: 8, Top: 12, Color: colorGray}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Cant.", 1, align.Center),
		h("Descripción", 5, align.Left),
		h("P. Unitario", 2, align.Right),
		h("IVA%", 1, align.Center),
		h("Subtotal", 3, align.Right),
	)
}

func tableItemRows(items []entity.InvoiceItem) []core.Row {
	result := make([]core.Row, 0, len(items))
	for _, it := range items {
		result = append(result, row.New(7).Add(
			col.New(1).Add(text.New(
				it.Quantity.String(),
				props.Text{Size: 8, Align: align.Center, Top: 1},
			)),
			col.New(5).Add(text.New(
				it.Description,
				props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1},
			)),
			col.New(2).Add(text.New(
				"$"+it.UnitPrice.StringFixed(2),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
			col.New(1).Add(text.New(
				it.TaxRate.String()+"%",
				props.Text{Size: 8, Align: align.Center, Top: 1},
			)),
			col.New(3).Add(text.New(
				"$"+it.Gross.StringFixed(2),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
		))
	}
	return result
}

func totalsRow(inv *entity.Invoice) core.Row {
	label := func(s string) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2,
		})
	}
	value := func(s string) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1})
	}
	grand := func(s string, right float64) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right,
			Color: colorPrimary, Right: right,
		})
	}

	return row.New(26).Add(
		col.New(3),
		col.New(3).Add(
			label("Neto gravado:"),
			label("IVA:"),
			grand("TOTAL:", 2),
		),
		col.New(3).Add(
			value("$"+inv.NetTotal.StringFixed(2)),
			value("$"+inv.TaxTotal.StringFixed(2)),
			grand("$"+inv.GrandTotal.StringFixed(2), 1),
		),
		col.New(3),
	)
}

// caeFooterRows: CAE, vencimiento y QR de verificación.
func caeFooterRows(inv *entity.Invoice, pos *entity.PointOfSale) []core.Row {
	rows := []core.Row{
		row.New(6).Add(col.New(12).Add(
			text.New("COMPROBANTE AUTORIZADO", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
		)),
		row.New(5).Add(col.New(12).Add(
			text.New(fmt.Sprintf("CAE: %s   |   Vencimiento CAE: %s", inv.CAE, formatCAEDate(inv.CAEExpiry)), props.Text{
				Style: fontstyle.Bold, Size: 8, Top: 1,
			}),
		)),
		row.New(3),
	}

	if qr := verificationQR(inv, pos); qr != "" {
		rows = append(rows, row.New(40).Add(
			col.New(4).Add(code.NewQr(qr, props.Rect{Percent: 95, Center: true})),
			col.New(8).Add(
				text.New("Escaneá el código QR para verificar\neste comprobante en el sitio de AFIP.", props.Text{
					Size: 8, Top: 4, Left: 3, Color: colorGray,
				}),
			),
		))
	}
	return rows
}

// verificationQR arma la URL de verificación pública: un JSON con los datos
// del comprobante, en base64, detrás de https://www.afip.gob.ar/fe/qr/.
func verificationQR(inv *entity.Invoice, pos *entity.PointOfSale) string {
	cuit, err := strconv.ParseInt(pos.CUIT, 10, 64)
	if err != nil {
		return ""
	}
	docNro, _ := strconv.ParseInt(inv.Customer.DocNumber, 10, 64)
	total, _ := inv.GrandTotal.Float64()

	payload := map[string]interface{}{
		"ver":        1,
		"fecha":      inv.IssuedAt.Format("2006-01-02"),
		"cuit":       cuit,
		"ptoVta":     pos.Number,
		"tipoCmp":    inv.CbteTipo,
		"nroCmp":     inv.Number,
		"importe":    total,
		"moneda":     "PES",
		"ctz":        1,
		"tipoDocRec": inv.Customer.DocType,
		"nroDocRec":  docNro,
		"tipoCodAut": "E",
		"codAut":     inv.CAE,
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return ""
	}
	return "https://www.afip.gob.ar/fe/qr/?p=" + base64.StdEncoding.EncodeToString(raw)
}

// ── helpers ────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// formatCAEDate convierte AAAAMMDD a DD/MM/AAAA para impresión.
func formatCAEDate(s string) string {
	if len(s) != 8 {
		return s
	}
	return s[6:8] + "/" + s[4:6] + "/" + s[0:4]
}
