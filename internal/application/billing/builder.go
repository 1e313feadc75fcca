package billing

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jorgeomarnegrete/fact-arca/internal/application/dto"
	"github.com/jorgeomarnegrete/fact-arca/internal/domain"
	domainbilling "github.com/jorgeomarnegrete/fact-arca/internal/domain/billing"
	"github.com/jorgeomarnegrete/fact-arca/internal/domain/entity"
	"github.com/jorgeomarnegrete/fact-arca/internal/domain/repository"
	"github.com/jorgeomarnegrete/fact-arca/pkg/afip"
)

// Builder arma una factura en borrador a partir de la solicitud: resuelve el
// receptor (padrón o datos inline), clasifica su documento, completa líneas
// desde el catálogo y calcula todos los totales. No asigna número ni toca AFIP.
type Builder struct {
	customerRepo repository.CustomerRepository
	productRepo  repository.ProductRepository
}

// NewBuilder construye el armador de facturas.
func NewBuilder(customerRepo repository.CustomerRepository, productRepo repository.ProductRepository) *Builder {
	return &Builder{customerRepo: customerRepo, productRepo: productRepo}
}

// Build valida la solicitud y devuelve la factura en borrador junto con el
// desglose de IVA por alícuota que luego viaja en la solicitud de CAE.
func (b *Builder) Build(in dto.CreateInvoiceRequest, defaultCbteTipo int) (*entity.Invoice, []domainbilling.VATGroup, error) {
	if in.PointOfSaleID == "" || len(in.Items) == 0 {
		return nil, nil, domain.ErrInvalidInput
	}

	cbteTipo := in.CbteTipo
	if cbteTipo == 0 {
		cbteTipo = defaultCbteTipo
	}
	if !afip.ValidCbteTipos[cbteTipo] {
		return nil, nil, fmt.Errorf("%w: tipo de comprobante %d no soportado", domain.ErrInvalidInput, cbteTipo)
	}

	customer, err := b.resolveCustomer(in)
	if err != nil {
		return nil, nil, err
	}
	docType, err := domainbilling.ClassifyDocType(customer)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	customer.DocType = docType

	items, err := b.resolveItems(in.Items)
	if err != nil {
		return nil, nil, err
	}

	totals, err := domainbilling.ComputeTotals(items)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	now := time.Now()
	inv := &entity.Invoice{
		ID:            uuid.NewString(),
		PointOfSaleID: in.PointOfSaleID,
		CbteTipo:      cbteTipo,
		Concepto:      afip.ConceptoProductos,
		Status:        entity.InvoiceStatusDraft,
		Customer:      customer,
		Items:         items,
		NetTotal:      totals.Net,
		TaxTotal:      totals.Tax,
		GrandTotal:    totals.Grand,
		IssuedAt:      now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	for i := range inv.Items {
		inv.Items[i].ID = uuid.NewString()
		inv.Items[i].InvoiceID = inv.ID
	}
	return inv, totals.VATGroups, nil
}

// resolveCustomer arma el snapshot del receptor desde el padrón (CustomerID)
// o desde los datos inline. Condición fiscal vacía se asume consumidor final.
func (b *Builder) resolveCustomer(in dto.CreateInvoiceRequest) (entity.CustomerDetail, error) {
	if in.CustomerID != "" {
		c, err := b.customerRepo.GetByID(in.CustomerID)
		if err != nil {
			return entity.CustomerDetail{}, err
		}
		return c.Detail(), nil
	}
	if in.Customer == nil {
		return entity.CustomerDetail{}, fmt.Errorf("%w: falta el receptor", domain.ErrInvalidInput)
	}

	cond := strings.TrimSpace(in.Customer.FiscalCondition)
	if cond == "" {
		cond = afip.CondicionConsumidorFinal
	}
	if !afip.ValidFiscalConditions[cond] {
		return entity.CustomerDetail{}, fmt.Errorf("%w: condición fiscal %q no reconocida", domain.ErrInvalidInput, cond)
	}
	return entity.CustomerDetail{
		Name:            strings.TrimSpace(in.Customer.Name),
		DocType:         in.Customer.DocType,
		DocNumber:       strings.TrimSpace(in.Customer.DocNumber),
		FiscalCondition: cond,
		Address:         in.Customer.Address,
		Email:           in.Customer.Email,
	}, nil
}

// resolveItems completa cada línea: si referencia un producto del catálogo,
// descripción, precio y alícuota faltantes se toman de él. Los valores
// explícitos de la solicitud siempre ganan.
func (b *Builder) resolveItems(in []dto.InvoiceItemRequest) ([]entity.InvoiceItem, error) {
	items := make([]entity.InvoiceItem, 0, len(in))
	for i, line := range in {
		item := entity.InvoiceItem{
			ProductID:   line.ProductID,
			Description: strings.TrimSpace(line.Description),
			Quantity:    line.Quantity,
		}

		if line.ProductID != "" {
			p, err := b.productRepo.GetByID(line.ProductID)
			if err != nil {
				return nil, fmt.Errorf("línea %d: %w", i+1, err)
			}
			if item.Description == "" {
				item.Description = p.Description
			}
			item.UnitPrice = p.UnitPrice
			item.TaxRate = p.TaxRate
		}
		if line.UnitPrice != nil {
			item.UnitPrice = *line.UnitPrice
		}
		if line.TaxRate != nil {
			item.TaxRate = *line.TaxRate
		}

		if item.Description == "" {
			return nil, fmt.Errorf("%w: línea %d sin descripción", domain.ErrInvalidInput, i+1)
		}
		if line.ProductID == "" && (line.UnitPrice == nil || line.TaxRate == nil) {
			return nil, fmt.Errorf("%w: línea %d sin precio o alícuota", domain.ErrInvalidInput, i+1)
		}
		items = append(items, item)
	}
	return items, nil
}
