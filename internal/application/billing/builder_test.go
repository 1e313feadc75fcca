package billing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jorgeomarnegrete/fact-arca/internal/application/dto"
	"github.com/jorgeomarnegrete/fact-arca/internal/domain"
	"github.com/jorgeomarnegrete/fact-arca/internal/domain/entity"
)

type fakeCustomerRepo struct {
	byID map[string]*entity.Customer
}

func (f *fakeCustomerRepo) Create(c *entity.Customer) error { return nil }
func (f *fakeCustomerRepo) GetByID(id string) (*entity.Customer, error) {
	c, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return c, nil
}
func (f *fakeCustomerRepo) GetByDocNumber(doc string) (*entity.Customer, error) {
	return nil, domain.ErrNotFound
}
func (f *fakeCustomerRepo) Update(c *entity.Customer) error { return nil }
func (f *fakeCustomerRepo) List(limit, offset int) ([]*entity.Customer, error) {
	return nil, nil
}
func (f *fakeCustomerRepo) Delete(id string) error { return nil }

type fakeProductRepo struct {
	byID map[string]*entity.Product
}

func (f *fakeProductRepo) Create(p *entity.Product) error { return nil }
func (f *fakeProductRepo) GetByID(id string) (*entity.Product, error) {
	p, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p, nil
}
func (f *fakeProductRepo) GetByCode(code string) (*entity.Product, error) {
	return nil, domain.ErrNotFound
}
func (f *fakeProductRepo) Update(p *entity.Product) error { return nil }
func (f *fakeProductRepo) List(limit, offset int) ([]*entity.Product, error) {
	return nil, nil
}
func (f *fakeProductRepo) Delete(id string) error { return nil }

func TestBuilder_LineaDesdeCatalogo(t *testing.T) {
	products := &fakeProductRepo{byID: map[string]*entity.Product{
		"prod-1": {
			ID:          "prod-1",
			Code:        "CAFE-1KG",
			Description: "Café en grano 1kg",
			UnitPrice:   decimal.RequireFromString("121.00"),
			TaxRate:     decimal.RequireFromString("21"),
		},
	}}
	b := NewBuilder(&fakeCustomerRepo{}, products)

	inv, vat, err := b.Build(dto.CreateInvoiceRequest{
		PointOfSaleID: "pos-1",
		Customer:      &dto.CustomerDetailDTO{Name: "CF", DocNumber: "00000000"},
		Items: []dto.InvoiceItemRequest{
			{ProductID: "prod-1", Quantity: decimal.NewFromInt(1)},
		},
	}, 11)
	require.NoError(t, err)

	require.Len(t, inv.Items, 1)
	assert.Equal(t, "Café en grano 1kg", inv.Items[0].Description)
	assert.Equal(t, "121.00", inv.GrandTotal.StringFixed(2))
	assert.Equal(t, "100.00", inv.NetTotal.StringFixed(2))
	require.Len(t, vat, 1)
	assert.Equal(t, 5, vat[0].AlicuotaID)
	assert.Equal(t, entity.InvoiceStatusDraft, inv.Status)
	assert.Zero(t, inv.Number, "el borrador no tiene número")
}

func TestBuilder_PrecioExplicitoGanaAlCatalogo(t *testing.T) {
	products := &fakeProductRepo{byID: map[string]*entity.Product{
		"prod-1": {
			ID: "prod-1", Description: "Yerba 500g",
			UnitPrice: decimal.RequireFromString("100"),
			TaxRate:   decimal.RequireFromString("21"),
		},
	}}
	b := NewBuilder(&fakeCustomerRepo{}, products)

	promo := decimal.RequireFromString("80")
	inv, _, err := b.Build(dto.CreateInvoiceRequest{
		PointOfSaleID: "pos-1",
		Customer:      &dto.CustomerDetailDTO{Name: "CF", DocNumber: "00000000"},
		Items: []dto.InvoiceItemRequest{
			{ProductID: "prod-1", Quantity: decimal.NewFromInt(1), UnitPrice: &promo},
		},
	}, 11)
	require.NoError(t, err)
	assert.Equal(t, "80.00", inv.GrandTotal.StringFixed(2))
}

func TestBuilder_ClienteDelPadron(t *testing.T) {
	customers := &fakeCustomerRepo{byID: map[string]*entity.Customer{
		"cli-1": {
			ID: "cli-1", Name: "ACME SA", DocNumber: "30716595540",
			FiscalCondition: "RESPONSABLE_INSCRIPTO",
		},
	}}
	b := NewBuilder(customers, &fakeProductRepo{})

	price := decimal.NewFromInt(100)
	rate := decimal.RequireFromString("21")
	inv, _, err := b.Build(dto.CreateInvoiceRequest{
		PointOfSaleID: "pos-1",
		CustomerID:    "cli-1",
		Items: []dto.InvoiceItemRequest{
			{Description: "Servicio", Quantity: decimal.NewFromInt(1), UnitPrice: &price, TaxRate: &rate},
		},
	}, 11)
	require.NoError(t, err)
	assert.Equal(t, "ACME SA", inv.Customer.Name)
	assert.Equal(t, 80, inv.Customer.DocType, "CUIT válido clasifica como 80")
}

func TestBuilder_Invalidos(t *testing.T) {
	b := NewBuilder(&fakeCustomerRepo{}, &fakeProductRepo{})
	price := decimal.NewFromInt(100)
	rate := decimal.RequireFromString("21")
	base := dto.CreateInvoiceRequest{
		PointOfSaleID: "pos-1",
		Customer:      &dto.CustomerDetailDTO{Name: "CF", DocNumber: "00000000"},
		Items: []dto.InvoiceItemRequest{
			{Description: "x", Quantity: decimal.NewFromInt(1), UnitPrice: &price, TaxRate: &rate},
		},
	}

	sinPos := base
	sinPos.PointOfSaleID = ""
	_, _, err := b.Build(sinPos, 11)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	sinItems := base
	sinItems.Items = nil
	_, _, err = b.Build(sinItems, 11)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	sinReceptor := base
	sinReceptor.Customer = nil
	_, _, err = b.Build(sinReceptor, 11)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	tipoRaro := base
	tipoRaro.CbteTipo = 77
	_, _, err = b.Build(tipoRaro, 11)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	sinPrecio := base
	sinPrecio.Items = []dto.InvoiceItemRequest{{Description: "x", Quantity: decimal.NewFromInt(1)}}
	_, _, err = b.Build(sinPrecio, 11)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestBuilder_TipoPorDefecto(t *testing.T) {
	b := NewBuilder(&fakeCustomerRepo{}, &fakeProductRepo{})
	price := decimal.NewFromInt(50)
	rate := decimal.RequireFromString("21")
	inv, _, err := b.Build(dto.CreateInvoiceRequest{
		PointOfSaleID: "pos-1",
		Customer:      &dto.CustomerDetailDTO{Name: "CF", DocNumber: "00000000"},
		Items: []dto.InvoiceItemRequest{
			{Description: "x", Quantity: decimal.NewFromInt(1), UnitPrice: &price, TaxRate: &rate},
		},
	}, 11)
	require.NoError(t, err)
	assert.Equal(t, 11, inv.CbteTipo, "sin tipo explícito se usa el configurado")
}
