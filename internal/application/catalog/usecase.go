// Package catalog administra el catálogo de productos y el padrón de clientes.
package catalog

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

// UseCase casos de uso del catálogo.
type UseCase struct {
	productRepo  repository.ProductRepository
	customerRepo repository.CustomerRepository
}

// NewUseCase construye el caso de uso.
func NewUseCase(productRepo repository.ProductRepository, customerRepo repository.CustomerRepository) *UseCase {
	return &UseCase{productRepo: productRepo, customerRepo: customerRepo}
}

// ─── Productos ──────────────────────────────────────────────────────────────

// CreateProduct da de alta un producto del catálogo.
func (uc *UseCase) CreateProduct(in dto.ProductRequest) (*dto.ProductResponse, error) {
	if err := validateProduct(in); err != nil {
		return nil, err
	}
	if _, err := uc.productRepo.GetByCode(in.Code); err == nil {
		return nil, fmt.Errorf("%w: código %s ya existe", domain.ErrDuplicate, in.Code)
	}

	now := time.Now()
	p := &entity.Product{
		ID:          uuid.NewString(),
		Code:        strings.TrimSpace(in.Code),
		Description: strings.TrimSpace(in.Description),
		UnitPrice:   in.UnitPrice,
		TaxRate:     in.TaxRate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.productRepo.Create(p); err != nil {
		return nil, err
	}
	resp := toProductResponse(p)
	return &resp, nil
}

// UpdateProduct actualiza un producto existente.
func (uc *UseCase) UpdateProduct(id string, in dto.ProductRequest) (*dto.ProductResponse, error) {
	if err := validateProduct(in); err != nil {
		return nil, err
	}
	p, err := uc.productRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	p.Code = strings.TrimSpace(in.Code)
	p.Description = strings.TrimSpace(in.Description)
	p.UnitPrice = in.UnitPrice
	p.TaxRate = in.TaxRate
	p.UpdatedAt = time.Now()
	if err := uc.productRepo.Update(p); err != nil {
		return nil, err
	}
	resp := toProductResponse(p)
	return &resp, nil
}

// GetProduct devuelve un producto por ID.
func (uc *UseCase) GetProduct(id string) (*dto.ProductResponse, error) {
	p, err := uc.productRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	resp := toProductResponse(p)
	return &resp, nil
}

// ListProducts lista el catálogo.
func (uc *UseCase) ListProducts(limit, offset int) ([]dto.ProductResponse, error) {
	items, err := uc.productRepo.List(limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ProductResponse, 0, len(items))
	for _, p := range items {
		out = append(out, toProductResponse(p))
	}
	return out, nil
}

// DeleteProduct elimina un producto del catálogo.
func (uc *UseCase) DeleteProduct(id string) error {
	return uc.productRepo.Delete(id)
}

func validateProduct(in dto.ProductRequest) error {
	if strings.TrimSpace(in.Code) == "" || strings.TrimSpace(in.Description) == "" {
		return fmt.Errorf("%w: código y descripción son obligatorios", domain.ErrInvalidInput)
	}
	if in.UnitPrice.IsNegative() {
		return fmt.Errorf("%w: precio negativo", domain.ErrInvalidInput)
	}
	if !afip.IsValidTaxRate(in.TaxRate) {
		return fmt.Errorf("%w: alícuota %s%% no habilitada", domain.ErrInvalidInput, in.TaxRate)
	}
	return nil
}

func toProductResponse(p *entity.Product) dto.ProductResponse {
	return dto.ProductResponse{
		ID:          p.ID,
		Code:        p.Code,
		Description: p.Description,
		UnitPrice:   p.UnitPrice,
		TaxRate:     p.TaxRate,
	}
}

// ─── Clientes ───────────────────────────────────────────────────────────────

// CreateCustomer da de alta un cliente del padrón. El tipo de documento se
// clasifica con la misma heurística que usa la facturación.
func (uc *UseCase) CreateCustomer(in dto.CustomerRequest) (*dto.CustomerResponse, error) {
	detail, err := buildCustomerDetail(in)
	if err != nil {
		return nil, err
	}
	if detail.DocNumber != afip.DocNumberConsumidorFinal {
		if _, err := uc.customerRepo.GetByDocNumber(detail.DocNumber); err == nil {
			return nil, fmt.Errorf("%w: documento %s ya registrado", domain.ErrDuplicate, detail.DocNumber)
		}
	}

	now := time.Now()
	c := &entity.Customer{
		ID:              uuid.NewString(),
		Name:            detail.Name,
		DocType:         detail.DocType,
		DocNumber:       detail.DocNumber,
		FiscalCondition: detail.FiscalCondition,
		Address:         detail.Address,
		Email:           detail.Email,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := uc.customerRepo.Create(c); err != nil {
		return nil, err
	}
	resp := toCustomerResponse(c)
	return &resp, nil
}

// UpdateCustomer actualiza un cliente existente.
func (uc *UseCase) UpdateCustomer(id string, in dto.CustomerRequest) (*dto.CustomerResponse, error) {
	detail, err := buildCustomerDetail(in)
	if err != nil {
		return nil, err
	}
	c, err := uc.customerRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	c.Name = detail.Name
	c.DocType = detail.DocType
	c.DocNumber = detail.DocNumber
	c.FiscalCondition = detail.FiscalCondition
	c.Address = detail.Address
	c.Email = detail.Email
	c.UpdatedAt = time.Now()
	if err := uc.customerRepo.Update(c); err != nil {
		return nil, err
	}
	resp := toCustomerResponse(c)
	return &resp, nil
}

// GetCustomer devuelve un cliente por ID.
func (uc *UseCase) GetCustomer(id string) (*dto.CustomerResponse, error) {
	c, err := uc.customerRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	resp := toCustomerResponse(c)
	return &resp, nil
}

// ListCustomers lista el padrón.
func (uc *UseCase) ListCustomers(limit, offset int) ([]dto.CustomerResponse, error) {
	items, err := uc.customerRepo.List(limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]dto.CustomerResponse, 0, len(items))
	for _, c := range items {
		out = append(out, toCustomerResponse(c))
	}
	return out, nil
}

// DeleteCustomer elimina un cliente del padrón.
func (uc *UseCase) DeleteCustomer(id string) error {
	return uc.customerRepo.Delete(id)
}

func buildCustomerDetail(in dto.CustomerRequest) (entity.CustomerDetail, error) {
	if strings.TrimSpace(in.Name) == "" {
		return entity.CustomerDetail{}, fmt.Errorf("%w: falta el nombre", domain.ErrInvalidInput)
	}
	cond := strings.TrimSpace(in.FiscalCondition)
	if cond == "" {
		cond = afip.CondicionConsumidorFinal
	}
	if !afip.ValidFiscalConditions[cond] {
		return entity.CustomerDetail{}, fmt.Errorf("%w: condición fiscal %q no reconocida", domain.ErrInvalidInput, in.FiscalCondition)
	}

	detail := entity.CustomerDetail{
		Name:            strings.TrimSpace(in.Name),
		DocType:         in.DocType,
		DocNumber:       strings.TrimSpace(in.DocNumber),
		FiscalCondition: cond,
		Address:         strings.TrimSpace(in.Address),
		Email:           strings.TrimSpace(in.Email),
	}
	docType, err := domainbilling.ClassifyDocType(detail)
	if err != nil {
		return entity.CustomerDetail{}, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	detail.DocType = docType
	return detail, nil
}

func toCustomerResponse(c *entity.Customer) dto.CustomerResponse {
	return dto.CustomerResponse{
		ID:              c.ID,
		Name:            c.Name,
		DocType:         c.DocType,
		DocNumber:       c.DocNumber,
		FiscalCondition: c.FiscalCondition,
		Address:         c.Address,
		Email:           c.Email,
	}
}
