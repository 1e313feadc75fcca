package dto

import "github.com/shopspring/decimal"

// ProductRequest alta/actualización de producto.
type ProductRequest struct {
	Code        string          `json:"code"`
	Description string          `json:"description"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
}

// ProductResponse representación pública del producto.
type ProductResponse struct {
	ID          string          `json:"id"`
	Code        string          `json:"code"`
	Description string          `json:"description"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
}

// CustomerRequest alta/actualización de cliente del padrón.
type CustomerRequest struct {
	Name            string `json:"name"`
	DocType         int    `json:"doc_type,omitempty"`
	DocNumber       string `json:"doc_number"`
	FiscalCondition string `json:"fiscal_condition"`
	Address         string `json:"address,omitempty"`
	Email           string `json:"email,omitempty"`
}

// CustomerResponse representación pública del cliente.
type CustomerResponse struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	DocType         int    `json:"doc_type"`
	DocNumber       string `json:"doc_number"`
	FiscalCondition string `json:"fiscal_condition"`
	Address         string `json:"address,omitempty"`
	Email           string `json:"email,omitempty"`
}
