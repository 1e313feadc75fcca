package repository

import "github.com/jorgeomarnegrete/fact-arca/internal/domain/entity"

// InvoiceRepository define el puerto de persistencia para Invoice y sus líneas.
type InvoiceRepository interface {
	// Create persiste la factura en borrador junto con todas sus líneas.
	Create(invoice *entity.Invoice) error
	// UpdateStatus actualiza estado, número, CAE, vencimiento y observaciones.
	UpdateStatus(invoice *entity.Invoice) error
	GetByID(id string) (*entity.Invoice, error)
	ListByPointOfSale(posID string, limit, offset int) ([]*entity.Invoice, error)
	// ListSubmitted devuelve las facturas en estado submitted de un punto de
	// venta, las únicas candidatas a conciliación.
	ListSubmitted(posID string) ([]*entity.Invoice, error)
}
