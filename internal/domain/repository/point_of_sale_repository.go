package repository

import "github.com/jorgeomarnegrete/fact-arca/internal/domain/entity"

// PointOfSaleRepository define el puerto de persistencia para PointOfSale.
// La implementación vive en infrastructure. No hay Delete: los puntos de
// venta quedan registrados de forma permanente por trazabilidad fiscal.
type PointOfSaleRepository interface {
	Create(pos *entity.PointOfSale) error
	GetByID(id string) (*entity.PointOfSale, error)
	GetByNumberAndCUIT(number int, cuit string) (*entity.PointOfSale, error)
	List(limit, offset int) ([]*entity.PointOfSale, error)
	// UpdateCredentials reemplaza certificado, clave y ambiente de una vez.
	UpdateCredentials(pos *entity.PointOfSale) error
}
