package repository

import "github.com/jorgeomarnegrete/fact-arca/internal/domain/entity"

// ProductRepository define el puerto de persistencia para Product.
type ProductRepository interface {
	Create(product *entity.Product) error
	GetByID(id string) (*entity.Product, error)
	GetByCode(code string) (*entity.Product, error)
	Update(product *entity.Product) error
	List(limit, offset int) ([]*entity.Product, error)
	Delete(id string) error
}
