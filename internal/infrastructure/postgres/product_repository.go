package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jorgeomarnegrete/fact-arca/internal/domain"
	"github.com/jorgeomarnegrete/fact-arca/internal/domain/entity"
	"github.com/jorgeomarnegrete/fact-arca/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL.
type ProductRepo struct {
	pool *pgxpool.Pool
}

// NewProductRepository construye el adaptador de persistencia para productos.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepo {
	return &ProductRepo{pool: pool}
}

const productColumns = `id, code, description, unit_price, tax_rate, created_at, updated_at`

// Create persiste un producto nuevo. code tiene constraint único.
func (r *ProductRepo) Create(p *entity.Product) error {
	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.pool.Exec(context.Background(), query,
		p.ID, p.Code, p.Description, p.UnitPrice, p.TaxRate, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// GetByID obtiene un producto por ID.
func (r *ProductRepo) GetByID(id string) (*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	return scanProductRow(r.pool.QueryRow(context.Background(), query, id))
}

// GetByCode obtiene un producto por su código interno.
func (r *ProductRepo) GetByCode(code string) (*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE code = $1`
	return scanProductRow(r.pool.QueryRow(context.Background(), query, code))
}

// Update actualiza un producto existente.
func (r *ProductRepo) Update(p *entity.Product) error {
	query := `
		UPDATE products
		SET code = $2, description = $3, unit_price = $4, tax_rate = $5, updated_at = $6
		WHERE id = $1`
	tag, err := r.pool.Exec(context.Background(), query,
		p.ID, p.Code, p.Description, p.UnitPrice, p.TaxRate, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List devuelve el catálogo ordenado por código.
func (r *ProductRepo) List(limit, offset int) ([]*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY code LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(context.Background(), query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var out []*entity.Product
	for rows.Next() {
		var p entity.Product
		if err := rows.Scan(&p.ID, &p.Code, &p.Description, &p.UnitPrice, &p.TaxRate,
			&p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

// Delete elimina un producto.
func (r *ProductRepo) Delete(id string) error {
	tag, err := r.pool.Exec(context.Background(), `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanProductRow(row pgx.Row) (*entity.Product, error) {
	var p entity.Product
	err := row.Scan(&p.ID, &p.Code, &p.Description, &p.UnitPrice, &p.TaxRate,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}
