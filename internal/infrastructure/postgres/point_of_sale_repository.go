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

var _ repository.PointOfSaleRepository = (*PointOfSaleRepo)(nil)

// PointOfSaleRepo implementación del puerto PointOfSaleRepository sobre PostgreSQL.
type PointOfSaleRepo struct {
	pool *pgxpool.Pool
}

// NewPointOfSaleRepository construye el adaptador de persistencia para puntos de venta.
func NewPointOfSaleRepository(pool *pgxpool.Pool) *PointOfSaleRepo {
	return &PointOfSaleRepo{pool: pool}
}

const posColumns = `id, number, cuit, name, environment, certificate, private_key, created_at, updated_at`

// Create persiste un nuevo punto de venta. (number, cuit) tiene constraint único.
func (r *PointOfSaleRepo) Create(pos *entity.PointOfSale) error {
	query := `
		INSERT INTO points_of_sale (` + posColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.pool.Exec(context.Background(), query,
		pos.ID, pos.Number, pos.CUIT, nullIfEmpty(pos.Name), pos.Environment,
		pos.Certificate, pos.PrivateKey, pos.CreatedAt, pos.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert point_of_sale: %w", err)
	}
	return nil
}

// GetByID obtiene un punto de venta por ID.
func (r *PointOfSaleRepo) GetByID(id string) (*entity.PointOfSale, error) {
	query := `SELECT ` + posColumns + ` FROM points_of_sale WHERE id = $1`
	return r.scanOne(r.pool.QueryRow(context.Background(), query, id))
}

// GetByNumberAndCUIT obtiene un punto de venta por su clave natural.
func (r *PointOfSaleRepo) GetByNumberAndCUIT(number int, cuit string) (*entity.PointOfSale, error) {
	query := `SELECT ` + posColumns + ` FROM points_of_sale WHERE number = $1 AND cuit = $2`
	return r.scanOne(r.pool.QueryRow(context.Background(), query, number, cuit))
}

// List devuelve los puntos de venta ordenados por número.
func (r *PointOfSaleRepo) List(limit, offset int) ([]*entity.PointOfSale, error) {
	query := `SELECT ` + posColumns + ` FROM points_of_sale ORDER BY number LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(context.Background(), query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list points_of_sale: %w", err)
	}
	defer rows.Close()

	var out []*entity.PointOfSale
	for rows.Next() {
		pos, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, pos)
	}
	return out, rows.Err()
}

// UpdateCredentials reemplaza certificado, clave y ambiente.
func (r *PointOfSaleRepo) UpdateCredentials(pos *entity.PointOfSale) error {
	query := `
		UPDATE points_of_sale
		SET certificate = $2, private_key = $3, environment = $4, updated_at = $5
		WHERE id = $1`
	tag, err := r.pool.Exec(context.Background(), query,
		pos.ID, pos.Certificate, pos.PrivateKey, pos.Environment, pos.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update point_of_sale credentials: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PointOfSaleRepo) scanOne(row pgx.Row) (*entity.PointOfSale, error) {
	pos, err := r.scan(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return pos, nil
}

func (r *PointOfSaleRepo) scan(row pgx.Row) (*entity.PointOfSale, error) {
	var pos entity.PointOfSale
	var name *string
	err := row.Scan(&pos.ID, &pos.Number, &pos.CUIT, &name, &pos.Environment,
		&pos.Certificate, &pos.PrivateKey, &pos.CreatedAt, &pos.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if name != nil {
		pos.Name = *name
	}
	return &pos, nil
}
