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

var _ repository.CustomerRepository = (*CustomerRepo)(nil)

// CustomerRepo implementación del puerto CustomerRepository sobre PostgreSQL.
type CustomerRepo struct {
	pool *pgxpool.Pool
}

// NewCustomerRepository construye el adaptador de persistencia para clientes.
func NewCustomerRepository(pool *pgxpool.Pool) *CustomerRepo {
	return &CustomerRepo{pool: pool}
}

const customerColumns = `id, name, doc_type, doc_number, fiscal_condition, address, email, created_at, updated_at`

// Create persiste un cliente nuevo.
func (r *CustomerRepo) Create(c *entity.Customer) error {
	query := `
		INSERT INTO customers (` + customerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.pool.Exec(context.Background(), query,
		c.ID, c.Name, c.DocType, c.DocNumber, c.FiscalCondition,
		nullIfEmpty(c.Address), nullIfEmpty(c.Email), c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert customer: %w", err)
	}
	return nil
}

// GetByID obtiene un cliente por ID.
func (r *CustomerRepo) GetByID(id string) (*entity.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`
	return scanCustomerRow(r.pool.QueryRow(context.Background(), query, id))
}

// GetByDocNumber obtiene un cliente por número de documento.
func (r *CustomerRepo) GetByDocNumber(docNumber string) (*entity.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE doc_number = $1`
	return scanCustomerRow(r.pool.QueryRow(context.Background(), query, docNumber))
}

// Update actualiza un cliente existente.
func (r *CustomerRepo) Update(c *entity.Customer) error {
	query := `
		UPDATE customers
		SET name = $2, doc_type = $3, doc_number = $4, fiscal_condition = $5,
		    address = $6, email = $7, updated_at = $8
		WHERE id = $1`
	tag, err := r.pool.Exec(context.Background(), query,
		c.ID, c.Name, c.DocType, c.DocNumber, c.FiscalCondition,
		nullIfEmpty(c.Address), nullIfEmpty(c.Email), c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update customer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List devuelve el padrón ordenado por nombre.
func (r *CustomerRepo) List(limit, offset int) ([]*entity.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers ORDER BY name LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(context.Background(), query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	var out []*entity.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Delete elimina un cliente del padrón.
func (r *CustomerRepo) Delete(id string) error {
	tag, err := r.pool.Exec(context.Background(), `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanCustomerRow(row pgx.Row) (*entity.Customer, error) {
	c, err := scanCustomer(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

func scanCustomer(row pgx.Row) (*entity.Customer, error) {
	var c entity.Customer
	var address, email *string
	err := row.Scan(&c.ID, &c.Name, &c.DocType, &c.DocNumber, &c.FiscalCondition,
		&address, &email, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if address != nil {
		c.Address = *address
	}
	if email != nil {
		c.Email = *email
	}
	return &c, nil
}
