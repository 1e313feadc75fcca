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

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

// InvoiceRepo implementación del puerto InvoiceRepository sobre PostgreSQL.
type InvoiceRepo struct {
	pool *pgxpool.Pool
}

// NewInvoiceRepository construye el adaptador de persistencia para facturas.
func NewInvoiceRepository(pool *pgxpool.Pool) *InvoiceRepo {
	return &InvoiceRepo{pool: pool}
}

const invoiceColumns = `id, point_of_sale_id, cbte_tipo, concepto, number, status,
	customer_name, customer_doc_type, customer_doc_number, customer_fiscal_condition,
	customer_address, customer_email,
	net_total, tax_total, grand_total, cae, cae_expiry, observations,
	issued_at, created_at, updated_at`

// Create persiste la cabecera y todas las líneas en una sola transacción:
// nunca queda una factura sin sus líneas.
func (r *InvoiceRepo) Create(inv *entity.Invoice) error {
	ctx := context.Background()
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	headerQuery := `
		INSERT INTO invoices (` + invoiceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`
	_, err = tx.Exec(ctx, headerQuery,
		inv.ID, inv.PointOfSaleID, inv.CbteTipo, inv.Concepto, numberOrNull(inv.Number), inv.Status,
		inv.Customer.Name, inv.Customer.DocType, inv.Customer.DocNumber, inv.Customer.FiscalCondition,
		nullIfEmpty(inv.Customer.Address), nullIfEmpty(inv.Customer.Email),
		inv.NetTotal, inv.TaxTotal, inv.GrandTotal,
		nullIfEmpty(inv.CAE), nullIfEmpty(inv.CAEExpiry), nullIfEmpty(inv.Observations),
		inv.IssuedAt, inv.CreatedAt, inv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert invoice: %w", err)
	}

	itemQuery := `
		INSERT INTO invoice_items (id, invoice_id, product_id, description, quantity, unit_price, tax_rate, net, tax, gross)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	for _, it := range inv.Items {
		_, err = tx.Exec(ctx, itemQuery,
			it.ID, it.InvoiceID, nullIfEmpty(it.ProductID), it.Description,
			it.Quantity, it.UnitPrice, it.TaxRate, it.Net, it.Tax, it.Gross,
		)
		if err != nil {
			return fmt.Errorf("insert invoice_item: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// UpdateStatus actualiza los campos que muta el flujo de autorización.
func (r *InvoiceRepo) UpdateStatus(inv *entity.Invoice) error {
	query := `
		UPDATE invoices
		SET number = $2, status = $3, cae = $4, cae_expiry = $5, observations = $6, updated_at = $7
		WHERE id = $1`
	tag, err := r.pool.Exec(context.Background(), query,
		inv.ID, numberOrNull(inv.Number), inv.Status,
		nullIfEmpty(inv.CAE), nullIfEmpty(inv.CAEExpiry), nullIfEmpty(inv.Observations),
		inv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update invoice status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetByID obtiene la factura con sus líneas.
func (r *InvoiceRepo) GetByID(id string) (*entity.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1`
	inv, err := scanInvoice(r.pool.QueryRow(context.Background(), query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if err := r.loadItems(inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// ListByPointOfSale devuelve las facturas del punto de venta, más nuevas primero.
func (r *InvoiceRepo) ListByPointOfSale(posID string, limit, offset int) ([]*entity.Invoice, error) {
	query := `SELECT ` + invoiceColumns + `
		FROM invoices WHERE point_of_sale_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	return r.list(query, posID, limit, offset)
}

// ListSubmitted devuelve las facturas en submitted, candidatas a conciliación,
// en orden de número para resolverlas en secuencia.
func (r *InvoiceRepo) ListSubmitted(posID string) ([]*entity.Invoice, error) {
	query := `SELECT ` + invoiceColumns + `
		FROM invoices WHERE point_of_sale_id = $1 AND status = 'submitted'
		ORDER BY number`
	return r.list(query, posID)
}

func (r *InvoiceRepo) list(query string, args ...interface{}) ([]*entity.Invoice, error) {
	rows, err := r.pool.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	var out []*entity.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, inv := range out {
		if err := r.loadItems(inv); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *InvoiceRepo) loadItems(inv *entity.Invoice) error {
	query := `
		SELECT id, invoice_id, product_id, description, quantity, unit_price, tax_rate, net, tax, gross
		FROM invoice_items WHERE invoice_id = $1 ORDER BY id`
	rows, err := r.pool.Query(context.Background(), query, inv.ID)
	if err != nil {
		return fmt.Errorf("load invoice_items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it entity.InvoiceItem
		var productID *string
		if err := rows.Scan(&it.ID, &it.InvoiceID, &productID, &it.Description,
			&it.Quantity, &it.UnitPrice, &it.TaxRate, &it.Net, &it.Tax, &it.Gross); err != nil {
			return err
		}
		if productID != nil {
			it.ProductID = *productID
		}
		inv.Items = append(inv.Items, it)
	}
	return rows.Err()
}

func scanInvoice(row pgx.Row) (*entity.Invoice, error) {
	var inv entity.Invoice
	var number *int64
	var address, email, cae, caeExpiry, observations *string
	err := row.Scan(&inv.ID, &inv.PointOfSaleID, &inv.CbteTipo, &inv.Concepto, &number, &inv.Status,
		&inv.Customer.Name, &inv.Customer.DocType, &inv.Customer.DocNumber, &inv.Customer.FiscalCondition,
		&address, &email,
		&inv.NetTotal, &inv.TaxTotal, &inv.GrandTotal, &cae, &caeExpiry, &observations,
		&inv.IssuedAt, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if number != nil {
		inv.Number = *number
	}
	if address != nil {
		inv.Customer.Address = *address
	}
	if email != nil {
		inv.Customer.Email = *email
	}
	if cae != nil {
		inv.CAE = *cae
	}
	if caeExpiry != nil {
		inv.CAEExpiry = *caeExpiry
	}
	if observations != nil {
		inv.Observations = *observations
	}
	return &inv, nil
}

// numberOrNull deja NULL el número mientras la factura es borrador; el
// constraint único (point_of_sale_id, cbte_tipo, number) solo aplica a
// comprobantes numerados.
func numberOrNull(n int64) interface{} {
	if n == 0 {
		return nil
	}
	return n
}
