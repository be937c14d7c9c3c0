package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/SscSPs/invoice_registry/internal/apperrors"
	"github.com/SscSPs/invoice_registry/internal/core/domain"
	portsrepo "github.com/SscSPs/invoice_registry/internal/core/ports/repositories"
	"github.com/SscSPs/invoice_registry/internal/models"
	"github.com/SscSPs/invoice_registry/internal/utils/mapping"
	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const invoiceColumns = `invoice_id, series_prefix, series_type, fiscal_year, owner_scope, number, fiscal_number,
	status, issuer_tax_id, issuer_name, recipient_tax_id, recipient_name, issue_date, operation_date,
	description, tax_lines, total_tax, total_amount, rectified_invoice_id, is_immutable, immutable_at,
	created_at, created_by, last_updated_at, last_updated_by`

type PgxInvoiceRepository struct {
	BaseRepository
}

// newPgxInvoiceRepository creates a new repository for invoices.
func newPgxInvoiceRepository(pool *pgxpool.Pool) portsrepo.InvoiceRepositoryFacade {
	return &PgxInvoiceRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

var _ portsrepo.InvoiceRepositoryFacade = (*PgxInvoiceRepository)(nil)

func scanInvoice(row pgx.Row) (models.Invoice, error) {
	var m models.Invoice
	err := row.Scan(
		&m.InvoiceID,
		&m.SeriesPrefix,
		&m.SeriesType,
		&m.FiscalYear,
		&m.OwnerScope,
		&m.Number,
		&m.FiscalNumber,
		&m.Status,
		&m.IssuerTaxID,
		&m.IssuerName,
		&m.RecipientTaxID,
		&m.RecipientName,
		&m.IssueDate,
		&m.OperationDate,
		&m.Description,
		&m.TaxLines,
		&m.TotalTax,
		&m.TotalAmount,
		&m.RectifiedInvoiceID,
		&m.IsImmutable,
		&m.ImmutableAt,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	return m, err
}

func (r *PgxInvoiceRepository) findOne(ctx context.Context, query string, invoiceID string) (*domain.Invoice, error) {
	m, err := scanInvoice(r.querier(ctx).QueryRow(ctx, query, invoiceID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("invoice %s: %w", invoiceID, apperrors.ErrNotFound)
		}
		return nil, mapPgError(err, "find invoice "+invoiceID)
	}
	inv := mapping.ToDomainInvoice(m)
	return &inv, nil
}

// FindInvoiceByID retrieves an invoice by its ID.
func (r *PgxInvoiceRepository) FindInvoiceByID(ctx context.Context, invoiceID string) (*domain.Invoice, error) {
	return r.findOne(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE invoice_id = $1;`, invoiceID)
}

// FindInvoiceForUpdate locks the invoice row until the surrounding transaction ends.
func (r *PgxInvoiceRepository) FindInvoiceForUpdate(ctx context.Context, invoiceID string) (*domain.Invoice, error) {
	if _, err := r.requireTx(ctx, "lock invoice"); err != nil {
		return nil, err
	}
	return r.findOne(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE invoice_id = $1 FOR UPDATE;`, invoiceID)
}

// SaveInvoice inserts a new invoice.
func (r *PgxInvoiceRepository) SaveInvoice(ctx context.Context, invoice domain.Invoice) error {
	m := mapping.ToModelInvoice(invoice)
	query := `INSERT INTO invoices (` + invoiceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25);`
	_, err := r.querier(ctx).Exec(ctx, query,
		m.InvoiceID,
		m.SeriesPrefix,
		m.SeriesType,
		m.FiscalYear,
		m.OwnerScope,
		m.Number,
		m.FiscalNumber,
		m.Status,
		m.IssuerTaxID,
		m.IssuerName,
		m.RecipientTaxID,
		m.RecipientName,
		m.IssueDate,
		m.OperationDate,
		m.Description,
		m.TaxLines,
		m.TotalTax,
		m.TotalAmount,
		m.RectifiedInvoiceID,
		m.IsImmutable,
		m.ImmutableAt,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		return mapPgError(err, "insert invoice "+invoice.InvoiceID)
	}
	return nil
}

// UpdateMutableInvoice rewrites the editable columns of an invoice that is not yet frozen.
// The immutability trigger rejects the statement once the invoice is frozen.
func (r *PgxInvoiceRepository) UpdateMutableInvoice(ctx context.Context, invoice domain.Invoice) error {
	m := mapping.ToModelInvoice(invoice)
	query := `UPDATE invoices SET
			series_prefix = $2, series_type = $3, fiscal_year = $4, owner_scope = $5,
			number = $6, fiscal_number = $7, status = $8, issuer_name = $9,
			recipient_tax_id = $10, recipient_name = $11, issue_date = $12, operation_date = $13,
			description = $14, tax_lines = $15, total_tax = $16, total_amount = $17,
			last_updated_at = $18, last_updated_by = $19
		WHERE invoice_id = $1 AND NOT is_immutable;`
	tag, err := r.querier(ctx).Exec(ctx, query,
		m.InvoiceID,
		m.SeriesPrefix,
		m.SeriesType,
		m.FiscalYear,
		m.OwnerScope,
		m.Number,
		m.FiscalNumber,
		m.Status,
		m.IssuerName,
		m.RecipientTaxID,
		m.RecipientName,
		m.IssueDate,
		m.OperationDate,
		m.Description,
		m.TaxLines,
		m.TotalTax,
		m.TotalAmount,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		return mapPgError(err, "update invoice "+invoice.InvoiceID)
	}
	if tag.RowsAffected() == 0 {
		if _, findErr := r.FindInvoiceByID(ctx, invoice.InvoiceID); findErr != nil {
			return findErr
		}
		return fmt.Errorf("invoice %s: %w", invoice.InvoiceID, apperrors.ErrImmutableInvoice)
	}
	return nil
}

// FreezeInvoice marks the invoice immutable. It is the only statement allowed to set the flag.
func (r *PgxInvoiceRepository) FreezeInvoice(ctx context.Context, invoiceID string, at time.Time, userID string) error {
	if _, err := r.requireTx(ctx, "freeze invoice"); err != nil {
		return err
	}
	query := `UPDATE invoices
		SET is_immutable = TRUE, immutable_at = $2, last_updated_at = $2, last_updated_by = $3
		WHERE invoice_id = $1 AND NOT is_immutable;`
	tag, err := r.querier(ctx).Exec(ctx, query, invoiceID, at, userID)
	if err != nil {
		return mapPgError(err, "freeze invoice "+invoiceID)
	}
	if tag.RowsAffected() == 0 {
		if _, findErr := r.FindInvoiceByID(ctx, invoiceID); findErr != nil {
			return findErr
		}
		return fmt.Errorf("invoice %s: %w", invoiceID, apperrors.ErrAlreadyRegistered)
	}
	return nil
}
