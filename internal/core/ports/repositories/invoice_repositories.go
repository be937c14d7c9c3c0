package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/invoice_registry/internal/core/domain"
)

// InvoiceReader defines read operations for invoices
type InvoiceReader interface {
	// FindInvoiceByID retrieves an invoice. Returns apperrors.ErrNotFound when absent.
	FindInvoiceByID(ctx context.Context, invoiceID string) (*domain.Invoice, error)
}

// InvoiceWriter defines write operations for invoices
type InvoiceWriter interface {
	// SaveInvoice persists a new invoice.
	SaveInvoice(ctx context.Context, invoice domain.Invoice) error

	// UpdateMutableInvoice overwrites fiscal fields, number and status of an invoice that is not frozen.
	// Returns apperrors.ErrImmutableInvoice once the invoice is frozen.
	UpdateMutableInvoice(ctx context.Context, invoice domain.Invoice) error
}

// InvoiceTransactionSupport defines operations that must run inside a transaction
type InvoiceTransactionSupport interface {
	// FindInvoiceForUpdate retrieves an invoice and locks it until the transaction ends.
	FindInvoiceForUpdate(ctx context.Context, invoiceID string) (*domain.Invoice, error)

	// FreezeInvoice sets the immutability flag. Returns apperrors.ErrAlreadyRegistered if already set.
	FreezeInvoice(ctx context.Context, invoiceID string, at time.Time, userID string) error
}

// InvoiceRepositoryFacade combines all invoice-related repository interfaces
type InvoiceRepositoryFacade interface {
	InvoiceReader
	InvoiceWriter
	InvoiceTransactionSupport
}
