package services

import (
	"context"

	"github.com/SscSPs/invoice_registry/internal/core/domain"
	"github.com/SscSPs/invoice_registry/internal/dto"
)

// InvoiceReaderSvc defines read operations for invoices
type InvoiceReaderSvc interface {
	GetInvoice(ctx context.Context, invoiceID string) (*domain.Invoice, error)
}

// InvoiceWriterSvc defines write operations for invoices
type InvoiceWriterSvc interface {
	// CreateDraft stores a new draft without a number.
	CreateDraft(ctx context.Context, req dto.CreateInvoiceRequest, creatorUserID string) (*domain.Invoice, error)

	// UpdateDraft replaces the fiscal fields of a mutable invoice.
	UpdateDraft(ctx context.Context, invoiceID string, req dto.UpdateInvoiceRequest, userID string) (*domain.Invoice, error)

	// Finalize issues the invoice and registers it in one unit of work.
	Finalize(ctx context.Context, invoiceID string, userID string) (*domain.Invoice, *domain.RegistryEntry, error)
}

// InvoiceSvcFacade combines all invoice-related service interfaces
type InvoiceSvcFacade interface {
	InvoiceReaderSvc
	InvoiceWriterSvc
}
