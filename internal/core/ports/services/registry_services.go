package services

import (
	"context"
	"time"

	"github.com/SscSPs/invoice_registry/internal/core/domain"
	"github.com/SscSPs/invoice_registry/internal/dto"
)

// RegistryReaderSvc defines read operations for the registry
type RegistryReaderSvc interface {
	// GetEntry retrieves one entry.
	GetEntry(ctx context.Context, entryID string) (*domain.RegistryEntry, error)

	// GetEntryByInvoice retrieves the registration entry of an invoice.
	GetEntryByInvoice(ctx context.Context, invoiceID string) (*domain.RegistryEntry, error)

	// ListEntries pages through a chain in registry order.
	ListEntries(ctx context.Context, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error)

	// VerifyChain recomputes every hash of a chain and checks its links.
	VerifyChain(ctx context.Context, scope string) (*domain.VerificationResult, error)
}

// RegistryWriterSvc defines the append operations of the registry
type RegistryWriterSvc interface {
	// Register appends the registration entry of an issued invoice and freezes it.
	Register(ctx context.Context, invoiceID string, userID string) (*domain.RegistryEntry, error)

	// Cancel appends a cancellation entry referencing the invoice's registration.
	Cancel(ctx context.Context, invoiceID string, reason string, userID string) (*domain.RegistryEntry, error)
}

// RegistrySvcFacade combines all registry-related service interfaces
type RegistrySvcFacade interface {
	RegistryReaderSvc
	RegistryWriterSvc
}

// ImmutabilityGuard enforces the freeze of registered invoices.
type ImmutabilityGuard interface {
	// EnsureMutable fails with apperrors.ErrImmutableInvoice for frozen invoices.
	EnsureMutable(invoice domain.Invoice) error

	// Freeze marks the invoice immutable. Must run in the registering transaction.
	Freeze(ctx context.Context, invoice *domain.Invoice, at time.Time, userID string) error
}
