package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/invoice_registry/internal/core/domain"
)

// RegistryReader defines read operations for registry entries
type RegistryReader interface {
	// FindEntryByID retrieves an entry. Returns apperrors.ErrNotFound when absent.
	FindEntryByID(ctx context.Context, entryID string) (*domain.RegistryEntry, error)

	// FindEntriesByInvoiceID lists every entry (registration and cancellation) of an invoice.
	FindEntriesByInvoiceID(ctx context.Context, invoiceID string) ([]domain.RegistryEntry, error)

	// ListEntriesByScope lists entries of a chain in registry order, starting after afterNumber.
	ListEntriesByScope(ctx context.Context, scope string, afterNumber int64, limit int) ([]domain.RegistryEntry, error)

	// ListEntriesForSubmission lists entries waiting for delivery (PENDING or ERROR, not flagged for review), oldest first.
	ListEntriesForSubmission(ctx context.Context, limit int) ([]domain.RegistryEntry, error)

	// ListStaleSubmitted lists SUBMITTED entries whose last attempt started before the cutoff.
	ListStaleSubmitted(ctx context.Context, before time.Time, limit int) ([]domain.RegistryEntry, error)

	// FindChainHead retrieves the tail pointer of a chain. Returns apperrors.ErrNotFound for unused scopes.
	FindChainHead(ctx context.Context, scope string) (*domain.ChainHead, error)
}

// RegistryWriter defines write operations for registry entries. Entries are
// append-only: only their submission state can change after insertion.
type RegistryWriter interface {
	// UpdateSubmission stores state if the entry's current status is one of expected.
	// Returns apperrors.ErrSubmissionInFlight when the status moved underneath.
	UpdateSubmission(ctx context.Context, entryID string, expected []domain.SubmissionStatus, state domain.SubmissionState) error
}

// RegistryTransactionSupport defines operations that must run inside a transaction
type RegistryTransactionSupport interface {
	// LockChainHead returns the scope's head locked until the transaction ends, creating it on first use.
	LockChainHead(ctx context.Context, scope string, now time.Time) (*domain.ChainHead, error)

	// AppendEntry inserts the entry and moves the chain head to it.
	// Returns apperrors.ErrConcurrentTailConflict if the head no longer points at entry.PreviousHash.
	AppendEntry(ctx context.Context, entry domain.RegistryEntry) error
}

// RegistryRepositoryFacade combines all registry-related repository interfaces
type RegistryRepositoryFacade interface {
	RegistryReader
	RegistryWriter
	RegistryTransactionSupport
}
