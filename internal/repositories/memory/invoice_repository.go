package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/SscSPs/invoice_registry/internal/apperrors"
	"github.com/SscSPs/invoice_registry/internal/core/domain"
	portsrepo "github.com/SscSPs/invoice_registry/internal/core/ports/repositories"
)

type invoiceRepository struct {
	store *Store
}

var _ portsrepo.InvoiceRepositoryFacade = (*invoiceRepository)(nil)

func (r *invoiceRepository) FindInvoiceByID(_ context.Context, invoiceID string) (*domain.Invoice, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	inv, ok := r.store.invoices[invoiceID]
	if !ok {
		return nil, fmt.Errorf("invoice %s: %w", invoiceID, apperrors.ErrNotFound)
	}
	out := inv.Clone()
	return &out, nil
}

func (r *invoiceRepository) SaveInvoice(ctx context.Context, invoice domain.Invoice) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.invoices[invoice.InvoiceID]; ok {
		return fmt.Errorf("invoice %s: %w", invoice.InvoiceID, apperrors.ErrDuplicate)
	}
	if _, ok := r.store.series[invoice.Series]; !ok {
		return fmt.Errorf("invoice %s references %s: %w", invoice.InvoiceID, invoice.Series, apperrors.ErrSeriesNotFound)
	}
	r.store.invoices[invoice.InvoiceID] = invoice.Clone()
	recordUndo(ctx, func() { delete(r.store.invoices, invoice.InvoiceID) })
	return nil
}

func (r *invoiceRepository) UpdateMutableInvoice(ctx context.Context, invoice domain.Invoice) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	stored, ok := r.store.invoices[invoice.InvoiceID]
	if !ok {
		return fmt.Errorf("invoice %s: %w", invoice.InvoiceID, apperrors.ErrNotFound)
	}
	if stored.IsImmutable {
		return fmt.Errorf("invoice %s: %w", invoice.InvoiceID, apperrors.ErrImmutableInvoice)
	}
	if invoice.HasNumber() {
		for id, other := range r.store.invoices {
			if id != invoice.InvoiceID && other.Series == invoice.Series && other.Number == invoice.Number {
				return fmt.Errorf("number %d of %s: %w", invoice.Number, invoice.Series, apperrors.ErrDuplicate)
			}
		}
	}

	next := invoice.Clone()
	// the freeze columns are owned by FreezeInvoice
	next.IsImmutable = stored.IsImmutable
	next.ImmutableAt = stored.ImmutableAt
	next.CreatedAt, next.CreatedBy = stored.CreatedAt, stored.CreatedBy
	r.store.invoices[invoice.InvoiceID] = next
	recordUndo(ctx, func() { r.store.invoices[invoice.InvoiceID] = stored })
	return nil
}

func (r *invoiceRepository) FindInvoiceForUpdate(ctx context.Context, invoiceID string) (*domain.Invoice, error) {
	if err := r.store.lockRow(ctx, "invoice:"+invoiceID); err != nil {
		return nil, err
	}
	return r.FindInvoiceByID(ctx, invoiceID)
}

func (r *invoiceRepository) FreezeInvoice(ctx context.Context, invoiceID string, at time.Time, userID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	stored, ok := r.store.invoices[invoiceID]
	if !ok {
		return fmt.Errorf("invoice %s: %w", invoiceID, apperrors.ErrNotFound)
	}
	if stored.IsImmutable {
		return fmt.Errorf("invoice %s: %w", invoiceID, apperrors.ErrAlreadyRegistered)
	}
	next := stored.Clone()
	next.IsImmutable = true
	frozen := at
	next.ImmutableAt = &frozen
	next.Touch(userID, at)
	r.store.invoices[invoiceID] = next
	recordUndo(ctx, func() { r.store.invoices[invoiceID] = stored })
	return nil
}
