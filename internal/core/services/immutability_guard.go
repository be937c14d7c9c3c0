package services

import (
	"context"
	"time"

	"github.com/SscSPs/invoice_registry/internal/apperrors"
	"github.com/SscSPs/invoice_registry/internal/core/domain"
	portsrepo "github.com/SscSPs/invoice_registry/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/invoice_registry/internal/core/ports/services"
)

type immutabilityGuard struct {
	txManager   portsrepo.TransactionManager
	invoiceRepo portsrepo.InvoiceTransactionSupport
}

// NewImmutabilityGuard creates the guard that freezes registered invoices.
func NewImmutabilityGuard(txManager portsrepo.TransactionManager, invoiceRepo portsrepo.InvoiceTransactionSupport) portssvc.ImmutabilityGuard {
	return &immutabilityGuard{txManager: txManager, invoiceRepo: invoiceRepo}
}

var _ portssvc.ImmutabilityGuard = (*immutabilityGuard)(nil)

func (g *immutabilityGuard) EnsureMutable(invoice domain.Invoice) error {
	return invoice.EnsureMutable()
}

// Freeze flips the flag on the invoice and in storage. It only runs inside the
// transaction that appends the registration entry.
func (g *immutabilityGuard) Freeze(ctx context.Context, invoice *domain.Invoice, at time.Time, userID string) error {
	if !g.txManager.InTx(ctx) {
		return apperrors.Newf(apperrors.ErrPersistence, "freeze requires an active transaction")
	}
	if err := invoice.Freeze(at); err != nil {
		return err
	}
	return g.invoiceRepo.FreezeInvoice(ctx, invoice.InvoiceID, at, userID)
}
