package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/SscSPs/invoice_registry/internal/apperrors"
	"github.com/SscSPs/invoice_registry/internal/core/domain"
	portsrepo "github.com/SscSPs/invoice_registry/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/invoice_registry/internal/core/ports/services"
	"github.com/SscSPs/invoice_registry/internal/dto"
	"github.com/SscSPs/invoice_registry/internal/utils/taxid"
	"github.com/google/uuid"
)

type invoiceService struct {
	BaseService
	txManager   portsrepo.TransactionManager
	invoiceRepo portsrepo.InvoiceRepositoryFacade
	series      portssvc.SeriesWriterSvc
	registry    portssvc.RegistryWriterSvc
	guard       portssvc.ImmutabilityGuard
	maxRetries  int
	now         func() time.Time
}

// NewInvoiceService creates a new invoice service.
func NewInvoiceService(
	txManager portsrepo.TransactionManager,
	invoiceRepo portsrepo.InvoiceRepositoryFacade,
	series portssvc.SeriesWriterSvc,
	registry portssvc.RegistryWriterSvc,
	guard portssvc.ImmutabilityGuard,
	maxRetries int,
) portssvc.InvoiceSvcFacade {
	return &invoiceService{
		txManager:   txManager,
		invoiceRepo: invoiceRepo,
		series:      series,
		registry:    registry,
		guard:       guard,
		maxRetries:  maxRetries,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

var _ portssvc.InvoiceSvcFacade = (*invoiceService)(nil)

func (s *invoiceService) CreateDraft(ctx context.Context, req dto.CreateInvoiceRequest, creatorUserID string) (*domain.Invoice, error) {
	fields := req.ToFiscalFields()
	if err := fields.Validate(); err != nil {
		return nil, err
	}
	if err := taxid.Validate(req.IssuerTaxID); err != nil {
		return nil, apperrors.Validationf("issuer tax id %q is invalid", req.IssuerTaxID)
	}
	if fields.RecipientTaxID != "" {
		if err := taxid.Validate(fields.RecipientTaxID); err != nil {
			return nil, apperrors.Validationf("recipient tax id %q is invalid", fields.RecipientTaxID)
		}
		fields.RecipientTaxID = taxid.Normalize(fields.RecipientTaxID)
	}

	key, err := s.series.ResolveKey(ctx, req.Prefix, req.SeriesType, req.OwnerScope, fields.IssueDate)
	if err != nil {
		return nil, err
	}

	now := s.now()
	inv := domain.Invoice{
		InvoiceID:          uuid.NewString(),
		Series:             key,
		Status:             domain.InvoiceDraft,
		IssuerTaxID:        taxid.Normalize(strings.TrimSpace(req.IssuerTaxID)),
		RectifiedInvoiceID: req.RectifiedInvoiceID,
		FiscalFields:       fields,
		AuditFields:        domain.NewAuditFields(creatorUserID, now),
	}

	if err := s.invoiceRepo.SaveInvoice(ctx, inv); err != nil {
		s.LogError(ctx, err, "Failed to save draft invoice")
		return nil, err
	}
	s.LogInfo(ctx, "Draft invoice created", slog.String("invoice_id", inv.InvoiceID), slog.String("series", key.String()))
	return &inv, nil
}

func (s *invoiceService) GetInvoice(ctx context.Context, invoiceID string) (*domain.Invoice, error) {
	return s.invoiceRepo.FindInvoiceByID(ctx, invoiceID)
}

func (s *invoiceService) UpdateDraft(ctx context.Context, invoiceID string, req dto.UpdateInvoiceRequest, userID string) (*domain.Invoice, error) {
	var updated *domain.Invoice
	err := s.txManager.WithinTx(ctx, func(txCtx context.Context) error {
		inv, err := s.invoiceRepo.FindInvoiceForUpdate(txCtx, invoiceID)
		if err != nil {
			return err
		}
		if err := s.guard.EnsureMutable(*inv); err != nil {
			return err
		}

		fields := req.ToFiscalFields()
		if fields.RecipientTaxID != "" {
			if err := taxid.Validate(fields.RecipientTaxID); err != nil {
				return apperrors.Validationf("recipient tax id %q is invalid", fields.RecipientTaxID)
			}
			fields.RecipientTaxID = taxid.Normalize(fields.RecipientTaxID)
		}
		if err := inv.ApplyFiscalFields(fields, userID, s.now()); err != nil {
			return err
		}
		if err := s.invoiceRepo.UpdateMutableInvoice(txCtx, *inv); err != nil {
			return err
		}
		updated = inv
		return nil
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to update invoice", slog.String("invoice_id", invoiceID))
		return nil, err
	}
	return updated, nil
}

// Finalize moves a draft to ISSUED and registers it in the same unit of work,
// so the number, the status change and the registry entry commit together.
func (s *invoiceService) Finalize(ctx context.Context, invoiceID string, userID string) (*domain.Invoice, *domain.RegistryEntry, error) {
	ctx = context.WithoutCancel(ctx)

	var entry *domain.RegistryEntry
	err := retryOnTailConflict(ctx, s.maxRetries, func() error {
		return s.txManager.WithinTx(ctx, func(txCtx context.Context) error {
			inv, err := s.invoiceRepo.FindInvoiceForUpdate(txCtx, invoiceID)
			if err != nil {
				return err
			}
			if inv.Status == domain.InvoiceDraft {
				if err := inv.Issue(userID, s.now()); err != nil {
					return err
				}
				if err := s.invoiceRepo.UpdateMutableInvoice(txCtx, *inv); err != nil {
					return err
				}
			}
			entry, err = s.registry.Register(txCtx, invoiceID, userID)
			return err
		})
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to finalize invoice", slog.String("invoice_id", invoiceID))
		return nil, nil, err
	}

	inv, err := s.invoiceRepo.FindInvoiceByID(ctx, invoiceID)
	if err != nil {
		return nil, nil, err
	}
	return inv, entry, nil
}
