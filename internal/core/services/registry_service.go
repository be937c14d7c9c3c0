package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/invoice_registry/internal/apperrors"
	"github.com/SscSPs/invoice_registry/internal/core/domain"
	portsrepo "github.com/SscSPs/invoice_registry/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/invoice_registry/internal/core/ports/services"
	"github.com/SscSPs/invoice_registry/internal/dto"
	"github.com/SscSPs/invoice_registry/internal/utils/chainhash"
	"github.com/SscSPs/invoice_registry/internal/utils/pagination"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

const (
	defaultEntriesPageSize = 50
	verifyBatchSize        = 500
	reasonHeadMismatch     = "chain head does not point at the last entry"
	reasonUnknownVersion   = "entry uses an unsupported chain version"
)

type registryService struct {
	BaseService
	txManager    portsrepo.TransactionManager
	invoiceRepo  portsrepo.InvoiceRepositoryFacade
	registryRepo portsrepo.RegistryRepositoryFacade
	allocator    portssvc.SeriesAllocatorSvc
	guard        portssvc.ImmutabilityGuard
	maxRetries   int
	now          func() time.Time
}

// RegistryServiceOption is a function that configures a registryService
type RegistryServiceOption func(*registryService)

// WithRegisterMaxRetries bounds how often a unit of work is rerun after losing a chain tail race.
func WithRegisterMaxRetries(n int) RegistryServiceOption {
	return func(s *registryService) {
		s.maxRetries = n
	}
}

// WithRegistryClock overrides the registry clock.
func WithRegistryClock(now func() time.Time) RegistryServiceOption {
	return func(s *registryService) {
		s.now = now
	}
}

// NewRegistryService creates a new registry service.
func NewRegistryService(
	txManager portsrepo.TransactionManager,
	invoiceRepo portsrepo.InvoiceRepositoryFacade,
	registryRepo portsrepo.RegistryRepositoryFacade,
	allocator portssvc.SeriesAllocatorSvc,
	guard portssvc.ImmutabilityGuard,
	opts ...RegistryServiceOption,
) portssvc.RegistrySvcFacade {
	s := &registryService{
		txManager:    txManager,
		invoiceRepo:  invoiceRepo,
		registryRepo: registryRepo,
		allocator:    allocator,
		guard:        guard,
		maxRetries:   5,
		now:          func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ portssvc.RegistrySvcFacade = (*registryService)(nil)

// inUnitOfWork runs op in a transaction. A caller that already owns the
// transaction gets conflicts back and retries its whole unit of work.
func (s *registryService) inUnitOfWork(ctx context.Context, op func(ctx context.Context) error) error {
	if s.txManager.InTx(ctx) {
		return op(ctx)
	}
	return retryOnTailConflict(ctx, s.maxRetries, func() error {
		return s.txManager.WithinTx(ctx, op)
	})
}

// Register appends the registration entry of an issued invoice. Once the
// append starts it is not abandoned because the caller went away.
func (s *registryService) Register(ctx context.Context, invoiceID string, userID string) (*domain.RegistryEntry, error) {
	ctx = context.WithoutCancel(ctx)

	var entry *domain.RegistryEntry
	err := s.inUnitOfWork(ctx, func(txCtx context.Context) error {
		var err error
		entry, err = s.register(txCtx, invoiceID, userID)
		return err
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to register invoice", slog.String("invoice_id", invoiceID))
		return nil, err
	}

	s.LogInfo(ctx, "Invoice registered",
		slog.String("invoice_id", invoiceID),
		slog.String("chain_scope", entry.ChainScope),
		slog.Int64("registry_number", entry.RegistryNumber),
		slog.String("hash", entry.Hash))
	return entry, nil
}

func (s *registryService) register(ctx context.Context, invoiceID string, userID string) (*domain.RegistryEntry, error) {
	inv, err := s.invoiceRepo.FindInvoiceForUpdate(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv.Status == domain.InvoiceDraft {
		return nil, fmt.Errorf("invoice %s: %w", invoiceID, apperrors.ErrInvoiceNotFinal)
	}
	if inv.IsImmutable {
		return nil, fmt.Errorf("invoice %s: %w", invoiceID, apperrors.ErrAlreadyRegistered)
	}

	if !inv.HasNumber() {
		alloc, err := s.allocator.AllocateFiscalNumber(ctx, inv.Series)
		if err != nil {
			return nil, err
		}
		inv.Number = alloc.Number
		inv.FiscalNumber = alloc.FiscalNumber
		inv.Touch(userID, s.now())
		if err := s.invoiceRepo.UpdateMutableInvoice(ctx, *inv); err != nil {
			return nil, err
		}
	}

	registryDate := s.now().Truncate(time.Second)
	payload, err := chainhash.Build(payloadFields(inv, domain.EntryRegistration, "", registryDate))
	if err != nil {
		return nil, apperrors.Mark(err, apperrors.ErrSerialization, "build registration payload")
	}

	entry, err := s.appendEntry(ctx, domain.RegistryEntry{
		EntryID:      uuid.NewString(),
		ChainScope:   inv.ChainScope(),
		Kind:         domain.EntryRegistration,
		InvoiceID:    inv.InvoiceID,
		FiscalNumber: inv.FiscalNumber,
		RegistryDate: registryDate,
		CreatedBy:    userID,
	}, payload)
	if err != nil {
		return nil, err
	}

	if err := s.guard.Freeze(ctx, inv, registryDate, userID); err != nil {
		return nil, err
	}
	return entry, nil
}

// Cancel appends a cancellation that references the invoice's registration.
// The registration itself is never touched.
func (s *registryService) Cancel(ctx context.Context, invoiceID string, reason string, userID string) (*domain.RegistryEntry, error) {
	ctx = context.WithoutCancel(ctx)

	var entry *domain.RegistryEntry
	err := s.inUnitOfWork(ctx, func(txCtx context.Context) error {
		inv, err := s.invoiceRepo.FindInvoiceForUpdate(txCtx, invoiceID)
		if err != nil {
			return err
		}
		if !inv.IsImmutable {
			return apperrors.Validationf("invoice %s is not registered", invoiceID)
		}

		entries, err := s.registryRepo.FindEntriesByInvoiceID(txCtx, invoiceID)
		if err != nil {
			return err
		}
		if lo.ContainsBy(entries, func(e domain.RegistryEntry) bool { return e.Kind == domain.EntryCancellation }) {
			return fmt.Errorf("invoice %s already cancelled: %w", invoiceID, apperrors.ErrDuplicate)
		}
		original, found := lo.Find(entries, func(e domain.RegistryEntry) bool { return e.Kind == domain.EntryRegistration })
		if !found {
			return fmt.Errorf("registration of invoice %s: %w", invoiceID, apperrors.ErrNotFound)
		}

		registryDate := s.now().Truncate(time.Second)
		payload, err := chainhash.Build(payloadFields(inv, domain.EntryCancellation, original.Hash, registryDate))
		if err != nil {
			return apperrors.Mark(err, apperrors.ErrSerialization, "build cancellation payload")
		}

		ref := original.EntryID
		entry, err = s.appendEntry(txCtx, domain.RegistryEntry{
			EntryID:           uuid.NewString(),
			ChainScope:        original.ChainScope,
			Kind:              domain.EntryCancellation,
			InvoiceID:         inv.InvoiceID,
			FiscalNumber:      inv.FiscalNumber,
			ReferencedEntryID: &ref,
			RegistryDate:      registryDate,
			CreatedBy:         userID,
		}, payload)
		return err
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to cancel invoice", slog.String("invoice_id", invoiceID))
		return nil, err
	}

	s.LogInfo(ctx, "Invoice cancelled",
		slog.String("invoice_id", invoiceID),
		slog.String("reason", reason),
		slog.Int64("registry_number", entry.RegistryNumber))
	return entry, nil
}

// appendEntry links draft to the locked chain tail and persists it.
func (s *registryService) appendEntry(ctx context.Context, draft domain.RegistryEntry, payload []byte) (*domain.RegistryEntry, error) {
	now := s.now()
	head, err := s.registryRepo.LockChainHead(ctx, draft.ChainScope, now)
	if err != nil {
		return nil, err
	}

	draft.RegistryNumber = head.LastRegistryNumber + 1
	draft.PreviousHash = head.LastHash
	draft.CanonicalPayload = payload
	draft.Hash = chainhash.Compute(head.LastHash, payload)
	draft.ChainVersion = chainhash.Version1
	draft.Submission = domain.NewSubmissionState()
	draft.CreatedAt = now

	if err := s.registryRepo.AppendEntry(ctx, draft); err != nil {
		return nil, err
	}
	return &draft, nil
}

func payloadFields(inv *domain.Invoice, kind domain.EntryKind, referencedHash string, registryDate time.Time) chainhash.Fields {
	return chainhash.Fields{
		Kind:           string(kind),
		IssuerTaxID:    inv.IssuerTaxID,
		FiscalNumber:   inv.FiscalNumber,
		IssueDate:      inv.IssueDate,
		OperationDate:  lo.FromPtr(inv.OperationDate),
		InvoiceType:    string(inv.Series.SeriesType),
		RecipientTaxID: inv.RecipientTaxID,
		RecipientName:  inv.RecipientName,
		TaxLines: lo.Map(inv.TaxLines, func(l domain.TaxLine, _ int) chainhash.TaxLine {
			return chainhash.TaxLine{Rate: l.Rate, Base: l.Base, Quota: l.Quota}
		}),
		TotalTax:       inv.TotalTax,
		TotalAmount:    inv.TotalAmount,
		ReferencedHash: referencedHash,
		RegistryDate:   registryDate,
	}
}

func (s *registryService) GetEntry(ctx context.Context, entryID string) (*domain.RegistryEntry, error) {
	return s.registryRepo.FindEntryByID(ctx, entryID)
}

func (s *registryService) GetEntryByInvoice(ctx context.Context, invoiceID string) (*domain.RegistryEntry, error) {
	entries, err := s.registryRepo.FindEntriesByInvoiceID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	entry, found := lo.Find(entries, func(e domain.RegistryEntry) bool { return e.Kind == domain.EntryRegistration })
	if !found {
		return nil, fmt.Errorf("registration of invoice %s: %w", invoiceID, apperrors.ErrNotFound)
	}
	return &entry, nil
}

func (s *registryService) ListEntries(ctx context.Context, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = defaultEntriesPageSize
	}

	var after int64
	if params.NextToken != "" {
		n, err := pagination.DecodeRegistryCursor(params.NextToken, params.Scope)
		if err != nil {
			return nil, apperrors.Validationf("%v", err)
		}
		after = n
	}

	entries, err := s.registryRepo.ListEntriesByScope(ctx, params.Scope, after, limit+1)
	if err != nil {
		return nil, err
	}

	var nextToken *string
	if len(entries) > limit {
		entries = entries[:limit]
		token := pagination.EncodeRegistryCursor(params.Scope, entries[limit-1].RegistryNumber)
		nextToken = &token
	}

	resp := dto.ToListEntriesResponse(entries, nextToken)
	return &resp, nil
}

// VerifyChain recomputes the whole chain of scope from its genesis entry and
// checks that the stored head still points at its last entry.
func (s *registryService) VerifyChain(ctx context.Context, scope string) (*domain.VerificationResult, error) {
	result := &domain.VerificationResult{
		ChainScope: scope,
		HeadHash:   chainhash.GenesisHash,
		VerifiedAt: s.now(),
	}

	var links []chainhash.Link
	var after int64
	for {
		batch, err := s.registryRepo.ListEntriesByScope(ctx, scope, after, verifyBatchSize)
		if err != nil {
			return nil, err
		}
		for _, e := range batch {
			if e.ChainVersion != chainhash.Version1 {
				result.EntriesChecked = len(links)
				result.BrokenRegistryNumber = e.RegistryNumber
				result.Reason = reasonUnknownVersion
				return result, nil
			}
			links = append(links, e.Link())
		}
		if len(batch) < verifyBatchSize {
			break
		}
		after = batch[len(batch)-1].RegistryNumber
	}

	res := chainhash.Verify(links)
	result.EntriesChecked = res.Checked
	if !res.OK {
		result.BrokenRegistryNumber = links[res.BrokenAt].RegistryNumber
		result.Reason = res.Reason
		s.LogError(ctx, errors.New(res.Reason), "Chain verification failed",
			slog.String("chain_scope", scope), slog.Int64("registry_number", result.BrokenRegistryNumber))
		return result, nil
	}

	head, err := s.registryRepo.FindChainHead(ctx, scope)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}
	tailNumber, tailHash := int64(0), chainhash.GenesisHash
	if len(links) > 0 {
		tailNumber, tailHash = links[len(links)-1].RegistryNumber, links[len(links)-1].Hash
	}
	if head != nil && (head.LastRegistryNumber != tailNumber || head.LastHash != tailHash) {
		result.BrokenRegistryNumber = head.LastRegistryNumber
		result.Reason = reasonHeadMismatch
		s.LogError(ctx, errors.New(reasonHeadMismatch), "Chain verification failed", slog.String("chain_scope", scope))
		return result, nil
	}

	result.OK = true
	result.HeadHash = tailHash
	return result, nil
}
