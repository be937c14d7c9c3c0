package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/SscSPs/invoice_registry/internal/apperrors"
	"github.com/SscSPs/invoice_registry/internal/core/domain"
	portsrepo "github.com/SscSPs/invoice_registry/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/invoice_registry/internal/core/ports/services"
	"github.com/SscSPs/invoice_registry/internal/utils/envelope"
	"github.com/cenkalti/backoff/v4"
	"github.com/cockroachdb/errors"
	"github.com/sourcegraph/conc/pool"
)

// SubmissionConfig tunes delivery to the tax authority.
type SubmissionConfig struct {
	MaxAttempts  int
	BackoffBase  time.Duration
	BackoffMax   time.Duration
	Timeout      time.Duration
	SweepWorkers int
}

// DefaultSubmissionConfig returns the settings used when none are configured.
func DefaultSubmissionConfig() SubmissionConfig {
	return SubmissionConfig{
		MaxAttempts:  5,
		BackoffBase:  time.Minute,
		BackoffMax:   time.Hour,
		Timeout:      30 * time.Second,
		SweepWorkers: 4,
	}
}

const staleRecoveryBatch = 100

type submissionService struct {
	BaseService
	registryRepo portsrepo.RegistryRepositoryFacade
	authority    portssvc.AuthorityClient
	cfg          SubmissionConfig
	now          func() time.Time
}

// NewSubmissionService creates the service that delivers registry entries.
func NewSubmissionService(registryRepo portsrepo.RegistryRepositoryFacade, authority portssvc.AuthorityClient, cfg SubmissionConfig) portssvc.SubmissionSvcFacade {
	return &submissionService{
		registryRepo: registryRepo,
		authority:    authority,
		cfg:          cfg,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

var _ portssvc.SubmissionSvcFacade = (*submissionService)(nil)

// Submit claims the entry with a conditional status update, calls the
// authority and records the classified outcome. Two concurrent callers can
// never both reach the authority for the same attempt.
func (s *submissionService) Submit(ctx context.Context, entryID string) (*domain.RegistryEntry, error) {
	entry, err := s.registryRepo.FindEntryByID(ctx, entryID)
	if err != nil {
		return nil, err
	}

	switch {
	case entry.Submission.Status == domain.SubmissionAccepted:
		return entry, nil
	case entry.Submission.Status == domain.SubmissionSubmitted:
		return nil, fmt.Errorf("entry %s: %w", entryID, apperrors.ErrSubmissionInFlight)
	case entry.Submission.RequiresReview:
		return nil, fmt.Errorf("entry %s: %w", entryID, apperrors.ErrRequiresReview)
	}

	claimedFrom := entry.Submission.Status
	if err := entry.Submission.BeginAttempt(s.now()); err != nil {
		return nil, err
	}
	if err := s.registryRepo.UpdateSubmission(ctx, entryID, []domain.SubmissionStatus{claimedFrom}, entry.Submission); err != nil {
		return nil, err
	}

	logger := s.GetLogger(ctx).With(slog.String("entry_id", entryID), slog.Int("attempt", entry.Submission.Attempts))
	outcome := s.callAuthority(ctx, entry)
	logger.Info("Authority responded", slog.String("outcome", string(outcome.Kind)), slog.String("reason", outcome.Reason))

	if err := entry.Submission.ApplyOutcome(outcome, s.now(), s.cfg.MaxAttempts); err != nil {
		return nil, err
	}
	// The outcome must be recorded even if the caller is gone.
	persistCtx := context.WithoutCancel(ctx)
	if err := s.registryRepo.UpdateSubmission(persistCtx, entryID, []domain.SubmissionStatus{domain.SubmissionSubmitted}, entry.Submission); err != nil {
		s.LogError(ctx, err, "Failed to record submission outcome", slog.String("entry_id", entryID))
		return nil, err
	}

	if entry.Submission.RequiresReview {
		logger.Warn("Entry exhausted its submission attempts and requires review")
	}
	return entry, nil
}

func (s *submissionService) callAuthority(ctx context.Context, entry *domain.RegistryEntry) domain.AuthorityOutcome {
	var referencedHash string
	if entry.ReferencedEntryID != nil {
		if ref, err := s.registryRepo.FindEntryByID(ctx, *entry.ReferencedEntryID); err == nil {
			referencedHash = ref.Hash
		}
	}

	payload, err := envelope.Encode(envelope.Input{
		Kind:           string(entry.Kind),
		ChainScope:     entry.ChainScope,
		RegistryNumber: entry.RegistryNumber,
		FiscalNumber:   entry.FiscalNumber,
		RegistryDate:   entry.RegistryDate,
		PreviousHash:   entry.PreviousHash,
		Hash:           entry.Hash,
		ChainVersion:   entry.ChainVersion,
		Payload:        entry.CanonicalPayload,
		ReferencedHash: referencedHash,
	})
	if err != nil {
		return domain.TransientOutcome(err.Error())
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	outcome, err := s.authority.Submit(callCtx, payload)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return domain.TransientOutcome("authority call timed out")
		}
		return domain.TransientOutcome(err.Error())
	}
	return outcome
}

func (s *submissionService) IsRetryable(entry domain.RegistryEntry) bool {
	return entry.Submission.IsRetryable()
}

// NextAttemptAt applies exponential backoff from the last attempt. Untried entries are due immediately.
func (s *submissionService) NextAttemptAt(entry domain.RegistryEntry) time.Time {
	if entry.Submission.Attempts == 0 || entry.Submission.LastAttemptAt == nil {
		return entry.CreatedAt
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.cfg.BackoffBase
	b.MaxInterval = s.cfg.BackoffMax
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()

	var delay time.Duration
	for i := 0; i < entry.Submission.Attempts; i++ {
		delay = b.NextBackOff()
	}
	return entry.Submission.LastAttemptAt.Add(delay)
}

func (s *submissionService) ReleaseForRetry(ctx context.Context, entryID string, userID string) (*domain.RegistryEntry, error) {
	entry, err := s.registryRepo.FindEntryByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if err := entry.Submission.ReleaseForRetry(); err != nil {
		return nil, err
	}
	if err := s.registryRepo.UpdateSubmission(ctx, entryID, []domain.SubmissionStatus{domain.SubmissionError}, entry.Submission); err != nil {
		return nil, err
	}
	s.LogInfo(ctx, "Entry released for another submission attempt", slog.String("entry_id", entryID), slog.String("released_by", userID))
	return entry, nil
}

// SubmitDue submits due entries concurrently with a bounded worker pool.
func (s *submissionService) SubmitDue(ctx context.Context, limit int) (domain.SweepReport, error) {
	var report domain.SweepReport

	candidates, err := s.registryRepo.ListEntriesForSubmission(ctx, limit)
	if err != nil {
		return report, err
	}

	now := s.now()
	var mu sync.Mutex
	p := pool.New().WithMaxGoroutines(max(1, s.cfg.SweepWorkers))
	for _, candidate := range candidates {
		if !s.IsRetryable(candidate) || s.NextAttemptAt(candidate).After(now) {
			report.Skipped++
			continue
		}
		report.Picked++
		entryID := candidate.EntryID
		p.Go(func() {
			entry, err := s.Submit(ctx, entryID)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case errors.Is(err, apperrors.ErrSubmissionInFlight):
				report.Skipped++
			case err != nil:
				s.LogError(ctx, err, "Sweep submission failed", slog.String("entry_id", entryID))
				report.Failed++
			case entry.Submission.Status == domain.SubmissionAccepted:
				report.Accepted++
			case entry.Submission.Status == domain.SubmissionRejected:
				report.Rejected++
			default:
				report.Failed++
			}
		})
	}
	p.Wait()

	if report.Picked > 0 {
		s.LogInfo(ctx, "Submission sweep finished",
			slog.Int("picked", report.Picked),
			slog.Int("accepted", report.Accepted),
			slog.Int("rejected", report.Rejected),
			slog.Int("failed", report.Failed),
			slog.Int("skipped", report.Skipped))
	}
	return report, nil
}

// RecoverStale moves entries whose process died mid-call back to ERROR so they are retried.
func (s *submissionService) RecoverStale(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := s.now().Add(-olderThan)
	stale, err := s.registryRepo.ListStaleSubmitted(ctx, cutoff, staleRecoveryBatch)
	if err != nil {
		return 0, err
	}

	recovered := 0
	for _, entry := range stale {
		state := entry.Submission
		if err := state.ApplyOutcome(domain.TransientOutcome("submission interrupted before an outcome was recorded"), s.now(), s.cfg.MaxAttempts); err != nil {
			return recovered, err
		}
		err := s.registryRepo.UpdateSubmission(ctx, entry.EntryID, []domain.SubmissionStatus{domain.SubmissionSubmitted}, state)
		if errors.Is(err, apperrors.ErrSubmissionInFlight) {
			continue
		}
		if err != nil {
			return recovered, err
		}
		recovered++
	}

	if recovered > 0 {
		s.LogInfo(ctx, "Recovered stale submissions", slog.Int("count", recovered))
	}
	return recovered, nil
}
