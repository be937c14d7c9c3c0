package services

import (
	"context"
	"time"

	"github.com/SscSPs/invoice_registry/internal/core/domain"
)

// AuthorityClient delivers encoded entries to the tax authority. A returned
// error means the outcome is unknown and is treated as transient.
type AuthorityClient interface {
	Submit(ctx context.Context, payload []byte) (domain.AuthorityOutcome, error)
}

// SubmissionSvc drives entries through the submission state machine
type SubmissionSvc interface {
	// Submit sends one entry. Accepted entries are returned unchanged.
	Submit(ctx context.Context, entryID string) (*domain.RegistryEntry, error)

	// IsRetryable reports whether a worker may pick the entry up.
	IsRetryable(entry domain.RegistryEntry) bool

	// NextAttemptAt is the earliest time the entry should be retried.
	NextAttemptAt(entry domain.RegistryEntry) time.Time

	// ReleaseForRetry clears the review flag of an entry that exhausted its attempts.
	ReleaseForRetry(ctx context.Context, entryID string, userID string) (*domain.RegistryEntry, error)
}

// SubmissionWorkerSvc defines the background submission jobs
type SubmissionWorkerSvc interface {
	// SubmitDue submits every retryable entry whose backoff elapsed, up to limit.
	SubmitDue(ctx context.Context, limit int) (domain.SweepReport, error)

	// RecoverStale moves entries stuck in SUBMITTED for longer than olderThan to ERROR.
	RecoverStale(ctx context.Context, olderThan time.Duration) (int, error)
}

// SubmissionSvcFacade combines all submission-related service interfaces
type SubmissionSvcFacade interface {
	SubmissionSvc
	SubmissionWorkerSvc
}
