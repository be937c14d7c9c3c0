package apperrors

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// Registry taxonomy.
var (
	ErrSeriesNotFound         = errors.New("numbering series not found")
	ErrSeriesInactive         = errors.New("numbering series is inactive")
	ErrSeriesExhausted        = errors.New("numbering series capacity exhausted")
	ErrAlreadyRegistered      = errors.New("invoice already registered")
	ErrInvoiceNotFinal        = errors.New("invoice is not finalized")
	ErrConcurrentTailConflict = errors.New("chain tail changed concurrently")
	ErrSerialization          = errors.New("canonical payload serialization failed")
	ErrPersistence            = errors.New("persistence failure")
	ErrImmutableInvoice       = errors.New("invoice is immutable")
	ErrEntryImmutable         = errors.New("registry entry is append-only")
	ErrInvalidTransition      = errors.New("submission state transition not allowed")
	ErrSubmissionInFlight     = errors.New("submission already in progress")
	ErrRequiresReview         = errors.New("entry requires manual review before resubmission")
)

// codes maps taxonomy errors to the machine-readable codes exposed to clients.
// Order matters: the first match wins.
var codes = []struct {
	err  error
	code string
}{
	{ErrSeriesNotFound, "SERIES_NOT_FOUND"},
	{ErrSeriesInactive, "SERIES_INACTIVE"},
	{ErrSeriesExhausted, "SERIES_EXHAUSTED"},
	{ErrAlreadyRegistered, "ALREADY_REGISTERED"},
	{ErrInvoiceNotFinal, "INVOICE_NOT_FINAL"},
	{ErrConcurrentTailConflict, "CONCURRENT_TAIL_CONFLICT"},
	{ErrSerialization, "SERIALIZATION_FAILURE"},
	{ErrImmutableInvoice, "IMMUTABLE_INVOICE"},
	{ErrEntryImmutable, "ENTRY_IMMUTABLE"},
	{ErrInvalidTransition, "INVALID_TRANSITION"},
	{ErrSubmissionInFlight, "SUBMISSION_IN_FLIGHT"},
	{ErrRequiresReview, "REQUIRES_REVIEW"},
	{ErrPersistence, "PERSISTENCE_FAILURE"},
	{ErrNotFound, "NOT_FOUND"},
	{ErrValidation, "VALIDATION_ERROR"},
	{ErrDuplicate, "DUPLICATE"},
}

// Code returns the taxonomy code for err, or "INTERNAL" when err is not part of the taxonomy.
func Code(err error) string {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return "INTERNAL"
}

// Mark wraps err with msg and tags it as kind. The result matches kind under
// both the standard errors.Is and the cockroachdb one.
func Mark(err error, kind error, msg string) error {
	if err == nil {
		return nil
	}
	return errors.Mark(fmt.Errorf("%s: %w: %w", msg, kind, err), kind)
}

// Newf builds an error of the given kind with a formatted detail message.
func Newf(kind error, format string, args ...any) error {
	return errors.Mark(fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...)), kind)
}

// Validationf builds a validation error with a formatted detail message.
func Validationf(format string, args ...any) error {
	return Newf(ErrValidation, format, args...)
}
