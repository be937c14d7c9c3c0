package domain

import (
	"fmt"
	"time"

	"github.com/SscSPs/invoice_registry/internal/apperrors"
)

// SubmissionStatus tracks delivery of an entry to the tax authority.
type SubmissionStatus string

const (
	SubmissionPending   SubmissionStatus = "PENDING"
	SubmissionSubmitted SubmissionStatus = "SUBMITTED"
	SubmissionAccepted  SubmissionStatus = "ACCEPTED"
	SubmissionRejected  SubmissionStatus = "REJECTED"
	SubmissionError     SubmissionStatus = "ERROR"
)

// IsTerminal reports whether no further transition is possible.
func (s SubmissionStatus) IsTerminal() bool {
	return s == SubmissionAccepted || s == SubmissionRejected
}

// SubmissionEvent drives the submission state machine.
type SubmissionEvent string

const (
	EventSubmit         SubmissionEvent = "SUBMIT"
	EventAccepted       SubmissionEvent = "ACCEPTED"
	EventRejected       SubmissionEvent = "REJECTED"
	EventTransientError SubmissionEvent = "TRANSIENT_ERROR"
)

var submissionTransitions = map[SubmissionStatus]map[SubmissionEvent]SubmissionStatus{
	SubmissionPending: {
		EventSubmit:         SubmissionSubmitted,
		EventRejected:       SubmissionRejected,
		EventTransientError: SubmissionError,
	},
	SubmissionSubmitted: {
		EventAccepted:       SubmissionAccepted,
		EventRejected:       SubmissionRejected,
		EventTransientError: SubmissionError,
	},
	SubmissionError: {
		EventSubmit: SubmissionSubmitted,
	},
}

// NextSubmissionStatus returns the status reached from `from` on ev.
func NextSubmissionStatus(from SubmissionStatus, ev SubmissionEvent) (SubmissionStatus, error) {
	if to, ok := submissionTransitions[from][ev]; ok {
		return to, nil
	}
	return from, fmt.Errorf("%s on %s: %w", ev, from, apperrors.ErrInvalidTransition)
}

// OutcomeKind classifies an authority response.
type OutcomeKind string

const (
	OutcomeAccepted  OutcomeKind = "ACCEPTED"
	OutcomeRejected  OutcomeKind = "REJECTED"
	OutcomeTransient OutcomeKind = "TRANSIENT"
)

// AuthorityOutcome is the classified result of one submission call.
type AuthorityOutcome struct {
	Kind        OutcomeKind
	Code        string // authority reference code, set on acceptance
	Reason      string
	RawResponse string
}

// TransientOutcome describes a failure that is worth retrying.
func TransientOutcome(reason string) AuthorityOutcome {
	return AuthorityOutcome{Kind: OutcomeTransient, Reason: reason}
}

func (o AuthorityOutcome) event() SubmissionEvent {
	switch o.Kind {
	case OutcomeAccepted:
		return EventAccepted
	case OutcomeRejected:
		return EventRejected
	default:
		return EventTransientError
	}
}

// SubmissionState is the mutable part of a registry entry.
type SubmissionState struct {
	Status                 SubmissionStatus `json:"status"`
	Attempts               int              `json:"attempts"`
	SubmittedAt            *time.Time       `json:"submittedAt,omitempty"`
	LastAttemptAt          *time.Time       `json:"lastAttemptAt,omitempty"`
	AuthorityReferenceCode *string          `json:"authorityReferenceCode,omitempty"`
	AuthorityResponse      *string          `json:"authorityResponse,omitempty"`
	AuthorityError         *string          `json:"authorityError,omitempty"`
	RequiresReview         bool             `json:"requiresReview"`
}

// NewSubmissionState is the state of a freshly appended entry.
func NewSubmissionState() SubmissionState {
	return SubmissionState{Status: SubmissionPending}
}

// IsRetryable reports whether a worker may pick the entry up again.
func (s SubmissionState) IsRetryable() bool {
	if s.RequiresReview {
		return false
	}
	return s.Status == SubmissionPending || s.Status == SubmissionError
}

// BeginAttempt moves the state to SUBMITTED and counts the attempt.
func (s *SubmissionState) BeginAttempt(now time.Time) error {
	next, err := NextSubmissionStatus(s.Status, EventSubmit)
	if err != nil {
		return err
	}
	s.Status = next
	s.Attempts++
	at := now
	s.LastAttemptAt = &at
	return nil
}

// ApplyOutcome records the authority's answer. A transient failure at or past
// maxAttempts flags the entry for review.
func (s *SubmissionState) ApplyOutcome(o AuthorityOutcome, now time.Time, maxAttempts int) error {
	next, err := NextSubmissionStatus(s.Status, o.event())
	if err != nil {
		return err
	}
	s.Status = next
	if o.RawResponse != "" {
		raw := o.RawResponse
		s.AuthorityResponse = &raw
	}
	switch next {
	case SubmissionAccepted:
		at := now
		code := o.Code
		s.SubmittedAt = &at
		s.AuthorityReferenceCode = &code
		s.AuthorityError = nil
	case SubmissionRejected:
		reason := o.Reason
		s.AuthorityError = &reason
	case SubmissionError:
		reason := o.Reason
		s.AuthorityError = &reason
		if maxAttempts > 0 && s.Attempts >= maxAttempts {
			s.RequiresReview = true
		}
	}
	return nil
}

// ReleaseForRetry clears the review flag on an ERROR entry.
func (s *SubmissionState) ReleaseForRetry() error {
	if s.Status != SubmissionError || !s.RequiresReview {
		return fmt.Errorf("release from %s (review=%t): %w", s.Status, s.RequiresReview, apperrors.ErrInvalidTransition)
	}
	s.RequiresReview = false
	return nil
}

// SweepReport summarizes one background submission pass.
type SweepReport struct {
	Picked    int `json:"picked"`
	Accepted  int `json:"accepted"`
	Rejected  int `json:"rejected"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
	Recovered int `json:"recovered"`
}
