package domain_test

import (
	"testing"
	"time"

	"github.com/SscSPs/invoice_registry/internal/apperrors"
	"github.com/SscSPs/invoice_registry/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextSubmissionStatus(t *testing.T) {
	statuses := []domain.SubmissionStatus{
		domain.SubmissionPending, domain.SubmissionSubmitted, domain.SubmissionAccepted,
		domain.SubmissionRejected, domain.SubmissionError,
	}
	events := []domain.SubmissionEvent{
		domain.EventSubmit, domain.EventAccepted, domain.EventRejected, domain.EventTransientError,
	}
	allowed := map[domain.SubmissionStatus]map[domain.SubmissionEvent]domain.SubmissionStatus{
		domain.SubmissionPending: {
			domain.EventSubmit:         domain.SubmissionSubmitted,
			domain.EventRejected:       domain.SubmissionRejected,
			domain.EventTransientError: domain.SubmissionError,
		},
		domain.SubmissionSubmitted: {
			domain.EventAccepted:       domain.SubmissionAccepted,
			domain.EventRejected:       domain.SubmissionRejected,
			domain.EventTransientError: domain.SubmissionError,
		},
		domain.SubmissionError: {
			domain.EventSubmit: domain.SubmissionSubmitted,
		},
	}

	for _, from := range statuses {
		for _, ev := range events {
			t.Run(string(from)+"/"+string(ev), func(t *testing.T) {
				got, err := domain.NextSubmissionStatus(from, ev)
				want, ok := allowed[from][ev]
				if !ok {
					assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
					assert.Equal(t, from, got)
					return
				}
				require.NoError(t, err)
				assert.Equal(t, want, got)
			})
		}
	}
}

func TestSubmissionState_Lifecycle(t *testing.T) {
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("accepted records code and submitted time", func(t *testing.T) {
		s := domain.NewSubmissionState()
		require.NoError(t, s.BeginAttempt(now))
		assert.Equal(t, domain.SubmissionSubmitted, s.Status)
		assert.Equal(t, 1, s.Attempts)

		require.NoError(t, s.ApplyOutcome(domain.AuthorityOutcome{Kind: domain.OutcomeAccepted, Code: "CSV-1"}, now, 5))
		assert.Equal(t, domain.SubmissionAccepted, s.Status)
		require.NotNil(t, s.AuthorityReferenceCode)
		assert.Equal(t, "CSV-1", *s.AuthorityReferenceCode)
		require.NotNil(t, s.SubmittedAt)
		assert.True(t, s.Status.IsTerminal())
		assert.False(t, s.IsRetryable())
	})

	t.Run("transient failures flag review at max attempts", func(t *testing.T) {
		s := domain.NewSubmissionState()
		for i := 0; i < 3; i++ {
			require.NoError(t, s.BeginAttempt(now))
			require.NoError(t, s.ApplyOutcome(domain.TransientOutcome("timeout"), now, 3))
		}
		assert.Equal(t, domain.SubmissionError, s.Status)
		assert.Equal(t, 3, s.Attempts)
		assert.True(t, s.RequiresReview)
		assert.False(t, s.IsRetryable())

		require.NoError(t, s.ReleaseForRetry())
		assert.True(t, s.IsRetryable())
		assert.ErrorIs(t, s.ReleaseForRetry(), apperrors.ErrInvalidTransition)
	})

	t.Run("rejected is terminal", func(t *testing.T) {
		s := domain.NewSubmissionState()
		require.NoError(t, s.BeginAttempt(now))
		require.NoError(t, s.ApplyOutcome(domain.AuthorityOutcome{Kind: domain.OutcomeRejected, Reason: "bad NIF"}, now, 5))
		assert.Equal(t, domain.SubmissionRejected, s.Status)
		assert.ErrorIs(t, s.BeginAttempt(now), apperrors.ErrInvalidTransition)
		assert.Equal(t, 1, s.Attempts)
	})
}
