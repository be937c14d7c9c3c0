package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/SscSPs/invoice_registry/internal/apperrors"
	"github.com/SscSPs/invoice_registry/internal/middleware"
	"github.com/cenkalti/backoff/v4"
	"github.com/cockroachdb/errors"
)

// BaseService provides common functionality for all services
type BaseService struct{}

// GetLogger gets the logger from context or returns a default one
func (s *BaseService) GetLogger(ctx context.Context) *slog.Logger {
	return middleware.GetLoggerFromCtx(ctx)
}

// LogError logs an error with consistent formatting
func (s *BaseService) LogError(ctx context.Context, err error, msg string, keyvals ...any) {
	logger := s.GetLogger(ctx)
	args := make([]any, 0, len(keyvals)+2)
	args = append(args, slog.String("error", err.Error()), slog.String("code", apperrors.Code(err)))
	args = append(args, keyvals...)
	logger.Error(msg, args...)
}

// LogInfo logs an info message with consistent formatting
func (s *BaseService) LogInfo(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Info(msg, keyvals...)
}

// LogDebug logs a debug message with consistent formatting
func (s *BaseService) LogDebug(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Debug(msg, keyvals...)
}

// tailRetryPolicy is the backoff used between attempts of a unit of work that
// lost a race for a chain tail. A negative maxRetries means no retries.
func tailRetryPolicy(maxRetries int) backoff.BackOff {
	maxRetries = max(maxRetries, 0)
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 10 * time.Millisecond
	b.MaxInterval = 250 * time.Millisecond
	b.MaxElapsedTime = 0
	return backoff.WithMaxRetries(b, uint64(maxRetries))
}

// retryOnTailConflict reruns op while it fails with ErrConcurrentTailConflict.
// Any other error stops immediately.
func retryOnTailConflict(ctx context.Context, maxRetries int, op func() error) error {
	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		err := op()
		if err == nil {
			return nil
		}
		if !errors.Is(err, apperrors.ErrConcurrentTailConflict) {
			return backoff.Permanent(err)
		}
		middleware.GetLoggerFromCtx(ctx).Warn("Chain tail conflict, retrying unit of work", slog.Int("attempt", attempt))
		return err
	}, backoff.WithContext(tailRetryPolicy(maxRetries), ctx))
}
