package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/invoice_registry/internal/core/domain"
)

// SeriesReader defines read operations for numbering series
type SeriesReader interface {
	// FindSeries retrieves a counter by key. Returns apperrors.ErrSeriesNotFound when absent.
	FindSeries(ctx context.Context, key domain.SeriesKey) (*domain.SeriesCounter, error)

	// FindLatestSeries retrieves the most recent fiscal year of a series, used as a template for roll-over.
	FindLatestSeries(ctx context.Context, prefix string, seriesType domain.SeriesType, ownerScope string) (*domain.SeriesCounter, error)

	// ListSeries lists counters of an owner scope, optionally restricted to one fiscal year (0 means all).
	ListSeries(ctx context.Context, ownerScope string, fiscalYear int) ([]domain.SeriesCounter, error)
}

// SeriesWriter defines write operations for numbering series
type SeriesWriter interface {
	// CreateSeries persists a new counter. Returns apperrors.ErrDuplicate if the key exists.
	CreateSeries(ctx context.Context, counter domain.SeriesCounter) error

	// CreateSeriesIfNotExists inserts the counter unless its key exists and reports whether it inserted.
	CreateSeriesIfNotExists(ctx context.Context, counter domain.SeriesCounter) (bool, error)

	// SetSeriesActive toggles the active flag.
	SetSeriesActive(ctx context.Context, key domain.SeriesKey, active bool, userID string, now time.Time) error
}

// SeriesTransactionSupport defines operations that must run inside a transaction
type SeriesTransactionSupport interface {
	// FindSeriesForUpdate retrieves a counter and locks it until the transaction ends.
	FindSeriesForUpdate(ctx context.Context, key domain.SeriesKey) (*domain.SeriesCounter, error)

	// AdvanceSeries stores a new last number. The number must be greater than the stored one.
	AdvanceSeries(ctx context.Context, key domain.SeriesKey, lastNumber int64, usedAt time.Time) error
}

// SeriesRepositoryFacade combines all series-related repository interfaces
type SeriesRepositoryFacade interface {
	SeriesReader
	SeriesWriter
	SeriesTransactionSupport
}
