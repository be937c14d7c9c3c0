package services

import (
	"context"
	"time"

	"github.com/SscSPs/invoice_registry/internal/core/domain"
	"github.com/SscSPs/invoice_registry/internal/dto"
)

// SeriesReaderSvc defines read operations for numbering series
type SeriesReaderSvc interface {
	// GetSeries retrieves one counter.
	GetSeries(ctx context.Context, key domain.SeriesKey) (*domain.SeriesCounter, error)

	// ListSeries lists the counters of an owner scope.
	ListSeries(ctx context.Context, params dto.ListSeriesParams) ([]domain.SeriesCounter, error)

	// Preview returns the next number and its rendering without reserving it.
	Preview(ctx context.Context, key domain.SeriesKey) (*domain.Allocation, error)
}

// SeriesWriterSvc defines write operations for numbering series
type SeriesWriterSvc interface {
	// CreateSeries configures a new counter.
	CreateSeries(ctx context.Context, req dto.CreateSeriesRequest, creatorUserID string) (*domain.SeriesCounter, error)

	// DeactivateSeries stops further allocations from a counter.
	DeactivateSeries(ctx context.Context, key domain.SeriesKey, userID string) error

	// ResolveKey picks the counter an invoice dated issueDate should draw from.
	// For a resetting series it creates the fiscal year's counter, unadvanced,
	// when the year has none yet.
	ResolveKey(ctx context.Context, prefix string, seriesType domain.SeriesType, ownerScope string, issueDate time.Time) (domain.SeriesKey, error)
}

// SeriesAllocatorSvc reserves numbers. Joins the caller's transaction when there is one.
type SeriesAllocatorSvc interface {
	// Allocate reserves the next number of the series.
	Allocate(ctx context.Context, key domain.SeriesKey) (int64, error)

	// AllocateFiscalNumber reserves the next number and renders it.
	AllocateFiscalNumber(ctx context.Context, key domain.SeriesKey) (*domain.Allocation, error)
}

// SeriesSvcFacade combines all series-related service interfaces
type SeriesSvcFacade interface {
	SeriesReaderSvc
	SeriesWriterSvc
	SeriesAllocatorSvc
}
