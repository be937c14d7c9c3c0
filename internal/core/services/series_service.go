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
	"github.com/cockroachdb/errors"
)

// systemActor is recorded on rows created implicitly, such as rolled-over counters.
const systemActor = "system"

type seriesService struct {
	BaseService
	txManager  portsrepo.TransactionManager
	seriesRepo portsrepo.SeriesRepositoryFacade
	now        func() time.Time
}

// NewSeriesService creates a new series service.
func NewSeriesService(txManager portsrepo.TransactionManager, seriesRepo portsrepo.SeriesRepositoryFacade) portssvc.SeriesSvcFacade {
	return &seriesService{
		txManager:  txManager,
		seriesRepo: seriesRepo,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

var _ portssvc.SeriesSvcFacade = (*seriesService)(nil)

func (s *seriesService) CreateSeries(ctx context.Context, req dto.CreateSeriesRequest, creatorUserID string) (*domain.SeriesCounter, error) {
	key := domain.SeriesKey{
		Prefix:     req.Prefix,
		SeriesType: req.SeriesType,
		FiscalYear: req.FiscalYear,
		OwnerScope: req.OwnerScope,
	}
	resetAnnually := true
	if req.ResetAnnually != nil {
		resetAnnually = *req.ResetAnnually
	}

	counter, err := domain.NewSeriesCounter(key, req.StartNumber, req.NumberFormat, resetAnnually, creatorUserID, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.seriesRepo.CreateSeries(ctx, counter); err != nil {
		s.LogError(ctx, err, "Failed to create series", slog.String("series", key.String()))
		return nil, err
	}

	s.LogInfo(ctx, "Series created", slog.String("series", key.String()), slog.Int64("start_number", counter.StartNumber))
	return &counter, nil
}

func (s *seriesService) GetSeries(ctx context.Context, key domain.SeriesKey) (*domain.SeriesCounter, error) {
	return s.seriesRepo.FindSeries(ctx, key)
}

func (s *seriesService) ListSeries(ctx context.Context, params dto.ListSeriesParams) ([]domain.SeriesCounter, error) {
	return s.seriesRepo.ListSeries(ctx, params.OwnerScope, params.FiscalYear)
}

func (s *seriesService) DeactivateSeries(ctx context.Context, key domain.SeriesKey, userID string) error {
	if err := s.seriesRepo.SetSeriesActive(ctx, key, false, userID, s.now()); err != nil {
		return err
	}
	s.LogInfo(ctx, "Series deactivated", slog.String("series", key.String()))
	return nil
}

func (s *seriesService) Allocate(ctx context.Context, key domain.SeriesKey) (int64, error) {
	alloc, err := s.AllocateFiscalNumber(ctx, key)
	if err != nil {
		return 0, err
	}
	return alloc.Number, nil
}

// AllocateFiscalNumber locks the counter row, advances it and renders the
// number. When called inside a unit of work the reservation commits or rolls
// back with it, so a failed caller never leaves a hole in the series.
func (s *seriesService) AllocateFiscalNumber(ctx context.Context, key domain.SeriesKey) (*domain.Allocation, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}

	var alloc *domain.Allocation
	err := s.txManager.WithinTx(context.WithoutCancel(ctx), func(txCtx context.Context) error {
		counter, err := s.lockCounter(txCtx, key)
		if err != nil {
			return err
		}

		now := s.now()
		number, err := counter.Next(now)
		if err != nil {
			return err
		}
		fiscalNumber, err := counter.Render(number)
		if err != nil {
			return err
		}
		if err := s.seriesRepo.AdvanceSeries(txCtx, key, number, now); err != nil {
			return err
		}

		alloc = &domain.Allocation{Key: key, Number: number, FiscalNumber: fiscalNumber}
		return nil
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to allocate number", slog.String("series", key.String()))
		return nil, err
	}

	s.LogDebug(ctx, "Number allocated", slog.String("series", key.String()), slog.Int64("number", alloc.Number))
	return alloc, nil
}

// lockCounter returns the locked counter for key, creating the fiscal year's
// row from the latest one when the series resets annually.
func (s *seriesService) lockCounter(ctx context.Context, key domain.SeriesKey) (*domain.SeriesCounter, error) {
	counter, err := s.seriesRepo.FindSeriesForUpdate(ctx, key)
	if err == nil {
		return counter, nil
	}
	if !errors.Is(err, apperrors.ErrSeriesNotFound) {
		return nil, err
	}

	if err := s.ensureRolledOver(ctx, key); err != nil {
		return nil, err
	}
	return s.seriesRepo.FindSeriesForUpdate(ctx, key)
}

// ensureRolledOver creates the counter for key from the latest year of its
// series. A concurrent creator winning the insert is not an error.
func (s *seriesService) ensureRolledOver(ctx context.Context, key domain.SeriesKey) error {
	fresh, err := s.rollOverTemplate(ctx, key)
	if err != nil {
		return err
	}
	created, err := s.seriesRepo.CreateSeriesIfNotExists(ctx, *fresh)
	if err != nil {
		return err
	}
	if created {
		s.LogInfo(ctx, "Series rolled over to new fiscal year", slog.String("series", key.String()))
	}
	return nil
}

func (s *seriesService) rollOverTemplate(ctx context.Context, key domain.SeriesKey) (*domain.SeriesCounter, error) {
	latest, err := s.seriesRepo.FindLatestSeries(ctx, key.Prefix, key.SeriesType, key.OwnerScope)
	if err != nil {
		return nil, err
	}
	if !latest.ResetAnnually || latest.FiscalYear >= key.FiscalYear {
		return nil, fmt.Errorf("%s: %w", key, apperrors.ErrSeriesNotFound)
	}
	if !latest.IsActive {
		return nil, fmt.Errorf("%s: %w", latest.SeriesKey, apperrors.ErrSeriesInactive)
	}
	fresh := latest.RollOver(key.FiscalYear, systemActor, s.now())
	return &fresh, nil
}

func (s *seriesService) Preview(ctx context.Context, key domain.SeriesKey) (*domain.Allocation, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	counter, err := s.seriesRepo.FindSeries(ctx, key)
	if errors.Is(err, apperrors.ErrSeriesNotFound) {
		counter, err = s.rollOverTemplate(ctx, key)
	}
	if err != nil {
		return nil, err
	}
	if !counter.IsActive {
		return nil, fmt.Errorf("%s: %w", key, apperrors.ErrSeriesInactive)
	}

	next := counter.PeekNext()
	fiscalNumber, err := counter.Render(next)
	if err != nil {
		return nil, err
	}
	return &domain.Allocation{Key: key, Number: next, FiscalNumber: fiscalNumber}, nil
}

// ResolveKey maps an issue date to a counter: the date's fiscal year for
// resetting series, the latest configured year otherwise. A resetting series
// gets its new year's counter here so the invoice row can reference it.
func (s *seriesService) ResolveKey(ctx context.Context, prefix string, seriesType domain.SeriesType, ownerScope string, issueDate time.Time) (domain.SeriesKey, error) {
	key := domain.SeriesKey{
		Prefix:     prefix,
		SeriesType: seriesType,
		FiscalYear: domain.FiscalYearOf(issueDate),
		OwnerScope: ownerScope,
	}
	if err := key.Validate(); err != nil {
		return domain.SeriesKey{}, err
	}

	if _, err := s.seriesRepo.FindSeries(ctx, key); err == nil {
		return key, nil
	} else if !errors.Is(err, apperrors.ErrSeriesNotFound) {
		return domain.SeriesKey{}, err
	}

	latest, err := s.seriesRepo.FindLatestSeries(ctx, prefix, seriesType, ownerScope)
	if err != nil {
		return domain.SeriesKey{}, err
	}
	if latest.ResetAnnually && latest.FiscalYear < key.FiscalYear {
		if err := s.ensureRolledOver(ctx, key); err != nil {
			return domain.SeriesKey{}, err
		}
		return key, nil
	}
	return latest.SeriesKey, nil
}
