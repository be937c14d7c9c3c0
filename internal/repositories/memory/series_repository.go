package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/SscSPs/invoice_registry/internal/apperrors"
	"github.com/SscSPs/invoice_registry/internal/core/domain"
	portsrepo "github.com/SscSPs/invoice_registry/internal/core/ports/repositories"
)

type seriesRepository struct {
	store *Store
}

var _ portsrepo.SeriesRepositoryFacade = (*seriesRepository)(nil)

func seriesLock(key domain.SeriesKey) string {
	return "series:" + key.String()
}

func (r *seriesRepository) FindSeries(_ context.Context, key domain.SeriesKey) (*domain.SeriesCounter, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	c, ok := r.store.series[key]
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, apperrors.ErrSeriesNotFound)
	}
	return cloneCounter(c), nil
}

func (r *seriesRepository) FindLatestSeries(_ context.Context, prefix string, seriesType domain.SeriesType, ownerScope string) (*domain.SeriesCounter, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var latest *domain.SeriesCounter
	for k, c := range r.store.series {
		if k.Prefix != prefix || k.SeriesType != seriesType || k.OwnerScope != ownerScope {
			continue
		}
		if latest == nil || k.FiscalYear > latest.FiscalYear {
			latest = cloneCounter(c)
		}
	}
	if latest == nil {
		return nil, fmt.Errorf("%s/%s/%s: %w", prefix, seriesType, ownerScope, apperrors.ErrSeriesNotFound)
	}
	return latest, nil
}

func (r *seriesRepository) ListSeries(_ context.Context, ownerScope string, fiscalYear int) ([]domain.SeriesCounter, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	out := make([]domain.SeriesCounter, 0)
	for k, c := range r.store.series {
		if k.OwnerScope != ownerScope || (fiscalYear != 0 && k.FiscalYear != fiscalYear) {
			continue
		}
		out = append(out, *cloneCounter(c))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FiscalYear != out[j].FiscalYear {
			return out[i].FiscalYear > out[j].FiscalYear
		}
		if out[i].Prefix != out[j].Prefix {
			return out[i].Prefix < out[j].Prefix
		}
		return out[i].SeriesType < out[j].SeriesType
	})
	return out, nil
}

func (r *seriesRepository) CreateSeries(ctx context.Context, counter domain.SeriesCounter) error {
	created, err := r.CreateSeriesIfNotExists(ctx, counter)
	if err != nil {
		return err
	}
	if !created {
		return fmt.Errorf("series %s: %w", counter.SeriesKey, apperrors.ErrDuplicate)
	}
	return nil
}

// CreateSeriesIfNotExists is not undone on rollback: a fresh counter carries no
// allocation, so keeping it is indistinguishable from recreating it later.
func (r *seriesRepository) CreateSeriesIfNotExists(_ context.Context, counter domain.SeriesCounter) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.series[counter.SeriesKey]; ok {
		return false, nil
	}
	r.store.series[counter.SeriesKey] = *cloneCounter(counter)
	return true, nil
}

// SetSeriesActive waits for the row lock like any other writer of the
// counter. Undo restores only the columns written here.
func (r *seriesRepository) SetSeriesActive(ctx context.Context, key domain.SeriesKey, active bool, userID string, now time.Time) error {
	return r.store.WithinTx(ctx, func(txCtx context.Context) error {
		if err := r.store.lockRow(txCtx, seriesLock(key)); err != nil {
			return err
		}

		r.store.mu.Lock()
		defer r.store.mu.Unlock()
		c, ok := r.store.series[key]
		if !ok {
			return fmt.Errorf("%s: %w", key, apperrors.ErrSeriesNotFound)
		}
		prevActive, prevAudit := c.IsActive, c.AuditFields
		c.IsActive = active
		c.Touch(userID, now)
		r.store.series[key] = c
		recordUndo(txCtx, func() {
			c := r.store.series[key]
			c.IsActive, c.AuditFields = prevActive, prevAudit
			r.store.series[key] = c
		})
		return nil
	})
}

func (r *seriesRepository) FindSeriesForUpdate(ctx context.Context, key domain.SeriesKey) (*domain.SeriesCounter, error) {
	if err := r.store.lockRow(ctx, seriesLock(key)); err != nil {
		return nil, err
	}
	return r.FindSeries(ctx, key)
}

func (r *seriesRepository) AdvanceSeries(ctx context.Context, key domain.SeriesKey, lastNumber int64, usedAt time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	c, ok := r.store.series[key]
	if !ok {
		return fmt.Errorf("%s: %w", key, apperrors.ErrSeriesNotFound)
	}
	if lastNumber <= c.LastNumber {
		return apperrors.Newf(apperrors.ErrPersistence, "series %s cannot move back from %d to %d", key, c.LastNumber, lastNumber)
	}
	prevNumber, prevUsedAt := c.LastNumber, c.LastUsedAt
	c.LastNumber = lastNumber
	used := usedAt
	c.LastUsedAt = &used
	r.store.series[key] = c
	recordUndo(ctx, func() {
		c := r.store.series[key]
		c.LastNumber, c.LastUsedAt = prevNumber, prevUsedAt
		r.store.series[key] = c
	})
	return nil
}

func cloneCounter(c domain.SeriesCounter) *domain.SeriesCounter {
	out := c
	if c.LastUsedAt != nil {
		t := *c.LastUsedAt
		out.LastUsedAt = &t
	}
	return &out
}
