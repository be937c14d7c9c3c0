package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/SscSPs/invoice_registry/internal/apperrors"
	"github.com/SscSPs/invoice_registry/internal/core/domain"
	portsrepo "github.com/SscSPs/invoice_registry/internal/core/ports/repositories"
	"github.com/SscSPs/invoice_registry/internal/models"
	"github.com/SscSPs/invoice_registry/internal/utils/mapping"
	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const seriesColumns = `prefix, series_type, fiscal_year, owner_scope, fiscal_year_start, fiscal_year_end,
	start_number, last_number, number_format, reset_annually, is_active, last_used_at,
	created_at, created_by, last_updated_at, last_updated_by`

type PgxSeriesRepository struct {
	BaseRepository
}

// newPgxSeriesRepository creates a new repository for invoice series counters.
func newPgxSeriesRepository(pool *pgxpool.Pool) portsrepo.SeriesRepositoryFacade {
	return &PgxSeriesRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

var _ portsrepo.SeriesRepositoryFacade = (*PgxSeriesRepository)(nil)

func scanSeries(row pgx.Row) (models.SeriesCounter, error) {
	var m models.SeriesCounter
	err := row.Scan(
		&m.Prefix,
		&m.SeriesType,
		&m.FiscalYear,
		&m.OwnerScope,
		&m.FiscalYearStart,
		&m.FiscalYearEnd,
		&m.StartNumber,
		&m.LastNumber,
		&m.NumberFormat,
		&m.ResetAnnually,
		&m.IsActive,
		&m.LastUsedAt,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	return m, err
}

func (r *PgxSeriesRepository) findOne(ctx context.Context, query string, key domain.SeriesKey) (*domain.SeriesCounter, error) {
	m, err := scanSeries(r.querier(ctx).QueryRow(ctx, query, key.Prefix, string(key.SeriesType), key.FiscalYear, key.OwnerScope))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", key, apperrors.ErrSeriesNotFound)
		}
		return nil, mapPgError(err, "find series "+key.String())
	}
	c := mapping.ToDomainSeriesCounter(m)
	return &c, nil
}

// FindSeries retrieves a counter by its key.
func (r *PgxSeriesRepository) FindSeries(ctx context.Context, key domain.SeriesKey) (*domain.SeriesCounter, error) {
	query := `SELECT ` + seriesColumns + ` FROM invoice_series
		WHERE prefix = $1 AND series_type = $2 AND fiscal_year = $3 AND owner_scope = $4;`
	return r.findOne(ctx, query, key)
}

// FindSeriesForUpdate locks the counter row until the surrounding transaction ends.
func (r *PgxSeriesRepository) FindSeriesForUpdate(ctx context.Context, key domain.SeriesKey) (*domain.SeriesCounter, error) {
	if _, err := r.requireTx(ctx, "lock series"); err != nil {
		return nil, err
	}
	query := `SELECT ` + seriesColumns + ` FROM invoice_series
		WHERE prefix = $1 AND series_type = $2 AND fiscal_year = $3 AND owner_scope = $4
		FOR UPDATE;`
	return r.findOne(ctx, query, key)
}

// FindLatestSeries returns the counter with the highest fiscal year for the series.
func (r *PgxSeriesRepository) FindLatestSeries(ctx context.Context, prefix string, seriesType domain.SeriesType, ownerScope string) (*domain.SeriesCounter, error) {
	query := `SELECT ` + seriesColumns + ` FROM invoice_series
		WHERE prefix = $1 AND series_type = $2 AND owner_scope = $3
		ORDER BY fiscal_year DESC
		LIMIT 1;`
	m, err := scanSeries(r.querier(ctx).QueryRow(ctx, query, prefix, string(seriesType), ownerScope))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s/%s/%s: %w", prefix, seriesType, ownerScope, apperrors.ErrSeriesNotFound)
		}
		return nil, mapPgError(err, "find latest series")
	}
	c := mapping.ToDomainSeriesCounter(m)
	return &c, nil
}

// ListSeries lists the counters of an owner, optionally restricted to one fiscal year.
func (r *PgxSeriesRepository) ListSeries(ctx context.Context, ownerScope string, fiscalYear int) ([]domain.SeriesCounter, error) {
	query := `SELECT ` + seriesColumns + ` FROM invoice_series
		WHERE owner_scope = $1 AND ($2 = 0 OR fiscal_year = $2)
		ORDER BY fiscal_year DESC, prefix, series_type;`
	rows, err := r.querier(ctx).Query(ctx, query, ownerScope, fiscalYear)
	if err != nil {
		return nil, mapPgError(err, "list series")
	}
	defer rows.Close()

	ms, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.SeriesCounter, error) {
		return scanSeries(row)
	})
	if err != nil {
		return nil, mapPgError(err, "scan series")
	}
	return mapping.ToDomainSeriesCounterSlice(ms), nil
}

// CreateSeries inserts a counter, failing with ErrDuplicate if the key exists.
func (r *PgxSeriesRepository) CreateSeries(ctx context.Context, counter domain.SeriesCounter) error {
	created, err := r.CreateSeriesIfNotExists(ctx, counter)
	if err != nil {
		return err
	}
	if !created {
		return fmt.Errorf("series %s: %w", counter.SeriesKey, apperrors.ErrDuplicate)
	}
	return nil
}

// CreateSeriesIfNotExists inserts a counter unless one already exists for the key.
func (r *PgxSeriesRepository) CreateSeriesIfNotExists(ctx context.Context, counter domain.SeriesCounter) (bool, error) {
	m := mapping.ToModelSeriesCounter(counter)
	query := `INSERT INTO invoice_series (` + seriesColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (prefix, series_type, fiscal_year, owner_scope) DO NOTHING;`
	tag, err := r.querier(ctx).Exec(ctx, query,
		m.Prefix,
		m.SeriesType,
		m.FiscalYear,
		m.OwnerScope,
		m.FiscalYearStart,
		m.FiscalYearEnd,
		m.StartNumber,
		m.LastNumber,
		m.NumberFormat,
		m.ResetAnnually,
		m.IsActive,
		m.LastUsedAt,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		return false, mapPgError(err, "create series "+counter.SeriesKey.String())
	}
	return tag.RowsAffected() == 1, nil
}

// SetSeriesActive toggles whether a counter may allocate numbers.
func (r *PgxSeriesRepository) SetSeriesActive(ctx context.Context, key domain.SeriesKey, active bool, userID string, now time.Time) error {
	query := `UPDATE invoice_series
		SET is_active = $5, last_updated_at = $6, last_updated_by = $7
		WHERE prefix = $1 AND series_type = $2 AND fiscal_year = $3 AND owner_scope = $4;`
	tag, err := r.querier(ctx).Exec(ctx, query, key.Prefix, string(key.SeriesType), key.FiscalYear, key.OwnerScope, active, now, userID)
	if err != nil {
		return mapPgError(err, "update series "+key.String())
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", key, apperrors.ErrSeriesNotFound)
	}
	return nil
}

// AdvanceSeries stores the last allocated number. The counter never moves back.
func (r *PgxSeriesRepository) AdvanceSeries(ctx context.Context, key domain.SeriesKey, lastNumber int64, usedAt time.Time) error {
	if _, err := r.requireTx(ctx, "advance series"); err != nil {
		return err
	}
	query := `UPDATE invoice_series
		SET last_number = $5, last_used_at = $6
		WHERE prefix = $1 AND series_type = $2 AND fiscal_year = $3 AND owner_scope = $4
			AND last_number < $5;`
	tag, err := r.querier(ctx).Exec(ctx, query, key.Prefix, string(key.SeriesType), key.FiscalYear, key.OwnerScope, lastNumber, usedAt)
	if err != nil {
		return mapPgError(err, "advance series "+key.String())
	}
	if tag.RowsAffected() == 0 {
		return apperrors.Newf(apperrors.ErrPersistence, "series %s cannot advance to %d", key, lastNumber)
	}
	return nil
}
