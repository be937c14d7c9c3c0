package models

import "time"

// SeriesCounter is a row of invoice_series.
type SeriesCounter struct {
	Prefix          string     `db:"prefix"`
	SeriesType      string     `db:"series_type"`
	FiscalYear      int        `db:"fiscal_year"`
	OwnerScope      string     `db:"owner_scope"`
	FiscalYearStart time.Time  `db:"fiscal_year_start"`
	FiscalYearEnd   time.Time  `db:"fiscal_year_end"`
	StartNumber     int64      `db:"start_number"`
	LastNumber      int64      `db:"last_number"`
	NumberFormat    string     `db:"number_format"`
	ResetAnnually   bool       `db:"reset_annually"`
	IsActive        bool       `db:"is_active"`
	LastUsedAt      *time.Time `db:"last_used_at"`
	AuditFields
}
