package mapping

import (
	"github.com/SscSPs/invoice_registry/internal/core/domain"
	"github.com/SscSPs/invoice_registry/internal/models"
)

// ToModelSeriesCounter converts a domain SeriesCounter to a model SeriesCounter
func ToModelSeriesCounter(d domain.SeriesCounter) models.SeriesCounter {
	return models.SeriesCounter{
		Prefix:          d.Prefix,
		SeriesType:      string(d.SeriesType),
		FiscalYear:      d.FiscalYear,
		OwnerScope:      d.OwnerScope,
		FiscalYearStart: d.FiscalYearStart,
		FiscalYearEnd:   d.FiscalYearEnd,
		StartNumber:     d.StartNumber,
		LastNumber:      d.LastNumber,
		NumberFormat:    d.NumberFormat,
		ResetAnnually:   d.ResetAnnually,
		IsActive:        d.IsActive,
		LastUsedAt:      d.LastUsedAt,
		AuditFields:     ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainSeriesCounter converts a model SeriesCounter to a domain SeriesCounter
func ToDomainSeriesCounter(m models.SeriesCounter) domain.SeriesCounter {
	return domain.SeriesCounter{
		SeriesKey: domain.SeriesKey{
			Prefix:     m.Prefix,
			SeriesType: domain.SeriesType(m.SeriesType),
			FiscalYear: m.FiscalYear,
			OwnerScope: m.OwnerScope,
		},
		FiscalYearStart: m.FiscalYearStart,
		FiscalYearEnd:   m.FiscalYearEnd,
		StartNumber:     m.StartNumber,
		LastNumber:      m.LastNumber,
		NumberFormat:    m.NumberFormat,
		ResetAnnually:   m.ResetAnnually,
		IsActive:        m.IsActive,
		LastUsedAt:      m.LastUsedAt,
		AuditFields:     ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainSeriesCounterSlice converts a slice of model SeriesCounters to domain SeriesCounters
func ToDomainSeriesCounterSlice(ms []models.SeriesCounter) []domain.SeriesCounter {
	ds := make([]domain.SeriesCounter, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainSeriesCounter(m)
	}
	return ds
}
