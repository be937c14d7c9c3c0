package dto

import (
	"time"

	"github.com/SscSPs/invoice_registry/internal/core/domain"
)

// CreateSeriesRequest defines the data needed to configure a numbering series.
type CreateSeriesRequest struct {
	Prefix        string            `json:"prefix" binding:"required,max=20,excludesall={}"`
	SeriesType    domain.SeriesType `json:"seriesType" binding:"required,oneof=INVOICE SIMPLIFIED RECTIFICATIVE PROFORMA"`
	FiscalYear    int               `json:"fiscalYear" binding:"required,min=1000,max=9999"`
	OwnerScope    string            `json:"ownerScope" binding:"omitempty,max=64"`
	StartNumber   int64             `json:"startNumber" binding:"omitempty,min=1"`
	NumberFormat  string            `json:"numberFormat" binding:"omitempty,max=100"`
	ResetAnnually *bool             `json:"resetAnnually"` // defaults to true
}

// SeriesKeyQuery identifies a series in query strings.
type SeriesKeyQuery struct {
	Prefix     string `form:"prefix" json:"prefix" binding:"required"`
	SeriesType string `form:"seriesType" json:"seriesType" binding:"required,oneof=INVOICE SIMPLIFIED RECTIFICATIVE PROFORMA"`
	FiscalYear int    `form:"fiscalYear" json:"fiscalYear" binding:"required,min=1000,max=9999"`
	OwnerScope string `form:"ownerScope" json:"ownerScope"`
}

// ToKey converts the query into a domain key.
func (q SeriesKeyQuery) ToKey() domain.SeriesKey {
	return domain.SeriesKey{
		Prefix:     q.Prefix,
		SeriesType: domain.SeriesType(q.SeriesType),
		FiscalYear: q.FiscalYear,
		OwnerScope: q.OwnerScope,
	}
}

// ListSeriesParams filters series listings.
type ListSeriesParams struct {
	OwnerScope string `form:"ownerScope"`
	FiscalYear int    `form:"fiscalYear" binding:"omitempty,min=1000,max=9999"`
}

// SeriesResponse defines the data returned for a series counter.
type SeriesResponse struct {
	Prefix          string     `json:"prefix"`
	SeriesType      string     `json:"seriesType"`
	FiscalYear      int        `json:"fiscalYear"`
	OwnerScope      string     `json:"ownerScope"`
	FiscalYearStart time.Time  `json:"fiscalYearStart"`
	FiscalYearEnd   time.Time  `json:"fiscalYearEnd"`
	StartNumber     int64      `json:"startNumber"`
	LastNumber      int64      `json:"lastNumber"`
	NumberFormat    string     `json:"numberFormat"`
	ResetAnnually   bool       `json:"resetAnnually"`
	IsActive        bool       `json:"isActive"`
	LastUsedAt      *time.Time `json:"lastUsedAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	CreatedBy       string     `json:"createdBy"`
}

// AllocationResponse is returned by allocation and preview.
type AllocationResponse struct {
	Prefix       string `json:"prefix"`
	SeriesType   string `json:"seriesType"`
	FiscalYear   int    `json:"fiscalYear"`
	OwnerScope   string `json:"ownerScope"`
	Number       int64  `json:"number"`
	FiscalNumber string `json:"fiscalNumber"`
}

// ToSeriesResponse converts a domain.SeriesCounter to SeriesResponse DTO
func ToSeriesResponse(c *domain.SeriesCounter) SeriesResponse {
	return SeriesResponse{
		Prefix:          c.Prefix,
		SeriesType:      string(c.SeriesType),
		FiscalYear:      c.FiscalYear,
		OwnerScope:      c.OwnerScope,
		FiscalYearStart: c.FiscalYearStart,
		FiscalYearEnd:   c.FiscalYearEnd,
		StartNumber:     c.StartNumber,
		LastNumber:      c.LastNumber,
		NumberFormat:    c.NumberFormat,
		ResetAnnually:   c.ResetAnnually,
		IsActive:        c.IsActive,
		LastUsedAt:      c.LastUsedAt,
		CreatedAt:       c.CreatedAt,
		CreatedBy:       c.CreatedBy,
	}
}

// ToListSeriesResponse converts a slice of counters
func ToListSeriesResponse(counters []domain.SeriesCounter) []SeriesResponse {
	res := make([]SeriesResponse, len(counters))
	for i := range counters {
		res[i] = ToSeriesResponse(&counters[i])
	}
	return res
}

// ToAllocationResponse converts a domain.Allocation
func ToAllocationResponse(a *domain.Allocation) AllocationResponse {
	return AllocationResponse{
		Prefix:       a.Key.Prefix,
		SeriesType:   string(a.Key.SeriesType),
		FiscalYear:   a.Key.FiscalYear,
		OwnerScope:   a.Key.OwnerScope,
		Number:       a.Number,
		FiscalNumber: a.FiscalNumber,
	}
}
