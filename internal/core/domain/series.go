package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/SscSPs/invoice_registry/internal/apperrors"
)

// SeriesType classifies the documents numbered by a series.
type SeriesType string

const (
	SeriesInvoice       SeriesType = "INVOICE"
	SeriesSimplified    SeriesType = "SIMPLIFIED"
	SeriesRectificative SeriesType = "RECTIFICATIVE"
	SeriesProforma      SeriesType = "PROFORMA"
)

// IsValid reports whether t is a known series type.
func (t SeriesType) IsValid() bool {
	switch t {
	case SeriesInvoice, SeriesSimplified, SeriesRectificative, SeriesProforma:
		return true
	}
	return false
}

// DefaultNumberFormat renders numbers like "F2025-000042".
const DefaultNumberFormat = "{prefix}{year}-{number:6}"

// SeriesKey identifies one counter row.
type SeriesKey struct {
	Prefix     string     `json:"prefix"`
	SeriesType SeriesType `json:"seriesType"`
	FiscalYear int        `json:"fiscalYear"`
	OwnerScope string     `json:"ownerScope"` // empty means the default scope
}

func (k SeriesKey) String() string {
	return fmt.Sprintf("%s/%s/%d/%s", k.Prefix, k.SeriesType, k.FiscalYear, k.OwnerScope)
}

// Validate checks the key's components.
func (k SeriesKey) Validate() error {
	if strings.TrimSpace(k.Prefix) == "" {
		return apperrors.Validationf("series prefix is required")
	}
	if strings.ContainsAny(k.Prefix, "{}") {
		return apperrors.Validationf("series prefix %q must not contain braces", k.Prefix)
	}
	if !k.SeriesType.IsValid() {
		return apperrors.Validationf("unknown series type %q", k.SeriesType)
	}
	if k.FiscalYear < 1000 || k.FiscalYear > 9999 {
		return apperrors.Validationf("fiscal year %d out of range", k.FiscalYear)
	}
	return nil
}

// WithYear returns a copy of the key for another fiscal year.
func (k SeriesKey) WithYear(year int) SeriesKey {
	k.FiscalYear = year
	return k
}

// FiscalYearOf returns the fiscal year an instant belongs to. Fiscal years follow the calendar year.
func FiscalYearOf(t time.Time) int {
	return t.Year()
}

// SeriesCounter is the persisted state of a numbering series for one fiscal year.
type SeriesCounter struct {
	SeriesKey
	FiscalYearStart time.Time  `json:"fiscalYearStart"`
	FiscalYearEnd   time.Time  `json:"fiscalYearEnd"`
	StartNumber     int64      `json:"startNumber"`
	LastNumber      int64      `json:"lastNumber"`
	NumberFormat    string     `json:"numberFormat"`
	ResetAnnually   bool       `json:"resetAnnually"`
	IsActive        bool       `json:"isActive"`
	LastUsedAt      *time.Time `json:"lastUsedAt,omitempty"`
	AuditFields
}

// Allocation is the outcome of reserving a number from a series.
type Allocation struct {
	Key          SeriesKey `json:"key"`
	Number       int64     `json:"number"`
	FiscalNumber string    `json:"fiscalNumber"`
}

// NewSeriesCounter builds a fresh counter whose first allocation yields startNumber.
func NewSeriesCounter(key SeriesKey, startNumber int64, format string, resetAnnually bool, actor string, now time.Time) (SeriesCounter, error) {
	if startNumber == 0 {
		startNumber = 1
	}
	if format == "" {
		format = DefaultNumberFormat
	}
	c := SeriesCounter{
		SeriesKey:       key,
		FiscalYearStart: time.Date(key.FiscalYear, time.January, 1, 0, 0, 0, 0, time.UTC),
		FiscalYearEnd:   time.Date(key.FiscalYear, time.December, 31, 0, 0, 0, 0, time.UTC),
		StartNumber:     startNumber,
		LastNumber:      startNumber - 1,
		NumberFormat:    format,
		ResetAnnually:   resetAnnually,
		IsActive:        true,
		AuditFields:     NewAuditFields(actor, now),
	}
	if err := c.Validate(); err != nil {
		return SeriesCounter{}, err
	}
	return c, nil
}

// Validate checks the counter's structural invariants.
func (c SeriesCounter) Validate() error {
	if err := c.SeriesKey.Validate(); err != nil {
		return err
	}
	if c.StartNumber < 1 {
		return apperrors.Validationf("start number must be >= 1, got %d", c.StartNumber)
	}
	if c.LastNumber < c.StartNumber-1 {
		return apperrors.Validationf("last number %d is below start number %d", c.LastNumber, c.StartNumber)
	}
	if c.FiscalYearEnd.Before(c.FiscalYearStart) {
		return apperrors.Validationf("fiscal year end precedes start")
	}
	capacity, err := FormatCapacity(c.NumberFormat)
	if err != nil {
		return err
	}
	if c.StartNumber > capacity {
		return apperrors.Validationf("start number %d exceeds format capacity %d", c.StartNumber, capacity)
	}
	return nil
}

// PeekNext returns the number the next allocation would yield without reserving it.
func (c SeriesCounter) PeekNext() int64 {
	if c.LastNumber < c.StartNumber {
		return c.StartNumber
	}
	return c.LastNumber + 1
}

// Next reserves the next number on the in-memory counter.
func (c *SeriesCounter) Next(now time.Time) (int64, error) {
	if !c.IsActive {
		return 0, fmt.Errorf("%s: %w", c.SeriesKey, apperrors.ErrSeriesInactive)
	}
	if c.LastNumber == math.MaxInt64 {
		return 0, fmt.Errorf("%s: %w", c.SeriesKey, apperrors.ErrSeriesExhausted)
	}
	next := c.PeekNext()
	capacity, err := FormatCapacity(c.NumberFormat)
	if err != nil {
		return 0, err
	}
	if next > capacity {
		return 0, fmt.Errorf("%s: next number %d exceeds capacity %d: %w", c.SeriesKey, next, capacity, apperrors.ErrSeriesExhausted)
	}
	c.LastNumber = next
	used := now
	c.LastUsedAt = &used
	return next, nil
}

// Render formats number using the counter's template.
func (c SeriesCounter) Render(number int64) (string, error) {
	return RenderNumber(c.NumberFormat, c.SeriesKey, number)
}

// RollOver derives the counter for another fiscal year from c. The new counter starts fresh.
func (c SeriesCounter) RollOver(year int, actor string, now time.Time) SeriesCounter {
	shift := year - c.FiscalYear
	return SeriesCounter{
		SeriesKey:       c.SeriesKey.WithYear(year),
		FiscalYearStart: c.FiscalYearStart.AddDate(shift, 0, 0),
		FiscalYearEnd:   c.FiscalYearEnd.AddDate(shift, 0, 0),
		StartNumber:     c.StartNumber,
		LastNumber:      c.StartNumber - 1,
		NumberFormat:    c.NumberFormat,
		ResetAnnually:   c.ResetAnnually,
		IsActive:        true,
		AuditFields:     NewAuditFields(actor, now),
	}
}

type formatToken struct {
	literal string
	name    string
	width   int
}

func parseNumberFormat(format string) ([]formatToken, error) {
	var tokens []formatToken
	numbers := 0
	rest := format
	for rest != "" {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			if strings.IndexByte(rest, '}') >= 0 {
				return nil, apperrors.Validationf("number format %q has an unmatched '}'", format)
			}
			tokens = append(tokens, formatToken{literal: rest})
			break
		}
		if open > 0 {
			if strings.IndexByte(rest[:open], '}') >= 0 {
				return nil, apperrors.Validationf("number format %q has an unmatched '}'", format)
			}
			tokens = append(tokens, formatToken{literal: rest[:open]})
		}
		closing := strings.IndexByte(rest[open:], '}')
		if closing < 0 {
			return nil, apperrors.Validationf("number format %q has an unterminated placeholder", format)
		}
		body := rest[open+1 : open+closing]
		rest = rest[open+closing+1:]

		name, widthStr, hasWidth := strings.Cut(body, ":")
		tok := formatToken{name: name}
		if hasWidth {
			w, err := strconv.Atoi(widthStr)
			if err != nil || w < 1 || w > 18 {
				return nil, apperrors.Validationf("number format %q has invalid width %q", format, widthStr)
			}
			tok.width = w
		}
		switch name {
		case "prefix":
			if hasWidth {
				return nil, apperrors.Validationf("number format %q: {prefix} takes no width", format)
			}
		case "year":
			if hasWidth && tok.width != 2 && tok.width != 4 {
				return nil, apperrors.Validationf("number format %q: {year} width must be 2 or 4", format)
			}
		case "number":
			numbers++
		default:
			return nil, apperrors.Validationf("number format %q has unknown placeholder {%s}", format, name)
		}
		tokens = append(tokens, tok)
	}
	if numbers != 1 {
		return nil, apperrors.Validationf("number format %q must contain exactly one {number} placeholder", format)
	}
	return tokens, nil
}

// ValidateNumberFormat checks that format is a usable template.
func ValidateNumberFormat(format string) error {
	_, err := parseNumberFormat(format)
	return err
}

// FormatCapacity returns the largest number format can render. An unpadded {number} is unbounded.
func FormatCapacity(format string) (int64, error) {
	tokens, err := parseNumberFormat(format)
	if err != nil {
		return 0, err
	}
	for _, t := range tokens {
		if t.name == "number" && t.width > 0 {
			capacity := int64(1)
			for i := 0; i < t.width; i++ {
				capacity *= 10
			}
			return capacity - 1, nil
		}
	}
	return math.MaxInt64, nil
}

// RenderNumber expands format for key and number. Padded numbers never overflow their width.
func RenderNumber(format string, key SeriesKey, number int64) (string, error) {
	tokens, err := parseNumberFormat(format)
	if err != nil {
		return "", err
	}
	if number < 1 {
		return "", apperrors.Validationf("cannot render non-positive number %d", number)
	}
	var b strings.Builder
	for _, t := range tokens {
		switch t.name {
		case "":
			b.WriteString(t.literal)
		case "prefix":
			b.WriteString(key.Prefix)
		case "year":
			year := fmt.Sprintf("%04d", key.FiscalYear)
			if t.width == 2 {
				year = year[len(year)-2:]
			}
			b.WriteString(year)
		case "number":
			digits := strconv.FormatInt(number, 10)
			if t.width > 0 {
				if len(digits) > t.width {
					return "", fmt.Errorf("number %d does not fit width %d: %w", number, t.width, apperrors.ErrSeriesExhausted)
				}
				digits = strings.Repeat("0", t.width-len(digits)) + digits
			}
			b.WriteString(digits)
		}
	}
	return b.String(), nil
}
