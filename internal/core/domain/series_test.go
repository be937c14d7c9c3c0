package domain_test

import (
	"math"
	"testing"
	"time"

	"github.com/SscSPs/invoice_registry/internal/apperrors"
	"github.com/SscSPs/invoice_registry/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = domain.SeriesKey{Prefix: "F", SeriesType: domain.SeriesInvoice, FiscalYear: 2025}

func TestRenderNumber(t *testing.T) {
	tests := []struct {
		name    string
		format  string
		number  int64
		want    string
		wantErr error
	}{
		{name: "default format", format: domain.DefaultNumberFormat, number: 42, want: "F2025-000042"},
		{name: "unpadded", format: "{prefix}/{number}", number: 1234567, want: "F/1234567"},
		{name: "two digit year", format: "{year:2}{prefix}{number:3}", number: 7, want: "25F007"},
		{name: "literal only around number", format: "INV-{number:4}", number: 9999, want: "INV-9999"},
		{name: "overflow width", format: "{prefix}{number:2}", number: 100, wantErr: apperrors.ErrSeriesExhausted},
		{name: "unknown placeholder", format: "{prefix}{month}{number}", number: 1, wantErr: apperrors.ErrValidation},
		{name: "missing number", format: "{prefix}{year}", number: 1, wantErr: apperrors.ErrValidation},
		{name: "two numbers", format: "{number}{number}", number: 1, wantErr: apperrors.ErrValidation},
		{name: "unterminated", format: "{prefix{number}", number: 1, wantErr: apperrors.ErrValidation},
		{name: "stray brace", format: "{prefix}}{number}", number: 1, wantErr: apperrors.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := domain.RenderNumber(tt.format, testKey, tt.number)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatCapacity(t *testing.T) {
	c, err := domain.FormatCapacity("{prefix}{number:3}")
	require.NoError(t, err)
	assert.Equal(t, int64(999), c)

	c, err = domain.FormatCapacity("{prefix}{number}")
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), c)
}

func TestSeriesCounter_Next(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	t.Run("first allocation yields start number", func(t *testing.T) {
		c, err := domain.NewSeriesCounter(testKey, 100, "", true, "u1", now)
		require.NoError(t, err)
		assert.Equal(t, int64(99), c.LastNumber)

		n, err := c.Next(now)
		require.NoError(t, err)
		assert.Equal(t, int64(100), n)
		assert.Equal(t, int64(100), c.LastNumber)
		require.NotNil(t, c.LastUsedAt)
		assert.Equal(t, now, *c.LastUsedAt)
		assert.Equal(t, int64(101), c.PeekNext())
	})

	t.Run("inactive series", func(t *testing.T) {
		c, err := domain.NewSeriesCounter(testKey, 1, "", true, "u1", now)
		require.NoError(t, err)
		c.IsActive = false
		_, err = c.Next(now)
		assert.ErrorIs(t, err, apperrors.ErrSeriesInactive)
		assert.Equal(t, int64(0), c.LastNumber)
	})

	t.Run("exhausted by format width", func(t *testing.T) {
		c, err := domain.NewSeriesCounter(testKey, 1, "{prefix}{number:1}", true, "u1", now)
		require.NoError(t, err)
		c.LastNumber = 9
		_, err = c.Next(now)
		assert.ErrorIs(t, err, apperrors.ErrSeriesExhausted)
		assert.Equal(t, int64(9), c.LastNumber)
	})

	t.Run("exhausted at int64 limit", func(t *testing.T) {
		c, err := domain.NewSeriesCounter(testKey, 1, "{number}", true, "u1", now)
		require.NoError(t, err)
		c.LastNumber = math.MaxInt64
		_, err = c.Next(now)
		assert.ErrorIs(t, err, apperrors.ErrSeriesExhausted)
	})
}

func TestSeriesCounter_RollOver(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 5, 0, 0, time.UTC)
	c, err := domain.NewSeriesCounter(testKey, 1, "", true, "u1", now)
	require.NoError(t, err)
	c.LastNumber = 512

	next := c.RollOver(2026, "system", now)
	assert.Equal(t, 2026, next.FiscalYear)
	assert.Equal(t, int64(0), next.LastNumber)
	assert.Equal(t, int64(1), next.PeekNext())
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), next.FiscalYearStart)
	assert.Equal(t, c.NumberFormat, next.NumberFormat)
	assert.NoError(t, next.Validate())
}

func TestSeriesKey_Validate(t *testing.T) {
	assert.NoError(t, testKey.Validate())
	assert.ErrorIs(t, domain.SeriesKey{SeriesType: domain.SeriesInvoice, FiscalYear: 2025}.Validate(), apperrors.ErrValidation)
	assert.ErrorIs(t, domain.SeriesKey{Prefix: "F", SeriesType: "CREDIT", FiscalYear: 2025}.Validate(), apperrors.ErrValidation)
	assert.ErrorIs(t, domain.SeriesKey{Prefix: "F", SeriesType: domain.SeriesInvoice}.Validate(), apperrors.ErrValidation)
}
