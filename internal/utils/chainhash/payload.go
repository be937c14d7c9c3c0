// Package chainhash builds canonical registry payloads, computes chained hashes and verifies chains.
package chainhash

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Version1 is the only payload layout produced today. Stored entries keep the
// version they were hashed with so verification recomputes with the same layout.
const Version1 = "v1"

const (
	dateLayout     = "02-01-2006"
	registryLayout = time.RFC3339
)

// ErrInvalidPayload is returned when required fields are missing or malformed.
var ErrInvalidPayload = errors.New("invalid canonical payload")

// TaxLine is one VAT breakdown line of the payload.
type TaxLine struct {
	Rate  decimal.Decimal
	Base  decimal.Decimal
	Quota decimal.Decimal
}

// Fields are the fiscally relevant values covered by an entry hash.
type Fields struct {
	Kind           string
	IssuerTaxID    string
	FiscalNumber   string
	IssueDate      time.Time
	OperationDate  time.Time // zero when it equals the issue date
	InvoiceType    string
	RecipientTaxID string
	RecipientName  string
	TaxLines       []TaxLine
	TotalTax       decimal.Decimal
	TotalAmount    decimal.Decimal
	ReferencedHash string // set on cancellations
	RegistryDate   time.Time
}

// field order of the v1 layout; never reorder.
var v1Keys = []string{
	"version", "kind", "issuer", "number", "issued", "operated", "type",
	"recipient", "recipientName", "lines", "totalTax", "total", "ref", "registered",
}

// Build serializes fields in the frozen v1 order. Identical fields always produce identical bytes.
func Build(f Fields) ([]byte, error) {
	switch {
	case strings.TrimSpace(f.Kind) == "":
		return nil, fmt.Errorf("%w: kind is required", ErrInvalidPayload)
	case strings.TrimSpace(f.IssuerTaxID) == "":
		return nil, fmt.Errorf("%w: issuer tax id is required", ErrInvalidPayload)
	case strings.TrimSpace(f.FiscalNumber) == "":
		return nil, fmt.Errorf("%w: fiscal number is required", ErrInvalidPayload)
	case f.IssueDate.IsZero():
		return nil, fmt.Errorf("%w: issue date is required", ErrInvalidPayload)
	case f.RegistryDate.IsZero():
		return nil, fmt.Errorf("%w: registry date is required", ErrInvalidPayload)
	}

	lines := make([]string, 0, len(f.TaxLines))
	for _, l := range f.TaxLines {
		lines = append(lines, amount(l.Rate)+":"+amount(l.Base)+":"+amount(l.Quota))
	}

	values := map[string]string{
		"version":       Version1,
		"kind":          f.Kind,
		"issuer":        strings.ToUpper(strings.TrimSpace(f.IssuerTaxID)),
		"number":        f.FiscalNumber,
		"issued":        f.IssueDate.Format(dateLayout),
		"operated":      optionalDate(f.OperationDate),
		"type":          f.InvoiceType,
		"recipient":     strings.ToUpper(strings.TrimSpace(f.RecipientTaxID)),
		"recipientName": strings.TrimSpace(f.RecipientName),
		"lines":         strings.Join(lines, ";"),
		"totalTax":      amount(f.TotalTax),
		"total":         amount(f.TotalAmount),
		"ref":           f.ReferencedHash,
		"registered":    f.RegistryDate.UTC().Truncate(time.Second).Format(registryLayout),
	}

	var b strings.Builder
	for i, k := range v1Keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(values[k]))
	}
	return []byte(b.String()), nil
}

// Parse decodes a payload back into its key/value pairs.
func Parse(payload []byte) (map[string]string, error) {
	out := make(map[string]string, len(v1Keys))
	for _, pair := range strings.Split(string(payload), "&") {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("%w: malformed pair %q", ErrInvalidPayload, pair)
		}
		decoded, err := url.QueryUnescape(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		out[k] = decoded
	}
	if out["version"] != Version1 {
		return nil, fmt.Errorf("%w: unsupported version %q", ErrInvalidPayload, out["version"])
	}
	return out, nil
}

func optionalDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func amount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
