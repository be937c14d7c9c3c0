package domain

import (
	"fmt"
	"time"

	"github.com/SscSPs/invoice_registry/internal/apperrors"
	"github.com/shopspring/decimal"
)

// InvoiceStatus is the lifecycle status of an invoice.
type InvoiceStatus string

const (
	InvoiceDraft  InvoiceStatus = "DRAFT"
	InvoiceIssued InvoiceStatus = "ISSUED"
)

// TaxLine is one VAT breakdown line.
type TaxLine struct {
	Rate  decimal.Decimal `json:"rate"`
	Base  decimal.Decimal `json:"base"`
	Quota decimal.Decimal `json:"quota"`
}

// FiscalFields are the invoice values that become frozen once the invoice is registered.
type FiscalFields struct {
	IssuerName     string          `json:"issuerName"`
	RecipientTaxID string          `json:"recipientTaxId"`
	RecipientName  string          `json:"recipientName"`
	IssueDate      time.Time       `json:"issueDate"`
	OperationDate  *time.Time      `json:"operationDate,omitempty"`
	Description    string          `json:"description"`
	TaxLines       []TaxLine       `json:"taxLines"`
	TotalTax       decimal.Decimal `json:"totalTax"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
}

// Invoice is the registry's view of an invoice.
type Invoice struct {
	InvoiceID          string        `json:"invoiceID"`
	Series             SeriesKey     `json:"series"`
	Number             int64         `json:"number"` // zero until allocated
	FiscalNumber       string        `json:"fiscalNumber"`
	Status             InvoiceStatus `json:"status"`
	IssuerTaxID        string        `json:"issuerTaxId"`
	RectifiedInvoiceID *string       `json:"rectifiedInvoiceID,omitempty"`
	IsImmutable        bool          `json:"isImmutable"`
	ImmutableAt        *time.Time    `json:"immutableAt,omitempty"`
	FiscalFields
	AuditFields
}

// HasNumber reports whether a number has been allocated.
func (i Invoice) HasNumber() bool {
	return i.Number > 0
}

// ChainScope is the chain the invoice's registry entries belong to.
func (i Invoice) ChainScope() string {
	return i.IssuerTaxID
}

// EnsureMutable fails once the invoice has been registered.
func (i Invoice) EnsureMutable() error {
	if i.IsImmutable {
		return fmt.Errorf("invoice %s: %w", i.InvoiceID, apperrors.ErrImmutableInvoice)
	}
	return nil
}

// ApplyFiscalFields replaces the fiscal fields of a mutable invoice.
func (i *Invoice) ApplyFiscalFields(f FiscalFields, actor string, at time.Time) error {
	if err := i.EnsureMutable(); err != nil {
		return err
	}
	if err := f.Validate(); err != nil {
		return err
	}
	i.FiscalFields = f
	i.Touch(actor, at)
	return nil
}

// Issue marks a draft as issued.
func (i *Invoice) Issue(actor string, at time.Time) error {
	if err := i.EnsureMutable(); err != nil {
		return err
	}
	i.Status = InvoiceIssued
	i.Touch(actor, at)
	return nil
}

// Freeze sets the immutability flag. It can only happen once.
func (i *Invoice) Freeze(at time.Time) error {
	if i.IsImmutable {
		return fmt.Errorf("invoice %s: %w", i.InvoiceID, apperrors.ErrAlreadyRegistered)
	}
	i.IsImmutable = true
	frozen := at
	i.ImmutableAt = &frozen
	return nil
}

// HasCentPrecision reports whether d fits the two decimals amounts are stored
// and hashed with.
func HasCentPrecision(d decimal.Decimal) bool {
	return d.Equal(d.Round(2))
}

// Validate checks that totals and lines are consistent.
func (f FiscalFields) Validate() error {
	if f.IssueDate.IsZero() {
		return apperrors.Validationf("issue date is required")
	}
	if f.OperationDate != nil && f.OperationDate.After(f.IssueDate) {
		return apperrors.Validationf("operation date cannot be after issue date")
	}
	quota := decimal.Zero
	base := decimal.Zero
	for idx, l := range f.TaxLines {
		if l.Rate.IsNegative() {
			return apperrors.Validationf("tax line %d has a negative rate", idx)
		}
		if !HasCentPrecision(l.Rate) || !HasCentPrecision(l.Base) || !HasCentPrecision(l.Quota) {
			return apperrors.Validationf("tax line %d has more than two decimals", idx)
		}
		quota = quota.Add(l.Quota)
		base = base.Add(l.Base)
	}
	if !HasCentPrecision(f.TotalTax) || !HasCentPrecision(f.TotalAmount) {
		return apperrors.Validationf("totals cannot have more than two decimals")
	}
	if !quota.Equal(f.TotalTax) {
		return apperrors.Validationf("total tax %s does not match tax lines %s", f.TotalTax.StringFixed(2), quota.StringFixed(2))
	}
	if !base.Add(quota).Equal(f.TotalAmount) {
		return apperrors.Validationf("total amount %s does not match bases plus quotas %s", f.TotalAmount.StringFixed(2), base.Add(quota).StringFixed(2))
	}
	return nil
}

// Clone returns a deep copy.
func (i Invoice) Clone() Invoice {
	out := i
	out.TaxLines = append([]TaxLine(nil), i.TaxLines...)
	out.OperationDate = clonePtr(i.OperationDate)
	out.RectifiedInvoiceID = clonePtr(i.RectifiedInvoiceID)
	out.ImmutableAt = clonePtr(i.ImmutableAt)
	return out
}
