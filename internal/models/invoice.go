package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TaxLine is stored inside invoices.tax_lines as JSON.
type TaxLine struct {
	Rate  decimal.Decimal `json:"rate"`
	Base  decimal.Decimal `json:"base"`
	Quota decimal.Decimal `json:"quota"`
}

// Invoice is a row of invoices.
type Invoice struct {
	InvoiceID          string          `db:"invoice_id"`
	SeriesPrefix       string          `db:"series_prefix"`
	SeriesType         string          `db:"series_type"`
	FiscalYear         int             `db:"fiscal_year"`
	OwnerScope         string          `db:"owner_scope"`
	Number             *int64          `db:"number"`
	FiscalNumber       *string         `db:"fiscal_number"`
	Status             string          `db:"status"`
	IssuerTaxID        string          `db:"issuer_tax_id"`
	IssuerName         string          `db:"issuer_name"`
	RecipientTaxID     *string         `db:"recipient_tax_id"`
	RecipientName      *string         `db:"recipient_name"`
	IssueDate          time.Time       `db:"issue_date"`
	OperationDate      *time.Time      `db:"operation_date"`
	Description        string          `db:"description"`
	TaxLines           []TaxLine       `db:"tax_lines"`
	TotalTax           decimal.Decimal `db:"total_tax"`
	TotalAmount        decimal.Decimal `db:"total_amount"`
	RectifiedInvoiceID *string         `db:"rectified_invoice_id"`
	IsImmutable        bool            `db:"is_immutable"`
	ImmutableAt        *time.Time      `db:"immutable_at"`
	AuditFields
}
