package mapping

import (
	"github.com/SscSPs/invoice_registry/internal/core/domain"
	"github.com/SscSPs/invoice_registry/internal/models"
	"github.com/samber/lo"
)

// ToModelInvoice converts a domain Invoice to a model Invoice
func ToModelInvoice(d domain.Invoice) models.Invoice {
	m := models.Invoice{
		InvoiceID:          d.InvoiceID,
		SeriesPrefix:       d.Series.Prefix,
		SeriesType:         string(d.Series.SeriesType),
		FiscalYear:         d.Series.FiscalYear,
		OwnerScope:         d.Series.OwnerScope,
		FiscalNumber:       optionalString(d.FiscalNumber),
		Status:             string(d.Status),
		IssuerTaxID:        d.IssuerTaxID,
		IssuerName:         d.IssuerName,
		RecipientTaxID:     optionalString(d.RecipientTaxID),
		RecipientName:      optionalString(d.RecipientName),
		IssueDate:          d.IssueDate,
		OperationDate:      d.OperationDate,
		Description:        d.Description,
		TotalTax:           d.TotalTax,
		TotalAmount:        d.TotalAmount,
		RectifiedInvoiceID: d.RectifiedInvoiceID,
		IsImmutable:        d.IsImmutable,
		ImmutableAt:        d.ImmutableAt,
		AuditFields:        ToModelAuditFields(d.AuditFields),
		TaxLines: lo.Map(d.TaxLines, func(l domain.TaxLine, _ int) models.TaxLine {
			return models.TaxLine{Rate: l.Rate, Base: l.Base, Quota: l.Quota}
		}),
	}
	if d.HasNumber() {
		n := d.Number
		m.Number = &n
	}
	return m
}

// ToDomainInvoice converts a model Invoice to a domain Invoice
func ToDomainInvoice(m models.Invoice) domain.Invoice {
	return domain.Invoice{
		InvoiceID: m.InvoiceID,
		Series: domain.SeriesKey{
			Prefix:     m.SeriesPrefix,
			SeriesType: domain.SeriesType(m.SeriesType),
			FiscalYear: m.FiscalYear,
			OwnerScope: m.OwnerScope,
		},
		Number:             lo.FromPtr(m.Number),
		FiscalNumber:       derefString(m.FiscalNumber),
		Status:             domain.InvoiceStatus(m.Status),
		IssuerTaxID:        m.IssuerTaxID,
		RectifiedInvoiceID: m.RectifiedInvoiceID,
		IsImmutable:        m.IsImmutable,
		ImmutableAt:        m.ImmutableAt,
		FiscalFields: domain.FiscalFields{
			IssuerName:     m.IssuerName,
			RecipientTaxID: derefString(m.RecipientTaxID),
			RecipientName:  derefString(m.RecipientName),
			IssueDate:      m.IssueDate,
			OperationDate:  m.OperationDate,
			Description:    m.Description,
			TaxLines: lo.Map(m.TaxLines, func(l models.TaxLine, _ int) domain.TaxLine {
				return domain.TaxLine{Rate: l.Rate, Base: l.Base, Quota: l.Quota}
			}),
			TotalTax:    m.TotalTax,
			TotalAmount: m.TotalAmount,
		},
		AuditFields: ToDomainAuditFields(m.AuditFields),
	}
}
