package dto

import (
	"time"

	"github.com/SscSPs/invoice_registry/internal/core/domain"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// TaxLineRequest is one VAT line of an invoice request.
type TaxLineRequest struct {
	Rate  decimal.Decimal `json:"rate" binding:"cents" swaggertype:"string" example:"21.00"`
	Base  decimal.Decimal `json:"base" binding:"cents" swaggertype:"string" example:"100.00"`
	Quota decimal.Decimal `json:"quota" binding:"cents" swaggertype:"string" example:"21.00"`
}

// InvoiceFieldsRequest carries the fiscal fields shared by create and update.
type InvoiceFieldsRequest struct {
	IssuerName     string           `json:"issuerName" binding:"required,max=120"`
	RecipientTaxID string           `json:"recipientTaxId" binding:"omitempty,taxid"`
	RecipientName  string           `json:"recipientName" binding:"max=120"`
	IssueDate      time.Time        `json:"issueDate" binding:"required"`
	OperationDate  *time.Time       `json:"operationDate"`
	Description    string           `json:"description" binding:"max=500"`
	TaxLines       []TaxLineRequest `json:"taxLines" binding:"dive"`
	TotalTax       decimal.Decimal  `json:"totalTax" binding:"cents" swaggertype:"string" example:"21.00"`
	TotalAmount    decimal.Decimal  `json:"totalAmount" binding:"cents" swaggertype:"string" example:"121.00"`
}

// CreateInvoiceRequest defines the data needed to create a draft invoice.
type CreateInvoiceRequest struct {
	Prefix             string            `json:"prefix" binding:"required,max=20"`
	SeriesType         domain.SeriesType `json:"seriesType" binding:"required,oneof=INVOICE SIMPLIFIED RECTIFICATIVE PROFORMA"`
	OwnerScope         string            `json:"ownerScope" binding:"omitempty,max=64"`
	IssuerTaxID        string            `json:"issuerTaxId" binding:"required,taxid"`
	RectifiedInvoiceID *string           `json:"rectifiedInvoiceID" binding:"omitempty,uuid"`
	InvoiceFieldsRequest
}

// UpdateInvoiceRequest replaces the fiscal fields of a draft.
type UpdateInvoiceRequest struct {
	InvoiceFieldsRequest
}

// ToFiscalFields converts the request into domain fields.
func (r InvoiceFieldsRequest) ToFiscalFields() domain.FiscalFields {
	return domain.FiscalFields{
		IssuerName:     r.IssuerName,
		RecipientTaxID: r.RecipientTaxID,
		RecipientName:  r.RecipientName,
		IssueDate:      r.IssueDate,
		OperationDate:  r.OperationDate,
		Description:    r.Description,
		TaxLines: lo.Map(r.TaxLines, func(l TaxLineRequest, _ int) domain.TaxLine {
			return domain.TaxLine{Rate: l.Rate, Base: l.Base, Quota: l.Quota}
		}),
		TotalTax:    r.TotalTax,
		TotalAmount: r.TotalAmount,
	}
}

// InvoiceResponse defines the data returned for an invoice.
type InvoiceResponse struct {
	InvoiceID          string           `json:"invoiceID"`
	Prefix             string           `json:"prefix"`
	SeriesType         string           `json:"seriesType"`
	FiscalYear         int              `json:"fiscalYear"`
	OwnerScope         string           `json:"ownerScope"`
	Number             int64            `json:"number,omitempty"`
	FiscalNumber       string           `json:"fiscalNumber,omitempty"`
	Status             string           `json:"status"`
	IssuerTaxID        string           `json:"issuerTaxId"`
	IssuerName         string           `json:"issuerName"`
	RecipientTaxID     string           `json:"recipientTaxId,omitempty"`
	RecipientName      string           `json:"recipientName,omitempty"`
	IssueDate          time.Time        `json:"issueDate"`
	OperationDate      *time.Time       `json:"operationDate,omitempty"`
	Description        string           `json:"description,omitempty"`
	TaxLines           []TaxLineRequest `json:"taxLines"`
	TotalTax           string           `json:"totalTax"`
	TotalAmount        string           `json:"totalAmount"`
	RectifiedInvoiceID *string          `json:"rectifiedInvoiceID,omitempty"`
	IsImmutable        bool             `json:"isImmutable"`
	ImmutableAt        *time.Time       `json:"immutableAt,omitempty"`
	CreatedAt          time.Time        `json:"createdAt"`
	CreatedBy          string           `json:"createdBy"`
	LastUpdatedAt      time.Time        `json:"lastUpdatedAt"`
	LastUpdatedBy      string           `json:"lastUpdatedBy"`
}

// FinalizeInvoiceResponse is returned when an invoice is issued and registered.
type FinalizeInvoiceResponse struct {
	Invoice InvoiceResponse       `json:"invoice"`
	Entry   RegistryEntryResponse `json:"entry"`
}

// ToInvoiceResponse converts a domain.Invoice to InvoiceResponse DTO
func ToInvoiceResponse(inv *domain.Invoice) InvoiceResponse {
	return InvoiceResponse{
		InvoiceID:      inv.InvoiceID,
		Prefix:         inv.Series.Prefix,
		SeriesType:     string(inv.Series.SeriesType),
		FiscalYear:     inv.Series.FiscalYear,
		OwnerScope:     inv.Series.OwnerScope,
		Number:         inv.Number,
		FiscalNumber:   inv.FiscalNumber,
		Status:         string(inv.Status),
		IssuerTaxID:    inv.IssuerTaxID,
		IssuerName:     inv.IssuerName,
		RecipientTaxID: inv.RecipientTaxID,
		RecipientName:  inv.RecipientName,
		IssueDate:      inv.IssueDate,
		OperationDate:  inv.OperationDate,
		Description:    inv.Description,
		TaxLines: lo.Map(inv.TaxLines, func(l domain.TaxLine, _ int) TaxLineRequest {
			return TaxLineRequest{Rate: l.Rate, Base: l.Base, Quota: l.Quota}
		}),
		TotalTax:           inv.TotalTax.StringFixed(2),
		TotalAmount:        inv.TotalAmount.StringFixed(2),
		RectifiedInvoiceID: inv.RectifiedInvoiceID,
		IsImmutable:        inv.IsImmutable,
		ImmutableAt:        inv.ImmutableAt,
		CreatedAt:          inv.CreatedAt,
		CreatedBy:          inv.CreatedBy,
		LastUpdatedAt:      inv.LastUpdatedAt,
		LastUpdatedBy:      inv.LastUpdatedBy,
	}
}
