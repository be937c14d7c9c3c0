package dto

import (
	"time"

	"github.com/SscSPs/invoice_registry/internal/core/domain"
	"github.com/samber/lo"
)

// CancelInvoiceRequest carries the reason for cancelling a registered invoice.
type CancelInvoiceRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// ListEntriesParams defines the query parameters for listing registry entries.
type ListEntriesParams struct {
	Scope     string `form:"scope" binding:"required,max=64"`
	Limit     int    `form:"limit" binding:"omitempty,min=1,max=500"`
	NextToken string `form:"nextToken"`
}

// VerifyChainParams selects the chain to verify.
type VerifyChainParams struct {
	Scope string `form:"scope" binding:"required,max=64"`
}

// RegistryEntryResponse defines the data returned for a registry entry.
type RegistryEntryResponse struct {
	EntryID                string     `json:"entryID"`
	ChainScope             string     `json:"chainScope"`
	RegistryNumber         int64      `json:"registryNumber"`
	Kind                   string     `json:"kind"`
	InvoiceID              string     `json:"invoiceID"`
	FiscalNumber           string     `json:"fiscalNumber"`
	ReferencedEntryID      *string    `json:"referencedEntryID,omitempty"`
	RegistryDate           time.Time  `json:"registryDate"`
	Hash                   string     `json:"hash"`
	PreviousHash           string     `json:"previousHash"`
	CanonicalPayload       string     `json:"canonicalPayload"`
	ChainVersion           string     `json:"chainVersion"`
	SubmissionStatus       string     `json:"submissionStatus"`
	SubmissionAttempts     int        `json:"submissionAttempts"`
	SubmittedAt            *time.Time `json:"submittedAt,omitempty"`
	LastAttemptAt          *time.Time `json:"lastAttemptAt,omitempty"`
	AuthorityReferenceCode *string    `json:"authorityReferenceCode,omitempty"`
	AuthorityError         *string    `json:"authorityError,omitempty"`
	RequiresReview         bool       `json:"requiresReview"`
	CreatedAt              time.Time  `json:"createdAt"`
	CreatedBy              string     `json:"createdBy"`
}

// ListEntriesResponse wraps a page of entries.
type ListEntriesResponse struct {
	Entries   []RegistryEntryResponse `json:"entries"`
	NextToken *string                 `json:"nextToken,omitempty"`
}

// VerificationResponse reports the integrity of a chain.
type VerificationResponse struct {
	ChainScope           string    `json:"chainScope"`
	OK                   bool      `json:"ok"`
	EntriesChecked       int       `json:"entriesChecked"`
	BrokenRegistryNumber int64     `json:"brokenRegistryNumber,omitempty"`
	Reason               string    `json:"reason,omitempty"`
	HeadHash             string    `json:"headHash"`
	VerifiedAt           time.Time `json:"verifiedAt"`
}

// ToRegistryEntryResponse converts a domain.RegistryEntry to RegistryEntryResponse DTO
func ToRegistryEntryResponse(e *domain.RegistryEntry) RegistryEntryResponse {
	return RegistryEntryResponse{
		EntryID:                e.EntryID,
		ChainScope:             e.ChainScope,
		RegistryNumber:         e.RegistryNumber,
		Kind:                   string(e.Kind),
		InvoiceID:              e.InvoiceID,
		FiscalNumber:           e.FiscalNumber,
		ReferencedEntryID:      e.ReferencedEntryID,
		RegistryDate:           e.RegistryDate,
		Hash:                   e.Hash,
		PreviousHash:           e.PreviousHash,
		CanonicalPayload:       string(e.CanonicalPayload),
		ChainVersion:           e.ChainVersion,
		SubmissionStatus:       string(e.Submission.Status),
		SubmissionAttempts:     e.Submission.Attempts,
		SubmittedAt:            e.Submission.SubmittedAt,
		LastAttemptAt:          e.Submission.LastAttemptAt,
		AuthorityReferenceCode: e.Submission.AuthorityReferenceCode,
		AuthorityError:         e.Submission.AuthorityError,
		RequiresReview:         e.Submission.RequiresReview,
		CreatedAt:              e.CreatedAt,
		CreatedBy:              e.CreatedBy,
	}
}

// ToListEntriesResponse converts a page of entries
func ToListEntriesResponse(entries []domain.RegistryEntry, nextToken *string) ListEntriesResponse {
	return ListEntriesResponse{
		Entries: lo.Map(entries, func(e domain.RegistryEntry, _ int) RegistryEntryResponse {
			return ToRegistryEntryResponse(&e)
		}),
		NextToken: nextToken,
	}
}

// ToVerificationResponse converts a domain.VerificationResult
func ToVerificationResponse(r *domain.VerificationResult) VerificationResponse {
	return VerificationResponse(*r)
}
