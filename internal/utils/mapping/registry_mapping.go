package mapping

import (
	"github.com/SscSPs/invoice_registry/internal/core/domain"
	"github.com/SscSPs/invoice_registry/internal/models"
)

// ToModelRegistryEntry converts a domain RegistryEntry to a model RegistryEntry
func ToModelRegistryEntry(d domain.RegistryEntry) models.RegistryEntry {
	return models.RegistryEntry{
		EntryID:                d.EntryID,
		ChainScope:             d.ChainScope,
		RegistryNumber:         d.RegistryNumber,
		Kind:                   string(d.Kind),
		InvoiceID:              d.InvoiceID,
		FiscalNumber:           d.FiscalNumber,
		ReferencedEntryID:      d.ReferencedEntryID,
		RegistryDate:           d.RegistryDate,
		Hash:                   d.Hash,
		PreviousHash:           d.PreviousHash,
		CanonicalPayload:       d.CanonicalPayload,
		ChainVersion:           d.ChainVersion,
		SubmissionStatus:       string(d.Submission.Status),
		SubmissionAttempts:     d.Submission.Attempts,
		SubmittedAt:            d.Submission.SubmittedAt,
		LastAttemptAt:          d.Submission.LastAttemptAt,
		AuthorityReferenceCode: d.Submission.AuthorityReferenceCode,
		AuthorityResponse:      d.Submission.AuthorityResponse,
		AuthorityError:         d.Submission.AuthorityError,
		RequiresReview:         d.Submission.RequiresReview,
		CreatedAt:              d.CreatedAt,
		CreatedBy:              d.CreatedBy,
	}
}

// ToDomainRegistryEntry converts a model RegistryEntry to a domain RegistryEntry
func ToDomainRegistryEntry(m models.RegistryEntry) domain.RegistryEntry {
	return domain.RegistryEntry{
		EntryID:           m.EntryID,
		ChainScope:        m.ChainScope,
		RegistryNumber:    m.RegistryNumber,
		Kind:              domain.EntryKind(m.Kind),
		InvoiceID:         m.InvoiceID,
		FiscalNumber:      m.FiscalNumber,
		ReferencedEntryID: m.ReferencedEntryID,
		RegistryDate:      m.RegistryDate,
		Hash:              m.Hash,
		PreviousHash:      m.PreviousHash,
		CanonicalPayload:  m.CanonicalPayload,
		ChainVersion:      m.ChainVersion,
		Submission: domain.SubmissionState{
			Status:                 domain.SubmissionStatus(m.SubmissionStatus),
			Attempts:               m.SubmissionAttempts,
			SubmittedAt:            m.SubmittedAt,
			LastAttemptAt:          m.LastAttemptAt,
			AuthorityReferenceCode: m.AuthorityReferenceCode,
			AuthorityResponse:      m.AuthorityResponse,
			AuthorityError:         m.AuthorityError,
			RequiresReview:         m.RequiresReview,
		},
		CreatedAt: m.CreatedAt,
		CreatedBy: m.CreatedBy,
	}
}

// ToDomainRegistryEntrySlice converts a slice of model entries to domain entries
func ToDomainRegistryEntrySlice(ms []models.RegistryEntry) []domain.RegistryEntry {
	ds := make([]domain.RegistryEntry, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainRegistryEntry(m)
	}
	return ds
}

// ToDomainChainHead converts a model ChainHead to a domain ChainHead
func ToDomainChainHead(m models.ChainHead) domain.ChainHead {
	return domain.ChainHead{
		ChainScope:         m.ChainScope,
		LastRegistryNumber: m.LastRegistryNumber,
		LastHash:           m.LastHash,
		UpdatedAt:          m.UpdatedAt,
	}
}
