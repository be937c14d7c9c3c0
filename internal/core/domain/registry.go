package domain

import (
	"time"

	"github.com/SscSPs/invoice_registry/internal/utils/chainhash"
)

// EntryKind distinguishes registrations from cancellations.
type EntryKind string

const (
	EntryRegistration EntryKind = "REGISTRATION"
	EntryCancellation EntryKind = "CANCELLATION"
)

// RegistryEntry is one append-only record of the fiscal chain. Everything but
// Submission is fixed at creation.
type RegistryEntry struct {
	EntryID           string          `json:"entryID"`
	ChainScope        string          `json:"chainScope"`
	RegistryNumber    int64           `json:"registryNumber"`
	Kind              EntryKind       `json:"kind"`
	InvoiceID         string          `json:"invoiceID"`
	FiscalNumber      string          `json:"fiscalNumber"`
	ReferencedEntryID *string         `json:"referencedEntryID,omitempty"`
	RegistryDate      time.Time       `json:"registryDate"`
	Hash              string          `json:"hash"`
	PreviousHash      string          `json:"previousHash"`
	CanonicalPayload  []byte          `json:"canonicalPayload"`
	ChainVersion      string          `json:"chainVersion"`
	Submission        SubmissionState `json:"submission"`
	CreatedAt         time.Time       `json:"createdAt"`
	CreatedBy         string          `json:"createdBy"`
}

// Link returns the part of the entry used for chain verification.
func (e RegistryEntry) Link() chainhash.Link {
	return chainhash.Link{
		RegistryNumber: e.RegistryNumber,
		PreviousHash:   e.PreviousHash,
		Hash:           e.Hash,
		Payload:        e.CanonicalPayload,
	}
}

// Clone returns a deep copy.
func (e RegistryEntry) Clone() RegistryEntry {
	out := e
	out.CanonicalPayload = append([]byte(nil), e.CanonicalPayload...)
	if e.ReferencedEntryID != nil {
		ref := *e.ReferencedEntryID
		out.ReferencedEntryID = &ref
	}
	out.Submission = e.Submission.clone()
	return out
}

func (s SubmissionState) clone() SubmissionState {
	out := s
	out.SubmittedAt = clonePtr(s.SubmittedAt)
	out.LastAttemptAt = clonePtr(s.LastAttemptAt)
	out.AuthorityReferenceCode = clonePtr(s.AuthorityReferenceCode)
	out.AuthorityResponse = clonePtr(s.AuthorityResponse)
	out.AuthorityError = clonePtr(s.AuthorityError)
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// ChainHead is the tail pointer of one chain scope.
type ChainHead struct {
	ChainScope         string    `json:"chainScope"`
	LastRegistryNumber int64     `json:"lastRegistryNumber"`
	LastHash           string    `json:"lastHash"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// NewChainHead is the head of an empty chain.
func NewChainHead(scope string, at time.Time) ChainHead {
	return ChainHead{ChainScope: scope, LastHash: chainhash.GenesisHash, UpdatedAt: at}
}

// VerificationResult reports the integrity of one chain scope.
type VerificationResult struct {
	ChainScope           string    `json:"chainScope"`
	OK                   bool      `json:"ok"`
	EntriesChecked       int       `json:"entriesChecked"`
	BrokenRegistryNumber int64     `json:"brokenRegistryNumber,omitempty"`
	Reason               string    `json:"reason,omitempty"`
	HeadHash             string    `json:"headHash"`
	VerifiedAt           time.Time `json:"verifiedAt"`
}
