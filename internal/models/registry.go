package models

import "time"

// RegistryEntry is a row of registry_entries.
type RegistryEntry struct {
	EntryID                string     `db:"entry_id"`
	ChainScope             string     `db:"chain_scope"`
	RegistryNumber         int64      `db:"registry_number"`
	Kind                   string     `db:"kind"`
	InvoiceID              string     `db:"invoice_id"`
	FiscalNumber           string     `db:"fiscal_number"`
	ReferencedEntryID      *string    `db:"referenced_entry_id"`
	RegistryDate           time.Time  `db:"registry_date"`
	Hash                   string     `db:"hash"`
	PreviousHash           string     `db:"previous_hash"`
	CanonicalPayload       []byte     `db:"canonical_payload"`
	ChainVersion           string     `db:"chain_version"`
	SubmissionStatus       string     `db:"submission_status"`
	SubmissionAttempts     int        `db:"submission_attempts"`
	SubmittedAt            *time.Time `db:"submitted_at"`
	LastAttemptAt          *time.Time `db:"last_attempt_at"`
	AuthorityReferenceCode *string    `db:"authority_reference_code"`
	AuthorityResponse      *string    `db:"authority_response"`
	AuthorityError         *string    `db:"authority_error"`
	RequiresReview         bool       `db:"requires_review"`
	CreatedAt              time.Time  `db:"created_at"`
	CreatedBy              string     `db:"created_by"`
}

// ChainHead is a row of chain_heads.
type ChainHead struct {
	ChainScope         string    `db:"chain_scope"`
	LastRegistryNumber int64     `db:"last_registry_number"`
	LastHash           string    `db:"last_hash"`
	UpdatedAt          time.Time `db:"updated_at"`
}
