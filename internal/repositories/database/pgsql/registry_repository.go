package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/SscSPs/invoice_registry/internal/apperrors"
	"github.com/SscSPs/invoice_registry/internal/core/domain"
	portsrepo "github.com/SscSPs/invoice_registry/internal/core/ports/repositories"
	"github.com/SscSPs/invoice_registry/internal/models"
	"github.com/SscSPs/invoice_registry/internal/utils/chainhash"
	"github.com/SscSPs/invoice_registry/internal/utils/mapping"
	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/lo"
)

const entryColumns = `entry_id, chain_scope, registry_number, kind, invoice_id, fiscal_number,
	referenced_entry_id, registry_date, hash, previous_hash, canonical_payload, chain_version,
	submission_status, submission_attempts, submitted_at, last_attempt_at,
	authority_reference_code, authority_response, authority_error, requires_review,
	created_at, created_by`

type PgxRegistryRepository struct {
	BaseRepository
}

// newPgxRegistryRepository creates a new repository for the registry chain.
func newPgxRegistryRepository(pool *pgxpool.Pool) portsrepo.RegistryRepositoryFacade {
	return &PgxRegistryRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

var _ portsrepo.RegistryRepositoryFacade = (*PgxRegistryRepository)(nil)

func scanEntry(row pgx.Row) (models.RegistryEntry, error) {
	var m models.RegistryEntry
	err := row.Scan(
		&m.EntryID,
		&m.ChainScope,
		&m.RegistryNumber,
		&m.Kind,
		&m.InvoiceID,
		&m.FiscalNumber,
		&m.ReferencedEntryID,
		&m.RegistryDate,
		&m.Hash,
		&m.PreviousHash,
		&m.CanonicalPayload,
		&m.ChainVersion,
		&m.SubmissionStatus,
		&m.SubmissionAttempts,
		&m.SubmittedAt,
		&m.LastAttemptAt,
		&m.AuthorityReferenceCode,
		&m.AuthorityResponse,
		&m.AuthorityError,
		&m.RequiresReview,
		&m.CreatedAt,
		&m.CreatedBy,
	)
	return m, err
}

func (r *PgxRegistryRepository) listEntries(ctx context.Context, op string, query string, args ...any) ([]domain.RegistryEntry, error) {
	rows, err := r.querier(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, mapPgError(err, op)
	}
	defer rows.Close()

	ms, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.RegistryEntry, error) {
		return scanEntry(row)
	})
	if err != nil {
		return nil, mapPgError(err, op)
	}
	return mapping.ToDomainRegistryEntrySlice(ms), nil
}

// FindEntryByID retrieves a registry entry by its ID.
func (r *PgxRegistryRepository) FindEntryByID(ctx context.Context, entryID string) (*domain.RegistryEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM registry_entries WHERE entry_id = $1;`
	m, err := scanEntry(r.querier(ctx).QueryRow(ctx, query, entryID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("registry entry %s: %w", entryID, apperrors.ErrNotFound)
		}
		return nil, mapPgError(err, "find registry entry "+entryID)
	}
	e := mapping.ToDomainRegistryEntry(m)
	return &e, nil
}

// FindEntriesByInvoiceID lists the entries of an invoice in registry order.
func (r *PgxRegistryRepository) FindEntriesByInvoiceID(ctx context.Context, invoiceID string) ([]domain.RegistryEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM registry_entries
		WHERE invoice_id = $1
		ORDER BY registry_number;`
	return r.listEntries(ctx, "list entries of invoice "+invoiceID, query, invoiceID)
}

// ListEntriesByScope lists a page of a chain in registry order.
func (r *PgxRegistryRepository) ListEntriesByScope(ctx context.Context, scope string, afterNumber int64, limit int) ([]domain.RegistryEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM registry_entries
		WHERE chain_scope = $1 AND registry_number > $2
		ORDER BY registry_number
		LIMIT $3;`
	return r.listEntries(ctx, "list entries of chain "+scope, query, scope, afterNumber, limit)
}

// ListEntriesForSubmission lists undelivered entries, oldest first.
func (r *PgxRegistryRepository) ListEntriesForSubmission(ctx context.Context, limit int) ([]domain.RegistryEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM registry_entries
		WHERE submission_status IN ('PENDING', 'ERROR') AND NOT requires_review
		ORDER BY created_at, chain_scope, registry_number
		LIMIT $1;`
	return r.listEntries(ctx, "list entries for submission", query, limit)
}

// ListStaleSubmitted lists entries stuck in SUBMITTED since before the cutoff.
func (r *PgxRegistryRepository) ListStaleSubmitted(ctx context.Context, before time.Time, limit int) ([]domain.RegistryEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM registry_entries
		WHERE submission_status = 'SUBMITTED' AND last_attempt_at < $1
		ORDER BY last_attempt_at
		LIMIT $2;`
	return r.listEntries(ctx, "list stale submissions", query, before, limit)
}

// FindChainHead retrieves the tail pointer of a chain.
func (r *PgxRegistryRepository) FindChainHead(ctx context.Context, scope string) (*domain.ChainHead, error) {
	return r.findHead(ctx, `SELECT chain_scope, last_registry_number, last_hash, updated_at
		FROM chain_heads WHERE chain_scope = $1;`, scope)
}

func (r *PgxRegistryRepository) findHead(ctx context.Context, query string, scope string) (*domain.ChainHead, error) {
	var m models.ChainHead
	err := r.querier(ctx).QueryRow(ctx, query, scope).Scan(&m.ChainScope, &m.LastRegistryNumber, &m.LastHash, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("chain head %s: %w", scope, apperrors.ErrNotFound)
		}
		return nil, mapPgError(err, "find chain head "+scope)
	}
	h := mapping.ToDomainChainHead(m)
	return &h, nil
}

// LockChainHead creates the head on first use and locks it until the transaction ends.
func (r *PgxRegistryRepository) LockChainHead(ctx context.Context, scope string, now time.Time) (*domain.ChainHead, error) {
	tx, err := r.requireTx(ctx, "lock chain head")
	if err != nil {
		return nil, err
	}
	_, err = tx.Exec(ctx, `INSERT INTO chain_heads (chain_scope, last_registry_number, last_hash, updated_at)
		VALUES ($1, 0, $2, $3)
		ON CONFLICT (chain_scope) DO NOTHING;`, scope, chainhash.GenesisHash, now)
	if err != nil {
		return nil, mapPgError(err, "create chain head "+scope)
	}
	return r.findHead(ctx, `SELECT chain_scope, last_registry_number, last_hash, updated_at
		FROM chain_heads WHERE chain_scope = $1
		FOR UPDATE;`, scope)
}

// AppendEntry moves the chain head to the entry and inserts it. The head only
// moves if it still points at the entry's predecessor.
func (r *PgxRegistryRepository) AppendEntry(ctx context.Context, entry domain.RegistryEntry) error {
	tx, err := r.requireTx(ctx, "append registry entry")
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `UPDATE chain_heads
		SET last_registry_number = $2, last_hash = $3, updated_at = $4
		WHERE chain_scope = $1 AND last_hash = $5 AND last_registry_number = $6;`,
		entry.ChainScope, entry.RegistryNumber, entry.Hash, entry.CreatedAt, entry.PreviousHash, entry.RegistryNumber-1)
	if err != nil {
		return mapPgError(err, "move chain head "+entry.ChainScope)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("chain %s no longer ends at %s: %w", entry.ChainScope, entry.PreviousHash, apperrors.ErrConcurrentTailConflict)
	}

	m := mapping.ToModelRegistryEntry(entry)
	query := `INSERT INTO registry_entries (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22);`
	_, err = tx.Exec(ctx, query,
		m.EntryID,
		m.ChainScope,
		m.RegistryNumber,
		m.Kind,
		m.InvoiceID,
		m.FiscalNumber,
		m.ReferencedEntryID,
		m.RegistryDate,
		m.Hash,
		m.PreviousHash,
		m.CanonicalPayload,
		m.ChainVersion,
		m.SubmissionStatus,
		m.SubmissionAttempts,
		m.SubmittedAt,
		m.LastAttemptAt,
		m.AuthorityReferenceCode,
		m.AuthorityResponse,
		m.AuthorityError,
		m.RequiresReview,
		m.CreatedAt,
		m.CreatedBy,
	)
	if err != nil {
		return mapPgError(err, "insert registry entry "+entry.EntryID)
	}
	return nil
}

// UpdateSubmission writes the submission columns if the stored status is one of expected.
func (r *PgxRegistryRepository) UpdateSubmission(ctx context.Context, entryID string, expected []domain.SubmissionStatus, state domain.SubmissionState) error {
	statuses := lo.Map(expected, func(s domain.SubmissionStatus, _ int) string { return string(s) })
	tag, err := r.querier(ctx).Exec(ctx, `UPDATE registry_entries SET
			submission_status = $2, submission_attempts = $3, submitted_at = $4, last_attempt_at = $5,
			authority_reference_code = $6, authority_response = $7, authority_error = $8, requires_review = $9
		WHERE entry_id = $1 AND submission_status = ANY($10);`,
		entryID,
		string(state.Status),
		state.Attempts,
		state.SubmittedAt,
		state.LastAttemptAt,
		state.AuthorityReferenceCode,
		state.AuthorityResponse,
		state.AuthorityError,
		state.RequiresReview,
		statuses,
	)
	if err != nil {
		return mapPgError(err, "update submission of "+entryID)
	}
	if tag.RowsAffected() == 0 {
		current, findErr := r.FindEntryByID(ctx, entryID)
		if findErr != nil {
			return findErr
		}
		return fmt.Errorf("entry %s is %s: %w", entryID, current.Submission.Status, apperrors.ErrSubmissionInFlight)
	}
	return nil
}
