package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/SscSPs/invoice_registry/internal/apperrors"
	"github.com/SscSPs/invoice_registry/internal/core/domain"
	portsrepo "github.com/SscSPs/invoice_registry/internal/core/ports/repositories"
)

type registryRepository struct {
	store *Store
}

var _ portsrepo.RegistryRepositoryFacade = (*registryRepository)(nil)

func (r *registryRepository) FindEntryByID(_ context.Context, entryID string) (*domain.RegistryEntry, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	e, ok := r.store.entries[entryID]
	if !ok {
		return nil, fmt.Errorf("registry entry %s: %w", entryID, apperrors.ErrNotFound)
	}
	out := e.Clone()
	return &out, nil
}

func (r *registryRepository) FindEntriesByInvoiceID(_ context.Context, invoiceID string) ([]domain.RegistryEntry, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := make([]domain.RegistryEntry, 0, 2)
	for _, e := range r.store.entries {
		if e.InvoiceID == invoiceID {
			out = append(out, e.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RegistryNumber < out[j].RegistryNumber })
	return out, nil
}

func (r *registryRepository) ListEntriesByScope(_ context.Context, scope string, afterNumber int64, limit int) ([]domain.RegistryEntry, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := make([]domain.RegistryEntry, 0)
	for _, id := range r.store.byScope[scope] {
		e := r.store.entries[id]
		if e.RegistryNumber <= afterNumber {
			continue
		}
		out = append(out, e.Clone())
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *registryRepository) ListEntriesForSubmission(_ context.Context, limit int) ([]domain.RegistryEntry, error) {
	return r.listWhere(limit, func(e domain.RegistryEntry) bool {
		return e.Submission.IsRetryable()
	}), nil
}

func (r *registryRepository) ListStaleSubmitted(_ context.Context, before time.Time, limit int) ([]domain.RegistryEntry, error) {
	return r.listWhere(limit, func(e domain.RegistryEntry) bool {
		s := e.Submission
		return s.Status == domain.SubmissionSubmitted && s.LastAttemptAt != nil && s.LastAttemptAt.Before(before)
	}), nil
}

// listWhere returns matching entries oldest first.
func (r *registryRepository) listWhere(limit int, match func(domain.RegistryEntry) bool) []domain.RegistryEntry {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := make([]domain.RegistryEntry, 0)
	for _, e := range r.store.entries {
		if match(e) {
			out = append(out, e.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		if out[i].ChainScope != out[j].ChainScope {
			return out[i].ChainScope < out[j].ChainScope
		}
		return out[i].RegistryNumber < out[j].RegistryNumber
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (r *registryRepository) FindChainHead(_ context.Context, scope string) (*domain.ChainHead, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	h, ok := r.store.heads[scope]
	if !ok {
		return nil, fmt.Errorf("chain head %s: %w", scope, apperrors.ErrNotFound)
	}
	return &h, nil
}

func (r *registryRepository) UpdateSubmission(ctx context.Context, entryID string, expected []domain.SubmissionStatus, state domain.SubmissionState) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	e, ok := r.store.entries[entryID]
	if !ok {
		return fmt.Errorf("registry entry %s: %w", entryID, apperrors.ErrNotFound)
	}
	if !slices.Contains(expected, e.Submission.Status) {
		return fmt.Errorf("entry %s is %s: %w", entryID, e.Submission.Status, apperrors.ErrSubmissionInFlight)
	}
	prev := e.Submission
	next := e
	next.Submission = state
	r.store.entries[entryID] = next.Clone()
	recordUndo(ctx, func() {
		cur := r.store.entries[entryID]
		cur.Submission = prev
		r.store.entries[entryID] = cur
	})
	return nil
}

func (r *registryRepository) LockChainHead(ctx context.Context, scope string, now time.Time) (*domain.ChainHead, error) {
	if err := r.store.lockRow(ctx, "chain:"+scope); err != nil {
		return nil, err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	h, ok := r.store.heads[scope]
	if !ok {
		h = domain.NewChainHead(scope, now)
		r.store.heads[scope] = h
		recordUndo(ctx, func() { delete(r.store.heads, scope) })
	}
	return &h, nil
}

func (r *registryRepository) AppendEntry(ctx context.Context, entry domain.RegistryEntry) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.entries[entry.EntryID]; ok {
		return fmt.Errorf("registry entry %s: %w", entry.EntryID, apperrors.ErrEntryImmutable)
	}
	head, ok := r.store.heads[entry.ChainScope]
	if !ok {
		head = domain.NewChainHead(entry.ChainScope, entry.CreatedAt)
	}
	if head.LastHash != entry.PreviousHash || head.LastRegistryNumber+1 != entry.RegistryNumber {
		return fmt.Errorf("chain %s moved to %d: %w", entry.ChainScope, head.LastRegistryNumber, apperrors.ErrConcurrentTailConflict)
	}
	if _, dup := r.store.hashes[entry.Hash]; dup {
		return fmt.Errorf("hash %s: %w", entry.Hash, apperrors.ErrConcurrentTailConflict)
	}
	for _, e := range r.store.entries {
		if e.InvoiceID == entry.InvoiceID && e.Kind == entry.Kind {
			if entry.Kind == domain.EntryRegistration {
				return fmt.Errorf("invoice %s: %w", entry.InvoiceID, apperrors.ErrAlreadyRegistered)
			}
			return fmt.Errorf("%s of invoice %s: %w", entry.Kind, entry.InvoiceID, apperrors.ErrDuplicate)
		}
	}

	prevHead, hadHead := r.store.heads[entry.ChainScope]
	r.store.entries[entry.EntryID] = entry.Clone()
	r.store.byScope[entry.ChainScope] = append(r.store.byScope[entry.ChainScope], entry.EntryID)
	r.store.hashes[entry.Hash] = entry.EntryID
	r.store.heads[entry.ChainScope] = domain.ChainHead{
		ChainScope:         entry.ChainScope,
		LastRegistryNumber: entry.RegistryNumber,
		LastHash:           entry.Hash,
		UpdatedAt:          entry.CreatedAt,
	}

	recordUndo(ctx, func() {
		delete(r.store.entries, entry.EntryID)
		delete(r.store.hashes, entry.Hash)
		ids := r.store.byScope[entry.ChainScope]
		r.store.byScope[entry.ChainScope] = ids[:len(ids)-1]
		if hadHead {
			r.store.heads[entry.ChainScope] = prevHead
		} else {
			delete(r.store.heads, entry.ChainScope)
		}
	})
	return nil
}
