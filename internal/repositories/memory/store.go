// Package memory is an in-process storage driver with row locks and
// transactional rollback. It backs STORAGE_DRIVER=memory and the
// concurrency tests.
package memory

import (
	"context"
	"sync"

	"github.com/SscSPs/invoice_registry/internal/apperrors"
	"github.com/SscSPs/invoice_registry/internal/core/domain"
	portsrepo "github.com/SscSPs/invoice_registry/internal/core/ports/repositories"
)

type txKey struct{}

type tx struct {
	held map[string]*sync.Mutex
	undo []func()
}

// Store keeps every table in memory. mu guards the maps; row locks are held
// for the duration of a transaction and taken without holding mu.
type Store struct {
	mu       sync.Mutex
	rowLocks map[string]*sync.Mutex

	series   map[domain.SeriesKey]domain.SeriesCounter
	invoices map[string]domain.Invoice
	entries  map[string]domain.RegistryEntry
	byScope  map[string][]string // chain scope -> entry ids in registry order
	hashes   map[string]string   // hash -> entry id
	heads    map[string]domain.ChainHead
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		rowLocks: make(map[string]*sync.Mutex),
		series:   make(map[domain.SeriesKey]domain.SeriesCounter),
		invoices: make(map[string]domain.Invoice),
		entries:  make(map[string]domain.RegistryEntry),
		byScope:  make(map[string][]string),
		hashes:   make(map[string]string),
		heads:    make(map[string]domain.ChainHead),
	}
}

// NewRepositoryProvider wires every repository to one shared store.
func NewRepositoryProvider(store *Store) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		TxManager:    store,
		SeriesRepo:   &seriesRepository{store: store},
		InvoiceRepo:  &invoiceRepository{store: store},
		RegistryRepo: &registryRepository{store: store},
	}
}

var _ portsrepo.TransactionManager = (*Store)(nil)

func txFrom(ctx context.Context) *tx {
	t, _ := ctx.Value(txKey{}).(*tx)
	return t
}

// InTx reports whether ctx carries a transaction of this store.
func (s *Store) InTx(ctx context.Context) bool {
	return txFrom(ctx) != nil
}

// WithinTx runs fn in a transaction. On error or panic every write made
// through the transaction is undone before the row locks are released.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if s.InTx(ctx) {
		return fn(ctx)
	}

	t := &tx{held: make(map[string]*sync.Mutex)}
	committed := false
	defer func() {
		if !committed {
			s.mu.Lock()
			for i := len(t.undo) - 1; i >= 0; i-- {
				t.undo[i]()
			}
			s.mu.Unlock()
		}
		for _, m := range t.held {
			m.Unlock()
		}
	}()

	if err = fn(context.WithValue(ctx, txKey{}, t)); err != nil {
		return err
	}
	committed = true
	return nil
}

// lockRow blocks until the transaction in ctx holds the named row lock.
func (s *Store) lockRow(ctx context.Context, name string) error {
	t := txFrom(ctx)
	if t == nil {
		return apperrors.Newf(apperrors.ErrPersistence, "locking %s requires a transaction", name)
	}
	if _, ok := t.held[name]; ok {
		return nil
	}

	s.mu.Lock()
	m, ok := s.rowLocks[name]
	if !ok {
		m = &sync.Mutex{}
		s.rowLocks[name] = m
	}
	s.mu.Unlock()

	m.Lock()
	t.held[name] = m
	return nil
}

// recordUndo registers an undo step for the transaction in ctx. Callers hold mu.
func recordUndo(ctx context.Context, undo func()) {
	if t := txFrom(ctx); t != nil {
		t.undo = append(t.undo, undo)
	}
}
