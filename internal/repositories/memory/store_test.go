package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/SscSPs/invoice_registry/internal/apperrors"
	"github.com/SscSPs/invoice_registry/internal/core/domain"
	"github.com/SscSPs/invoice_registry/internal/utils/chainhash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testKey = domain.SeriesKey{Prefix: "F", SeriesType: domain.SeriesInvoice, FiscalYear: 2025}
	t0      = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
)

func newCounter(t *testing.T) domain.SeriesCounter {
	t.Helper()
	c, err := domain.NewSeriesCounter(testKey, 1, "", true, "tester", t0)
	require.NoError(t, err)
	return c
}

func entryAfter(head domain.ChainHead, id, invoiceID string) domain.RegistryEntry {
	payload := []byte("kind=REGISTRATION&invoice=" + invoiceID)
	return domain.RegistryEntry{
		EntryID:          id,
		ChainScope:       head.ChainScope,
		RegistryNumber:   head.LastRegistryNumber + 1,
		Kind:             domain.EntryRegistration,
		InvoiceID:        invoiceID,
		PreviousHash:     head.LastHash,
		CanonicalPayload: payload,
		Hash:             chainhash.Compute(head.LastHash, payload),
		ChainVersion:     chainhash.Version1,
		Submission:       domain.NewSubmissionState(),
		CreatedAt:        t0,
	}
}

func TestWithinTx_RollsBackOnError(t *testing.T) {
	store := NewStore()
	repos := NewRepositoryProvider(store)
	ctx := context.Background()
	require.NoError(t, repos.SeriesRepo.CreateSeries(ctx, newCounter(t)))

	boom := errors.New("boom")
	err := store.WithinTx(ctx, func(txCtx context.Context) error {
		require.NoError(t, repos.InvoiceRepo.SaveInvoice(txCtx, domain.Invoice{InvoiceID: "inv-1", Series: testKey}))
		_, err := repos.SeriesRepo.FindSeriesForUpdate(txCtx, testKey)
		require.NoError(t, err)
		require.NoError(t, repos.SeriesRepo.AdvanceSeries(txCtx, testKey, 1, t0))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = repos.InvoiceRepo.FindInvoiceByID(ctx, "inv-1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	counter, err := repos.SeriesRepo.FindSeries(ctx, testKey)
	require.NoError(t, err)
	assert.Equal(t, int64(0), counter.LastNumber)
}

func TestWithinTx_RollsBackOnPanic(t *testing.T) {
	store := NewStore()
	repos := NewRepositoryProvider(store)
	ctx := context.Background()
	require.NoError(t, repos.SeriesRepo.CreateSeries(ctx, newCounter(t)))

	assert.Panics(t, func() {
		_ = store.WithinTx(ctx, func(txCtx context.Context) error {
			require.NoError(t, repos.InvoiceRepo.SaveInvoice(txCtx, domain.Invoice{InvoiceID: "inv-1", Series: testKey}))
			panic("handler bug")
		})
	})

	_, err := repos.InvoiceRepo.FindInvoiceByID(ctx, "inv-1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	// the row lock was released on the way out
	done := make(chan struct{})
	go func() {
		_ = store.WithinTx(ctx, func(txCtx context.Context) error {
			_, err := repos.RegistryRepo.LockChainHead(txCtx, "B12345674", t0)
			return err
		})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("lock was not released")
	}
}

func TestWithinTx_NestedCallJoinsOuter(t *testing.T) {
	store := NewStore()
	repos := NewRepositoryProvider(store)
	ctx := context.Background()
	require.NoError(t, repos.SeriesRepo.CreateSeries(ctx, newCounter(t)))

	err := store.WithinTx(ctx, func(outer context.Context) error {
		require.NoError(t, store.WithinTx(outer, func(inner context.Context) error {
			return repos.InvoiceRepo.SaveInvoice(inner, domain.Invoice{InvoiceID: "inv-1", Series: testKey})
		}))
		return errors.New("outer fails")
	})
	require.Error(t, err)

	_, err = repos.InvoiceRepo.FindInvoiceByID(ctx, "inv-1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound, "inner write must roll back with the outer transaction")
}

func TestLockRow_RequiresTransaction(t *testing.T) {
	repos := NewRepositoryProvider(NewStore())
	_, err := repos.SeriesRepo.FindSeriesForUpdate(context.Background(), testKey)
	assert.ErrorIs(t, err, apperrors.ErrPersistence)
}

func TestFindSeriesForUpdate_SerializesAdvances(t *testing.T) {
	store := NewStore()
	repos := NewRepositoryProvider(store)
	ctx := context.Background()
	require.NoError(t, repos.SeriesRepo.CreateSeries(ctx, newCounter(t)))

	const workers = 50
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			err := store.WithinTx(ctx, func(txCtx context.Context) error {
				c, err := repos.SeriesRepo.FindSeriesForUpdate(txCtx, testKey)
				if err != nil {
					return err
				}
				return repos.SeriesRepo.AdvanceSeries(txCtx, testKey, c.LastNumber+1, t0)
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	counter, err := repos.SeriesRepo.FindSeries(ctx, testKey)
	require.NoError(t, err)
	assert.Equal(t, int64(workers), counter.LastNumber)
}

func TestAdvanceSeries_RejectsNonIncreasingNumber(t *testing.T) {
	store := NewStore()
	repos := NewRepositoryProvider(store)
	ctx := context.Background()
	require.NoError(t, repos.SeriesRepo.CreateSeries(ctx, newCounter(t)))

	err := store.WithinTx(ctx, func(txCtx context.Context) error {
		if _, err := repos.SeriesRepo.FindSeriesForUpdate(txCtx, testKey); err != nil {
			return err
		}
		return repos.SeriesRepo.AdvanceSeries(txCtx, testKey, 0, t0)
	})
	assert.ErrorIs(t, err, apperrors.ErrPersistence)
}

func TestSetSeriesActive_WaitsForAllocation(t *testing.T) {
	store := NewStore()
	repos := NewRepositoryProvider(store)
	ctx := context.Background()
	require.NoError(t, repos.SeriesRepo.CreateSeries(ctx, newCounter(t)))

	deactivated := make(chan error, 1)
	err := store.WithinTx(ctx, func(txCtx context.Context) error {
		_, err := repos.SeriesRepo.FindSeriesForUpdate(txCtx, testKey)
		require.NoError(t, err)
		require.NoError(t, repos.SeriesRepo.AdvanceSeries(txCtx, testKey, 1, t0))

		go func() {
			deactivated <- repos.SeriesRepo.SetSeriesActive(ctx, testKey, false, "admin", t0)
		}()
		select {
		case <-deactivated:
			t.Fatal("deactivation did not wait for the row lock")
		case <-time.After(50 * time.Millisecond):
		}
		return errors.New("allocation caller failed")
	})
	require.Error(t, err)
	require.NoError(t, <-deactivated)

	counter, err := repos.SeriesRepo.FindSeries(ctx, testKey)
	require.NoError(t, err)
	assert.False(t, counter.IsActive)
	assert.Equal(t, int64(0), counter.LastNumber)
}

func TestAdvanceSeries_RollbackKeepsOtherColumns(t *testing.T) {
	store := NewStore()
	repos := NewRepositoryProvider(store)
	ctx := context.Background()
	require.NoError(t, repos.SeriesRepo.CreateSeries(ctx, newCounter(t)))

	err := store.WithinTx(ctx, func(txCtx context.Context) error {
		require.NoError(t, repos.SeriesRepo.AdvanceSeries(txCtx, testKey, 1, t0))
		// committed by another unit of work before this one fails
		require.NoError(t, repos.SeriesRepo.SetSeriesActive(ctx, testKey, false, "admin", t0))
		return errors.New("allocation caller failed")
	})
	require.Error(t, err)

	counter, err := repos.SeriesRepo.FindSeries(ctx, testKey)
	require.NoError(t, err)
	assert.False(t, counter.IsActive)
	assert.Equal(t, int64(0), counter.LastNumber)
	assert.Nil(t, counter.LastUsedAt)
}

func TestCreateSeries_Duplicate(t *testing.T) {
	repos := NewRepositoryProvider(NewStore())
	ctx := context.Background()
	require.NoError(t, repos.SeriesRepo.CreateSeries(ctx, newCounter(t)))
	assert.ErrorIs(t, repos.SeriesRepo.CreateSeries(ctx, newCounter(t)), apperrors.ErrDuplicate)

	created, err := repos.SeriesRepo.CreateSeriesIfNotExists(ctx, newCounter(t))
	require.NoError(t, err)
	assert.False(t, created)
}

func TestAppendEntry_RejectsStaleTail(t *testing.T) {
	store := NewStore()
	repos := NewRepositoryProvider(store)
	ctx := context.Background()

	var stale domain.ChainHead
	err := store.WithinTx(ctx, func(txCtx context.Context) error {
		head, err := repos.RegistryRepo.LockChainHead(txCtx, "B12345674", t0)
		if err != nil {
			return err
		}
		stale = *head
		return repos.RegistryRepo.AppendEntry(txCtx, entryAfter(*head, "e1", "inv-1"))
	})
	require.NoError(t, err)

	err = repos.RegistryRepo.AppendEntry(ctx, entryAfter(stale, "e2", "inv-2"))
	assert.ErrorIs(t, err, apperrors.ErrConcurrentTailConflict)

	head, err := repos.RegistryRepo.FindChainHead(ctx, "B12345674")
	require.NoError(t, err)
	assert.Equal(t, int64(1), head.LastRegistryNumber)
}

func TestAppendEntry_OneRegistrationPerInvoice(t *testing.T) {
	store := NewStore()
	repos := NewRepositoryProvider(store)
	ctx := context.Background()

	for i, id := range []string{"e1", "e2"} {
		err := store.WithinTx(ctx, func(txCtx context.Context) error {
			head, err := repos.RegistryRepo.LockChainHead(txCtx, "B12345674", t0)
			if err != nil {
				return err
			}
			return repos.RegistryRepo.AppendEntry(txCtx, entryAfter(*head, id, "inv-1"))
		})
		if i == 0 {
			require.NoError(t, err)
		} else {
			assert.ErrorIs(t, err, apperrors.ErrAlreadyRegistered)
		}
	}

	entries, err := repos.RegistryRepo.ListEntriesByScope(ctx, "B12345674", 0, 10)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestAppendEntry_RollbackRestoresHead(t *testing.T) {
	store := NewStore()
	repos := NewRepositoryProvider(store)
	ctx := context.Background()

	_ = store.WithinTx(ctx, func(txCtx context.Context) error {
		head, err := repos.RegistryRepo.LockChainHead(txCtx, "B12345674", t0)
		require.NoError(t, err)
		require.NoError(t, repos.RegistryRepo.AppendEntry(txCtx, entryAfter(*head, "e1", "inv-1")))
		return errors.New("freeze failed")
	})

	_, err := repos.RegistryRepo.FindChainHead(ctx, "B12345674")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	_, err = repos.RegistryRepo.FindEntryByID(ctx, "e1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUpdateSubmission_CompareAndSet(t *testing.T) {
	store := NewStore()
	repos := NewRepositoryProvider(store)
	ctx := context.Background()
	require.NoError(t, store.WithinTx(ctx, func(txCtx context.Context) error {
		head, err := repos.RegistryRepo.LockChainHead(txCtx, "B12345674", t0)
		if err != nil {
			return err
		}
		return repos.RegistryRepo.AppendEntry(txCtx, entryAfter(*head, "e1", "inv-1"))
	}))

	claimed := domain.SubmissionState{Status: domain.SubmissionSubmitted, Attempts: 1}
	require.NoError(t, repos.RegistryRepo.UpdateSubmission(ctx, "e1", []domain.SubmissionStatus{domain.SubmissionPending}, claimed))

	err := repos.RegistryRepo.UpdateSubmission(ctx, "e1", []domain.SubmissionStatus{domain.SubmissionPending}, claimed)
	assert.ErrorIs(t, err, apperrors.ErrSubmissionInFlight)

	err = repos.RegistryRepo.UpdateSubmission(ctx, "missing", []domain.SubmissionStatus{domain.SubmissionPending}, claimed)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	entry, err := repos.RegistryRepo.FindEntryByID(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, domain.SubmissionSubmitted, entry.Submission.Status)
	assert.Equal(t, "e1", entry.EntryID)
}

func TestFreezeInvoice_BlocksUpdates(t *testing.T) {
	store := NewStore()
	repos := NewRepositoryProvider(store)
	ctx := context.Background()
	require.NoError(t, repos.SeriesRepo.CreateSeries(ctx, newCounter(t)))
	inv := domain.Invoice{InvoiceID: "inv-1", Series: testKey, Number: 1, Status: domain.InvoiceIssued}
	require.NoError(t, repos.InvoiceRepo.SaveInvoice(ctx, inv))

	require.NoError(t, repos.InvoiceRepo.FreezeInvoice(ctx, "inv-1", t0, "tester"))
	assert.ErrorIs(t, repos.InvoiceRepo.FreezeInvoice(ctx, "inv-1", t0, "tester"), apperrors.ErrAlreadyRegistered)

	inv.Description = "changed"
	assert.ErrorIs(t, repos.InvoiceRepo.UpdateMutableInvoice(ctx, inv), apperrors.ErrImmutableInvoice)

	stored, err := repos.InvoiceRepo.FindInvoiceByID(ctx, "inv-1")
	require.NoError(t, err)
	assert.True(t, stored.IsImmutable)
	assert.Empty(t, stored.Description)
}

func TestSaveInvoice_RejectsUnknownSeries(t *testing.T) {
	repos := NewRepositoryProvider(NewStore())
	ctx := context.Background()

	err := repos.InvoiceRepo.SaveInvoice(ctx, domain.Invoice{InvoiceID: "inv-1", Series: testKey})
	assert.ErrorIs(t, err, apperrors.ErrSeriesNotFound)

	_, err = repos.InvoiceRepo.FindInvoiceByID(ctx, "inv-1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUpdateMutableInvoice_NumberTaken(t *testing.T) {
	repos := NewRepositoryProvider(NewStore())
	ctx := context.Background()
	require.NoError(t, repos.SeriesRepo.CreateSeries(ctx, newCounter(t)))
	require.NoError(t, repos.InvoiceRepo.SaveInvoice(ctx, domain.Invoice{InvoiceID: "inv-1", Series: testKey, Number: 7}))
	require.NoError(t, repos.InvoiceRepo.SaveInvoice(ctx, domain.Invoice{InvoiceID: "inv-2", Series: testKey}))

	err := repos.InvoiceRepo.UpdateMutableInvoice(ctx, domain.Invoice{InvoiceID: "inv-2", Series: testKey, Number: 7})
	assert.ErrorIs(t, err, apperrors.ErrDuplicate)
}
