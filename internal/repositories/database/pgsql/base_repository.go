package pgsql

import (
	"context"
	"log/slog"

	"github.com/SscSPs/invoice_registry/internal/apperrors"
	portsrepo "github.com/SscSPs/invoice_registry/internal/core/ports/repositories"
	"github.com/SscSPs/invoice_registry/internal/middleware"
	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Constraint names declared in the migrations.
const (
	constraintEntryScopeNumber   = "registry_entries_scope_number_key"
	constraintEntryScopeHash     = "registry_entries_scope_hash_key"
	constraintEntryRegistration  = "registry_entries_one_registration"
	constraintRegistryPrimaryKey = "registry_entries_pkey"
	constraintInvoiceSeries      = "invoices_series_fkey"
	tableRegistryEntries         = "registry_entries"
)

const (
	pgUniqueViolation              = "23505"
	pgForeignKeyViolation          = "23503"
	pgSerializationFailure         = "40001"
	pgDeadlockDetected             = "40P01"
	pgObjectNotInPrerequisiteState = "55000"
)

type txCtxKey struct{}

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// BaseRepository provides common functionality for all repositories
type BaseRepository struct {
	Pool *pgxpool.Pool
}

// querier returns the transaction carried by ctx, or the pool.
func (r *BaseRepository) querier(ctx context.Context) querier {
	if tx, ok := ctx.Value(txCtxKey{}).(pgx.Tx); ok {
		return tx
	}
	return r.Pool
}

// requireTx returns the transaction carried by ctx.
func (r *BaseRepository) requireTx(ctx context.Context, op string) (pgx.Tx, error) {
	tx, ok := ctx.Value(txCtxKey{}).(pgx.Tx)
	if !ok {
		return nil, apperrors.Newf(apperrors.ErrPersistence, "%s requires a transaction", op)
	}
	return tx, nil
}

// PgxTxManager runs units of work in a database transaction carried by the context.
type PgxTxManager struct {
	BaseRepository
}

func newPgxTxManager(pool *pgxpool.Pool) *PgxTxManager {
	return &PgxTxManager{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.TransactionManager = (*PgxTxManager)(nil)

// InTx reports whether ctx already carries a transaction.
func (m *PgxTxManager) InTx(ctx context.Context) bool {
	_, ok := ctx.Value(txCtxKey{}).(pgx.Tx)
	return ok
}

// WithinTx runs fn in a transaction, joining the caller's if there is one.
func (m *PgxTxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.InTx(ctx) {
		return fn(ctx)
	}

	tx, err := m.Pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return mapPgError(err, "begin transaction")
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			middleware.GetLoggerFromCtx(ctx).Error("Failed to roll back transaction", slog.String("error", rbErr.Error()))
		}
	}()

	if err := fn(context.WithValue(ctx, txCtxKey{}, tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return mapPgError(err, "commit transaction")
	}
	return nil
}

// mapPgError translates driver errors into the application taxonomy.
func mapPgError(err error, op string) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return apperrors.Mark(err, apperrors.ErrPersistence, op)
	}

	switch pgErr.Code {
	case pgUniqueViolation:
		switch pgErr.ConstraintName {
		case constraintEntryScopeNumber, constraintEntryScopeHash:
			return apperrors.Mark(err, apperrors.ErrConcurrentTailConflict, op)
		case constraintEntryRegistration:
			return apperrors.Mark(err, apperrors.ErrAlreadyRegistered, op)
		case constraintRegistryPrimaryKey:
			return apperrors.Mark(err, apperrors.ErrEntryImmutable, op)
		default:
			return apperrors.Mark(err, apperrors.ErrDuplicate, op)
		}
	case pgForeignKeyViolation:
		if pgErr.ConstraintName == constraintInvoiceSeries {
			return apperrors.Mark(err, apperrors.ErrSeriesNotFound, op)
		}
	case pgSerializationFailure, pgDeadlockDetected:
		return apperrors.Mark(err, apperrors.ErrConcurrentTailConflict, op)
	case pgObjectNotInPrerequisiteState:
		if pgErr.TableName == tableRegistryEntries {
			return apperrors.Mark(err, apperrors.ErrEntryImmutable, op)
		}
		return apperrors.Mark(err, apperrors.ErrImmutableInvoice, op)
	}
	return apperrors.Mark(err, apperrors.ErrPersistence, op)
}
