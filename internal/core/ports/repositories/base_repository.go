package repositories

import (
	"context"
)

// TransactionManager defines methods for transaction management. The active
// transaction travels in the context so that every repository call made with
// that context joins it.
type TransactionManager interface {
	// WithinTx runs fn in a transaction. If ctx already carries one, fn joins it
	// and the outermost caller decides commit or rollback.
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error

	// InTx reports whether ctx carries an active transaction.
	InTx(ctx context.Context) bool
}
