package pgsql

import (
	portsrepo "github.com/SscSPs/invoice_registry/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		TxManager:    newPgxTxManager(dbPool),
		SeriesRepo:   newPgxSeriesRepository(dbPool),
		InvoiceRepo:  newPgxInvoiceRepository(dbPool),
		RegistryRepo: newPgxRegistryRepository(dbPool),
	}
}
