package services

import (
	portsrepo "github.com/SscSPs/invoice_registry/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/invoice_registry/internal/core/ports/services"
	"github.com/SscSPs/invoice_registry/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, authority portssvc.AuthorityClient) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	container.Series = NewSeriesService(repos.TxManager, repos.SeriesRepo)
	container.Guard = NewImmutabilityGuard(repos.TxManager, repos.InvoiceRepo)
	container.Registry = NewRegistryService(
		repos.TxManager,
		repos.InvoiceRepo,
		repos.RegistryRepo,
		container.Series,
		container.Guard,
		WithRegisterMaxRetries(cfg.RegisterMaxRetries),
	)
	container.Invoice = NewInvoiceService(
		repos.TxManager,
		repos.InvoiceRepo,
		container.Series,
		container.Registry,
		container.Guard,
		cfg.RegisterMaxRetries,
	)
	container.Submission = NewSubmissionService(repos.RegistryRepo, authority, SubmissionConfig{
		MaxAttempts:  cfg.SubmissionMaxAttempts,
		BackoffBase:  cfg.SubmissionBackoffBase,
		BackoffMax:   cfg.SubmissionBackoffMax,
		Timeout:      cfg.AuthorityTimeout,
		SweepWorkers: cfg.SubmissionSweepWorkers,
	})

	return container
}
