// Package scheduler runs the background submission sweep.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	portssvc "github.com/SscSPs/invoice_registry/internal/core/ports/services"
	"github.com/SscSPs/invoice_registry/internal/middleware"
	"github.com/robfig/cron/v3"
)

// SweepConfig controls how often and how much the sweep submits.
type SweepConfig struct {
	Spec       string
	BatchSize  int
	StaleAfter time.Duration
}

// SubmissionScheduler periodically recovers stale submissions and submits due entries.
type SubmissionScheduler struct {
	cron    *cron.Cron
	worker  portssvc.SubmissionWorkerSvc
	cfg     SweepConfig
	logger  *slog.Logger
	baseCtx context.Context
	cancel  context.CancelFunc
}

// NewSubmissionScheduler creates a scheduler. Overlapping runs are skipped.
func NewSubmissionScheduler(worker portssvc.SubmissionWorkerSvc, cfg SweepConfig, logger *slog.Logger) *SubmissionScheduler {
	ctx, cancel := context.WithCancel(middleware.WithLogger(context.Background(), logger))
	return &SubmissionScheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(cron.DiscardLogger),
			cron.SkipIfStillRunning(cron.DiscardLogger),
		)),
		worker:  worker,
		cfg:     cfg,
		logger:  logger,
		baseCtx: ctx,
		cancel:  cancel,
	}
}

// Start registers the sweep job and starts the cron runner.
func (s *SubmissionScheduler) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.Spec, func() { s.RunOnce(s.baseCtx) }); err != nil {
		s.logger.Error("Failed to add submission sweep job", slog.String("spec", s.cfg.Spec), slog.String("error", err.Error()))
		return err
	}
	s.cron.Start()
	s.logger.Info("Submission scheduler started", slog.String("spec", s.cfg.Spec))
	return nil
}

// RunOnce performs one sweep: stale recovery first, then due submissions.
func (s *SubmissionScheduler) RunOnce(ctx context.Context) {
	recovered, err := s.worker.RecoverStale(ctx, s.cfg.StaleAfter)
	if err != nil {
		s.logger.Error("Stale submission recovery failed", slog.String("error", err.Error()))
	}

	report, err := s.worker.SubmitDue(ctx, s.cfg.BatchSize)
	if err != nil {
		s.logger.Error("Submission sweep failed", slog.String("error", err.Error()))
		return
	}
	report.Recovered = recovered
	if report.Picked > 0 || recovered > 0 {
		s.logger.Info("Submission sweep done",
			slog.Int("recovered", report.Recovered),
			slog.Int("picked", report.Picked),
			slog.Int("accepted", report.Accepted),
			slog.Int("rejected", report.Rejected),
			slog.Int("failed", report.Failed))
	}
}

// Stop halts scheduling and waits for a running sweep to finish.
func (s *SubmissionScheduler) Stop() {
	s.logger.Info("Stopping submission scheduler...")
	<-s.cron.Stop().Done()
	s.cancel()
	s.logger.Info("Submission scheduler stopped")
}
