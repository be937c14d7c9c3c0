package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/SscSPs/invoice_registry/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockWorker struct {
	mock.Mock
}

func (m *mockWorker) SubmitDue(ctx context.Context, limit int) (domain.SweepReport, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).(domain.SweepReport), args.Error(1)
}

func (m *mockWorker) RecoverStale(ctx context.Context, olderThan time.Duration) (int, error) {
	args := m.Called(ctx, olderThan)
	return args.Int(0), args.Error(1)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunOnce_RecoversThenSubmits(t *testing.T) {
	worker := new(mockWorker)
	cfg := SweepConfig{Spec: "@every 1m", BatchSize: 25, StaleAfter: 10 * time.Minute}

	var order []string
	worker.On("RecoverStale", mock.Anything, cfg.StaleAfter).Run(func(mock.Arguments) { order = append(order, "recover") }).Return(2, nil)
	worker.On("SubmitDue", mock.Anything, 25).Run(func(mock.Arguments) { order = append(order, "submit") }).Return(domain.SweepReport{Picked: 3, Accepted: 3}, nil)

	NewSubmissionScheduler(worker, cfg, quietLogger()).RunOnce(context.Background())

	assert.Equal(t, []string{"recover", "submit"}, order)
	worker.AssertExpectations(t)
}

func TestRunOnce_SubmitsEvenIfRecoveryFails(t *testing.T) {
	worker := new(mockWorker)
	cfg := SweepConfig{Spec: "@every 1m", BatchSize: 10, StaleAfter: time.Minute}
	worker.On("RecoverStale", mock.Anything, time.Minute).Return(0, errors.New("db down"))
	worker.On("SubmitDue", mock.Anything, 10).Return(domain.SweepReport{}, nil)

	NewSubmissionScheduler(worker, cfg, quietLogger()).RunOnce(context.Background())

	worker.AssertExpectations(t)
}

func TestStart_InvalidSpec(t *testing.T) {
	s := NewSubmissionScheduler(new(mockWorker), SweepConfig{Spec: "not a cron spec"}, quietLogger())
	assert.Error(t, s.Start())
}
