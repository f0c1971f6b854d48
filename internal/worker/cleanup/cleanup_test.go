package cleanup

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

type mockSweeper struct {
	sweepFn func(ctx context.Context) (int64, error)
	calls   atomic.Int64
}

func (m *mockSweeper) SweepExpired(ctx context.Context) (int64, error) {
	m.calls.Add(1)
	if m.sweepFn != nil {
		return m.sweepFn(ctx)
	}
	return 0, nil
}

var _ SessionSweeper = (*mockSweeper)(nil)

type mockSweepMetrics struct {
	sweptTotal atomic.Int64
}

func (m *mockSweepMetrics) RecordSessionsSwept(count int64) {
	m.sweptTotal.Add(count)
}

var _ SweepMetrics = (*mockSweepMetrics)(nil)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestRun_RecordsDeletedCount(t *testing.T) {
	sweeper := &mockSweeper{
		sweepFn: func(ctx context.Context) (int64, error) {
			return 7, nil
		},
	}
	metrics := &mockSweepMetrics{}
	job := NewSweepJob(sweeper, metrics, discardLogger())

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := metrics.sweptTotal.Load(); got != 7 {
		t.Errorf("swept total = %d, want 7", got)
	}
}

func TestRun_NothingToDelete_Succeeds(t *testing.T) {
	sweeper := &mockSweeper{}
	job := NewSweepJob(sweeper, &mockSweepMetrics{}, discardLogger())

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRun_SweeperError_Propagates(t *testing.T) {
	sweepErr := errors.New("connection refused")
	sweeper := &mockSweeper{
		sweepFn: func(ctx context.Context) (int64, error) {
			return 0, sweepErr
		},
	}
	metrics := &mockSweepMetrics{}
	job := NewSweepJob(sweeper, metrics, discardLogger())

	err := job.Run(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, sweepErr) {
		t.Errorf("error does not wrap sweeper error: %v", err)
	}
	if metrics.sweptTotal.Load() != 0 {
		t.Error("metrics must not be recorded on failure")
	}
}

func TestRun_NilMetrics_DoesNotPanic(t *testing.T) {
	job := NewSweepJob(&mockSweeper{}, nil, discardLogger())

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStart_RunsImmediatelyAndStopsOnCancel(t *testing.T) {
	sweeper := &mockSweeper{}
	job := NewSweepJob(sweeper, &mockSweepMetrics{}, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		job.Start(ctx, time.Hour)
		close(done)
	}()

	// 起動直後の1回目の実行を待つ
	deadline := time.After(2 * time.Second)
	for sweeper.calls.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("initial sweep did not run")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not stop after context cancel")
	}

	if got := sweeper.calls.Load(); got != 1 {
		t.Errorf("sweep calls = %d, want 1", got)
	}
}
