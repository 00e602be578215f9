package cron

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type stubCloser struct {
	calls  atomic.Int32
	closed int
	err    error
}

func (s *stubCloser) CloseStaleShifts(ctx context.Context) (int, error) {
	s.calls.Add(1)
	return s.closed, s.err
}

func TestAttendanceJobs_RunOnce(t *testing.T) {
	closer := &stubCloser{closed: 2}
	scheduler := NewScheduler()
	NewAttendanceJobs(closer, time.Minute).RegisterJobs(scheduler)

	assert.NoError(t, scheduler.RunOnce(context.Background()))
	assert.Equal(t, int32(1), closer.calls.Load())
}

func TestAttendanceJobs_WrapsError(t *testing.T) {
	boom := errors.New("boom")
	jobs := NewAttendanceJobs(&stubCloser{closed: 1, err: boom}, 0)

	err := jobs.AutoCloseStaleAttendances(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 15*time.Minute, jobs.interval)
}

func TestScheduler_RunOnceJoinsErrors(t *testing.T) {
	boom := errors.New("boom")
	scheduler := NewScheduler()
	scheduler.AddJob("failing", time.Minute, func(ctx context.Context) error { return boom })
	scheduler.AddJob("ok", time.Minute, func(ctx context.Context) error { return nil })

	err := scheduler.RunOnce(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "failing")
}

func TestScheduler_TimeoutCancelsRun(t *testing.T) {
	scheduler := NewScheduler()
	scheduler.AddJobWithTimeout("slow", time.Minute, 10*time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	err := scheduler.RunOnce(context.Background())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestScheduler_StartRunsImmediatelyAndStops(t *testing.T) {
	closer := &stubCloser{}
	scheduler := NewScheduler()
	NewAttendanceJobs(closer, time.Hour).RegisterJobs(scheduler)

	scheduler.Start()
	assert.Eventually(t, func() bool { return closer.calls.Load() >= 1 }, time.Second, 10*time.Millisecond)
	scheduler.Stop()

	calls := closer.calls.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, calls, closer.calls.Load())
}
