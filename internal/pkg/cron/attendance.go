package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// StaleShiftCloser closes open attendance records past their grace deadline.
type StaleShiftCloser interface {
	CloseStaleShifts(ctx context.Context) (int, error)
}

type AttendanceJobs struct {
	closer   StaleShiftCloser
	interval time.Duration
}

func NewAttendanceJobs(closer StaleShiftCloser, interval time.Duration) *AttendanceJobs {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &AttendanceJobs{
		closer:   closer,
		interval: interval,
	}
}

func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("auto_close_stale_attendances", j.interval, j.AutoCloseStaleAttendances)
}

// AutoCloseStaleAttendances repairs forgotten check-outs without waiting for
// the user's next check-in.
func (j *AttendanceJobs) AutoCloseStaleAttendances(ctx context.Context) error {
	slog.Debug("Cron: Starting auto-close stale attendances job")

	closed, err := j.closer.CloseStaleShifts(ctx)
	if closed > 0 {
		slog.Info("Cron: Auto-closed stale attendances", "count", closed)
	}
	if err != nil {
		return fmt.Errorf("failed to close stale attendances: %w", err)
	}

	return nil
}
