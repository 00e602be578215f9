package attendance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-attendance/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance/internal/domain/schedule"
)

// DefaultGracePeriod is how long after a shift ends its open record still
// blocks a new check-in.
const DefaultGracePeriod = 30 * time.Minute

const autoCloseNote = "[system] closed automatically at the registered shift end: check-out was missed"

// Outcome is the result of reconciling an open record.
type Outcome int

const (
	// OutcomeBlocked means the record is still within its grace period.
	OutcomeBlocked Outcome = iota + 1
	// OutcomeClosed means the record was force-completed and persisted.
	OutcomeClosed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeBlocked:
		return "blocked"
	case OutcomeClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// AutoCloser repairs records left open by a forgotten check-out.
type AutoCloser struct {
	repo       attendance.AttendanceRepository
	accountant Accountant
	grace      time.Duration
	loc        *time.Location
}

func NewAutoCloser(repo attendance.AttendanceRepository, accountant Accountant, grace time.Duration, loc *time.Location) AutoCloser {
	if grace <= 0 {
		grace = DefaultGracePeriod
	}
	if loc == nil {
		loc = time.UTC
	}
	return AutoCloser{
		repo:       repo,
		accountant: accountant,
		grace:      grace,
		loc:        loc,
	}
}

// shiftEnd is the registered end of the record's shift on the record's day.
// Records without a snapshot end at midnight of their day.
func (c AutoCloser) shiftEnd(rec attendance.Attendance) time.Time {
	if rec.Shift == nil {
		return schedule.NewClock(0, 0).On(rec.Date, c.loc).AddDate(0, 0, 1)
	}
	return rec.Shift.End.On(rec.Date, c.loc)
}

// GraceDeadline is the instant from which the record may be auto-closed.
func (c AutoCloser) GraceDeadline(rec attendance.Attendance) time.Time {
	return c.shiftEnd(rec).Add(c.grace)
}

// CheckedInAfterEnd reports whether the user checked in at or after the
// registered shift end. Such records are only closed by the user's next
// check-in, never by the sweeper.
func (c AutoCloser) CheckedInAfterEnd(rec attendance.Attendance) bool {
	return rec.CheckIn != nil && !rec.CheckIn.Time.Before(c.shiftEnd(rec))
}

// Reconcile decides whether an open record still blocks the user. Past the
// grace deadline it completes the record at the registered shift end, with
// no early leave and no overtime, and persists it.
func (c AutoCloser) Reconcile(ctx context.Context, rec *attendance.Attendance, now time.Time) (Outcome, error) {
	if rec == nil || !rec.IsOpen() {
		return OutcomeClosed, nil
	}

	if now.Before(c.GraceDeadline(*rec)) {
		return OutcomeBlocked, nil
	}

	checkOut := c.shiftEnd(*rec)
	if checkOut.Before(rec.CheckIn.Time) {
		checkOut = rec.CheckIn.Time
	}

	var snapshot attendance.ShiftSnapshot
	if rec.Shift != nil {
		snapshot = *rec.Shift
	}
	out := c.accountant.Settle(*rec.CheckIn, checkOut, snapshot)
	out.EarlyLeaveMinutes = 0
	out.OvertimeMinutes = 0
	out.AutoClosed = true

	if err := rec.Complete(out); err != nil {
		return 0, err
	}
	rec.AppendNote(autoCloseNote)

	if err := c.repo.Update(ctx, *rec); err != nil {
		return 0, fmt.Errorf("failed to auto-close attendance %s: %w", rec.ID, err)
	}

	slog.Info("Auto-closed stale attendance",
		"attendance_id", rec.ID,
		"user_id", rec.UserID,
		"shift_id", rec.ShiftID(),
		"check_out", checkOut.Format(time.RFC3339),
		"working_minutes", out.WorkingMinutes,
	)

	return OutcomeClosed, nil
}
