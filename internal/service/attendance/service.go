package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-attendance/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance/internal/domain/schedule"
	"github.com/cmlabs-hris/hris-attendance/internal/pkg/sse"
)

// Attendance event names published after a write commits.
const (
	EventCheckedIn  = "attendance.checked_in"
	EventCheckedOut = "attendance.checked_out"
	EventAutoClosed = "attendance.auto_closed"
)

// maxWriteAttempts bounds retries when the store reports a concurrent open record.
const maxWriteAttempts = 3

// Notifier receives attendance events for a user.
type Notifier interface {
	Publish(userID string, event sse.Event)
}

type noopNotifier struct{}

func (noopNotifier) Publish(string, sse.Event) {}

type AttendanceServiceImpl struct {
	attendance.AttendanceRepository
	schedule.ShiftRegistry
	tx         attendance.Transactor
	accountant Accountant
	matcher    Matcher
	closer     AutoCloser
	events     Notifier
	loc        *time.Location
	now        func() time.Time
}

// CheckIn implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) CheckIn(ctx context.Context, req attendance.CheckInRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	var kind *schedule.ShiftKind
	if req.ShiftKind != nil && *req.ShiftKind != "" {
		k := schedule.ShiftKind(*req.ShiftKind)
		kind = &k
	}

	var created attendance.Attendance
	var autoClosed *attendance.Attendance

	err := s.withUserLock(ctx, req.UserID, func(ctx context.Context) error {
		autoClosed = nil
		now := s.now()
		today := schedule.DateOf(now.In(s.loc))

		shifts, err := s.ShiftRegistry.ShiftsForUserOnDate(ctx, req.UserID, today)
		if err != nil {
			return fmt.Errorf("failed to get shifts for today: %w", err)
		}
		if !hasWorkableShift(shifts) {
			return attendance.ErrNoScheduleForDay
		}

		open, err := s.AttendanceRepository.GetOpenByUser(ctx, req.UserID)
		if err != nil {
			return fmt.Errorf("failed to get open attendance: %w", err)
		}
		if open != nil {
			outcome, err := s.closer.Reconcile(ctx, open, now)
			if err != nil {
				return err
			}
			if outcome == OutcomeBlocked {
				return attendance.ErrOpenShiftBlocking
			}
			autoClosed = open
		}

		records, err := s.AttendanceRepository.ListByUserAndDate(ctx, req.UserID, today)
		if err != nil {
			return fmt.Errorf("failed to get today's attendance: %w", err)
		}

		shift, err := s.matcher.Match(shifts, attendance.ClaimedShiftIDs(records), MatchRequest{
			ShiftID: req.ShiftID,
			Kind:    kind,
			Now:     now,
		})
		if err != nil {
			return err
		}

		in := attendance.CheckIn{
			Time:        now,
			Address:     addressOf(req.NetworkOrigin),
			Location:    req.Location,
			LateMinutes: s.accountant.LateMinutes(now, shift.Start),
		}

		created, err = s.AttendanceRepository.Create(ctx, attendance.NewCheckedIn(req.UserID, today, attendance.SnapshotOf(shift), in, req.Note))
		if err != nil {
			return fmt.Errorf("failed to create attendance: %w", err)
		}
		return nil
	})
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	if autoClosed != nil {
		s.publish(EventAutoClosed, *autoClosed)
	}
	resp := s.publish(EventCheckedIn, created)

	return resp, nil
}

// CheckOut implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) CheckOut(ctx context.Context, req attendance.CheckOutRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	var completed attendance.Attendance

	err := s.withUserLock(ctx, req.UserID, func(ctx context.Context) error {
		now := s.now()

		rec, err := s.resolveOpenRecord(ctx, req, now)
		if err != nil {
			return err
		}

		var snapshot attendance.ShiftSnapshot
		if rec.Shift != nil {
			snapshot = *rec.Shift
		}
		out := s.accountant.Settle(*rec.CheckIn, now, snapshot)
		out.Address = addressOf(req.NetworkOrigin)
		out.Location = req.Location

		if err := rec.Complete(out); err != nil {
			return err
		}
		if req.Note != nil {
			rec.AppendNote(*req.Note)
		}

		if err := s.AttendanceRepository.Update(ctx, rec); err != nil {
			return fmt.Errorf("failed to update attendance: %w", err)
		}
		completed = rec
		return nil
	})
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	return s.publish(EventCheckedOut, completed), nil
}

// resolveOpenRecord finds the record a check-out applies to.
func (s *AttendanceServiceImpl) resolveOpenRecord(ctx context.Context, req attendance.CheckOutRequest, now time.Time) (attendance.Attendance, error) {
	if req.AttendanceID != nil && *req.AttendanceID != "" {
		rec, err := s.AttendanceRepository.GetByID(ctx, *req.AttendanceID)
		if err != nil {
			return attendance.Attendance{}, err
		}
		if rec.UserID != req.UserID {
			return attendance.Attendance{}, attendance.ErrAttendanceNotFound
		}
		if !rec.IsOpen() {
			return attendance.Attendance{}, attendance.ErrNoOpenCheckIn
		}
		return rec, nil
	}

	open, err := s.AttendanceRepository.GetOpenByUser(ctx, req.UserID)
	if err != nil {
		return attendance.Attendance{}, fmt.Errorf("failed to get open attendance: %w", err)
	}
	if open == nil || !open.Date.Equal(schedule.DateOf(now.In(s.loc))) {
		return attendance.Attendance{}, attendance.ErrNoOpenCheckIn
	}
	return *open, nil
}

// withUserLock runs fn under the user's lock, retrying the whole step when
// the store reports a concurrent open record.
func (s *AttendanceServiceImpl) withUserLock(ctx context.Context, userID string, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 1; attempt <= maxWriteAttempts; attempt++ {
		err = s.tx.WithUserLock(ctx, userID, fn)
		if !errors.Is(err, attendance.ErrConcurrentCheckIn) {
			return err
		}
		slog.Warn("Concurrent attendance write detected, retrying",
			"user_id", userID,
			"attempt", attempt,
		)
	}
	return err
}

func (s *AttendanceServiceImpl) publish(event string, rec attendance.Attendance) attendance.AttendanceResponse {
	resp := mapAttendanceToResponse(rec, s.loc)
	s.events.Publish(rec.UserID, sse.Event{
		UserID: rec.UserID,
		Event:  event,
		Data:   resp,
	})
	return resp
}

func hasWorkableShift(shifts []schedule.Shift) bool {
	for _, sh := range shifts {
		if sh.Workable() {
			return true
		}
	}
	return false
}

func addressOf(origin string) *string {
	if origin == "" {
		return nil
	}
	return &origin
}

// Option customizes the attendance service.
type Option func(*AttendanceServiceImpl)

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(s *AttendanceServiceImpl) {
		s.now = now
	}
}

// WithNotifier publishes attendance events to n.
func WithNotifier(n Notifier) Option {
	return func(s *AttendanceServiceImpl) {
		if n != nil {
			s.events = n
		}
	}
}

func NewAttendanceService(
	attendanceRepo attendance.AttendanceRepository,
	shiftRegistry schedule.ShiftRegistry,
	tx attendance.Transactor,
	loc *time.Location,
	grace time.Duration,
	opts ...Option,
) attendance.AttendanceService {
	if loc == nil {
		loc = time.UTC
	}
	accountant := NewAccountant(loc)
	s := &AttendanceServiceImpl{
		AttendanceRepository: attendanceRepo,
		ShiftRegistry:        shiftRegistry,
		tx:                   tx,
		accountant:           accountant,
		matcher:              NewMatcher(loc),
		closer:               NewAutoCloser(attendanceRepo, accountant, grace, loc),
		events:               noopNotifier{},
		loc:                  loc,
		now:                  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
