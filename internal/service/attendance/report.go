package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/cmlabs-hris/hris-attendance/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance/internal/domain/schedule"
	"golang.org/x/sync/errgroup"
)

// GetTodayStatus implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) GetTodayStatus(ctx context.Context, userID string) (attendance.TodayStatusResponse, error) {
	now := s.now()
	today := schedule.DateOf(now.In(s.loc))

	var shifts []schedule.Shift
	var records []attendance.Attendance
	var open *attendance.Attendance

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		shifts, err = s.ShiftRegistry.ShiftsForUserOnDate(gctx, userID, today)
		if err != nil {
			return fmt.Errorf("failed to get shifts for today: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		records, err = s.AttendanceRepository.ListByUserAndDate(gctx, userID, today)
		if err != nil {
			return fmt.Errorf("failed to get today's attendance: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		open, err = s.AttendanceRepository.GetOpenByUser(gctx, userID)
		if err != nil {
			return fmt.Errorf("failed to get open attendance: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return attendance.TodayStatusResponse{}, err
	}

	workable := workableShifts(shifts)
	unclaimed := unclaimedShifts(workable, attendance.ClaimedShiftIDs(records))

	summary := attendance.TodaySummary{
		TotalShifts:     len(workable),
		UnclaimedShifts: mapShiftsToResponse(unclaimed),
	}
	for _, r := range records {
		if r.Status == attendance.StatusCompleted {
			summary.CompletedCount++
		}
	}

	// The open record may belong to an earlier day. It blocks check-in until
	// its grace deadline, after which the next check-in closes it.
	blocking := false
	if open != nil {
		inProgress := mapAttendanceToResponse(*open, s.loc)
		summary.InProgress = &inProgress
		blocking = now.Before(s.closer.GraceDeadline(*open))
	}

	resp := attendance.TodayStatusResponse{
		Date:        today.Format(dateLayout),
		Shifts:      mapShiftsToResponse(shifts),
		Attendances: mapAttendancesToResponse(records, s.loc),
		Summary:     summary,
		CanCheckOut: open != nil,
		CanCheckIn:  !blocking && len(unclaimed) > 0,
	}

	switch {
	case len(workable) == 0:
		resp.Message = "No schedule for today"
	case open != nil && !open.Date.Equal(today) && blocking:
		resp.Message = fmt.Sprintf("You are still checked in from %s. Check out first", open.Date.Format(dateLayout))
	case open != nil && open.Date.Equal(today):
		resp.Message = "You are checked in. Don't forget to check out"
	case len(unclaimed) == 0:
		resp.Message = "All shifts for today are done"
	case summary.CompletedCount > 0:
		resp.Message = fmt.Sprintf("%d of %d shifts completed. Ready for the next check-in", summary.CompletedCount, len(workable))
	default:
		resp.Message = "Ready to check in"
	}

	return resp, nil
}

// GetAttendance implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) GetAttendance(ctx context.Context, id string, callerUserID string, isAdmin bool) (attendance.AttendanceResponse, error) {
	rec, err := s.AttendanceRepository.GetByID(ctx, id)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	if !isAdmin && rec.UserID != callerUserID {
		return attendance.AttendanceResponse{}, attendance.ErrAttendanceNotFound
	}
	return mapAttendanceToResponse(rec, s.loc), nil
}

// ListAttendance implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ListAttendance(ctx context.Context, filter attendance.AttendanceFilter, callerUserID string, isAdmin bool) (attendance.ListAttendanceResponse, error) {
	if !isAdmin {
		filter.UserID = &callerUserID
	}
	if err := filter.Validate(); err != nil {
		return attendance.ListAttendanceResponse{}, err
	}

	var records []attendance.Attendance
	var total int64
	err := s.tx.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		records, total, err = s.AttendanceRepository.List(ctx, filter)
		return err
	})
	if err != nil {
		return attendance.ListAttendanceResponse{}, fmt.Errorf("failed to list attendances: %w", err)
	}

	totalPages := int(math.Ceil(float64(total) / float64(filter.Limit)))
	showing := fmt.Sprintf("%d-%d of %d", (filter.Page-1)*filter.Limit+1, min(filter.Page*filter.Limit, int(total)), total)
	if total == 0 {
		showing = "0 of 0"
	}

	return attendance.ListAttendanceResponse{
		TotalCount:  total,
		Page:        filter.Page,
		Limit:       filter.Limit,
		TotalPages:  totalPages,
		Showing:     showing,
		Attendances: mapAttendancesToResponse(records, s.loc),
	}, nil
}

// DailyReport implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) DailyReport(ctx context.Context, date time.Time) (attendance.DailyReportResponse, error) {
	day := schedule.DateOf(date)

	var records []attendance.Attendance
	err := s.tx.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		records, err = s.AttendanceRepository.ListByDate(ctx, day)
		return err
	})
	if err != nil {
		return attendance.DailyReportResponse{}, fmt.Errorf("failed to get daily report: %w", err)
	}

	return attendance.DailyReportResponse{
		Date:        day.Format(dateLayout),
		Total:       len(records),
		Attendances: mapAttendancesToResponse(records, s.loc),
	}, nil
}

// MonthlyStats implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) MonthlyStats(ctx context.Context, userID string, month, year int) (attendance.MonthlyStatsResponse, error) {
	if err := attendance.ValidatePeriod(month, year); err != nil {
		return attendance.MonthlyStatsResponse{}, err
	}

	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, -1)

	var records []attendance.Attendance
	err := s.tx.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		records, err = s.AttendanceRepository.ListByUserAndRange(ctx, userID, from, to)
		return err
	})
	if err != nil {
		return attendance.MonthlyStatsResponse{}, fmt.Errorf("failed to get monthly attendance: %w", err)
	}

	stats := attendance.MonthlyStatsResponse{
		UserID:       userID,
		Month:        month,
		Year:         year,
		TotalRecords: len(records),
	}
	for _, r := range records {
		switch r.Status {
		case attendance.StatusCompleted:
			stats.CompletedDays++
		case attendance.StatusAbsent:
			stats.AbsentDays++
		}
		if r.CheckIn != nil {
			stats.TotalLateMinutes += r.CheckIn.LateMinutes
		}
		if r.CheckOut != nil {
			stats.TotalEarlyLeaveMinutes += r.CheckOut.EarlyLeaveMinutes
			stats.TotalOvertimeMinutes += r.CheckOut.OvertimeMinutes
			stats.TotalWorkingMinutes += r.CheckOut.WorkingMinutes
		}
	}
	if stats.CompletedDays > 0 {
		stats.AverageWorkingMinutes = int(math.Round(float64(stats.TotalWorkingMinutes) / float64(stats.CompletedDays)))
	}

	return stats, nil
}

// CloseStaleShifts implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) CloseStaleShifts(ctx context.Context) (int, error) {
	open, err := s.AttendanceRepository.ListOpen(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list open attendances: %w", err)
	}

	now := s.now()
	closed := 0
	var errs []error

	for _, candidate := range open {
		if now.Before(s.closer.GraceDeadline(candidate)) || s.closer.CheckedInAfterEnd(candidate) {
			continue
		}

		var rec attendance.Attendance
		var outcome Outcome
		err := s.tx.WithUserLock(ctx, candidate.UserID, func(ctx context.Context) error {
			var err error
			rec, err = s.AttendanceRepository.GetByID(ctx, candidate.ID)
			if err != nil {
				return err
			}
			if !rec.IsOpen() {
				return nil
			}
			outcome, err = s.closer.Reconcile(ctx, &rec, s.now())
			return err
		})
		if err != nil {
			slog.Error("Failed to auto-close stale attendance", "attendance_id", candidate.ID, "error", err)
			errs = append(errs, err)
			continue
		}
		if outcome == OutcomeClosed {
			closed++
			s.publish(EventAutoClosed, rec)
		}
	}

	return closed, errors.Join(errs...)
}
