package attendance

import (
	"context"
	"time"
)

// AttendanceService defines business logic for attendance operations
type AttendanceService interface {
	// CheckIn matches the request to a registered shift and opens a record
	CheckIn(ctx context.Context, req CheckInRequest) (AttendanceResponse, error)

	// CheckOut settles the user's open record
	CheckOut(ctx context.Context, req CheckOutRequest) (AttendanceResponse, error)

	// GetTodayStatus returns today's shifts, records and checklist summary
	GetTodayStatus(ctx context.Context, userID string) (TodayStatusResponse, error)

	// GetAttendance retrieves a single record by ID
	GetAttendance(ctx context.Context, id string, callerUserID string, isAdmin bool) (AttendanceResponse, error)

	// ListAttendance retrieves records with filters; non-admins only see their own
	ListAttendance(ctx context.Context, filter AttendanceFilter, callerUserID string, isAdmin bool) (ListAttendanceResponse, error)

	// DailyReport returns all records of a date ordered by check-in time
	DailyReport(ctx context.Context, date time.Time) (DailyReportResponse, error)

	// MonthlyStats aggregates a user's records over a month
	MonthlyStats(ctx context.Context, userID string, month, year int) (MonthlyStatsResponse, error)

	// CloseStaleShifts auto-closes every open record past its grace deadline
	CloseStaleShifts(ctx context.Context) (int, error)
}
