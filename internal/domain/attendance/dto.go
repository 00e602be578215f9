package attendance

import (
	"fmt"

	"github.com/cmlabs-hris/hris-attendance/internal/pkg/validator"
)

// ========================================
// CHECK-IN / CHECK-OUT DTOs
// ========================================

type CheckInRequest struct {
	UserID        string  `json:"-"`
	NetworkOrigin string  `json:"-"`
	ShiftID       *string `json:"shift_id,omitempty" validate:"omitempty,uuid"`
	ShiftKind     *string `json:"shift_kind,omitempty" validate:"omitempty,oneof=morning afternoon custom full_day"`
	Location      *string `json:"location,omitempty" validate:"omitempty,max=50"`
	Note          *string `json:"note,omitempty" validate:"omitempty,max=1000"`
}

func (r *CheckInRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.UserID) {
		errs = append(errs, validator.ValidationError{
			Field:   "user_id",
			Message: "user_id is required",
		})
	}

	if err := validator.Struct(r); err != nil {
		var fieldErrs validator.ValidationErrors
		if !asValidationErrors(err, &fieldErrs) {
			return err
		}
		errs = append(errs, fieldErrs...)
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type CheckOutRequest struct {
	UserID        string  `json:"-"`
	NetworkOrigin string  `json:"-"`
	AttendanceID  *string `json:"attendance_id,omitempty" validate:"omitempty,uuid"`
	Location      *string `json:"location,omitempty" validate:"omitempty,max=50"`
	Note          *string `json:"note,omitempty" validate:"omitempty,max=1000"`
}

func (r *CheckOutRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.UserID) {
		errs = append(errs, validator.ValidationError{
			Field:   "user_id",
			Message: "user_id is required",
		})
	}

	if err := validator.Struct(r); err != nil {
		var fieldErrs validator.ValidationErrors
		if !asValidationErrors(err, &fieldErrs) {
			return err
		}
		errs = append(errs, fieldErrs...)
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

func asValidationErrors(err error, target *validator.ValidationErrors) bool {
	v, ok := err.(validator.ValidationErrors)
	if ok {
		*target = v
	}
	return ok
}

// ========================================
// RESPONSE DTOs
// ========================================

type AttendanceResponse struct {
	ID                string   `json:"id"`
	UserID            string   `json:"user_id"`
	UserName          *string  `json:"user_name,omitempty"`
	Date              string   `json:"date"`
	Status            string   `json:"status"`
	ShiftID           *string  `json:"shift_id,omitempty"`
	ShiftKind         *string  `json:"shift_kind,omitempty"`
	RegisteredStart   *string  `json:"registered_start,omitempty"`
	RegisteredEnd     *string  `json:"registered_end,omitempty"`
	RegisteredMinutes *int     `json:"registered_minutes,omitempty"`
	CheckInTime       *string  `json:"check_in_time,omitempty"`
	CheckOutTime      *string  `json:"check_out_time,omitempty"`
	CheckInAddress    *string  `json:"check_in_address,omitempty"`
	CheckOutAddress   *string  `json:"check_out_address,omitempty"`
	CheckInLocation   *string  `json:"check_in_location,omitempty"`
	CheckOutLocation  *string  `json:"check_out_location,omitempty"`
	LateMinutes       int      `json:"late_minutes"`
	EarlyLeaveMinutes int      `json:"early_leave_minutes"`
	OvertimeMinutes   int      `json:"overtime_minutes"`
	WorkingMinutes    int      `json:"working_minutes"`
	CompletionRate    float64  `json:"completion_rate"`
	IsLate            bool     `json:"is_late"`
	IsEarlyLeave      bool     `json:"is_early_leave"`
	AutoClosed        bool     `json:"auto_closed"`
	Note              *string  `json:"note,omitempty"`
	WorkingHours      *float64 `json:"working_hours,omitempty"`
	CreatedAt         string   `json:"created_at"`
	UpdatedAt         string   `json:"updated_at"`
}

type ShiftResponse struct {
	ID              string  `json:"id"`
	Date            string  `json:"date"`
	Kind            string  `json:"kind"`
	StartTime       string  `json:"start_time"`
	EndTime         string  `json:"end_time"`
	ExpectedMinutes int     `json:"expected_minutes"`
	WorkMode        string  `json:"work_mode"`
	Note            *string `json:"note,omitempty"`
}

type TodaySummary struct {
	TotalShifts     int                 `json:"total_shifts"`
	CompletedCount  int                 `json:"completed_count"`
	InProgress      *AttendanceResponse `json:"in_progress,omitempty"`
	UnclaimedShifts []ShiftResponse     `json:"unclaimed_shifts"`
}

type TodayStatusResponse struct {
	Date        string               `json:"date"`
	Shifts      []ShiftResponse      `json:"shifts"`
	Attendances []AttendanceResponse `json:"attendances"`
	Summary     TodaySummary         `json:"summary"`
	CanCheckIn  bool                 `json:"can_check_in"`
	CanCheckOut bool                 `json:"can_check_out"`
	Message     string               `json:"message"`
}

type ListAttendanceResponse struct {
	TotalCount  int64                `json:"total_count"`
	Page        int                  `json:"page"`
	Limit       int                  `json:"limit"`
	TotalPages  int                  `json:"total_pages"`
	Showing     string               `json:"showing"`
	Attendances []AttendanceResponse `json:"attendances"`
}

type DailyReportResponse struct {
	Date        string               `json:"date"`
	Total       int                  `json:"total"`
	Attendances []AttendanceResponse `json:"attendances"`
}

type MonthlyStatsResponse struct {
	UserID                 string `json:"user_id"`
	Month                  int    `json:"month"`
	Year                   int    `json:"year"`
	TotalRecords           int    `json:"total_records"`
	CompletedDays          int    `json:"completed_days"`
	AbsentDays             int    `json:"absent_days"`
	TotalLateMinutes       int    `json:"total_late_minutes"`
	TotalEarlyLeaveMinutes int    `json:"total_early_leave_minutes"`
	TotalOvertimeMinutes   int    `json:"total_overtime_minutes"`
	TotalWorkingMinutes    int    `json:"total_working_minutes"`
	AverageWorkingMinutes  int    `json:"average_working_minutes"`
}

// ========================================
// QUERY DTOs
// ========================================

type AttendanceFilter struct {
	// Search & Filter
	UserID    *string `json:"user_id,omitempty"`
	StartDate *string `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate   *string `json:"end_date,omitempty"`   // YYYY-MM-DD
	Status    *string `json:"status,omitempty"`
	Month     *int    `json:"month,omitempty"`
	Year      *int    `json:"year,omitempty"`

	// Pagination
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func (f *AttendanceFilter) Validate() error {
	var errs validator.ValidationErrors

	// Page validation
	if f.Page < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "page",
			Message: "page must be a positive number",
		})
	}
	if f.Page == 0 {
		f.Page = 1 // Default page
	}

	// Limit validation
	if f.Limit < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must be a positive number",
		})
	}
	if f.Limit == 0 {
		f.Limit = 10 // Default limit
	}
	if f.Limit > 100 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must not exceed 100",
		})
	}

	if f.UserID != nil && *f.UserID != "" && !validator.IsValidUUID(*f.UserID) {
		errs = append(errs, validator.ValidationError{
			Field:   "user_id",
			Message: "user_id must be a valid UUID",
		})
	}

	// Status validation
	if f.Status != nil {
		if !validator.IsInSlice(*f.Status, StatusValues) {
			errs = append(errs, validator.ValidationError{
				Field:   "status",
				Message: "status must be one of: checked_in, completed, absent",
			})
		}
	}

	// Date validation
	if f.StartDate != nil && *f.StartDate != "" {
		if _, valid := validator.IsValidDate(*f.StartDate); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "start_date",
				Message: "start_date must be in YYYY-MM-DD format",
			})
		}
	}

	if f.EndDate != nil && *f.EndDate != "" {
		if _, valid := validator.IsValidDate(*f.EndDate); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "end_date",
				Message: "end_date must be in YYYY-MM-DD format",
			})
		}
	}

	if f.Month != nil {
		if *f.Month < 1 || *f.Month > 12 {
			errs = append(errs, validator.ValidationError{
				Field:   "month",
				Message: "month must be between 1 and 12",
			})
		}
		if f.Year == nil {
			errs = append(errs, validator.ValidationError{
				Field:   "year",
				Message: "year is required when month is given",
			})
		}
	}

	if f.Year != nil && (*f.Year < 2000 || *f.Year > 9999) {
		errs = append(errs, validator.ValidationError{
			Field:   "year",
			Message: fmt.Sprintf("year must be between 2000 and 9999, got %d", *f.Year),
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// ValidatePeriod checks a month/year pair used by monthly stats.
func ValidatePeriod(month, year int) error {
	var errs validator.ValidationErrors

	if month < 1 || month > 12 {
		errs = append(errs, validator.ValidationError{
			Field:   "month",
			Message: "month must be between 1 and 12",
		})
	}
	if year < 2000 || year > 9999 {
		errs = append(errs, validator.ValidationError{
			Field:   "year",
			Message: "year must be between 2000 and 9999",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// SSETokenResponse carries the short-lived token used to open the event stream
type SSETokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}
