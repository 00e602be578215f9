package response

import (
	"errors"
	"net/http"

	"github.com/cmlabs-hris/hris-attendance/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance/internal/domain/user"
	"github.com/cmlabs-hris/hris-attendance/internal/pkg/validator"
)

type domainError struct {
	err    error
	status int
	code   string
}

// Attendance failures carry their own codes so clients can react without
// parsing messages.
var domainErrors = []domainError{
	{attendance.ErrAttendanceNotFound, http.StatusNotFound, "ATTENDANCE_NOT_FOUND"},
	{attendance.ErrShiftAlreadyClaimed, http.StatusConflict, "SHIFT_ALREADY_CLAIMED"},
	{attendance.ErrOpenShiftBlocking, http.StatusConflict, "OPEN_SHIFT_BLOCKING"},
	{attendance.ErrConcurrentCheckIn, http.StatusConflict, "CONCURRENT_CHECK_IN"},
	{attendance.ErrNoScheduleForDay, http.StatusBadRequest, "NO_SCHEDULE_FOR_DAY"},
	{attendance.ErrNoMatchingShift, http.StatusBadRequest, "NO_MATCHING_SHIFT"},
	{attendance.ErrNoOpenCheckIn, http.StatusBadRequest, "NO_OPEN_CHECK_IN"},
	{attendance.ErrInvalidTransition, http.StatusBadRequest, "INVALID_TRANSITION"},
	{attendance.ErrCheckOutBeforeCheckIn, http.StatusBadRequest, "CHECK_OUT_BEFORE_CHECK_IN"},
	{user.ErrInvalidToken, http.StatusUnauthorized, CodeUnauthorized},
	{user.ErrAdminPrivilegeRequired, http.StatusForbidden, CodeForbidden},
	{user.ErrInsufficientPermissions, http.StatusForbidden, CodeForbidden},
}

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	for _, de := range domainErrors {
		if errors.Is(err, de.err) {
			Error(w, de.status, de.code, de.err.Error(), nil)
			return
		}
	}

	InternalServerError(w, "An unexpected error occurred")
}
