package attendance

import "errors"

// Attendance domain errors
var (
	// Check-in errors
	ErrNoScheduleForDay    = errors.New("no schedule for today")
	ErrShiftAlreadyClaimed = errors.New("already checked in for this shift")
	ErrNoMatchingShift     = errors.New("no matching shift available for check-in")
	ErrOpenShiftBlocking   = errors.New("must check out current shift first")

	// Check-out errors
	ErrNoOpenCheckIn = errors.New("no open check-in found or already closed")

	// General errors
	ErrAttendanceNotFound = errors.New("attendance record not found")

	// State errors
	ErrInvalidTransition     = errors.New("attendance is not checked in")
	ErrCheckOutBeforeCheckIn = errors.New("check-out time is before check-in time")

	// ErrConcurrentCheckIn is returned by the store when another open record
	// for the same user was written first.
	ErrConcurrentCheckIn = errors.New("another check-in for this user is in progress")
)
