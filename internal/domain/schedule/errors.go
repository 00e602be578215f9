package schedule

import "errors"

var (
	ErrInvalidClock        = errors.New("time must be in HH:mm format")
	ErrInvalidShiftWindow  = errors.New("shift start must be before shift end")
	ErrShiftTooShort       = errors.New("shift must be at least 120 minutes")
	ErrDuplicateShiftKind  = errors.New("only one shift of this kind is allowed per day")
	ErrOverlappingShifts   = errors.New("shifts on the same day must not overlap")
	ErrMixedShiftOwnership = errors.New("shifts of one day must belong to the same user and date")
)
