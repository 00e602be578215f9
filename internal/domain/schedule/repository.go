package schedule

import (
	"context"
	"time"
)

// ShiftRegistry is the authoritative source of registered shifts.
type ShiftRegistry interface {
	// ShiftsForUserOnDate returns the user's shifts for the civil day, ordered by start time.
	ShiftsForUserOnDate(ctx context.Context, userID string, date time.Time) ([]Shift, error)
}
