package attendance

import (
	"context"
	"time"
)

// AttendanceRepository defines data access methods for attendance records.
type AttendanceRepository interface {
	// Create inserts a new record. It returns ErrConcurrentCheckIn when the
	// user already has an open record.
	Create(ctx context.Context, attendance Attendance) (Attendance, error)

	// GetByID retrieves a record by ID
	GetByID(ctx context.Context, id string) (Attendance, error)

	// Update persists the mutable fields of an existing record
	Update(ctx context.Context, attendance Attendance) error

	// ListByUserAndDate returns the user's records for one civil day
	ListByUserAndDate(ctx context.Context, userID string, date time.Time) ([]Attendance, error)

	// GetOpenByUser returns the user's checked_in record, or nil when there is none
	GetOpenByUser(ctx context.Context, userID string) (*Attendance, error)

	// ListOpen returns every checked_in record
	ListOpen(ctx context.Context) ([]Attendance, error)

	// ListByUserAndRange returns the user's records with from <= date <= to
	ListByUserAndRange(ctx context.Context, userID string, from, to time.Time) ([]Attendance, error)

	// ListByDate returns all records of a day ordered by check-in time
	ListByDate(ctx context.Context, date time.Time) ([]Attendance, error)

	// List retrieves records with filters and pagination
	List(ctx context.Context, filter AttendanceFilter) ([]Attendance, int64, error)
}

// Transactor scopes repository calls to a transaction carried in ctx.
type Transactor interface {
	// WithUserLock runs fn in a transaction that holds the per-user attendance
	// lock, serializing check-in, check-out and auto-close for that user.
	WithUserLock(ctx context.Context, userID string, fn func(ctx context.Context) error) error

	// ReadOnly runs fn in a read-only repeatable-read transaction.
	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}
