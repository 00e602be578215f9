package postgresql

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-attendance/internal/domain/schedule"
	"github.com/cmlabs-hris/hris-attendance/internal/pkg/database"
	"github.com/jackc/pgx/v5/pgtype"
)

type shiftRegistry struct {
	db *database.DB
}

// ShiftsForUserOnDate implements schedule.ShiftRegistry.
func (r *shiftRegistry) ShiftsForUserOnDate(ctx context.Context, userID string, date time.Time) ([]schedule.Shift, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, user_id, date, kind, start_time, end_time, expected_minutes,
		       work_mode, note, created_at, updated_at
		FROM shifts
		WHERE user_id = $1 AND date = $2
		ORDER BY start_time ASC
	`

	rows, err := q.Query(ctx, query, userID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query shifts: %w", err)
	}
	defer rows.Close()

	var shifts []schedule.Shift
	for rows.Next() {
		var (
			s        schedule.Shift
			start    pgtype.Time
			end      pgtype.Time
			expected *int
		)
		if err := rows.Scan(
			&s.ID, &s.UserID, &s.Date, &s.Kind, &start, &end, &expected,
			&s.WorkMode, &s.Note, &s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan shift: %w", err)
		}
		s.Start = clockFromPg(start)
		s.End = clockFromPg(end)
		s.ExpectedMinutes = derefInt(expected)
		shifts = append(shifts, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate shifts: %w", err)
	}

	// Registration owns these rules; a broken day is reported, not rejected.
	if err := schedule.ValidateDay(shifts); err != nil {
		slog.Warn("Registered shifts violate day invariants",
			"user_id", userID,
			"date", date.Format("2006-01-02"),
			"error", err,
		)
	}

	return shifts, nil
}

func NewShiftRegistry(db *database.DB) schedule.ShiftRegistry {
	return &shiftRegistry{db: db}
}
