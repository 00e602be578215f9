package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-attendance/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance/internal/domain/schedule"
	"github.com/cmlabs-hris/hris-attendance/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

const openAttendanceIndex = "uq_attendances_open_per_user"

const attendanceColumns = `
	a.id, a.user_id, a.date, a.status,
	a.shift_id, a.shift_kind, a.registered_start, a.registered_end, a.registered_minutes,
	a.check_in_time, a.check_in_address, a.check_in_location, a.late_minutes,
	a.check_out_time, a.check_out_address, a.check_out_location,
	a.working_minutes, a.early_leave_minutes, a.overtime_minutes,
	a.completion_rate::float8, a.auto_closed,
	a.note, a.created_at, a.updated_at,
	u.full_name AS user_name`

const attendanceFrom = `
	FROM attendances a
	LEFT JOIN users u ON u.id = a.user_id`

type attendanceRepository struct {
	db *database.DB
}

func clockToPg(c schedule.Clock) pgtype.Time {
	return pgtype.Time{Microseconds: int64(c) * int64(time.Minute/time.Microsecond), Valid: true}
}

func clockFromPg(t pgtype.Time) schedule.Clock {
	return schedule.Clock(t.Microseconds / int64(time.Minute/time.Microsecond))
}

// scanAttendance maps a flat row onto the state-shaped entity.
func scanAttendance(row pgx.Row) (attendance.Attendance, error) {
	var (
		att              attendance.Attendance
		shiftID          *string
		shiftKind        *string
		registeredStart  pgtype.Time
		registeredEnd    pgtype.Time
		registeredMin    *int
		checkInTime      *time.Time
		checkInAddress   *string
		checkInLocation  *string
		lateMinutes      int
		checkOutTime     *time.Time
		checkOutAddress  *string
		checkOutLocation *string
		workingMinutes   *int
		earlyLeave       *int
		overtime         *int
		completionRate   *float64
		autoClosed       bool
	)

	err := row.Scan(
		&att.ID, &att.UserID, &att.Date, &att.Status,
		&shiftID, &shiftKind, &registeredStart, &registeredEnd, &registeredMin,
		&checkInTime, &checkInAddress, &checkInLocation, &lateMinutes,
		&checkOutTime, &checkOutAddress, &checkOutLocation,
		&workingMinutes, &earlyLeave, &overtime,
		&completionRate, &autoClosed,
		&att.Note, &att.CreatedAt, &att.UpdatedAt,
		&att.UserName,
	)
	if err != nil {
		return attendance.Attendance{}, err
	}

	if shiftID != nil {
		snapshot := attendance.ShiftSnapshot{
			ShiftID: *shiftID,
			Start:   clockFromPg(registeredStart),
			End:     clockFromPg(registeredEnd),
			Minutes: derefInt(registeredMin),
		}
		if shiftKind != nil {
			snapshot.Kind = schedule.ShiftKind(*shiftKind)
		}
		att.Shift = &snapshot
	}

	if checkInTime != nil {
		att.CheckIn = &attendance.CheckIn{
			Time:        *checkInTime,
			Address:     checkInAddress,
			Location:    checkInLocation,
			LateMinutes: lateMinutes,
		}
	}

	if checkOutTime != nil {
		att.CheckOut = &attendance.CheckOut{
			Time:              *checkOutTime,
			Address:           checkOutAddress,
			Location:          checkOutLocation,
			WorkingMinutes:    derefInt(workingMinutes),
			EarlyLeaveMinutes: derefInt(earlyLeave),
			OvertimeMinutes:   derefInt(overtime),
			AutoClosed:        autoClosed,
		}
		if completionRate != nil {
			att.CheckOut.CompletionRate = *completionRate
		}
	}

	return att, nil
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func (a *attendanceRepository) queryList(ctx context.Context, query string, args ...interface{}) ([]attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attendances []attendance.Attendance
	for rows.Next() {
		att, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		attendances = append(attendances, att)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return attendances, nil
}

// Create implements attendance.AttendanceRepository.
func (a *attendanceRepository) Create(ctx context.Context, newAttendance attendance.Attendance) (attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	if newAttendance.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return attendance.Attendance{}, fmt.Errorf("failed to generate attendance id: %w", err)
		}
		newAttendance.ID = id.String()
	}

	var (
		shiftID         *string
		shiftKind       *string
		registeredStart pgtype.Time
		registeredEnd   pgtype.Time
		registeredMin   *int
	)
	if s := newAttendance.Shift; s != nil {
		kind := string(s.Kind)
		minutes := s.Minutes
		shiftID = &s.ShiftID
		shiftKind = &kind
		registeredStart = clockToPg(s.Start)
		registeredEnd = clockToPg(s.End)
		registeredMin = &minutes
	}

	var (
		checkInTime     *time.Time
		checkInAddress  *string
		checkInLocation *string
		lateMinutes     int
	)
	if in := newAttendance.CheckIn; in != nil {
		checkInTime = &in.Time
		checkInAddress = in.Address
		checkInLocation = in.Location
		lateMinutes = in.LateMinutes
	}

	query := `
		INSERT INTO attendances (
			id, user_id, date, status,
			shift_id, shift_kind, registered_start, registered_end, registered_minutes,
			check_in_time, check_in_address, check_in_location, late_minutes,
			note
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
		) RETURNING created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		newAttendance.ID,
		newAttendance.UserID,
		newAttendance.Date,
		newAttendance.Status,
		shiftID,
		shiftKind,
		registeredStart,
		registeredEnd,
		registeredMin,
		checkInTime,
		checkInAddress,
		checkInLocation,
		lateMinutes,
		newAttendance.Note,
	).Scan(&newAttendance.CreatedAt, &newAttendance.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == openAttendanceIndex {
			return attendance.Attendance{}, attendance.ErrConcurrentCheckIn
		}
		return attendance.Attendance{}, fmt.Errorf("failed to create attendance: %w", err)
	}

	return newAttendance, nil
}

// GetByID implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByID(ctx context.Context, id string) (attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT` + attendanceColumns + attendanceFrom + `
		WHERE a.id = $1
	`

	att, err := scanAttendance(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Attendance{}, attendance.ErrAttendanceNotFound
		}
		return attendance.Attendance{}, fmt.Errorf("failed to get attendance by id: %w", err)
	}

	return att, nil
}

// Update implements attendance.AttendanceRepository.
func (a *attendanceRepository) Update(ctx context.Context, att attendance.Attendance) error {
	q := GetQuerier(ctx, a.db)

	var (
		checkOutTime     *time.Time
		checkOutAddress  *string
		checkOutLocation *string
		workingMinutes   *int
		earlyLeave       *int
		overtime         *int
		completionRate   *float64
		autoClosed       bool
	)
	if out := att.CheckOut; out != nil {
		checkOutTime = &out.Time
		checkOutAddress = out.Address
		checkOutLocation = out.Location
		workingMinutes = &out.WorkingMinutes
		earlyLeave = &out.EarlyLeaveMinutes
		overtime = &out.OvertimeMinutes
		completionRate = &out.CompletionRate
		autoClosed = out.AutoClosed
	}

	query := `
		UPDATE attendances SET
			status = $2,
			check_out_time = $3,
			check_out_address = $4,
			check_out_location = $5,
			working_minutes = $6,
			early_leave_minutes = $7,
			overtime_minutes = $8,
			completion_rate = $9,
			auto_closed = $10,
			note = $11,
			updated_at = NOW()
		WHERE id = $1
	`

	tag, err := q.Exec(ctx, query,
		att.ID,
		att.Status,
		checkOutTime,
		checkOutAddress,
		checkOutLocation,
		workingMinutes,
		earlyLeave,
		overtime,
		completionRate,
		autoClosed,
		att.Note,
	)
	if err != nil {
		return fmt.Errorf("failed to update attendance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return attendance.ErrAttendanceNotFound
	}

	return nil
}

// ListByUserAndDate implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListByUserAndDate(ctx context.Context, userID string, date time.Time) ([]attendance.Attendance, error) {
	query := `SELECT` + attendanceColumns + attendanceFrom + `
		WHERE a.user_id = $1 AND a.date = $2
		ORDER BY a.check_in_time ASC NULLS LAST
	`

	attendances, err := a.queryList(ctx, query, userID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendances by user and date: %w", err)
	}
	return attendances, nil
}

// GetOpenByUser implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetOpenByUser(ctx context.Context, userID string) (*attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT` + attendanceColumns + attendanceFrom + `
		WHERE a.user_id = $1 AND a.status = 'checked_in'
		ORDER BY a.check_in_time DESC
		LIMIT 1
	`

	att, err := scanAttendance(q.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get open attendance: %w", err)
	}

	return &att, nil
}

// ListOpen implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListOpen(ctx context.Context) ([]attendance.Attendance, error) {
	query := `SELECT` + attendanceColumns + attendanceFrom + `
		WHERE a.status = 'checked_in'
		ORDER BY a.date ASC, a.check_in_time ASC
	`

	attendances, err := a.queryList(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list open attendances: %w", err)
	}
	return attendances, nil
}

// ListByUserAndRange implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListByUserAndRange(ctx context.Context, userID string, from, to time.Time) ([]attendance.Attendance, error) {
	query := `SELECT` + attendanceColumns + attendanceFrom + `
		WHERE a.user_id = $1 AND a.date BETWEEN $2 AND $3
		ORDER BY a.date ASC, a.check_in_time ASC NULLS LAST
	`

	attendances, err := a.queryList(ctx, query, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendances by range: %w", err)
	}
	return attendances, nil
}

// ListByDate implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListByDate(ctx context.Context, date time.Time) ([]attendance.Attendance, error) {
	query := `SELECT` + attendanceColumns + attendanceFrom + `
		WHERE a.date = $1
		ORDER BY a.check_in_time ASC NULLS LAST, a.id ASC
	`

	attendances, err := a.queryList(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendances by date: %w", err)
	}
	return attendances, nil
}

// List implements attendance.AttendanceRepository.
func (a *attendanceRepository) List(ctx context.Context, filter attendance.AttendanceFilter) ([]attendance.Attendance, int64, error) {
	q := GetQuerier(ctx, a.db)

	// Build WHERE clause
	baseWhere := "TRUE"
	args := []interface{}{}
	argIdx := 1

	if filter.UserID != nil && *filter.UserID != "" {
		baseWhere += fmt.Sprintf(" AND a.user_id = $%d", argIdx)
		args = append(args, *filter.UserID)
		argIdx++
	}

	// Date range filters
	if filter.StartDate != nil && *filter.StartDate != "" {
		baseWhere += fmt.Sprintf(" AND a.date >= $%d", argIdx)
		args = append(args, *filter.StartDate)
		argIdx++
	}
	if filter.EndDate != nil && *filter.EndDate != "" {
		baseWhere += fmt.Sprintf(" AND a.date <= $%d", argIdx)
		args = append(args, *filter.EndDate)
		argIdx++
	}

	if filter.Status != nil && *filter.Status != "" {
		baseWhere += fmt.Sprintf(" AND a.status = $%d", argIdx)
		args = append(args, *filter.Status)
		argIdx++
	}

	// Month/year filters
	if filter.Month != nil {
		baseWhere += fmt.Sprintf(" AND EXTRACT(MONTH FROM a.date) = $%d", argIdx)
		args = append(args, *filter.Month)
		argIdx++
	}
	if filter.Year != nil {
		baseWhere += fmt.Sprintf(" AND EXTRACT(YEAR FROM a.date) = $%d", argIdx)
		args = append(args, *filter.Year)
		argIdx++
	}

	countQuery := `SELECT COUNT(*) FROM attendances a WHERE ` + baseWhere
	var total int64
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count attendances: %w", err)
	}

	// Build query with pagination
	selectQuery := fmt.Sprintf(`SELECT %s %s
		WHERE %s
		ORDER BY a.date DESC, a.check_in_time DESC NULLS LAST
		LIMIT $%d OFFSET $%d
	`, attendanceColumns, attendanceFrom, baseWhere, argIdx, argIdx+1)

	limit := filter.Limit
	if limit == 0 {
		limit = 10
	}
	page := max(filter.Page, 1)
	args = append(args, limit, (page-1)*limit)

	attendances, err := a.queryList(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query attendances: %w", err)
	}

	return attendances, total, nil
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepository{db: db}
}
