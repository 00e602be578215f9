package attendance

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-attendance/internal/domain/schedule"
)

type Status string

const (
	StatusCheckedIn Status = "checked_in"
	StatusCompleted Status = "completed"
	StatusAbsent    Status = "absent"
)

var StatusValues = []string{
	string(StatusCheckedIn),
	string(StatusCompleted),
	string(StatusAbsent),
}

// ShiftSnapshot is the registered window copied from the matched shift at
// check-in time, so later edits to the shift do not change accounting.
type ShiftSnapshot struct {
	ShiftID string
	Kind    schedule.ShiftKind
	Start   schedule.Clock
	End     schedule.Clock
	Minutes int
}

// SnapshotOf copies the registered window of a shift.
func SnapshotOf(s schedule.Shift) ShiftSnapshot {
	return ShiftSnapshot{
		ShiftID: s.ID,
		Kind:    s.Kind,
		Start:   s.Start,
		End:     s.End,
		Minutes: s.RegisteredMinutes(),
	}
}

// CheckIn holds what is known once a user has checked in.
type CheckIn struct {
	Time        time.Time
	Address     *string
	Location    *string
	LateMinutes int
}

// CheckOut holds the settled accounting of a finished shift.
type CheckOut struct {
	Time              time.Time
	Address           *string
	Location          *string
	WorkingMinutes    int
	EarlyLeaveMinutes int
	OvertimeMinutes   int
	CompletionRate    float64
	AutoClosed        bool
}

// Attendance is one actual check-in/out cycle against a shift.
//
// The phase structs encode which fields are meaningful for each status:
//
//	checked_in: Shift, CheckIn
//	completed:  Shift, CheckIn, CheckOut
//	absent:     optionally Shift, nothing else
type Attendance struct {
	ID        string
	UserID    string
	Date      time.Time
	Status    Status
	Shift     *ShiftSnapshot
	CheckIn   *CheckIn
	CheckOut  *CheckOut
	Note      *string
	CreatedAt time.Time
	UpdatedAt time.Time

	// DTO
	UserName *string
}

// NewCheckedIn builds a fresh open record for the matched shift.
func NewCheckedIn(userID string, date time.Time, shift ShiftSnapshot, in CheckIn, note *string) Attendance {
	return Attendance{
		UserID:  userID,
		Date:    date,
		Status:  StatusCheckedIn,
		Shift:   &shift,
		CheckIn: &in,
		Note:    note,
	}
}

// IsOpen reports whether the record is an unfinished check-in.
func (a Attendance) IsOpen() bool {
	return a.Status == StatusCheckedIn
}

// ShiftID returns the matched shift id, or "" for pure absence markers.
func (a Attendance) ShiftID() string {
	if a.Shift == nil {
		return ""
	}
	return a.Shift.ShiftID
}

// Complete transitions an open record to completed. It is the only
// transition the engine performs.
func (a *Attendance) Complete(out CheckOut) error {
	if a.Status != StatusCheckedIn || a.CheckIn == nil {
		return fmt.Errorf("attendance %s is %s: %w", a.ID, a.Status, ErrInvalidTransition)
	}
	if out.Time.Before(a.CheckIn.Time) {
		return fmt.Errorf("attendance %s: %w", a.ID, ErrCheckOutBeforeCheckIn)
	}
	a.CheckOut = &out
	a.Status = StatusCompleted
	return nil
}

// AppendNote adds a line to the record's note.
func (a *Attendance) AppendNote(note string) {
	if note == "" {
		return
	}
	if a.Note == nil || *a.Note == "" {
		a.Note = &note
		return
	}
	joined := *a.Note + "\n" + note
	a.Note = &joined
}

// ClaimedShiftIDs returns the ids of shifts that already have a record.
func ClaimedShiftIDs(records []Attendance) map[string]bool {
	claimed := make(map[string]bool, len(records))
	for _, r := range records {
		if id := r.ShiftID(); id != "" {
			claimed[id] = true
		}
	}
	return claimed
}
