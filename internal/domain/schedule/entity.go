package schedule

import (
	"fmt"
	"time"
)

// MinShiftMinutes is the shortest interval that can be registered as a shift.
const MinShiftMinutes = 120

type ShiftKind string

const (
	ShiftKindMorning   ShiftKind = "morning"
	ShiftKindAfternoon ShiftKind = "afternoon"
	ShiftKindCustom    ShiftKind = "custom"
	ShiftKindFullDay   ShiftKind = "full_day"
)

var ShiftKindValues = []string{
	string(ShiftKindMorning),
	string(ShiftKindAfternoon),
	string(ShiftKindCustom),
	string(ShiftKindFullDay),
}

type WorkMode string

const (
	WorkModeOnSite WorkMode = "on_site"
	WorkModeRemote WorkMode = "remote"
	WorkModeOff    WorkMode = "off"
)

var WorkModeValues = []string{
	string(WorkModeOnSite),
	string(WorkModeRemote),
	string(WorkModeOff),
}

// Clock is a time of day expressed in minutes since midnight.
type Clock int

// NewClock builds a Clock from hour and minute.
func NewClock(hour, minute int) Clock {
	return Clock(hour*60 + minute)
}

// ParseClock parses an "HH:mm" (or "HH:mm:ss") string.
func ParseClock(s string) (Clock, error) {
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return NewClock(t.Hour(), t.Minute()), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
}

// ClockOf returns the time of day of t in its own location.
func ClockOf(t time.Time) Clock {
	return NewClock(t.Hour(), t.Minute())
}

func (c Clock) Hour() int   { return int(c) / 60 }
func (c Clock) Minute() int { return int(c) % 60 }

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// On places the clock on the civil day of date, in loc.
func (c Clock) On(date time.Time, loc *time.Location) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), c.Hour(), c.Minute(), 0, 0, loc)
}

func (c Clock) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Clock) UnmarshalText(b []byte) error {
	parsed, err := ParseClock(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Shift is one registered work interval of a user on a specific date.
// It is read-only input for the attendance engine.
type Shift struct {
	ID              string
	UserID          string
	Date            time.Time
	Kind            ShiftKind
	Start           Clock
	End             Clock
	ExpectedMinutes int
	WorkMode        WorkMode
	Note            *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// DurationMinutes is the length of the registered window.
func (s Shift) DurationMinutes() int {
	return int(s.End - s.Start)
}

// RegisteredMinutes returns ExpectedMinutes, falling back to the window length.
func (s Shift) RegisteredMinutes() int {
	if s.ExpectedMinutes > 0 {
		return s.ExpectedMinutes
	}
	return s.DurationMinutes()
}

// Workable reports whether attendance can be recorded against the shift.
func (s Shift) Workable() bool {
	return s.WorkMode != WorkModeOff
}

// DefaultWindow holds the standard hours for the fixed shift kinds.
type DefaultWindow struct {
	Start   Clock
	End     Clock
	Minutes int
}

var DefaultWindows = map[ShiftKind]DefaultWindow{
	ShiftKindMorning:   {Start: NewClock(8, 30), End: NewClock(12, 0), Minutes: 210},
	ShiftKindAfternoon: {Start: NewClock(13, 0), End: NewClock(17, 30), Minutes: 270},
}

// DateOf returns the civil day of t (as seen in t's location) as a UTC midnight.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
