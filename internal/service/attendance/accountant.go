package attendance

import (
	"time"

	"github.com/cmlabs-hris/hris-attendance/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance/internal/domain/schedule"
	"github.com/shopspring/decimal"
)

// Accountant computes lateness, early leave, overtime and completion rate.
// Times of day are read in the business location.
type Accountant struct {
	loc *time.Location
}

func NewAccountant(loc *time.Location) Accountant {
	if loc == nil {
		loc = time.UTC
	}
	return Accountant{loc: loc}
}

func (a Accountant) minutesOfDay(t time.Time) int {
	return int(schedule.ClockOf(t.In(a.loc)))
}

// LateMinutes is how far check-in falls after the shift start.
func (a Accountant) LateMinutes(checkIn time.Time, shiftStart schedule.Clock) int {
	return max(0, a.minutesOfDay(checkIn)-int(shiftStart))
}

// EarlyLeaveMinutes is how far check-out falls before the shift end.
func (a Accountant) EarlyLeaveMinutes(checkOut time.Time, shiftEnd schedule.Clock) int {
	return max(0, int(shiftEnd)-a.minutesOfDay(checkOut))
}

// WorkingMinutes is the whole number of minutes between check-in and check-out.
func WorkingMinutes(checkIn, checkOut time.Time) int {
	d := checkOut.Sub(checkIn)
	if d < 0 {
		return 0
	}
	return int(d / time.Minute)
}

// OvertimeMinutes is the time worked beyond the registered minutes.
func OvertimeMinutes(workingMinutes, registeredMinutes int) int {
	return max(0, workingMinutes-registeredMinutes)
}

// CompletionRate is worked/registered as a percentage, two decimals, capped at 100.
func CompletionRate(workingMinutes, registeredMinutes int) float64 {
	if registeredMinutes <= 0 {
		return 0
	}
	hundred := decimal.NewFromInt(100)
	rate := decimal.NewFromInt(int64(workingMinutes)).
		Mul(hundred).
		Div(decimal.NewFromInt(int64(registeredMinutes))).
		Round(2)
	if rate.GreaterThan(hundred) {
		rate = hundred
	}
	f, _ := rate.Float64()
	return f
}

// Settle computes the check-out accounting for a record against its snapshot.
func (a Accountant) Settle(in attendance.CheckIn, checkOut time.Time, shift attendance.ShiftSnapshot) attendance.CheckOut {
	working := WorkingMinutes(in.Time, checkOut)
	return attendance.CheckOut{
		Time:              checkOut,
		WorkingMinutes:    working,
		EarlyLeaveMinutes: a.EarlyLeaveMinutes(checkOut, shift.End),
		OvertimeMinutes:   OvertimeMinutes(working, shift.Minutes),
		CompletionRate:    CompletionRate(working, shift.Minutes),
	}
}
