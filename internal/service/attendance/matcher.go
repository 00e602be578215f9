package attendance

import (
	"fmt"
	"sort"
	"time"

	"github.com/cmlabs-hris/hris-attendance/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance/internal/domain/schedule"
)

// MatchRequest describes which shift a check-in targets.
type MatchRequest struct {
	ShiftID *string
	Kind    *schedule.ShiftKind
	Now     time.Time
}

// Matcher resolves a check-in to exactly one registered shift of the day.
type Matcher struct {
	loc *time.Location
}

func NewMatcher(loc *time.Location) Matcher {
	if loc == nil {
		loc = time.UTC
	}
	return Matcher{loc: loc}
}

// Match picks the target shift. Resolution order: explicit id, explicit kind,
// then the first unclaimed shift that has not ended yet. When every unclaimed
// shift has already ended the latest one is returned.
//
// Errors: ErrNoScheduleForDay when the day has no workable shift. An explicit
// id gives ErrShiftAlreadyClaimed when claimed and ErrNoMatchingShift when it
// is not one of the day's workable shifts. A kind with no unclaimed shift
// gives ErrNoMatchingShift. Automatic mode gives ErrShiftAlreadyClaimed when
// every shift is claimed.
func (m Matcher) Match(shifts []schedule.Shift, claimed map[string]bool, req MatchRequest) (schedule.Shift, error) {
	workable := workableShifts(shifts)
	if len(workable) == 0 {
		return schedule.Shift{}, attendance.ErrNoScheduleForDay
	}

	if req.ShiftID != nil && *req.ShiftID != "" {
		for _, s := range workable {
			if s.ID != *req.ShiftID {
				continue
			}
			if claimed[s.ID] {
				return schedule.Shift{}, attendance.ErrShiftAlreadyClaimed
			}
			return s, nil
		}
		return schedule.Shift{}, fmt.Errorf("shift %s is not registered for today: %w", *req.ShiftID, attendance.ErrNoMatchingShift)
	}

	unclaimed := unclaimedShifts(workable, claimed)
	nowClock := schedule.ClockOf(req.Now.In(m.loc))

	if req.Kind != nil && *req.Kind != "" {
		var ofKind []schedule.Shift
		for _, s := range unclaimed {
			if s.Kind == *req.Kind {
				ofKind = append(ofKind, s)
			}
		}
		if len(ofKind) == 0 {
			return schedule.Shift{}, fmt.Errorf("no unclaimed %s shift today: %w", *req.Kind, attendance.ErrNoMatchingShift)
		}
		return nearest(ofKind, nowClock), nil
	}

	if len(unclaimed) == 0 {
		return schedule.Shift{}, fmt.Errorf("every shift today already has attendance: %w", attendance.ErrShiftAlreadyClaimed)
	}
	return nearest(unclaimed, nowClock), nil
}

// nearest returns the first shift (by start) whose end is not before now,
// or the latest shift if all have ended. shifts must be sorted and non-empty.
func nearest(shifts []schedule.Shift, now schedule.Clock) schedule.Shift {
	for _, s := range shifts {
		if s.End >= now {
			return s
		}
	}
	return shifts[len(shifts)-1]
}

func workableShifts(shifts []schedule.Shift) []schedule.Shift {
	out := make([]schedule.Shift, 0, len(shifts))
	for _, s := range shifts {
		if s.Workable() {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

func unclaimedShifts(shifts []schedule.Shift, claimed map[string]bool) []schedule.Shift {
	out := make([]schedule.Shift, 0, len(shifts))
	for _, s := range shifts {
		if !claimed[s.ID] {
			out = append(out, s)
		}
	}
	return out
}
