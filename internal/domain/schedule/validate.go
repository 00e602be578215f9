package schedule

import (
	"fmt"
	"sort"
)

// Validate checks a single shift.
func (s Shift) Validate() error {
	if s.Start >= s.End {
		return fmt.Errorf("shift %s: %w", s.ID, ErrInvalidShiftWindow)
	}
	if s.RegisteredMinutes() < MinShiftMinutes || s.DurationMinutes() < MinShiftMinutes {
		return fmt.Errorf("shift %s: %w", s.ID, ErrShiftTooShort)
	}
	return nil
}

// ValidateDay checks the invariants of one user-day: every shift is valid,
// non-custom kinds appear at most once and no two shifts overlap.
func ValidateDay(shifts []Shift) error {
	if len(shifts) == 0 {
		return nil
	}

	sorted := make([]Shift, len(shifts))
	copy(sorted, shifts)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	seen := make(map[ShiftKind]bool)
	first := sorted[0]
	for i, s := range sorted {
		if s.UserID != first.UserID || !s.Date.Equal(first.Date) {
			return ErrMixedShiftOwnership
		}
		if err := s.Validate(); err != nil {
			return err
		}
		if s.Kind != ShiftKindCustom {
			if seen[s.Kind] {
				return fmt.Errorf("%s: %w", s.Kind, ErrDuplicateShiftKind)
			}
			seen[s.Kind] = true
		}
		if i > 0 && sorted[i-1].End > s.Start {
			return fmt.Errorf("%s-%s and %s-%s: %w",
				sorted[i-1].Start, sorted[i-1].End, s.Start, s.End, ErrOverlappingShifts)
		}
	}
	return nil
}
