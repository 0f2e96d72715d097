package conditions

import (
	"errors"
	"fmt"

	"github.com/mcourt/clutchtime/go/internal/gameclock"
)

// Validation happens once, at creation time. The scheduler never
// re-validates: a condition that reaches it is well formed.

var errEndBeforeStart = errors.New("range end is not after range start")

// Validate checks a params value for structural problems. It is called
// by whatever creates the condition; a failure is surfaced synchronously
// to the caller.
func Validate(p Params) error {
	switch v := p.(type) {
	case TimeRangeParams:
		if err := validateMoment(v.Start); err != nil {
			return fmt.Errorf("range start: %w", err)
		}
		if err := validateMoment(v.End); err != nil {
			return fmt.Errorf("range end: %w", err)
		}
		if v.End.TotalElapsedSeconds() <= v.Start.TotalElapsedSeconds() {
			return errEndBeforeStart
		}
		return nil
	case DifferenceParams:
		if v.Comparator != CompGreater && v.Comparator != CompAtMost {
			return fmt.Errorf("unknown comparator %q", v.Comparator)
		}
		if v.Threshold < 0 {
			return fmt.Errorf("negative threshold %d", v.Threshold)
		}
		return nil
	case LeaderParams:
		if v.LeaderTeamID <= 0 {
			return fmt.Errorf("invalid leader team id %d", v.LeaderTeamID)
		}
		return nil
	default:
		return fmt.Errorf("unknown params type %T", p)
	}
}

func validateMoment(m gameclock.Moment) error {
	if m.Period < 1 {
		return fmt.Errorf("invalid period %d", m.Period)
	}
	if m.Clock.Minutes < 0 || m.Clock.Seconds < 0 || m.Clock.Seconds >= 60 {
		return fmt.Errorf("invalid clock %s", m.Clock)
	}
	if m.Clock.TotalSeconds() > float64(gameclock.PeriodMinutes(m.Period)*60) {
		return fmt.Errorf("clock %s exceeds period %d length", m.Clock, m.Period)
	}
	return nil
}
