// Package gameclock implements in-game time arithmetic for NBA games:
// period-aware elapsed time, projections, and break compensation.
package gameclock

import "fmt"

const (
	// RegulationPeriodMinutes is the length of quarters 1-4.
	RegulationPeriodMinutes = 12
	// OvertimePeriodMinutes is the length of every period from 5 on.
	OvertimePeriodMinutes = 5
	// PeriodBreakMinutes is the break between consecutive periods.
	PeriodBreakMinutes = 2
	// HalftimeBreakMinutes is the longer break between periods 2 and 3.
	HalftimeBreakMinutes = 15

	regulationPeriods = 4
)

// PeriodMinutes returns the length in minutes of the given period.
// Period 0 is the pregame pseudo-period the scoreboard feed reports
// before tip-off; it has no length, so a pregame moment compares as
// "before the start of period 1".
func PeriodMinutes(period int) int {
	switch {
	case period < 1:
		return 0
	case period <= regulationPeriods:
		return RegulationPeriodMinutes
	default:
		return OvertimePeriodMinutes
	}
}

// Clock is the time remaining in the current period, as broadcast.
// Seconds is always in [0, 60).
type Clock struct {
	Minutes int     `json:"minutes"`
	Seconds float64 `json:"seconds"`
}

// ClockFromSeconds builds a Clock from a total seconds-remaining value.
func ClockFromSeconds(seconds float64) Clock {
	return Clock{
		Minutes: int(seconds) / 60,
		Seconds: seconds - float64(int(seconds)/60*60),
	}
}

// TotalSeconds returns the clock reading as seconds remaining.
func (c Clock) TotalSeconds() float64 {
	return float64(c.Minutes)*60 + c.Seconds
}

// IsZero reports whether the clock reads exactly 0:00.
func (c Clock) IsZero() bool {
	return c.Minutes == 0 && c.Seconds == 0
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%04.1f", c.Minutes, c.Seconds)
}

// Moment is a point of in-game time: a period plus the clock reading
// within it.
type Moment struct {
	Period int   `json:"period"`
	Clock  Clock `json:"clock"`
}

// PeriodStart returns the moment at which the given period begins,
// with a full clock.
func PeriodStart(period int) Moment {
	return Moment{
		Period: period,
		Clock:  Clock{Minutes: PeriodMinutes(period)},
	}
}

// AtPeriodEnd reports whether the clock reads exactly 0:00, meaning the
// period has just ended (or, with a stale feed, has not started yet).
func (m Moment) AtPeriodEnd() bool {
	return m.Clock.IsZero()
}

// ReverseClock converts the remaining-time reading into the time elapsed
// since the period started. A reading exactly on a minute boundary is
// ambiguous; a 0-second clock maps to a 0-second elapsed reading so that
// 0:00 means "the full period has elapsed" rather than an X:60 split.
func (m Moment) ReverseClock() Clock {
	periodMinutes := PeriodMinutes(m.Period)
	if m.Clock.Seconds == 0 {
		return Clock{Minutes: periodMinutes - m.Clock.Minutes}
	}
	return Clock{
		Minutes: periodMinutes - m.Clock.Minutes - 1,
		Seconds: 60 - m.Clock.Seconds,
	}
}

// TotalElapsedSeconds returns the canonical comparable quantity for two
// moments: seconds elapsed since the opening tip, counting full lengths
// of all preceding periods. Break time is not included.
func (m Moment) TotalElapsedSeconds() float64 {
	total := m.ReverseClock().TotalSeconds()
	for p := 1; p < m.Period; p++ {
		total += float64(PeriodMinutes(p) * 60)
	}
	return total
}

// AddSeconds projects the moment that is consumed by playing the given
// number of game-clock seconds from m, rolling into subsequent periods
// as the clock runs out.
func (m Moment) AddSeconds(seconds float64) Moment {
	remaining := m.Clock.TotalSeconds() - seconds
	period := m.Period
	for remaining < 0 {
		period++
		remaining += float64(PeriodMinutes(period) * 60)
	}
	return Moment{Period: period, Clock: ClockFromSeconds(remaining)}
}

func (m Moment) String() string {
	return fmt.Sprintf("P%d %s", m.Period, m.Clock)
}

// SecondsBetween returns the game-plus-break seconds separating moment a
// from a later moment b. A moment exactly at a period end is treated as
// the start of the next period, since the real time spent inside the
// break is unknown. Every period boundary crossed adds a fixed break,
// and a crossing of halftime adds the longer halftime break instead.
func SecondsBetween(a, b Moment) float64 {
	if a.AtPeriodEnd() {
		a = PeriodStart(a.Period + 1)
	}

	breakSeconds := 0.0
	if b.Period > a.Period {
		breakSeconds = float64((b.Period - a.Period) * PeriodBreakMinutes * 60)
	}
	if a.Period <= 2 && b.Period >= 3 {
		// The halftime crossing was counted as a plain period break above.
		breakSeconds += float64((HalftimeBreakMinutes - PeriodBreakMinutes) * 60)
	}

	return b.TotalElapsedSeconds() - a.TotalElapsedSeconds() + breakSeconds
}
