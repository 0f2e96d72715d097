package orchestrator

import "time"

// BackoffTier maps a consecutive-failure ceiling to a retry delay.
type BackoffTier struct {
	MaxFails int
	Delay    time.Duration
}

// RetryPolicy drives the session-level fallback behavior when the live
// data fetch fails: tiered re-check delays while the budget lasts, then
// the session gives up for the day.
type RetryPolicy struct {
	Tiers    []BackoffTier
	Fallback time.Duration
	Budget   int
}

// DefaultRetryPolicy returns the stock escalation: under 3 failures
// re-check in a minute, under 5 in five, then every ten, giving up for
// the day after the 9th consecutive failure.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Tiers: []BackoffTier{
			{MaxFails: 3, Delay: time.Minute},
			{MaxFails: 5, Delay: 5 * time.Minute},
		},
		Fallback: 10 * time.Minute,
		Budget:   9,
	}
}

// DelayFor returns the fallback delay for a session that had failCount
// consecutive failures before the current one.
func (p RetryPolicy) DelayFor(failCount int) time.Duration {
	for _, tier := range p.Tiers {
		if failCount < tier.MaxFails {
			return tier.Delay
		}
	}
	return p.Fallback
}

// Exhausted reports whether the failure budget is spent.
func (p RetryPolicy) Exhausted(failCount int) bool {
	return failCount >= p.Budget
}
