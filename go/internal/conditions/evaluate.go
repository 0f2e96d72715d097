package conditions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mcourt/clutchtime/go/internal/gameclock"
	"github.com/mcourt/clutchtime/go/internal/models"
)

// ErrGameFinal is returned when an evaluator is asked about a game the
// feed has already finalized. Callers treat it as fatal for that one
// game only.
var ErrGameFinal = errors.New("game already finalized")

// Relevance is a verdict about when a condition (or a whole game) is
// next worth checking. Never means it can provably not become true
// again; a zero Delay means it is relevant right now.
type Relevance struct {
	Never bool
	Delay time.Duration
}

// RelevanceNever marks a condition that can never be satisfied again.
func RelevanceNever() Relevance {
	return Relevance{Never: true}
}

// RelevanceAfter marks a condition worth re-checking after the delay.
func RelevanceAfter(d time.Duration) Relevance {
	if d < 0 {
		d = 0
	}
	return Relevance{Delay: d}
}

// FireNow reports whether the verdict means "alert immediately".
func (r Relevance) FireNow() bool {
	return !r.Never && r.Delay == 0
}

// Heuristics holds the tunable constants of the relevance estimator.
// The possession model is provisional: one scoring possession is assumed
// to be worth PossessionPoints and to consume PossessionSeconds of game
// clock.
type Heuristics struct {
	PossessionPoints  int
	PossessionSeconds int
	StartGrace        time.Duration
	HalftimeDuration  time.Duration
}

// DefaultHeuristics returns the stock estimator constants.
func DefaultHeuristics() Heuristics {
	return Heuristics{
		PossessionPoints:  3,
		PossessionSeconds: 15,
		StartGrace:        10 * time.Minute,
		HalftimeDuration:  gameclock.HalftimeBreakMinutes * time.Minute,
	}
}

// PlayByPlayProvider is what the evaluator needs from the play-by-play
// feed. It is consulted only for the second-quarter buzzer case.
type PlayByPlayProvider interface {
	PlayByPlay(ctx context.Context, gameID string) ([]models.PlayAction, error)
}

// Evaluator turns (game snapshot, condition) pairs into relevance
// verdicts. It never blocks outside of the play-by-play fetch.
type Evaluator struct {
	clock clockwork.Clock
	heur  Heuristics
	pbp   PlayByPlayProvider
}

// NewEvaluator builds an evaluator around a clock source, estimator
// constants, and a play-by-play provider.
func NewEvaluator(clock clockwork.Clock, heur Heuristics, pbp PlayByPlayProvider) *Evaluator {
	return &Evaluator{clock: clock, heur: heur, pbp: pbp}
}

// GameRelevance aggregates all conditions attached to one game into a
// single verdict. All conditions must hold simultaneously, so the
// next-check time is the latest of the per-condition estimates: each of
// those is the earliest its own condition could first hold, making the
// maximum a safe lower bound on when all of them could. Any condition
// that can never hold again settles the whole game.
func (e *Evaluator) GameRelevance(ctx context.Context, snap *models.GameSnapshot, conds []Condition) (Relevance, error) {
	if snap.Status == models.GameStatusFinal {
		return RelevanceNever(), nil
	}

	var next time.Duration
	for _, c := range conds {
		r, err := e.ConditionRelevance(ctx, snap, c)
		if err != nil {
			return Relevance{}, fmt.Errorf("condition %d: %w", c.ID, err)
		}
		if r.Never {
			return RelevanceNever(), nil
		}
		if r.Delay > next {
			next = r.Delay
		}
	}
	return RelevanceAfter(next), nil
}

// ConditionRelevance estimates when one condition is next worth
// checking against the given snapshot.
func (e *Evaluator) ConditionRelevance(ctx context.Context, snap *models.GameSnapshot, c Condition) (Relevance, error) {
	switch p := c.Params.(type) {
	case TimeRangeParams:
		return e.timeRangeRelevance(ctx, snap, p)
	case DifferenceParams:
		return e.differenceRelevance(ctx, snap, p)
	case LeaderParams:
		return e.leaderRelevance(ctx, snap, p)
	default:
		return Relevance{}, fmt.Errorf("unknown params type %T", c.Params)
	}
}

func (e *Evaluator) timeRangeRelevance(ctx context.Context, snap *models.GameSnapshot, p TimeRangeParams) (Relevance, error) {
	moment := snap.Moment()
	elapsed := moment.TotalElapsedSeconds()

	if elapsed > p.End.TotalElapsedSeconds() {
		if !moment.AtPeriodEnd() {
			return RelevanceNever(), nil
		}
		// A 0:00 clock is ambiguous: the feed shows it both right after
		// a period ends and, when stale, before the period starts. Do
		// not settle the window on it; look again once the break is over.
		active, err := e.secondsUntilActive(ctx, snap)
		if err != nil {
			return Relevance{}, err
		}
		return RelevanceAfter(active + gameclock.PeriodBreakMinutes*time.Minute), nil
	}

	// The same elapsed total can describe both the end of a period and
	// the start of the next one, so the window start also requires the
	// period to have been reached.
	if elapsed >= p.Start.TotalElapsedSeconds() && moment.Period >= p.Start.Period {
		return RelevanceAfter(0), nil
	}

	active, err := e.secondsUntilActive(ctx, snap)
	if err != nil {
		return Relevance{}, err
	}
	return RelevanceAfter(active + secondsDuration(gameclock.SecondsBetween(moment, p.Start))), nil
}

func (e *Evaluator) differenceRelevance(ctx context.Context, snap *models.GameSnapshot, p DifferenceParams) (Relevance, error) {
	diff := snap.ScoreDiff()
	var pointsNeeded int
	switch p.Comparator {
	case CompGreater:
		pointsNeeded = maxInt(0, p.Threshold+1-diff)
	case CompAtMost:
		pointsNeeded = maxInt(0, diff-p.Threshold)
	default:
		return Relevance{}, fmt.Errorf("unknown comparator %q", p.Comparator)
	}
	return e.projectPoints(ctx, snap, pointsNeeded)
}

func (e *Evaluator) leaderRelevance(ctx context.Context, snap *models.GameSnapshot, p LeaderParams) (Relevance, error) {
	var candidate, opponent int
	if p.LeaderTeamID == snap.HomeTeam.TeamID {
		candidate, opponent = snap.HomeTeam.Score, snap.AwayTeam.Score
	} else {
		candidate, opponent = snap.AwayTeam.Score, snap.HomeTeam.Score
	}
	pointsNeeded := maxInt(0, opponent-candidate+1)
	return e.projectPoints(ctx, snap, pointsNeeded)
}

// projectPoints converts a "how many more points" question into a wall
// clock delay through the possession model: points become possessions,
// possessions become game-clock seconds, and the projected in-game
// target is mapped back to real time with break compensation. A zero
// need collapses to "now, once the clock is running".
func (e *Evaluator) projectPoints(ctx context.Context, snap *models.GameSnapshot, pointsNeeded int) (Relevance, error) {
	active, err := e.secondsUntilActive(ctx, snap)
	if err != nil {
		return Relevance{}, err
	}

	possessions := pointsNeeded / e.heur.PossessionPoints
	playSeconds := float64(possessions * e.heur.PossessionSeconds)

	moment := snap.Moment()
	target := moment.AddSeconds(playSeconds)
	return RelevanceAfter(active + secondsDuration(gameclock.SecondsBetween(moment, target))), nil
}

// secondsUntilActive estimates how long until the game clock is next
// actually running. Scheduled games wait out a fixed grace after the
// official start; a game sitting on the second-quarter buzzer waits out
// halftime, anchored on the period-end play's real timestamp. In every
// other live state the clock is assumed to be running now.
func (e *Evaluator) secondsUntilActive(ctx context.Context, snap *models.GameSnapshot) (time.Duration, error) {
	if snap.Status == models.GameStatusFinal {
		return 0, ErrGameFinal
	}

	now := e.clock.Now()
	if snap.Status == models.GameStatusScheduled {
		return nonNegative(snap.StartTimeUTC.Add(e.heur.StartGrace).Sub(now)), nil
	}

	if snap.Period == 2 && snap.Clock != nil && snap.Clock.IsZero() {
		actions, err := e.pbp.PlayByPlay(ctx, snap.GameID)
		if err != nil {
			return 0, fmt.Errorf("fetch play-by-play for game %s: %w", snap.GameID, err)
		}
		if last, ok := lastAction(actions); ok && last.ActionType == models.ActionTypePeriod && last.SubType == models.SubTypeEnd {
			return nonNegative(last.TimeActual.Add(e.heur.HalftimeDuration).Sub(now)), nil
		}
	}

	return 0, nil
}

func lastAction(actions []models.PlayAction) (models.PlayAction, bool) {
	if len(actions) == 0 {
		return models.PlayAction{}, false
	}
	last := actions[0]
	for _, a := range actions[1:] {
		if a.OrderNumber > last.OrderNumber {
			last = a
		}
	}
	return last, true
}

func secondsDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}

func nonNegative(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
