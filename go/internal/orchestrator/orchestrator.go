// Package orchestrator runs monitoring sessions: it periodically checks
// every tracked game's conditions against the live scoreboard, persists
// per-game scheduling state, fires alerts, and arms the single wake-up
// for the next check.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcourt/clutchtime/go/internal/conditions"
	"github.com/mcourt/clutchtime/go/internal/models"
)

// RecheckFloor is the minimum spacing between two checks of the same
// session; it prevents sub-minute busy-polling even when the estimator
// suggests an earlier time.
const RecheckFloor = 61 * time.Second

// dayWindow is the span of one monitoring day.
const dayWindow = 24 * time.Hour

// Store is what the orchestrator needs from session persistence.
// session.Repository satisfies it.
type Store interface {
	CreateSession(ctx context.Context, createdAt time.Time) (*models.Session, error)
	GetSession(ctx context.Context, id int64) (*models.Session, error)
	LatestSession(ctx context.Context) (*models.Session, error)
	UpdateSessionStatus(ctx context.Context, id int64, status models.SessionStatus) error
	UpdateSessionFailCount(ctx context.Context, id int64, failCount int) error
	UpsertSessionGames(ctx context.Context, games []models.SessionGame) error
	UpsertSessionGame(ctx context.Context, game models.SessionGame) error
	SessionGames(ctx context.Context, sessionID int64) ([]models.SessionGame, error)
}

// ConditionSource lists the games that carry conditions within a time
// window. conditions.Repository satisfies it.
type ConditionSource interface {
	GamesWithConditionsWithinRange(ctx context.Context, from time.Time, window time.Duration) ([]conditions.GameWithConditions, error)
}

// SnapshotFetcher returns the live state of all of today's games in one
// batched call.
type SnapshotFetcher interface {
	Scoreboard(ctx context.Context) ([]models.GameSnapshot, error)
}

// RelevanceEvaluator aggregates a game's conditions into a verdict.
// conditions.Evaluator satisfies it.
type RelevanceEvaluator interface {
	GameRelevance(ctx context.Context, snap *models.GameSnapshot, conds []conditions.Condition) (conditions.Relevance, error)
}

// Alarm describes one game whose conditions all hold right now.
type Alarm struct {
	SessionID int64                         `json:"sessionId"`
	Game      conditions.GameWithConditions `json:"game"`
	Snapshot  models.GameSnapshot           `json:"snapshot"`
	FiredAt   time.Time                     `json:"firedAt"`
}

// Notifier is the alert sink for fired alarms.
type Notifier interface {
	Notify(ctx context.Context, alarms []Alarm) error
}

// Orchestrator serializes check cycles for the single running session.
type Orchestrator struct {
	store    Store
	source   ConditionSource
	fetcher  SnapshotFetcher
	eval     RelevanceEvaluator
	notifier Notifier
	clock    clockwork.Clock
	policy   RetryPolicy

	// Day boundaries follow the league's home timezone.
	loc *time.Location

	instanceID string
	triggerCh  chan trigger

	wakeup *wakeupTimer
}

type trigger struct {
	sessionID int64
	reason    string
}

// New creates an orchestrator wired to its collaborators.
func New(store Store, source ConditionSource, fetcher SnapshotFetcher, eval RelevanceEvaluator, notifier Notifier, clock clockwork.Clock, policy RetryPolicy) *Orchestrator {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		loc = time.FixedZone("EST", -5*60*60)
	}
	o := &Orchestrator{
		store:      store,
		source:     source,
		fetcher:    fetcher,
		eval:       eval,
		notifier:   notifier,
		clock:      clock,
		policy:     policy,
		loc:        loc,
		instanceID: uuid.New().String()[:8],
		triggerCh:  make(chan trigger, 4),
	}
	o.wakeup = newWakeupTimer(clock, o.triggerCh)
	return o
}

// Run consumes triggers until the context is cancelled. Cycles are
// processed one at a time on this goroutine: a wake-up or manual
// trigger arriving mid-cycle waits its turn, so two cycles of the same
// session never interleave their read-modify-persist sequences.
func (o *Orchestrator) Run(ctx context.Context) error {
	log.Info().Str("instance", o.instanceID).Msg("orchestrator started")

	for {
		select {
		case <-ctx.Done():
			o.wakeup.Cancel()
			log.Info().Str("instance", o.instanceID).Msg("orchestrator shutting down")
			return ctx.Err()
		case t := <-o.triggerCh:
			log.Debug().
				Int64("session_id", t.sessionID).
				Str("reason", t.reason).
				Msg("check cycle triggered")
			if err := o.runCycle(ctx, t.sessionID); err != nil {
				log.Error().
					Err(err).
					Int64("session_id", t.sessionID).
					Msg("check cycle failed")
			}
		}
	}
}

// TriggerCheck requests a check cycle for the session. It never blocks;
// a cycle already queued for the session covers the request.
func (o *Orchestrator) TriggerCheck(sessionID int64, reason string) {
	select {
	case o.triggerCh <- trigger{sessionID: sessionID, reason: reason}:
	default:
		log.Warn().Int64("session_id", sessionID).Msg("trigger channel full, check already pending")
	}
}

// StartSession creates a new RUNNING session and queues its first check.
func (o *Orchestrator) StartSession(ctx context.Context) (*models.Session, error) {
	sess, err := o.store.CreateSession(ctx, o.clock.Now())
	if err != nil {
		return nil, err
	}
	log.Info().Int64("session_id", sess.ID).Msg("session started")
	o.TriggerCheck(sess.ID, "session start")
	return sess, nil
}

// KillSession marks the session KILLED and disarms any pending wake-up.
// An in-flight cycle notices the status at its next state check.
func (o *Orchestrator) KillSession(ctx context.Context, sessionID int64) error {
	if err := o.store.UpdateSessionStatus(ctx, sessionID, models.SessionKilled); err != nil {
		return err
	}
	o.wakeup.Cancel()
	log.Info().Int64("session_id", sessionID).Msg("session killed")
	return nil
}

// trackedGame joins a scheduling record with its conditions for the
// duration of one cycle.
type trackedGame struct {
	record models.SessionGame
	game   conditions.GameWithConditions
}

// runCycle executes one full check pass for the session.
func (o *Orchestrator) runCycle(ctx context.Context, sessionID int64) error {
	sess, err := o.store.GetSession(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if sess.Status != models.SessionRunning {
		log.Info().
			Int64("session_id", sessionID).
			Str("status", string(sess.Status)).
			Msg("session not running, cycle aborted")
		o.wakeup.Cancel()
		return nil
	}

	tracked, err := o.collectTrackedGames(ctx, sess.ID)
	if err != nil {
		return fmt.Errorf("collect tracked games: %w", err)
	}
	if len(tracked) == 0 {
		return o.finishSession(ctx, sess.ID, "no trackable games")
	}

	// Everything in flight is SCHEDULING with no scheduled time; persist
	// before any network I/O so a crash leaves "in progress" rather than
	// stale timestamps.
	inFlight := make([]models.SessionGame, len(tracked))
	for i, t := range tracked {
		inFlight[i] = models.SessionGame{
			SessionID: sess.ID,
			GameID:    t.game.GameID,
			Status:    models.SessionGameScheduling,
		}
		tracked[i].record = inFlight[i]
	}
	if err := o.store.UpsertSessionGames(ctx, inFlight); err != nil {
		return fmt.Errorf("mark games scheduling: %w", err)
	}

	snaps, err := o.fetcher.Scoreboard(ctx)
	if err != nil {
		return o.handleFetchFailure(ctx, sess, err)
	}
	snapByID := make(map[string]models.GameSnapshot, len(snaps))
	for _, s := range snaps {
		snapByID[s.GameID] = s
	}

	now := o.clock.Now()
	var (
		alarms    []Alarm
		nextTimes []time.Time
		deferred  int
	)

	for _, t := range tracked {
		snap, ok := snapByID[t.game.GameID]
		if !ok {
			// Feed not updated yet; not an error, retried next cycle.
			log.Warn().
				Str("game_id", t.game.GameID).
				Msg("tracked game missing from scoreboard, deferring")
			deferred++
			continue
		}

		rel, err := o.eval.GameRelevance(ctx, &snap, t.game.Conditions)
		if err != nil {
			if errors.Is(err, conditions.ErrGameFinal) {
				// Invariant violation: fatal to this game only.
				log.Error().
					Err(err).
					Str("game_id", t.game.GameID).
					Msg("evaluator rejected finalized game")
				continue
			}
			// Play-by-play fetch failure inside an evaluator is a fetch
			// failure of the whole cycle.
			return o.handleFetchFailure(ctx, sess, err)
		}

		record := t.record
		switch {
		case rel.Never:
			record.Status = models.SessionGameFinished
			record.ScheduledTime = nil
		case rel.FireNow():
			record.Status = models.SessionGameAlarmed
			record.ScheduledTime = nil
			alarms = append(alarms, Alarm{
				SessionID: sess.ID,
				Game:      t.game,
				Snapshot:  snap,
				FiredAt:   now,
			})
		default:
			at := now.Add(rel.Delay)
			record.Status = models.SessionGameScheduled
			record.ScheduledTime = &at
			nextTimes = append(nextTimes, at)
		}

		if err := o.store.UpsertSessionGame(ctx, record); err != nil {
			return fmt.Errorf("persist game %s verdict: %w", record.GameID, err)
		}
		log.Debug().
			Str("game_id", record.GameID).
			Str("status", string(record.Status)).
			Msg("game verdict persisted")
	}

	// A clean pass resets the consecutive-failure streak.
	if sess.FailCount > 0 {
		if err := o.store.UpdateSessionFailCount(ctx, sess.ID, 0); err != nil {
			return fmt.Errorf("reset fail count: %w", err)
		}
	}

	if len(alarms) > 0 {
		if err := o.notifier.Notify(ctx, alarms); err != nil {
			log.Error().Err(err).Int("alarms", len(alarms)).Msg("alert sink failed")
		} else {
			log.Info().Int("alarms", len(alarms)).Msg("alarms fired")
		}
	}

	if len(nextTimes) > 0 || deferred > 0 {
		at := now.Add(RecheckFloor)
		if earliest, ok := earliestTime(nextTimes); ok && earliest.After(at) {
			at = earliest
		}
		o.wakeup.Arm(at, sess.ID)
		log.Info().
			Int64("session_id", sess.ID).
			Time("at", at).
			Int("scheduled", len(nextTimes)).
			Int("deferred", deferred).
			Msg("next check armed")
		return nil
	}

	return o.finishSession(ctx, sess.ID, "all games settled")
}

// collectTrackedGames unions the session's unsettled records with any
// game that has conditions but no record yet.
func (o *Orchestrator) collectTrackedGames(ctx context.Context, sessionID int64) ([]trackedGame, error) {
	games, err := o.source.GamesWithConditionsWithinRange(ctx, o.dayStart(), dayWindow)
	if err != nil {
		return nil, fmt.Errorf("list games with conditions: %w", err)
	}

	records, err := o.store.SessionGames(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list session games: %w", err)
	}
	recordByID := make(map[string]models.SessionGame, len(records))
	for _, r := range records {
		recordByID[r.GameID] = r
	}

	var tracked []trackedGame
	for _, g := range games {
		record, ok := recordByID[g.GameID]
		if ok && record.Status.IsSettled() {
			continue
		}
		if !ok {
			record = models.SessionGame{
				SessionID: sessionID,
				GameID:    g.GameID,
				Status:    models.SessionGameToBeScheduled,
			}
		}
		tracked = append(tracked, trackedGame{record: record, game: g})
	}
	return tracked, nil
}

// handleFetchFailure applies the retry policy after a failed live-data
// fetch: bump the failure count, then either re-arm with the tier delay
// or finish the session once the budget is spent. A failed cycle never
// alerts.
func (o *Orchestrator) handleFetchFailure(ctx context.Context, sess *models.Session, cause error) error {
	failCount := sess.FailCount + 1
	log.Warn().
		Err(cause).
		Int64("session_id", sess.ID).
		Int("fail_count", failCount).
		Msg("live data fetch failed")

	if err := o.store.UpdateSessionFailCount(ctx, sess.ID, failCount); err != nil {
		return fmt.Errorf("update fail count: %w", err)
	}

	if o.policy.Exhausted(failCount) {
		return o.finishSession(ctx, sess.ID, "retry budget exhausted")
	}

	delay := o.policy.DelayFor(sess.FailCount)
	at := o.clock.Now().Add(delay)
	o.wakeup.Arm(at, sess.ID)
	log.Info().
		Int64("session_id", sess.ID).
		Dur("delay", delay).
		Msg("fallback check armed")
	return nil
}

func (o *Orchestrator) finishSession(ctx context.Context, sessionID int64, reason string) error {
	if err := o.store.UpdateSessionStatus(ctx, sessionID, models.SessionFinished); err != nil {
		return fmt.Errorf("finish session: %w", err)
	}
	o.wakeup.Cancel()
	log.Info().Int64("session_id", sessionID).Str("reason", reason).Msg("session finished")
	return nil
}

// dayStart returns the start of the current monitoring day: midnight in
// the league's home timezone, rolled back a day before 3 AM so late
// West Coast games stay in "yesterday's" slate.
func (o *Orchestrator) dayStart() time.Time {
	now := o.clock.Now().In(o.loc)
	if now.Hour() < 3 {
		now = now.AddDate(0, 0, -1)
	}
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, o.loc)
}

func earliestTime(times []time.Time) (time.Time, bool) {
	if len(times) == 0 {
		return time.Time{}, false
	}
	earliest := times[0]
	for _, t := range times[1:] {
		if t.Before(earliest) {
			earliest = t
		}
	}
	return earliest, true
}
