package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mcourt/clutchtime/go/internal/models"
	"github.com/mcourt/clutchtime/go/internal/session"
)

// RunDaily opens each day's monitoring session at the given UTC hour,
// when the league publishes the day's slate. It blocks until the
// context is cancelled.
func (o *Orchestrator) RunDaily(ctx context.Context, hourUTC int) error {
	for {
		now := o.clock.Now()
		next := nextDailyTick(now, hourUTC)
		timer := o.clock.NewTimer(next.Sub(now))

		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.Chan():
			if _, err := o.EnsureTodaySession(ctx); err != nil {
				log.Error().Err(err).Msg("daily session rollover failed")
			}
		}
	}
}

// EnsureTodaySession reuses today's RUNNING session if one exists,
// otherwise starts one, provided at least one of today's games carries
// a condition. Returns nil without error when there is nothing to
// monitor.
func (o *Orchestrator) EnsureTodaySession(ctx context.Context) (*models.Session, error) {
	latest, err := o.store.LatestSession(ctx)
	if err != nil && !errors.Is(err, session.ErrNoSession) {
		return nil, err
	}

	if latest != nil && latest.Status == models.SessionRunning {
		if !latest.CreatedAt.Before(o.dayStart()) {
			o.TriggerCheck(latest.ID, "session resume")
			return latest, nil
		}
		// A session can outlive its day when a deferred game keeps
		// re-arming the floor wake-up. Only one session may run at a
		// time, so close it out before opening today's.
		if err := o.store.UpdateSessionStatus(ctx, latest.ID, models.SessionFinished); err != nil {
			return nil, fmt.Errorf("finish stale session %d: %w", latest.ID, err)
		}
		o.wakeup.Cancel()
		log.Info().Int64("session_id", latest.ID).Msg("previous day's session finished at rollover")
	}

	games, err := o.source.GamesWithConditionsWithinRange(ctx, o.dayStart(), dayWindow)
	if err != nil {
		return nil, err
	}
	if len(games) == 0 {
		log.Info().Msg("no games with conditions today, session not started")
		return nil, nil
	}

	return o.StartSession(ctx)
}

// nextDailyTick returns the next occurrence of hourUTC:00 strictly
// after now.
func nextDailyTick(now time.Time, hourUTC int) time.Time {
	now = now.UTC()
	tick := time.Date(now.Year(), now.Month(), now.Day(), hourUTC, 0, 0, 0, time.UTC)
	if !tick.After(now) {
		tick = tick.AddDate(0, 0, 1)
	}
	return tick
}
