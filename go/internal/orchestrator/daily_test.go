package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcourt/clutchtime/go/internal/conditions"
	"github.com/mcourt/clutchtime/go/internal/models"
)

func TestNextDailyTick(t *testing.T) {
	assert.Equal(t,
		time.Date(2026, 1, 16, 17, 0, 0, 0, time.UTC),
		nextDailyTick(time.Date(2026, 1, 16, 12, 0, 0, 0, time.UTC), 17),
	)
	assert.Equal(t,
		time.Date(2026, 1, 17, 17, 0, 0, 0, time.UTC),
		nextDailyTick(time.Date(2026, 1, 16, 18, 30, 0, 0, time.UTC), 17),
	)
	// Exactly on the tick rolls to tomorrow.
	assert.Equal(t,
		time.Date(2026, 1, 17, 17, 0, 0, 0, time.UTC),
		nextDailyTick(time.Date(2026, 1, 16, 17, 0, 0, 0, time.UTC), 17),
	)
}

func TestEnsureTodaySessionSkipsEmptySlate(t *testing.T) {
	now := time.Date(2026, 1, 16, 17, 0, 0, 0, time.UTC)
	h := newHarness(t, now)

	sess, err := h.orch.EnsureTodaySession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, sess, "no conditions means no session")
	assert.Equal(t, int64(0), h.store.nextID)
}

func TestEnsureTodaySessionStartsWhenGamesExist(t *testing.T) {
	now := time.Date(2026, 1, 16, 17, 0, 0, 0, time.UTC)
	h := newHarness(t, now)
	h.source.games = []conditions.GameWithConditions{trackedGameFixture("g1", now.Add(3*time.Hour))}

	sess, err := h.orch.EnsureTodaySession(context.Background())
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, models.SessionRunning, sess.Status)

	select {
	case tr := <-h.orch.triggerCh:
		assert.Equal(t, sess.ID, tr.sessionID)
	default:
		t.Fatal("expected the new session's first check to be queued")
	}
}

func TestEnsureTodaySessionReusesRunningSession(t *testing.T) {
	now := time.Date(2026, 1, 16, 17, 0, 0, 0, time.UTC)
	h := newHarness(t, now)
	h.source.games = []conditions.GameWithConditions{trackedGameFixture("g1", now.Add(3*time.Hour))}

	first := h.startSession(t)

	sess, err := h.orch.EnsureTodaySession(context.Background())
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, first.ID, sess.ID)
	assert.Equal(t, int64(1), h.store.nextID, "no second session created")
}

func TestEnsureTodaySessionFinishesStaleRunningSession(t *testing.T) {
	now := time.Date(2026, 1, 16, 17, 0, 0, 0, time.UTC)
	h := newHarness(t, now)
	ctx := context.Background()

	// A game missing from the scoreboard keeps the session alive at the
	// floor cadence, so it can still be RUNNING when the next day's
	// rollover arrives.
	h.source.games = []conditions.GameWithConditions{trackedGameFixture("g1", now.Add(3*time.Hour))}
	h.fetcher.snaps = nil

	first := h.startSession(t)
	require.NoError(t, h.orch.runCycle(ctx, first.ID))
	require.Equal(t, models.SessionRunning, h.store.sessionState(first.ID).Status)

	h.clock.Advance(24 * time.Hour)
	drainTriggers(h.orch)

	sess, err := h.orch.EnsureTodaySession(ctx)
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.NotEqual(t, first.ID, sess.ID)

	// Only one session may ever be RUNNING: yesterday's is closed out
	// before today's starts.
	assert.Equal(t, models.SessionFinished, h.store.sessionState(first.ID).Status)
	assert.Equal(t, models.SessionRunning, h.store.sessionState(sess.ID).Status)
}

// drainTriggers empties the trigger channel of anything queued by fired
// wake-ups.
func drainTriggers(o *Orchestrator) {
	for {
		select {
		case <-o.triggerCh:
		default:
			return
		}
	}
}

func TestEnsureTodaySessionReplacesFinishedSession(t *testing.T) {
	now := time.Date(2026, 1, 16, 17, 0, 0, 0, time.UTC)
	h := newHarness(t, now)
	h.source.games = []conditions.GameWithConditions{trackedGameFixture("g1", now.Add(3*time.Hour))}

	first := h.startSession(t)
	require.NoError(t, h.store.UpdateSessionStatus(context.Background(), first.ID, models.SessionFinished))

	sess, err := h.orch.EnsureTodaySession(context.Background())
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.NotEqual(t, first.ID, sess.ID)
}
