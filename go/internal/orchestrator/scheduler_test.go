package orchestrator

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWakeupArmReplacesPending(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 1, 16, 1, 0, 0, 0, time.UTC))
	triggerCh := make(chan trigger, 4)
	w := newWakeupTimer(clock, triggerCh)

	w.Arm(clock.Now().Add(time.Hour), 1)
	require.True(t, w.Pending())

	// Re-arming replaces the pending wake-up; only the second one fires.
	w.Arm(clock.Now().Add(30*time.Minute), 2)
	require.True(t, w.Pending())

	clock.Advance(30 * time.Minute)
	select {
	case tr := <-triggerCh:
		assert.Equal(t, int64(2), tr.sessionID)
	case <-time.After(time.Second):
		t.Fatal("expected the replacement wake-up to fire")
	}

	clock.Advance(time.Hour)
	select {
	case tr := <-triggerCh:
		t.Fatalf("replaced wake-up fired anyway: %+v", tr)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestWakeupCancel(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 1, 16, 1, 0, 0, 0, time.UTC))
	triggerCh := make(chan trigger, 4)
	w := newWakeupTimer(clock, triggerCh)

	w.Arm(clock.Now().Add(time.Minute), 1)
	w.Cancel()
	assert.False(t, w.Pending())

	clock.Advance(time.Minute)
	select {
	case tr := <-triggerCh:
		t.Fatalf("cancelled wake-up fired: %+v", tr)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestWakeupRearmWhileFiring(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 1, 16, 1, 0, 0, 0, time.UTC))
	triggerCh := make(chan trigger, 256)
	w := newWakeupTimer(clock, triggerCh)

	// Fire and immediately re-arm, repeatedly, to race the firing
	// goroutine against the replacement. Whatever the interleaving, a
	// freshly armed wake-up must stay pending: a stale goroutine that
	// lost the race may neither clear it nor enqueue its old trigger.
	for i := 0; i < 100; i++ {
		w.Arm(clock.Now().Add(time.Second), 1)
		clock.Advance(time.Second)
		w.Arm(clock.Now().Add(time.Hour), 2)
		require.True(t, w.Pending(), "iteration %d: replacement wake-up lost its pending state", i)
	}

	// Let any in-flight goroutines finish, then check that only
	// wake-ups that legitimately fired before their replacement made it
	// onto the channel.
	time.Sleep(20 * time.Millisecond)
	w.Cancel()

	for len(triggerCh) > 0 {
		tr := <-triggerCh
		assert.Equal(t, int64(1), tr.sessionID, "a never-fired wake-up produced a trigger")
	}
}
