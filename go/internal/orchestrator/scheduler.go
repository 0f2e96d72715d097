package orchestrator

import (
	"sync"

	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// wakeupTimer owns the single pending one-shot wake-up of the running
// session. Arming replaces any pending wake-up; firing enqueues a check
// trigger.
type wakeupTimer struct {
	clock     clockwork.Clock
	triggerCh chan<- trigger

	mu      sync.Mutex
	timer   clockwork.Timer
	cancel  chan struct{}
	gen     uint64
	pending bool
}

func newWakeupTimer(clock clockwork.Clock, triggerCh chan<- trigger) *wakeupTimer {
	return &wakeupTimer{clock: clock, triggerCh: triggerCh}
}

// Arm schedules the wake-up at the given wall-clock time, replacing any
// pending one.
func (w *wakeupTimer) Arm(at time.Time, sessionID int64) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.stopLocked()

	duration := at.Sub(w.clock.Now())
	if duration < 0 {
		duration = 0
	}

	timer := w.clock.NewTimer(duration)
	cancel := make(chan struct{})
	w.timer = timer
	w.cancel = cancel
	w.gen++
	gen := w.gen
	w.pending = true

	go func() {
		select {
		case <-timer.Chan():
			w.mu.Lock()
			if w.gen != gen {
				// Re-armed while firing; the replacement owns the
				// pending state and this trigger is obsolete.
				w.mu.Unlock()
				return
			}
			w.pending = false
			w.mu.Unlock()
			select {
			case w.triggerCh <- trigger{sessionID: sessionID, reason: "wakeup"}:
			default:
				log.Warn().Int64("session_id", sessionID).Msg("wakeup fired but check already pending")
			}
		case <-cancel:
		}
	}()

	log.Debug().
		Int64("session_id", sessionID).
		Time("at", at).
		Dur("in", duration).
		Msg("wakeup armed")
}

// Cancel disarms any pending wake-up.
func (w *wakeupTimer) Cancel() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopLocked()
}

// stopLocked stops the current timer, drains its channel, and releases
// the waiting goroutine. Callers hold w.mu.
func (w *wakeupTimer) stopLocked() {
	if w.timer == nil {
		return
	}
	if !w.timer.Stop() {
		// Already fired or stopped; drain to avoid a stuck goroutine.
		select {
		case <-w.timer.Chan():
		default:
		}
	}
	close(w.cancel)
	w.timer = nil
	w.cancel = nil
	w.pending = false
}

// Pending reports whether a wake-up is currently armed.
func (w *wakeupTimer) Pending() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pending
}
