package schedule

import (
	"sync"
	"time"
)

// MinDelay floors every arm interval so a boundary that is already past
// does not busy-loop the resolution cycle.
const MinDelay = time.Second

// Timer is a re-armed, cancellable deferred callback. Arm replaces any
// pending callback; Stop is final. Safe for concurrent use.
type Timer struct {
	mu      sync.Mutex
	t       *time.Timer
	stopped bool
}

// Arm schedules fn to run once after d, replacing any pending callback.
// Calls after Stop are ignored.
func (tm *Timer) Arm(d time.Duration, fn func()) {
	if d < MinDelay {
		d = MinDelay
	}
	tm.mu.Lock()
	defer tm.mu.Unlock()
	if tm.stopped {
		return
	}
	if tm.t != nil {
		tm.t.Stop()
	}
	tm.t = time.AfterFunc(d, fn)
}

// Stop cancels any pending callback and rejects future arms. A callback
// already started may still be running; callers guard their own liveness.
func (tm *Timer) Stop() {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.stopped = true
	if tm.t != nil {
		tm.t.Stop()
		tm.t = nil
	}
}
