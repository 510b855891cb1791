package schedule

import (
	"testing"
	"time"
)

func TestTimerFiresOnce(t *testing.T) {
	var tm Timer
	defer tm.Stop()

	fired := make(chan struct{})
	tm.Arm(0, func() { close(fired) }) // floored to MinDelay

	select {
	case <-fired:
	case <-time.After(3 * MinDelay):
		t.Fatal("timer never fired")
	}
}

func TestTimerRearmReplacesPending(t *testing.T) {
	var tm Timer
	defer tm.Stop()

	ch := make(chan int, 2)
	tm.Arm(time.Hour, func() { ch <- 1 })
	tm.Arm(0, func() { ch <- 2 })

	select {
	case v := <-ch:
		if v == 1 {
			t.Fatal("replaced callback fired")
		}
	case <-time.After(3 * MinDelay):
		t.Fatal("re-armed timer never fired")
	}
}

func TestTimerStopCancels(t *testing.T) {
	var tm Timer
	fired := make(chan struct{}, 1)
	tm.Arm(0, func() { fired <- struct{}{} })
	tm.Stop()

	select {
	case <-fired:
		t.Fatal("stopped timer fired")
	case <-time.After(2 * MinDelay):
	}

	// Arm after Stop is a no-op.
	tm.Arm(0, func() { fired <- struct{}{} })
	select {
	case <-fired:
		t.Fatal("timer armed after stop fired")
	case <-time.After(2 * MinDelay):
	}
}
