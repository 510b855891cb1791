package flight

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestLaunchDeduplicatesConcurrentCallers(t *testing.T) {
	var c Coordinator
	var execs atomic.Int64
	release := make(chan struct{})

	fn := func() (any, error) {
		execs.Add(1)
		<-release
		return "done", nil
	}

	done, started := c.Launch("k", fn)
	if !started {
		t.Fatal("first caller did not start the flight")
	}
	if !c.InFlight("k") {
		t.Fatal("flight not reported in flight")
	}

	var wg sync.WaitGroup
	var startedCount atomic.Int64
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, s := c.Launch("k", fn)
			if s {
				startedCount.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := startedCount.Load(); got != 0 {
		t.Fatalf("%d joiners reported started", got)
	}

	close(release)
	select {
	case r := <-done:
		if r.Err != nil || r.Val != "done" {
			t.Fatalf("result = %+v", r)
		}
	case <-time.After(time.Second):
		t.Fatal("flight never completed")
	}

	if got := execs.Load(); got != 1 {
		t.Fatalf("fn executed %d times, want 1", got)
	}
}

func TestLaunchClearsInFlightAfterError(t *testing.T) {
	var c Coordinator
	boom := errors.New("boom")

	done, _ := c.Launch("k", func() (any, error) { return nil, boom })
	r := <-done
	if !errors.Is(r.Err, boom) {
		t.Fatalf("err = %v", r.Err)
	}
	if c.InFlight("k") {
		t.Fatal("marker not cleared after error")
	}

	// A later launch runs again.
	done, started := c.Launch("k", func() (any, error) { return 2, nil })
	if !started {
		t.Fatal("second launch did not start")
	}
	if r := <-done; r.Val != 2 {
		t.Fatalf("second result = %+v", r)
	}
}

func TestLaunchRecoversPanic(t *testing.T) {
	var c Coordinator

	done, _ := c.Launch("k", func() (any, error) { panic("kaput") })
	select {
	case r := <-done:
		if r.Err == nil {
			t.Fatal("panic did not surface as error")
		}
	case <-time.After(time.Second):
		t.Fatal("panicking flight wedged the key")
	}
	if c.InFlight("k") {
		t.Fatal("marker not cleared after panic")
	}
}

func TestLaunchSeparateKeysRunIndependently(t *testing.T) {
	var c Coordinator
	var execs atomic.Int64

	a, _ := c.Launch("a", func() (any, error) { execs.Add(1); return nil, nil })
	b, _ := c.Launch("b", func() (any, error) { execs.Add(1); return nil, nil })
	<-a
	<-b
	if got := execs.Load(); got != 2 {
		t.Fatalf("executions = %d, want 2", got)
	}
}
