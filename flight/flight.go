// Package flight deduplicates concurrent entitlement resolutions: at most
// one execution per key is in flight at any time, and only the caller that
// started it has any reason to wait for it.
package flight

import (
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Result is the shared outcome of one execution.
type Result struct {
	Val any
	Err error
	// Shared is true when more than one caller joined this execution.
	Shared bool
}

// Coordinator wraps a singleflight group so concurrent callers of the same
// key share one execution. The in-flight marker is cleared unconditionally
// when the execution finishes; a panicking fn is converted into an error so
// it cannot wedge the key.
type Coordinator struct {
	group    singleflight.Group
	mu       sync.Mutex
	inflight map[string]struct{}
}

// Launch starts fn under key, or joins an execution already in flight.
// It never blocks: the returned channel receives exactly one Result when
// the (possibly shared) execution finishes. started reports whether this
// call initiated the execution rather than joining one; joiners typically
// drop the channel and proceed on cached state.
func (c *Coordinator) Launch(key string, fn func() (any, error)) (done <-chan Result, started bool) {
	c.mu.Lock()
	if c.inflight == nil {
		c.inflight = make(map[string]struct{})
	}
	_, running := c.inflight[key]
	if !running {
		c.inflight[key] = struct{}{}
		started = true
	}
	c.mu.Unlock()

	ch := c.group.DoChan(key, func() (v any, err error) {
		defer func() {
			c.mu.Lock()
			delete(c.inflight, key)
			c.mu.Unlock()
			if r := recover(); r != nil {
				err = fmt.Errorf("flight: %q panicked: %v", key, r)
			}
		}()
		return fn()
	})

	out := make(chan Result, 1)
	go func() {
		r := <-ch
		out <- Result{Val: r.Val, Err: r.Err, Shared: r.Shared}
	}()
	return out, started
}

// InFlight reports whether an execution for key is currently running.
func (c *Coordinator) InFlight(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.inflight[key]
	return ok
}
