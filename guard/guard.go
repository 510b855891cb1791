// Package guard runs the entitlement check flow: cache first, one remote
// verification when the daily schedule says so, fallback policy when the
// backend is unreachable, and a background timer so revalidation happens
// even if nobody asks.
package guard

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	clockkit "github.com/open-rails/gatekit/clock"
	"github.com/open-rails/gatekit/entitlement"
	"github.com/open-rails/gatekit/flight"
	"github.com/open-rails/gatekit/gate"
	"github.com/open-rails/gatekit/resolver"
	"github.com/open-rails/gatekit/schedule"
	"github.com/sirupsen/logrus"
)

// Resolver performs one remote verification. *resolver.Client satisfies it.
type Resolver interface {
	Resolve(ctx context.Context, userID string) (resolver.Decision, error)
}

// Config assembles a Service. Store and Resolver are required; everything
// else has working defaults.
type Config struct {
	Store    entitlement.Store
	Resolver Resolver

	Clock     clockkit.Provider // defaults to the system clock
	Policy    schedule.Policy   // defaults to schedule.Default()
	AllowList gate.AllowList    // defaults to gate.DefaultAllowList()

	// ResolveTimeout bounds one remote verification. Defaults to 15s.
	ResolveTimeout time.Duration

	Logger logrus.FieldLogger
}

// Service is the per-session entitlement guard. One Service owns one
// background timer and one single-flight coordinator; Close tears both
// down and suppresses any store write from a resolution that finishes
// afterwards.
type Service struct {
	store   entitlement.Store
	resolve Resolver
	clock   clockkit.Provider
	policy  schedule.Policy
	allow   gate.AllowList
	timeout time.Duration
	log     logrus.FieldLogger

	flights flight.Coordinator
	timer   schedule.Timer
	closed  atomic.Bool

	mu   sync.Mutex
	user string // last identity seen by Check; revalidated by the timer
}

// New creates a Service and arms the background timer for the next daily
// boundary.
func New(cfg Config) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("guard: Store is required")
	}
	if cfg.Resolver == nil {
		return nil, errors.New("guard: Resolver is required")
	}
	s := &Service{
		store:   cfg.Store,
		resolve: cfg.Resolver,
		clock:   cfg.Clock,
		policy:  cfg.Policy,
		allow:   cfg.AllowList,
		timeout: cfg.ResolveTimeout,
		log:     cfg.Logger,
	}
	if s.clock == nil {
		s.clock = clockkit.System{}
	}
	if s.policy.Boundary.IsZero() {
		s.policy = schedule.Default()
	}
	if s.allow == nil {
		s.allow = gate.DefaultAllowList()
	}
	if s.timeout <= 0 {
		s.timeout = 15 * time.Second
	}
	if s.log == nil {
		s.log = logrus.StandardLogger()
	}
	now := s.clock.Now()
	s.timer.Arm(s.policy.Boundary.NextAfter(now).Sub(now), s.timerFired)
	return s, nil
}

// Close tears the session down: the timer stops and any resolution still
// in flight will not write to the store.
func (s *Service) Close() error {
	s.closed.Store(true)
	s.timer.Stop()
	return nil
}

// Check evaluates access for userID requesting route.
//
// When the cached record is fresh, the decision is purely local. When a
// revalidation is due, the caller that starts it waits for it and decides
// on the record it produced; callers that find one already in flight decide
// on whatever the store holds right now and do not wait.
func (s *Service) Check(ctx context.Context, userID, route string) gate.Outcome {
	userID = entitlement.NormalizeUserID(userID)
	s.setUser(userID)
	if userID == "" {
		return gate.Decide("", nil, route, s.allow)
	}

	now := s.clock.Now()
	rec, ok := s.readUsable(ctx, userID)
	var recp *entitlement.Record
	if ok {
		recp = &rec
	}
	if ok && !s.policy.IsDue(&rec, now) {
		return gate.Decide(userID, recp, route, s.allow)
	}

	done, started := s.flights.Launch("resolve:"+userID, func() (any, error) {
		return nil, s.resolveOnce(userID)
	})
	if !started {
		// Best-effort de-duplication, not a synchronization barrier: joiners
		// act on the pre-resolution record (or render neutral without one).
		return gate.Decide(userID, recp, route, s.allow)
	}

	select {
	case <-done:
	case <-ctx.Done():
		return gate.Decide(userID, recp, route, s.allow)
	}
	rec2, ok2 := s.readUsable(ctx, userID)
	recp = nil
	if ok2 {
		recp = &rec2
	}
	return gate.Decide(userID, recp, route, s.allow)
}

// Revalidate forces a resolution cycle for the last seen identity,
// regardless of schedule. Used by hosts after an out-of-band purchase.
func (s *Service) Revalidate(ctx context.Context) {
	userID := s.currentUser()
	if userID == "" || s.closed.Load() {
		return
	}
	done, _ := s.flights.Launch("resolve:"+userID, func() (any, error) {
		return nil, s.resolveOnce(userID)
	})
	select {
	case <-done:
	case <-ctx.Done():
	}
}

func (s *Service) setUser(userID string) {
	s.mu.Lock()
	s.user = userID
	s.mu.Unlock()
}

func (s *Service) currentUser() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// readUsable reads the store, absorbing errors and records owned by a
// different identity as a miss.
func (s *Service) readUsable(ctx context.Context, userID string) (entitlement.Record, bool) {
	rec, ok, err := s.store.Read(ctx)
	if err != nil {
		s.log.WithError(err).Warn("entitlement cache read failed")
		return entitlement.Record{}, false
	}
	if !ok || !rec.OwnedBy(userID) {
		return entitlement.Record{}, false
	}
	return rec, true
}

// resolveOnce performs one remote verification and applies its result, or
// the fallback policy, to the store; it then re-arms the background timer.
// Resolution failures are absorbed here and never surface to Check.
func (s *Service) resolveOnce(userID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	d, err := s.resolve.Resolve(ctx, userID)
	now := s.clock.Now()
	if err == nil {
		rec := s.policy.Stamp(entitlement.Record{
			UserID:          userID,
			IsActive:        d.IsActive,
			IsLocked:        d.IsLocked,
			ExpiresAtMs:     d.ExpiresAtMs,
			FreeTrialStatus: d.FreeTrialStatus,
		}, now)
		s.writeLive(ctx, rec)
		s.armFor(rec, now)
		return nil
	}

	// Fallback policy: keep a usable prior decision but re-check soon so an
	// outage is not pinned until the next boundary; with no prior decision,
	// deny by default and throttle probes to the daily boundary.
	prior, ok := s.readUsable(ctx, userID)
	var fb entitlement.Record
	if ok {
		fb = prior
		fb.NextCheckAtMs = clockkit.UnixMs(s.policy.RetryAt(now))
		s.log.WithError(err).Warn("entitlement check failed; keeping cached decision")
	} else {
		fb = entitlement.Record{
			UserID:        userID,
			CheckedAtMs:   clockkit.UnixMs(now),
			NextCheckAtMs: clockkit.UnixMs(s.policy.Boundary.NextAfter(now)),
			IsActive:      false,
			IsLocked:      true,
		}
		s.log.WithError(err).Warn("entitlement check failed with no cached decision; locking")
	}
	s.writeLive(ctx, fb)
	s.armFor(fb, now)
	return err
}

// writeLive writes rec unless the session was torn down while the
// resolution was in flight.
func (s *Service) writeLive(ctx context.Context, rec entitlement.Record) {
	if s.closed.Load() {
		return
	}
	if err := s.store.Write(ctx, rec); err != nil {
		s.log.WithError(err).Warn("entitlement cache write failed")
	}
}

// armFor re-arms the timer for rec's next-check instant.
func (s *Service) armFor(rec entitlement.Record, now time.Time) {
	if s.closed.Load() {
		return
	}
	s.timer.Arm(clockkit.FromUnixMs(rec.NextCheckAtMs).Sub(now), s.timerFired)
}

// timerFired marks the cached record as already due and starts a fresh
// resolution cycle. With nobody logged in it just re-arms for the next
// boundary.
func (s *Service) timerFired() {
	if s.closed.Load() {
		return
	}
	userID := s.currentUser()
	now := s.clock.Now()
	if userID == "" {
		s.timer.Arm(s.policy.Boundary.NextAfter(now).Sub(now), s.timerFired)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if rec, ok := s.readUsable(ctx, userID); ok {
		rec.NextCheckAtMs = clockkit.UnixMs(now.Add(-time.Second))
		s.writeLive(ctx, rec)
	}
	s.flights.Launch("resolve:"+userID, func() (any, error) {
		return nil, s.resolveOnce(userID)
	})
}
