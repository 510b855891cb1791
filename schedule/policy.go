// Package schedule decides when a cached entitlement decision must be
// re-verified against the backend, and owns the background timer that
// forces that re-verification even when no access check comes in.
package schedule

import (
	"time"

	clockkit "github.com/open-rails/gatekit/clock"
	"github.com/open-rails/gatekit/entitlement"
)

const (
	// DefaultExpiryGrace absorbs clock and propagation skew between the
	// backend's expiry instant and ours.
	DefaultExpiryGrace = 2 * time.Second

	// DefaultLockedRetry re-checks a locked user well inside the daily
	// cycle, so a purchase completed out-of-band unlocks promptly.
	DefaultLockedRetry = time.Minute
)

// Policy computes due-ness and next-check instants for cached records.
// The zero value is not usable; call Default or fill Boundary.
type Policy struct {
	Boundary    clockkit.Boundary
	ExpiryGrace time.Duration
	LockedRetry time.Duration
}

// Default returns the policy used by the original deployment: one check per
// day at the boundary, 2s expiry grace, 60s locked retry.
func Default() Policy {
	return Policy{
		Boundary:    clockkit.DefaultBoundary,
		ExpiryGrace: DefaultExpiryGrace,
		LockedRetry: DefaultLockedRetry,
	}
}

func (p Policy) expiryGrace() time.Duration {
	if p.ExpiryGrace <= 0 {
		return DefaultExpiryGrace
	}
	return p.ExpiryGrace
}

func (p Policy) lockedRetry() time.Duration {
	if p.LockedRetry <= 0 {
		return DefaultLockedRetry
	}
	return p.LockedRetry
}

// IsDue reports whether a fresh remote check is required at now.
// A nil record, or one that never recorded a next-check instant, is due.
// A passed entitlement expiry forces due regardless of the next-check
// instant: an expired entitlement is never served from cache.
func (p Policy) IsDue(rec *entitlement.Record, now time.Time) bool {
	if rec == nil || rec.NextCheckAtMs == 0 {
		return true
	}
	nowMs := clockkit.UnixMs(now)
	if rec.Expired(nowMs) {
		return true
	}
	return nowMs >= rec.NextCheckAtMs
}

// NextCheckAt computes when the decision in rec must next be re-verified,
// given that it was produced at now. The base candidate is the next daily
// boundary; a known future expiry pulls it in to expiry+grace, and a locked
// decision pulls it in to the short retry interval.
func (p Policy) NextCheckAt(rec entitlement.Record, now time.Time) time.Time {
	next := p.Boundary.NextAfter(now)
	if rec.ExpiresAtMs != 0 {
		exp := clockkit.FromUnixMs(rec.ExpiresAtMs)
		if exp.After(now) {
			if cand := exp.Add(p.expiryGrace()); cand.Before(next) {
				next = cand
			}
		}
	}
	if rec.IsLocked {
		if cand := now.Add(p.lockedRetry()); cand.Before(next) {
			next = cand
		}
	}
	return next
}

// RetryAt returns the short re-check instant used after a resolution
// failure with a usable prior decision.
func (p Policy) RetryAt(now time.Time) time.Time {
	return now.Add(p.lockedRetry())
}

// Stamp fills rec's bookkeeping fields for a decision produced at now.
func (p Policy) Stamp(rec entitlement.Record, now time.Time) entitlement.Record {
	rec.CheckedAtMs = clockkit.UnixMs(now)
	rec.NextCheckAtMs = clockkit.UnixMs(p.NextCheckAt(rec, now))
	return rec
}
