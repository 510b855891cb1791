// Package testing provides utilities for testing applications that use
// gatekit. It runs a fake entitlement endpoint with scriptable responses,
// enabling integration tests without a real subscription backend.
//
// Example usage:
//
//	srv := testing.NewFakeEntitlementServer()
//	defer srv.Close()
//
//	srv.SetActive("alice", time.Now().Add(24*time.Hour))
//	r := resolver.New(srv.URL())
package testing

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Subscription is one scripted backend answer.
type Subscription struct {
	Active          bool
	ExpiresAt       *time.Time
	FreeTrialStatus string // "active", "expired", "unavailable" or ""
}

// FakeEntitlementServer serves GET /entitlement/{userId} with scripted
// subscriptions and counts every call, so tests can assert both decisions
// and single-flight behavior.
type FakeEntitlementServer struct {
	srv   *httptest.Server
	calls atomic.Int64

	mu    sync.Mutex
	subs  map[string]Subscription
	fail  int // respond with failStatus this many more times
	code  int
	delay time.Duration
}

// NewFakeEntitlementServer starts the fake server. Unknown users resolve
// as inactive with an unavailable trial.
func NewFakeEntitlementServer() *FakeEntitlementServer {
	f := &FakeEntitlementServer{subs: make(map[string]Subscription)}
	f.srv = httptest.NewServer(http.HandlerFunc(f.handle))
	return f
}

// URL returns the base URL to point a resolver at.
func (f *FakeEntitlementServer) URL() string { return f.srv.URL }

// Close shuts the server down.
func (f *FakeEntitlementServer) Close() { f.srv.Close() }

// Calls returns how many entitlement requests were served.
func (f *FakeEntitlementServer) Calls() int64 { return f.calls.Load() }

// Set scripts the answer for userID.
func (f *FakeEntitlementServer) Set(userID string, sub Subscription) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs[strings.ToLower(userID)] = sub
}

// SetActive scripts an active subscription expiring at exp.
func (f *FakeEntitlementServer) SetActive(userID string, exp time.Time) {
	f.Set(userID, Subscription{Active: true, ExpiresAt: &exp})
}

// FailNext makes the next n requests answer with the given status code.
func (f *FakeEntitlementServer) FailNext(n, code int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = n
	f.code = code
}

// SetDelay makes every request take at least d before answering. Used to
// hold a resolution in flight while concurrent checks arrive.
func (f *FakeEntitlementServer) SetDelay(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delay = d
}

func (f *FakeEntitlementServer) handle(w http.ResponseWriter, r *http.Request) {
	f.calls.Add(1)

	f.mu.Lock()
	delay := f.delay
	failing := f.fail > 0
	code := f.code
	if failing {
		f.fail--
	}
	userID := strings.ToLower(strings.TrimPrefix(r.URL.Path, "/entitlement/"))
	sub, ok := f.subs[userID]
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if failing {
		http.Error(w, "scripted failure", code)
		return
	}

	body := map[string]any{"active": sub.Active}
	if sub.ExpiresAt != nil {
		body["expires_at"] = float64(sub.ExpiresAt.Unix())
	}
	if sub.FreeTrialStatus != "" {
		body["free_trial_status"] = sub.FreeTrialStatus
	} else if !ok {
		body["free_trial_status"] = "unavailable"
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}
