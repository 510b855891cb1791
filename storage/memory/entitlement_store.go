package memorystore

import (
	"context"
	"sync"

	"github.com/open-rails/gatekit/entitlement"
)

// EntitlementStore is an in-memory implementation of entitlement.Store.
// It holds the single per-install record and is the default when no shared
// persistence is configured.
type EntitlementStore struct {
	mu  sync.Mutex
	rec entitlement.Record
	set bool
}

// NewEntitlementStore creates an empty in-memory store.
func NewEntitlementStore() *EntitlementStore {
	return &EntitlementStore{}
}

func (s *EntitlementStore) Read(ctx context.Context) (entitlement.Record, bool, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.set {
		return entitlement.Record{}, false, nil
	}
	return s.rec, true, nil
}

func (s *EntitlementStore) Write(ctx context.Context, rec entitlement.Record) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec = rec
	s.set = true
	return nil
}
