package redisstore

import (
	"context"
	"encoding/json"

	"github.com/open-rails/gatekit/entitlement"
	"github.com/redis/go-redis/v9"
)

// DefaultKey is the namespace key the original deployment persisted under.
const DefaultKey = "nc_sub_cache_v1"

// EntitlementStore persists the record in Redis, for deployments where
// several instances share one cache. Writes are plain SETs: last writer
// wins, no cross-instance locking.
type EntitlementStore struct {
	rdb *redis.Client
	key string
}

// NewEntitlementStore creates a Redis-backed store under the given key.
// An empty key falls back to DefaultKey.
func NewEntitlementStore(rdb *redis.Client, key string) *EntitlementStore {
	if key == "" {
		key = DefaultKey
	}
	return &EntitlementStore{rdb: rdb, key: key}
}

func (s *EntitlementStore) Read(ctx context.Context) (entitlement.Record, bool, error) {
	val, err := s.rdb.Get(ctx, s.key).Bytes()
	if err == redis.Nil {
		return entitlement.Record{}, false, nil
	}
	if err != nil {
		return entitlement.Record{}, false, err
	}
	var rec entitlement.Record
	if err := json.Unmarshal(val, &rec); err != nil {
		// Corrupt entries read as a miss; the next resolution overwrites.
		return entitlement.Record{}, false, nil
	}
	return rec, true, nil
}

func (s *EntitlementStore) Write(ctx context.Context, rec entitlement.Record) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.key, b, 0).Err()
}
