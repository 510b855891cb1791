package pgstore

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/open-rails/gatekit/entitlement"
)

// EntitlementStore persists the record in Postgres for multi-instance
// deployments. One row per namespace key; writes are upserts, so the last
// writer wins (see migrations/postgres for the schema).
type EntitlementStore struct {
	pg     *pgxpool.Pool
	schema string
	key    string
}

// NewEntitlementStore creates a Postgres-backed store. Empty schema
// defaults to "gatekit"; empty key defaults to the shared namespace key.
func NewEntitlementStore(pg *pgxpool.Pool, schema, key string) *EntitlementStore {
	s := strings.TrimSpace(schema)
	if s == "" {
		s = "gatekit"
	}
	if key == "" {
		key = "nc_sub_cache_v1"
	}
	return &EntitlementStore{pg: pg, schema: s, key: key}
}

func (s *EntitlementStore) table() string { return s.schema + ".entitlement_cache" }

func (s *EntitlementStore) Read(ctx context.Context) (entitlement.Record, bool, error) {
	if s.pg == nil {
		return entitlement.Record{}, false, nil
	}
	var raw []byte
	err := s.pg.QueryRow(ctx,
		`SELECT record FROM `+s.table()+` WHERE cache_key=$1 LIMIT 1`, s.key,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return entitlement.Record{}, false, nil
	}
	if err != nil {
		return entitlement.Record{}, false, err
	}
	var rec entitlement.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		// Corrupt rows read as a miss; the next resolution overwrites.
		return entitlement.Record{}, false, nil
	}
	return rec, true, nil
}

func (s *EntitlementStore) Write(ctx context.Context, rec entitlement.Record) error {
	if s.pg == nil {
		return nil
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	_, err = s.pg.Exec(ctx,
		`INSERT INTO `+s.table()+` (cache_key, record, updated_at)
		 VALUES ($1, $2, NOW())
		 ON CONFLICT (cache_key) DO UPDATE SET record=EXCLUDED.record, updated_at=NOW()`,
		s.key, b)
	return err
}
