package filestore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/open-rails/gatekit/entitlement"
)

// EntitlementStore persists the record as a JSON file on the device, the
// closest Go analog of the browser storage the original client used.
// Writes go through a temp file + rename so a crash never leaves a
// half-written record; a half-written or hand-edited file reads as a miss.
type EntitlementStore struct {
	path string
}

// NewEntitlementStore creates a file-backed store at path.
func NewEntitlementStore(path string) *EntitlementStore {
	return &EntitlementStore{path: path}
}

func (s *EntitlementStore) Read(ctx context.Context) (entitlement.Record, bool, error) {
	_ = ctx
	b, err := os.ReadFile(s.path)
	if err != nil {
		return entitlement.Record{}, false, nil
	}
	var rec entitlement.Record
	if err := json.Unmarshal(b, &rec); err != nil {
		return entitlement.Record{}, false, nil
	}
	return rec, true, nil
}

func (s *EntitlementStore) Write(ctx context.Context, rec entitlement.Record) error {
	_ = ctx
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
