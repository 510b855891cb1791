package entitlement

import "context"

// Store persists one Record per install under a fixed namespace key.
//
// Read never fails on malformed persisted content: a record that cannot be
// decoded is reported as absent, exactly like a missing one. The error
// return is reserved for backend faults (e.g. an unreachable Redis); callers
// that cannot distinguish may treat any error as a miss.
//
// Write is last-writer-wins. Stores shared between instances do no
// cross-instance locking; concurrent writers converge because they all
// resolve against the same source of truth.
type Store interface {
	Read(ctx context.Context) (Record, bool, error)
	Write(ctx context.Context, rec Record) error
}
