package entitlement

import "strings"

// FreeTrialStatus is the auxiliary trial signal reported by the backend.
// The zero value means the backend reported no trial information (JSON null).
type FreeTrialStatus string

const (
	TrialNone        FreeTrialStatus = ""
	TrialActive      FreeTrialStatus = "active"
	TrialExpired     FreeTrialStatus = "expired"
	TrialUnavailable FreeTrialStatus = "unavailable"
)

// Exhausted reports whether the trial can no longer grant access.
func (s FreeTrialStatus) Exhausted() bool {
	return s == TrialExpired || s == TrialUnavailable
}

// Record is one cached access decision for one user identity.
// Field names match the persisted schema, so a record written by any
// instance sharing the same store round-trips unchanged.
//
// All instants are Unix epoch milliseconds. ExpiresAtMs of 0 means the
// backend reported no known expiry.
type Record struct {
	UserID          string          `json:"userId"`
	CheckedAtMs     int64           `json:"checkedAtMs"`
	NextCheckAtMs   int64           `json:"nextCheckAtMs"`
	ExpiresAtMs     int64           `json:"expiresAtMs,omitempty"`
	IsActive        bool            `json:"isActive"`
	IsLocked        bool            `json:"isLocked"`
	FreeTrialStatus FreeTrialStatus `json:"freeTrialStatus,omitempty"`
}

// NormalizeUserID canonicalizes an identity for storage and comparison.
func NormalizeUserID(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// OwnedBy reports whether the record belongs to the given identity.
// A record for a different identity must never be used to grant access;
// callers treat it as absent.
func (r *Record) OwnedBy(userID string) bool {
	if r == nil {
		return false
	}
	id := NormalizeUserID(userID)
	return id != "" && r.UserID == id
}

// Expired reports whether a known entitlement expiry has passed.
func (r *Record) Expired(nowMs int64) bool {
	return r != nil && r.ExpiresAtMs != 0 && nowMs >= r.ExpiresAtMs
}
