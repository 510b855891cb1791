package clockkit

import "time"

// Provider supplies the current instant. Injected so schedule math is
// testable with fixed instants.
type Provider interface {
	Now() time.Time
}

// System reads the host clock.
type System struct{}

func (System) Now() time.Time { return time.Now() }

// Fixed always returns the same instant. Test helper.
type Fixed struct {
	T time.Time
}

func (f Fixed) Now() time.Time { return f.T }

// UnixMs converts an instant to Unix epoch milliseconds.
func UnixMs(t time.Time) int64 { return t.UnixMilli() }

// FromUnixMs converts Unix epoch milliseconds back to an instant (UTC).
func FromUnixMs(ms int64) time.Time { return time.UnixMilli(ms).UTC() }
