package clockkit

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Boundary is a recurring daily wall-clock point in one fixed timezone.
// Comparisons against it are done on absolute instants, so results never
// depend on the host's local timezone.
type Boundary struct {
	hour   int
	minute int
	loc    *time.Location
	sched  cron.Schedule
}

// NewBoundary builds a boundary for the given wall-clock time in loc.
func NewBoundary(hour, minute int, loc *time.Location) (Boundary, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return Boundary{}, fmt.Errorf("clockkit: invalid boundary %02d:%02d", hour, minute)
	}
	if loc == nil {
		return Boundary{}, fmt.Errorf("clockkit: nil location")
	}
	sched, err := cron.ParseStandard(fmt.Sprintf("%d %d * * *", minute, hour))
	if err != nil {
		return Boundary{}, fmt.Errorf("clockkit: parse boundary schedule: %w", err)
	}
	return Boundary{hour: hour, minute: minute, loc: loc, sched: sched}, nil
}

// MustBoundary is NewBoundary that panics on invalid input. For package-level
// defaults only.
func MustBoundary(hour, minute int, loc *time.Location) Boundary {
	b, err := NewBoundary(hour, minute, loc)
	if err != nil {
		panic(err)
	}
	return b
}

// NextAfter returns the next occurrence of the boundary strictly after ref,
// as an absolute instant. A ref exactly on the boundary rolls over to the
// next calendar day; a ref one second before it returns today's boundary.
func (b Boundary) NextAfter(ref time.Time) time.Time {
	// cron schedules resolve in the time's own location, so pin ref to the
	// boundary's fixed zone first. The parser handles the day rollover.
	return b.sched.Next(ref.In(b.loc))
}

// IsZero reports whether the boundary was never initialized.
func (b Boundary) IsZero() bool { return b.sched == nil }

// Location returns the boundary's fixed timezone.
func (b Boundary) Location() *time.Location { return b.loc }

// String renders the boundary as "HH:MM <zone>".
func (b Boundary) String() string {
	return fmt.Sprintf("%02d:%02d %s", b.hour, b.minute, b.loc)
}

// IST is the fixed UTC+05:30 offset used by the default boundary. Loaded
// from the tz database when available so the name renders as Asia/Kolkata.
var IST = loadIST()

func loadIST() *time.Location {
	if loc, err := time.LoadLocation("Asia/Kolkata"); err == nil {
		return loc
	}
	// The zone has a constant offset, so a fixed zone is equivalent.
	return time.FixedZone("IST", 5*3600+30*60)
}

// DefaultBoundary is 07:00 IST, the revalidation point of the subscription
// backend this library was built against.
var DefaultBoundary = MustBoundary(7, 0, IST)
