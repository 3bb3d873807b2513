package controller

import (
	"fmt"
	"time"
)

// Period is the cadence of a periodic operation. Periods are compared by
// exact value when the scheduler groups operations: two scans declaring
// periods that differ by a nanosecond run in separate groups.
type Period time.Duration

const (
	// PeriodNone means the operation is never scheduled.
	PeriodNone Period = 0

	// Once is the sentinel period meaning "run exactly once at startup,
	// never periodically".
	Once Period = -1
)

// IsOnce returns true for the run-once sentinel.
func (p Period) IsOnce() bool { return p == Once }

// IsPeriodic returns true for a strictly positive period.
func (p Period) IsPeriodic() bool { return p > 0 }

// Duration returns the period as a time.Duration.
// Only meaningful for periodic periods.
func (p Period) Duration() time.Duration { return time.Duration(p) }

// String returns the period in duration notation, or "once"/"none" for
// the sentinels.
func (p Period) String() string {
	switch {
	case p == Once:
		return "once"
	case p == PeriodNone:
		return "none"
	case p > 0:
		return time.Duration(p).String()
	default:
		return fmt.Sprintf("invalid(%d)", int64(p))
	}
}

// valid reports whether p is usable as a scan period.
func (p Period) valid() bool { return p.IsOnce() || p.IsPeriodic() }
