// Package timeutil holds the shift-time arithmetic shared by the performance
// and objective pipelines. Naive (zone-less) date-times are represented as
// time.Time values pinned to time.UTC; InZone is the single point where a
// naive value is reinterpreted in an IANA location.
package timeutil

import (
	"encoding/json"
	"fmt"
	"time"
)

// TimeOfDay is a wall-clock time of day as seconds since midnight
type TimeOfDay int

// ParseTimeOfDay parses "15:04:05"
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var h, m, sec int
	if _, err := fmt.Sscanf(s, "%d:%d:%d", &h, &m, &sec); err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 || sec < 0 || sec > 59 {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	return TimeOfDay(h*3600 + m*60 + sec), nil
}

// MustTimeOfDay is a fixture helper; panics on invalid input
func MustTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

// Clock returns hour, minute, second
func (t TimeOfDay) Clock() (int, int, int) {
	return int(t) / 3600, int(t) % 3600 / 60, int(t) % 60
}

// String formats as "15:04:05"
func (t TimeOfDay) String() string {
	h, m, s := t.Clock()
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// UnmarshalText decodes "15:04:05" (config API wire format)
func (t *TimeOfDay) UnmarshalText(b []byte) error {
	v, err := ParseTimeOfDay(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// MarshalText encodes as "15:04:05"
func (t TimeOfDay) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// On combines the time of day with the calendar date of d into a naive
// date-time
func (t TimeOfDay) On(d time.Time) time.Time {
	y, m, day := d.Date()
	h, mi, s := t.Clock()
	return time.Date(y, m, day, h, mi, s, 0, time.UTC)
}

// TimeSpan is a daily (start, end) window; start > end wraps midnight
type TimeSpan struct {
	Start TimeOfDay
	End   TimeOfDay
}

// UnmarshalJSON decodes the two-element array form ["08:00:00","08:20:00"]
func (s *TimeSpan) UnmarshalJSON(b []byte) error {
	var pair [2]TimeOfDay
	if err := json.Unmarshal(b, &pair); err != nil {
		return err
	}
	s.Start, s.End = pair[0], pair[1]
	return nil
}

// MarshalJSON encodes the two-element array form
func (s TimeSpan) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]TimeOfDay{s.Start, s.End})
}

// Span is a materialised (start, end) pair of naive date-times
type Span struct {
	Start time.Time
	End   time.Time
}

// Duration returns end - start
func (s Span) Duration() time.Duration { return s.End.Sub(s.Start) }
