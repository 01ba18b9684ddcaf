package timeutil

import (
	"sort"
	"sync"
	"time"
)

var (
	overrideMu  sync.Mutex
	overrideNow *time.Time
)

// OverrideNow scripts the next UtcNow call. The value is consumed exactly
// once, after which UtcNow reverts to the real clock; tests using it must run
// under testkit.Serial to avoid cross-test contamination.
func OverrideNow(t time.Time) {
	overrideMu.Lock()
	defer overrideMu.Unlock()
	v := t
	overrideNow = &v
}

// UtcNow returns the current UTC instant, or the scripted override if one is
// pending. This is the only clock dependency in the core.
func UtcNow() time.Time {
	overrideMu.Lock()
	if overrideNow != nil {
		t := *overrideNow
		overrideNow = nil
		overrideMu.Unlock()
		return t
	}
	overrideMu.Unlock()
	return time.Now().UTC()
}

// Naive strips the zone from t, keeping its wall-clock fields
func Naive(t time.Time) time.Time {
	y, m, d := t.Date()
	h, mi, s := t.Clock()
	return time.Date(y, m, d, h, mi, s, t.Nanosecond(), time.UTC)
}

// InZone reinterprets the wall-clock fields of a naive date-time in loc
func InZone(naive time.Time, loc *time.Location) time.Time {
	y, m, d := naive.Date()
	h, mi, s := naive.Clock()
	return time.Date(y, m, d, h, mi, s, naive.Nanosecond(), loc)
}

// FindShiftBounds returns the start and end of the shift enclosing the
// current instant in loc, given the configured intraday shift start times.
//
// starts is assumed ordered, non-empty and covering the entire day; the
// function panics on an empty slice (guarded upstream by common config
// validation).
func FindShiftBounds(loc *time.Location, starts []TimeOfDay) (time.Time, time.Time) {
	now := UtcNow().In(loc)
	current := TimeOfDay(now.Hour()*3600 + now.Minute()*60 + now.Second())

	// last start not exceeding the current time of day
	found := sort.Search(len(starts), func(i int) bool { return starts[i] > current }) - 1

	y, m, d := now.Date()
	at := func(days int, t TimeOfDay) time.Time {
		h, mi, s := t.Clock()
		return time.Date(y, m, d+days, h, mi, s, 0, loc)
	}

	if found < 0 {
		// before the first start of the day: the shift began yesterday
		return at(-1, starts[len(starts)-1]), at(0, starts[0])
	}
	if found == len(starts)-1 {
		return at(0, starts[found]), at(1, starts[0])
	}
	return at(0, starts[found]), at(0, starts[found+1])
}

// ApplyTimeSpans projects each daily span onto every calendar date of the
// envelope, then clips to the envelope. The envelope start is inclusive and
// the end exclusive for containment; wrapped spans (start > end) materialise
// both the run that began the previous evening (first day only) and the run
// crossing into the next day. Returned spans are sorted by start, strictly
// positive, and clipped to [envStart, envEnd].
func ApplyTimeSpans(envStart, envEnd time.Time, spans []TimeSpan) []Span {
	var all []Span

	startDate := TimeOfDay(0).On(envStart)
	endDate := TimeOfDay(0).On(envEnd)
	for date, i := startDate, 0; !date.After(endDate); date, i = date.AddDate(0, 0, 1), i+1 {
		for _, s := range spans {
			if s.Start > s.End {
				if i == 0 {
					all = append(all, Span{s.Start.On(date.AddDate(0, 0, -1)), s.End.On(date)})
				}
				all = append(all, Span{s.Start.On(date), s.End.On(date.AddDate(0, 0, 1))})
			} else {
				all = append(all, Span{s.Start.On(date), s.End.On(date)})
			}
		}
	}

	sort.Slice(all, func(i, j int) bool { return all[i].Start.Before(all[j].Start) })

	contains := func(t time.Time) bool { return !t.Before(envStart) && t.Before(envEnd) }
	out := make([]Span, 0, len(all))
	for _, s := range all {
		switch {
		case contains(s.Start) && contains(s.End):
			if s.Start.Before(s.End) {
				out = append(out, s)
			}
		case contains(s.Start):
			if s.Start.Before(envEnd) {
				out = append(out, Span{s.Start, envEnd})
			}
		case contains(s.End):
			if envStart.Before(s.End) {
				out = append(out, Span{envStart, s.End})
			}
		}
	}
	return out
}
