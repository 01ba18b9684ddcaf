package timeutil

import (
	"testing"
	"time"

	"lineview/internal/platform/testkit"
)

func mustParse(t *testing.T, layout, s string) time.Time {
	t.Helper()
	v, err := time.Parse(layout, s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return v
}

func naive(t *testing.T, s string) time.Time {
	t.Helper()
	return mustParse(t, "2006-01-02T15:04:05", s)
}

func instant(t *testing.T, s string) time.Time {
	t.Helper()
	return mustParse(t, time.RFC3339, s)
}

func shiftTimes() []TimeOfDay {
	return []TimeOfDay{
		MustTimeOfDay("03:15:00"),
		MustTimeOfDay("11:30:00"),
		MustTimeOfDay("19:00:00"),
	}
}

func TestFindShiftBounds(t *testing.T) {
	utcPlus2 := time.FixedZone("UTC+2", 2*3600)
	utcPlus4 := time.FixedZone("UTC+4", 4*3600)
	utcMinus2 := time.FixedZone("UTC-2", -2*3600)

	oneShift := []TimeOfDay{MustTimeOfDay("11:00:00")}

	cases := []struct {
		name       string
		now        string
		loc        *time.Location
		starts     []TimeOfDay
		start, end string
	}{
		{"one shift before start", "1984-12-09T01:15:00Z", utcPlus2, oneShift,
			"1984-12-08T09:00:00Z", "1984-12-09T09:00:00Z"},
		{"one shift after start", "1984-12-09T13:15:00Z", utcMinus2, oneShift,
			"1984-12-09T13:00:00Z", "1984-12-10T13:00:00Z"},
		{"on first shift start", "1984-12-09T01:15:00Z", utcPlus2, shiftTimes(),
			"1984-12-09T01:15:00Z", "1984-12-09T09:30:00Z"},
		{"on second shift start", "1984-12-09T07:30:00Z", utcPlus4, shiftTimes(),
			"1984-12-09T07:30:00Z", "1984-12-09T15:00:00Z"},
		{"on third shift start", "1984-12-09T20:00:00Z", time.FixedZone("UTC-1", -3600), shiftTimes(),
			"1984-12-09T20:00:00Z", "1984-12-10T04:15:00Z"},
		{"in first shift", "1984-12-09T03:30:00Z", utcPlus2, shiftTimes(),
			"1984-12-09T01:15:00Z", "1984-12-09T09:30:00Z"},
		{"in second shift", "1984-12-09T14:30:00Z", time.FixedZone("UTC-3", -3*3600), shiftTimes(),
			"1984-12-09T14:30:00Z", "1984-12-09T22:00:00Z"},
		{"in third shift before midnight", "1984-12-09T21:00:00Z", time.UTC, shiftTimes(),
			"1984-12-09T19:00:00Z", "1984-12-10T03:15:00Z"},
		{"in third shift after midnight", "1984-12-10T03:00:00Z", utcMinus2, shiftTimes(),
			"1984-12-09T21:00:00Z", "1984-12-10T05:15:00Z"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			testkit.Serial(t)
			OverrideNow(instant(t, tc.now))
			start, end := FindShiftBounds(tc.loc, tc.starts)
			if !start.Equal(instant(t, tc.start)) {
				t.Fatalf("start = %v, want %v", start, tc.start)
			}
			if !end.Equal(instant(t, tc.end)) {
				t.Fatalf("end = %v, want %v", end, tc.end)
			}
		})
	}
}

func TestFindShiftBounds_EmptyStartsPanics(t *testing.T) {
	testkit.Serial(t)
	OverrideNow(instant(t, "1984-12-09T21:00:00Z"))
	testkit.MustPanic(t, func() { FindShiftBounds(time.UTC, nil) })
}

func excludedSpans() []TimeSpan {
	return []TimeSpan{
		{MustTimeOfDay("23:00:00"), MustTimeOfDay("01:00:00")},
		{MustTimeOfDay("04:00:00"), MustTimeOfDay("05:00:00")},
		{MustTimeOfDay("12:00:00"), MustTimeOfDay("12:20:00")},
		{MustTimeOfDay("19:00:00"), MustTimeOfDay("20:00:00")},
	}
}

func assertSpans(t *testing.T, got []Span, want [][2]string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d spans, want %d: %v", len(got), len(want), got)
	}
	for i, w := range want {
		if !got[i].Start.Equal(naive(t, w[0])) || !got[i].End.Equal(naive(t, w[1])) {
			t.Fatalf("span %d = (%v, %v), want (%s, %s)", i, got[i].Start, got[i].End, w[0], w[1])
		}
	}
}

func TestApplyTimeSpans_InvalidEnvelope(t *testing.T) {
	t.Parallel()
	got := ApplyTimeSpans(naive(t, "1984-12-09T03:00:00"), naive(t, "1984-12-09T02:00:00"), excludedSpans())
	assertSpans(t, got, nil)
}

func TestApplyTimeSpans_EmptySpansSlice(t *testing.T) {
	t.Parallel()
	got := ApplyTimeSpans(naive(t, "1984-12-09T05:00:00"), naive(t, "1984-12-09T05:00:00"), nil)
	assertSpans(t, got, nil)
}

func TestApplyTimeSpans_EmptySpan(t *testing.T) {
	t.Parallel()
	spans := []TimeSpan{{MustTimeOfDay("08:00:00"), MustTimeOfDay("08:00:00")}}
	got := ApplyTimeSpans(naive(t, "1984-12-09T05:00:00"), naive(t, "1984-12-09T12:00:00"), spans)
	assertSpans(t, got, nil)
}

func TestApplyTimeSpans_NoSpanApplied(t *testing.T) {
	t.Parallel()
	got := ApplyTimeSpans(naive(t, "1984-12-09T05:00:00"), naive(t, "1984-12-09T12:00:00"), excludedSpans())
	assertSpans(t, got, nil)
}

func TestApplyTimeSpans_AllSpansAppliedOneTime(t *testing.T) {
	t.Parallel()
	got := ApplyTimeSpans(naive(t, "1984-12-09T03:00:00"), naive(t, "1984-12-10T02:00:00"), excludedSpans())
	assertSpans(t, got, [][2]string{
		{"1984-12-09T04:00:00", "1984-12-09T05:00:00"},
		{"1984-12-09T12:00:00", "1984-12-09T12:20:00"},
		{"1984-12-09T19:00:00", "1984-12-09T20:00:00"},
		{"1984-12-09T23:00:00", "1984-12-10T01:00:00"},
	})
}

func TestApplyTimeSpans_AllSpansAppliedThreeTimes(t *testing.T) {
	t.Parallel()
	got := ApplyTimeSpans(naive(t, "1984-12-09T03:00:00"), naive(t, "1984-12-12T02:00:00"), excludedSpans())
	assertSpans(t, got, [][2]string{
		{"1984-12-09T04:00:00", "1984-12-09T05:00:00"},
		{"1984-12-09T12:00:00", "1984-12-09T12:20:00"},
		{"1984-12-09T19:00:00", "1984-12-09T20:00:00"},
		{"1984-12-09T23:00:00", "1984-12-10T01:00:00"},
		{"1984-12-10T04:00:00", "1984-12-10T05:00:00"},
		{"1984-12-10T12:00:00", "1984-12-10T12:20:00"},
		{"1984-12-10T19:00:00", "1984-12-10T20:00:00"},
		{"1984-12-10T23:00:00", "1984-12-11T01:00:00"},
		{"1984-12-11T04:00:00", "1984-12-11T05:00:00"},
		{"1984-12-11T12:00:00", "1984-12-11T12:20:00"},
		{"1984-12-11T19:00:00", "1984-12-11T20:00:00"},
		{"1984-12-11T23:00:00", "1984-12-12T01:00:00"},
	})
}

func TestApplyTimeSpans_EnvelopeStartsInSpan(t *testing.T) {
	t.Parallel()
	got := ApplyTimeSpans(naive(t, "1984-12-09T04:40:00"), naive(t, "1984-12-09T13:00:00"), excludedSpans())
	assertSpans(t, got, [][2]string{
		{"1984-12-09T04:40:00", "1984-12-09T05:00:00"},
		{"1984-12-09T12:00:00", "1984-12-09T12:20:00"},
	})
}

func TestApplyTimeSpans_EnvelopeEndsInSpan(t *testing.T) {
	t.Parallel()
	got := ApplyTimeSpans(naive(t, "1984-12-09T18:00:00"), naive(t, "1984-12-09T23:30:00"), excludedSpans())
	assertSpans(t, got, [][2]string{
		{"1984-12-09T19:00:00", "1984-12-09T20:00:00"},
		{"1984-12-09T23:00:00", "1984-12-09T23:30:00"},
	})
}

func TestUtcNow_OverrideIsOneShot(t *testing.T) {
	testkit.Serial(t)
	scripted := instant(t, "1984-12-09T21:00:00Z")
	OverrideNow(scripted)
	if got := UtcNow(); !got.Equal(scripted) {
		t.Fatalf("first call = %v, want scripted %v", got, scripted)
	}
	if got := UtcNow(); got.Year() == 1984 {
		t.Fatalf("second call still scripted: %v", got)
	}
}
