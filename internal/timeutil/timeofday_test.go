package timeutil

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseTimeOfDay(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in   string
		want TimeOfDay
	}{
		{"00:00:00", 0},
		{"05:30:00", 5*3600 + 30*60},
		{"23:59:59", 86399},
	}
	for _, tc := range cases {
		got, err := ParseTimeOfDay(tc.in)
		if err != nil {
			t.Fatalf("parse %q: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("parse %q = %d, want %d", tc.in, got, tc.want)
		}
		if got.String() != tc.in {
			t.Fatalf("String() = %q, want %q", got.String(), tc.in)
		}
	}
}

func TestParseTimeOfDay_Invalid(t *testing.T) {
	t.Parallel()
	for _, in := range []string{"", "24:00:00", "12:60:00", "noon", "12:00"} {
		if _, err := ParseTimeOfDay(in); err == nil {
			t.Fatalf("parse %q: expected error", in)
		}
	}
}

func TestTimeSpan_ConfigWireFormat(t *testing.T) {
	t.Parallel()
	var span TimeSpan
	if err := json.Unmarshal([]byte(`["08:00:00","08:20:00"]`), &span); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if span.Start != MustTimeOfDay("08:00:00") || span.End != MustTimeOfDay("08:20:00") {
		t.Fatalf("span = %+v", span)
	}
	b, err := json.Marshal(span)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `["08:00:00","08:20:00"]` {
		t.Fatalf("marshalled = %s", b)
	}
}

func TestTimeOfDayOn(t *testing.T) {
	t.Parallel()
	d := time.Date(1984, 12, 9, 17, 45, 12, 0, time.UTC)
	got := MustTimeOfDay("05:30:00").On(d)
	want := time.Date(1984, 12, 9, 5, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("On = %v, want %v", got, want)
	}
}
