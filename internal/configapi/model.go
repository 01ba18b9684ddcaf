package configapi

import (
	"fmt"
	"time"

	"lineview/internal/timeutil"
)

// Weekday wraps time.Weekday with the config API's English day-name wire form
type Weekday time.Weekday

var dayNames = map[string]time.Weekday{
	"Sunday":    time.Sunday,
	"Monday":    time.Monday,
	"Tuesday":   time.Tuesday,
	"Wednesday": time.Wednesday,
	"Thursday":  time.Thursday,
	"Friday":    time.Friday,
	"Saturday":  time.Saturday,
}

// UnmarshalText decodes "Monday".."Sunday"
func (w *Weekday) UnmarshalText(b []byte) error {
	d, ok := dayNames[string(b)]
	if !ok {
		return fmt.Errorf("invalid weekday %q", b)
	}
	*w = Weekday(d)
	return nil
}

// MarshalText encodes the English day name
func (w Weekday) MarshalText() ([]byte, error) {
	return []byte(time.Weekday(w).String()), nil
}

// WeekStart locates the first shift of the production week
type WeekStart struct {
	Day        Weekday `json:"day"`
	ShiftIndex int     `json:"shiftIndex" validate:"gte=0"`
}

// CommonConfig is the line-wide configuration shared by all partners.
// Validated on fetch; see Client.validate for the registered rules.
type CommonConfig struct {
	ShiftStartTimes []timeutil.TimeOfDay `json:"shiftStartTimes" validate:"required,min=1,nondecreasing"`
	Pauses          []timeutil.TimeSpan  `json:"pauses"`
	WeekStart       WeekStart            `json:"weekStart"`
}

// PartnerConfig is the per-partner configuration; len(ShiftEngaged) defines
// the number of shifts in a week
type PartnerConfig struct {
	TargetCycleTime  float32 `json:"targetCycleTime" validate:"gt=0"`
	TargetEfficiency float32 `json:"targetEfficiency" validate:"gte=0,lte=1"`
	ShiftEngaged     []bool  `json:"shiftEngaged" validate:"min=1"`
}
