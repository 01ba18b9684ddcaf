// Package objective computes production objective curves: for a shift or a
// whole production week, the number of parts a line should have produced at
// each point in time, with pause windows punched out as flat segments.
package objective

import (
	"context"
	"sync"
	"time"

	"lineview/internal/channel"
	"lineview/internal/platform/logger"
	"lineview/internal/timeutil"
)

// Point is one curve sample; Timestamp is epoch seconds in the client zone
type Point struct {
	Timestamp int64  `json:"t"`
	Value     uint16 `json:"v"`
}

// ShiftRequest asks for the current shift's objective curve
type ShiftRequest struct {
	ShiftStartTimes  []timeutil.TimeOfDay
	Pauses           []timeutil.TimeSpan
	Timezone         *time.Location
	TargetCycleTime  float32
	TargetEfficiency float32
}

// WeekStart locates the first shift of the production week
type WeekStart struct {
	Day        time.Weekday
	ShiftIndex int
}

// WeekRequest asks for the running production week's objective curve
type WeekRequest struct {
	ShiftStartTimes  []timeutil.TimeOfDay
	Pauses           []timeutil.TimeSpan
	Timezone         *time.Location
	TargetCycleTime  float32
	TargetEfficiency float32
	ShiftEngaged     []bool
	WeekStart        WeekStart
}

// ShiftSender is the producer half of the shift objective worker channel
type ShiftSender = channel.Sender[ShiftRequest, []Point]

// WeekSender is the producer half of the week objective worker channel
type WeekSender = channel.Sender[WeekRequest, []Point]

type naivePoint struct {
	at    time.Time // naive
	value uint16
}

// naivePoints accumulates the curve in naive local time; conversion to epoch
// seconds happens once at the end
type naivePoints struct {
	rate   float32 // parts per second
	points []naivePoint
}

func newNaivePoints(start time.Time, targetCycleTime, targetEfficiency float32) *naivePoints {
	return &naivePoints{
		rate:   1 / targetCycleTime * targetEfficiency,
		points: []naivePoint{{at: start}},
	}
}

// pushShift extends the curve to end. A disengaged shift is a single flat
// segment; an engaged one interleaves producing segments with the pauses
// projected onto it. No point is emitted twice even when a pause clips to
// the segment end, keeping timestamps strictly increasing.
func (n *naivePoints) pushShift(end time.Time, engaged bool, pauses []timeutil.TimeSpan) {
	cur := n.points[len(n.points)-1]
	if !engaged {
		n.points = append(n.points, naivePoint{at: end, value: cur.value})
		return
	}

	type interest struct {
		at        time.Time
		producing bool
	}
	var seq []interest
	for _, span := range timeutil.ApplyTimeSpans(cur.at, end, pauses) {
		seq = append(seq, interest{span.Start, true}, interest{span.End, false})
	}
	if len(seq) == 0 || seq[len(seq)-1].at.Before(end) {
		seq = append(seq, interest{end, true})
	}

	for _, p := range seq {
		value := cur.value
		if p.producing {
			elapsedSecs := p.at.Sub(cur.at) / time.Second
			value += uint16(float32(elapsedSecs) * n.rate)
		}
		cur = naivePoint{at: p.at, value: value}
		n.points = append(n.points, cur)
	}
}

func (n *naivePoints) toPoints(loc *time.Location) []Point {
	out := make([]Point, len(n.points))
	for i, p := range n.points {
		out[i] = Point{Timestamp: timeutil.InZone(p.at, loc).Unix(), Value: p.value}
	}
	return out
}

func shiftCurve(req ShiftRequest) []Point {
	start, end := timeutil.FindShiftBounds(req.Timezone, req.ShiftStartTimes)
	b := newNaivePoints(timeutil.Naive(start), req.TargetCycleTime, req.TargetEfficiency)
	b.pushShift(timeutil.Naive(end), true, req.Pauses)
	return b.toPoints(req.Timezone)
}

func mondayIndexed(d time.Weekday) int { return (int(d) + 6) % 7 }

func weekCurve(req WeekRequest) []Point {
	now := timeutil.UtcNow().In(req.Timezone)
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	// taken mod 7, so a today earlier in the week than the configured start
	// day wraps back to the previous week's start
	back := (mondayIndexed(now.Weekday()) - mondayIndexed(req.WeekStart.Day) + 7) % 7
	weekStartDay := today.AddDate(0, 0, -back)

	// shift boundaries cycle through the configured start times, rolling over
	// to the next day each full cycle; the first boundary is the curve origin
	engaged := append([]bool{true}, req.ShiftEngaged...)
	starts := req.ShiftStartTimes
	var b *naivePoints
	for k, eng := range engaged {
		i := req.WeekStart.ShiftIndex + k
		at := starts[i%len(starts)].On(weekStartDay.AddDate(0, 0, i/len(starts)))
		if b == nil {
			b = newNaivePoints(at, req.TargetCycleTime, req.TargetEfficiency)
			continue
		}
		b.pushShift(at, eng, req.Pauses)
	}
	return b.toPoints(req.Timezone)
}

// Engine hosts the two objective workers
type Engine struct{}

// HandleShift spawns the shift objective worker and returns its channel
func (Engine) HandleShift(ctx context.Context, wg *sync.WaitGroup) ShiftSender {
	tx, rx := channel.New[ShiftRequest, []Point](channel.DefaultCapacity)
	log := logger.Named("shift_objective_worker")

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer rx.Close()
		log.Info().Msg("started")
		for {
			call, ok := rx.Recv(ctx)
			if !ok {
				break
			}
			call.Reply(shiftCurve(call.Req))
		}
		log.Info().Msg("terminating")
	}()

	return tx
}

// HandleWeek spawns the week objective worker and returns its channel
func (Engine) HandleWeek(ctx context.Context, wg *sync.WaitGroup) WeekSender {
	tx, rx := channel.New[WeekRequest, []Point](channel.DefaultCapacity)
	log := logger.Named("week_objective_worker")

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer rx.Close()
		log.Info().Msg("started")
		for {
			call, ok := rx.Recv(ctx)
			if !ok {
				break
			}
			call.Reply(weekCurve(call.Req))
		}
		log.Info().Msg("terminating")
	}()

	return tx
}
