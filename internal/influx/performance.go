package influx

import (
	"context"
	"strings"
	"sync"
	"time"

	"lineview/internal/channel"
	"lineview/internal/platform/logger"
	"lineview/internal/timeutil"
)

// PerformanceRequest asks the performance worker for the parts-done over
// parts-expected ratio of the current shift
type PerformanceRequest struct {
	ID              string
	ShiftStartTimes []timeutil.TimeOfDay
	Pauses          []timeutil.TimeSpan
	Timezone        *time.Location
	TargetCycleTime float32
}

// PerformanceSender is the producer half of the performance worker channel;
// the reply is a percentage, NaN when the shift has no production rows yet
type PerformanceSender = channel.Sender[PerformanceRequest, float32]

type performanceRow struct {
	Elapsed   int       `csv:"elapsed"` // minutes
	End       time.Time `csv:"end"`
	GoodParts uint16    `csv:"goodParts"`
	PartRef   string    `csv:"partRef"` // reserved
}

// HandlePerformance spawns the performance worker and returns its channel
func (c *Client) HandlePerformance(ctx context.Context, wg *sync.WaitGroup) PerformanceSender {
	tx, rx := channel.New[PerformanceRequest, float32](channel.DefaultCapacity)
	log := logger.Named("influx_performance_worker")

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
			c.servePerformance(log, call)
		}
		log.Info().Msg("terminating")
	}()

	return tx
}

func (c *Client) servePerformance(log *logger.Logger, call *channel.Call[PerformanceRequest, float32]) {
	defer call.Drop()
	req := call.Req
	shiftStart, _ := timeutil.FindShiftBounds(req.Timezone, req.ShiftStartTimes)
	flux := strings.NewReplacer(
		"__idplaceholder__", req.ID,
		"__startplaceholder__", shiftStart.Format(time.RFC3339),
	).Replace(performanceFlux)
	rows, err := query[performanceRow](call.Context(), c, flux)
	if err != nil {
		log.Error().Str("kind", "performance query").Str("id", req.ID).Err(err).Msg("request failed")
		return
	}
	call.Reply(computePerformance(rows, req.Timezone, req.Pauses, req.TargetCycleTime))
}

// computePerformance accumulates expected parts over the pause-corrected
// effective duration of each row. All pause arithmetic is naive local time;
// NaN (0/0) on no usable rows is a legitimate result.
func computePerformance(rows []performanceRow, zone *time.Location, pauses []timeutil.TimeSpan, targetCycleTime float32) float32 {
	var expected float32
	var done uint32
	for _, row := range rows {
		if row.Elapsed <= 0 {
			continue
		}
		duration := time.Duration(row.Elapsed) * time.Minute
		endLocal := timeutil.Naive(row.End.In(zone))
		startLocal := endLocal.Add(-duration)
		var paused time.Duration
		for _, span := range timeutil.ApplyTimeSpans(startLocal, endLocal, pauses) {
			paused += span.Duration()
		}
		effectiveSecs := float32((duration - paused) / time.Second)
		expected += effectiveSecs / targetCycleTime
		done += uint32(row.GoodParts)
	}
	return 100 * float32(done) / expected
}
