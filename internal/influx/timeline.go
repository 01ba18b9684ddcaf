package influx

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"lineview/internal/channel"
	"lineview/internal/platform/logger"
)

// TimelineRequest asks the timeline worker for one machine's status history
type TimelineRequest struct {
	ID              string
	TargetCycleTime float32
}

// TimelineSlot is one run of identical machine status; Color nil means no
// data for the run
type TimelineSlot struct {
	Start time.Time
	Color *uint8
}

// TimelineSender is the producer half of the timeline worker channel
type TimelineSender = channel.Sender[TimelineRequest, []TimelineSlot]

type timelineRow struct {
	Time  time.Time `csv:"_time"`
	Color *uint8    `csv:"color"`
}

// HandleTimeline spawns the timeline worker and returns its channel
func (c *Client) HandleTimeline(ctx context.Context, wg *sync.WaitGroup) TimelineSender {
	tx, rx := channel.New[TimelineRequest, []TimelineSlot](channel.DefaultCapacity)
	log := logger.Named("influx_timeline_worker")

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
			c.serveTimeline(log, call)
		}
		log.Info().Msg("terminating")
	}()

	return tx
}

func (c *Client) serveTimeline(log *logger.Logger, call *channel.Call[TimelineRequest, []TimelineSlot]) {
	defer call.Drop()
	flux := strings.NewReplacer(
		"__idplaceholder__", call.Req.ID,
		"__targetcycletimeplaceholder__", strconv.FormatFloat(float64(call.Req.TargetCycleTime), 'f', -1, 32),
	).Replace(timelineFlux)
	rows, err := query[timelineRow](call.Context(), c, flux)
	if err != nil {
		log.Error().Str("kind", "timeline query").Str("id", call.Req.ID).Err(err).Msg("request failed")
		return
	}
	call.Reply(dedupSlots(rows))
}

// dedupSlots collapses consecutive rows with the same color, keeping the
// first of each run; the final row always survives as the terminal slot
// boundary even when its color matches the preceding run.
func dedupSlots(rows []timelineRow) []TimelineSlot {
	if len(rows) == 0 {
		return []TimelineSlot{}
	}
	last := rows[len(rows)-1]
	rows = rows[:len(rows)-1]
	slots := make([]TimelineSlot, 0, len(rows)+1)
	for i, r := range rows {
		if i > 0 && sameColor(r.Color, rows[i-1].Color) {
			continue
		}
		slots = append(slots, TimelineSlot{Start: r.Time, Color: r.Color})
	}
	return append(slots, TimelineSlot{Start: last.Time, Color: last.Color})
}

func sameColor(a, b *uint8) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
