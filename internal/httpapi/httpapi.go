// Package httpapi mounts the public HTTP surface over the worker channels.
// Handlers only compose roundtrips; every computation lives behind a channel.
package httpapi

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"lineview/internal/configapi"
	"lineview/internal/influx"
	"lineview/internal/objective"
	perr "lineview/internal/platform/errors"
	phttp "lineview/internal/platform/net/http"
	"lineview/internal/platform/logger"
)

// ClientTimezoneHeader names the IANA zone the client renders times in
const ClientTimezoneHeader = "Client-Timezone"

// Channels carries the producer half of every worker channel the handlers
// compose
type Channels struct {
	Health         influx.HealthSender
	Timeline       influx.TimelineSender
	Performance    influx.PerformanceSender
	CommonConfig   configapi.CommonSender
	PartnerConfig  configapi.PartnerSender
	ShiftObjective objective.ShiftSender
	WeekObjective  objective.WeekSender
}

// Register mounts the five endpoints
func Register(r phttp.Router, ch Channels) {
	r.Get("/health", ch.health)
	r.Get("/timeline/{id}", ch.timeline)
	r.Get("/performance/{id}", ch.performance)
	r.Get("/shift-objective/{id}", ch.shiftObjective)
	r.Get("/week-objective/{id}", ch.weekObjective)
}

// clientTimezone resolves the client zone header. time.LoadLocation maps ""
// to UTC, so the empty header is rejected before it.
func clientTimezone(r *http.Request) (*time.Location, error) {
	name := r.Header.Get(ClientTimezoneHeader)
	if name == "" {
		return nil, errors.New("missing client-timezone header")
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid client-timezone header %q", name)
	}
	return loc, nil
}

// failRoundtrip logs a failed worker roundtrip and writes the status its
// error code maps to. Every error a roundtrip can surface maps to a 500.
func failRoundtrip(w http.ResponseWriter, r *http.Request, kind string, err error) {
	logger.C(r.Context()).Error().Str("kind", kind).Err(err).Msg("request failed")
	phttp.Text(w, perr.HTTPStatus(err), "internal server error")
}

func (ch Channels) health(w http.ResponseWriter, r *http.Request) {
	status, err := ch.Health.Roundtrip(r.Context(), influx.HealthRequest{})
	if err != nil {
		failRoundtrip(w, r, "health channel roundtrip", err)
		return
	}
	if status != http.StatusOK {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (ch Channels) timeline(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	partner, err := ch.PartnerConfig.Roundtrip(r.Context(), configapi.PartnerRequest{ID: id})
	if err != nil {
		failRoundtrip(w, r, "partner config channel roundtrip", err)
		return
	}
	slots, err := ch.Timeline.Roundtrip(r.Context(), influx.TimelineRequest{
		ID:              id,
		TargetCycleTime: partner.TargetCycleTime,
	})
	if err != nil {
		failRoundtrip(w, r, "timeline channel roundtrip", err)
		return
	}
	phttp.MsgPack(w, wireTimeline(slots))
}

func (ch Channels) performance(w http.ResponseWriter, r *http.Request) {
	loc, err := clientTimezone(r)
	if err != nil {
		phttp.BadRequest(w, err.Error())
		return
	}
	common, partner, ok := ch.lineConfig(w, r)
	if !ok {
		return
	}
	result, err := ch.Performance.Roundtrip(r.Context(), influx.PerformanceRequest{
		ID:              chi.URLParam(r, "id"),
		ShiftStartTimes: common.ShiftStartTimes,
		Pauses:          common.Pauses,
		Timezone:        loc,
		TargetCycleTime: partner.TargetCycleTime,
	})
	if err != nil {
		failRoundtrip(w, r, "performance channel roundtrip", err)
		return
	}
	if math.IsNaN(float64(result)) {
		// no production rows yet for the running shift
		phttp.JSON(w, http.StatusOK, nil)
		return
	}
	phttp.JSON(w, http.StatusOK, result)
}

func (ch Channels) shiftObjective(w http.ResponseWriter, r *http.Request) {
	loc, err := clientTimezone(r)
	if err != nil {
		phttp.BadRequest(w, err.Error())
		return
	}
	common, partner, ok := ch.lineConfig(w, r)
	if !ok {
		return
	}
	points, err := ch.ShiftObjective.Roundtrip(r.Context(), objective.ShiftRequest{
		ShiftStartTimes:  common.ShiftStartTimes,
		Pauses:           common.Pauses,
		Timezone:         loc,
		TargetCycleTime:  partner.TargetCycleTime,
		TargetEfficiency: partner.TargetEfficiency,
	})
	if err != nil {
		failRoundtrip(w, r, "shift objective channel roundtrip", err)
		return
	}
	phttp.JSON(w, http.StatusOK, points)
}

func (ch Channels) weekObjective(w http.ResponseWriter, r *http.Request) {
	loc, err := clientTimezone(r)
	if err != nil {
		phttp.BadRequest(w, err.Error())
		return
	}
	common, partner, ok := ch.lineConfig(w, r)
	if !ok {
		return
	}
	points, err := ch.WeekObjective.Roundtrip(r.Context(), objective.WeekRequest{
		ShiftStartTimes:  common.ShiftStartTimes,
		Pauses:           common.Pauses,
		Timezone:         loc,
		TargetCycleTime:  partner.TargetCycleTime,
		TargetEfficiency: partner.TargetEfficiency,
		ShiftEngaged:     partner.ShiftEngaged,
		WeekStart: objective.WeekStart{
			Day:        time.Weekday(common.WeekStart.Day),
			ShiftIndex: common.WeekStart.ShiftIndex,
		},
	})
	if err != nil {
		failRoundtrip(w, r, "week objective channel roundtrip", err)
		return
	}
	phttp.JSON(w, http.StatusOK, points)
}

// lineConfig runs the common and partner config roundtrips shared by the
// objective handlers; on failure the response has already been written
func (ch Channels) lineConfig(w http.ResponseWriter, r *http.Request) (configapi.CommonConfig, configapi.PartnerConfig, bool) {
	common, err := ch.CommonConfig.Roundtrip(r.Context(), configapi.CommonRequest{})
	if err != nil {
		failRoundtrip(w, r, "common config channel roundtrip", err)
		return configapi.CommonConfig{}, configapi.PartnerConfig{}, false
	}
	partner, err := ch.PartnerConfig.Roundtrip(r.Context(), configapi.PartnerRequest{ID: chi.URLParam(r, "id")})
	if err != nil {
		failRoundtrip(w, r, "partner config channel roundtrip", err)
		return configapi.CommonConfig{}, configapi.PartnerConfig{}, false
	}
	return common, partner, true
}
