// Command lineview-api serves derived views over a production line's
// telemetry: health, status timeline, performance ratio and production
// objective curves.
package main

import (
	"context"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"lineview/internal/configapi"
	"lineview/internal/httpapi"
	"lineview/internal/influx"
	"lineview/internal/objective"
	"lineview/internal/platform/config"
	"lineview/internal/platform/logger"
	phttp "lineview/internal/platform/net/http"
	"lineview/internal/platform/net/middleware"
)

func main() {
	logger.Init(logger.FromEnv())
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.New()

	configClient := configapi.New(configapi.Config{
		BaseURL:  cfg.Prefix("CONFIG_API_").MustURL("URL"),
		CacheTTL: cfg.Prefix("CONFIG_API_").MayDuration("CACHE_TTL", configapi.DefaultCacheTTL),
	})
	influxCfg := cfg.Prefix("INFLUXDB_")
	influxClient := influx.New(influx.Config{
		URL:         influxCfg.MayURL("URL", "http://influxdb:8086"),
		APIToken:    influxCfg.MustString("API_TOKEN"),
		Org:         influxCfg.MustString("ORG"),
		Bucket:      influxCfg.MustString("BUCKET"),
		Measurement: influxCfg.MustString("MEASUREMENT"),
	})

	// workers outlive individual requests; they stop when ctx is cancelled
	// and the WaitGroup drains before exit
	var wg sync.WaitGroup
	var engine objective.Engine
	channels := httpapi.Channels{
		Health:         influxClient.HandleHealth(ctx, &wg),
		Timeline:       influxClient.HandleTimeline(ctx, &wg),
		Performance:    influxClient.HandlePerformance(ctx, &wg),
		CommonConfig:   configClient.HandleCommon(ctx, &wg),
		PartnerConfig:  configClient.HandlePartner(ctx, &wg),
		ShiftObjective: engine.HandleShift(ctx, &wg),
		WeekObjective:  engine.HandleWeek(ctx, &wg),
	}

	srv := phttp.NewServer(cfg.Prefix("API_"))
	router := srv.Router()
	router.Use(
		middleware.RequestID(),
		middleware.RealIP(),
		middleware.AccessLog(middleware.AccessLogOptions{Slow: time.Second}),
		middleware.Recover,
		middleware.CORS(),
	)
	httpapi.Register(router, channels)

	if err := srv.Run(ctx); err != nil {
		log.Error().Err(err).Msg("http server failed")
	}

	stop()
	wg.Wait()
	log.Info().Msg("shutdown complete")
}
