package influx

import (
	"context"
	"net/http"
	"sync"

	"lineview/internal/channel"
	"lineview/internal/platform/logger"
)

// HealthRequest asks the health worker to probe the store
type HealthRequest struct{}

// HealthSender is the producer half of the health worker channel; the reply
// is the upstream HTTP status code
type HealthSender = channel.Sender[HealthRequest, int]

// HandleHealth spawns the health worker and returns its channel
func (c *Client) HandleHealth(ctx context.Context, wg *sync.WaitGroup) HealthSender {
	tx, rx := channel.New[HealthRequest, int](channel.DefaultCapacity)
	log := logger.Named("influx_health_worker")
	healthURL := c.baseURL.JoinPath("health")

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
			c.serveHealth(log, healthURL.String(), call)
		}
		log.Info().Msg("terminating")
	}()

	return tx
}

func (c *Client) serveHealth(log *logger.Logger, url string, call *channel.Call[HealthRequest, int]) {
	defer call.Drop()
	req, err := http.NewRequestWithContext(call.Context(), http.MethodGet, url, nil)
	if err != nil {
		log.Error().Str("kind", "request building").Err(err).Msg("health probe failed")
		return
	}
	resp, err := c.http.Do(req)
	if err != nil {
		log.Error().Str("kind", "request sending").Err(err).Msg("health probe failed")
		return
	}
	resp.Body.Close()
	call.Reply(resp.StatusCode)
}
