// Package configapi implements the configuration API client and its two
// workers: the TTL-cached common config and the uncached per-partner config.
package configapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"lineview/internal/channel"
	perr "lineview/internal/platform/errors"
	"lineview/internal/platform/logger"
	"lineview/internal/timeutil"
)

// DefaultCacheTTL is how long a fetched common config stays fresh
const DefaultCacheTTL = time.Minute

// Config carries the client construction options
type Config struct {
	BaseURL    *url.URL
	CacheTTL   time.Duration // 0 means DefaultCacheTTL
	HTTPClient *http.Client  // nil means http.DefaultClient
}

// CommonRequest asks the common-config worker for the cached line config
type CommonRequest struct{}

// PartnerRequest asks the partner-config worker for one partner's config
type PartnerRequest struct {
	ID string
}

// CommonSender is the producer half of the common-config worker channel
type CommonSender = channel.Sender[CommonRequest, CommonConfig]

// PartnerSender is the producer half of the partner-config worker channel
type PartnerSender = channel.Sender[PartnerRequest, PartnerConfig]

type cacheEntry struct {
	at  time.Time
	cfg CommonConfig
}

// Client talks to the configuration API. The common-config cache is a single
// slot shared by all callers; its mutex is held across the upstream fetch on
// purpose so concurrent misses coalesce into one GET (single-flight).
type Client struct {
	baseURL  *url.URL
	http     *http.Client
	validate *validator.Validate
	cacheTTL time.Duration

	mu    sync.Mutex
	cache *cacheEntry
}

// New constructs a Client
func New(cfg Config) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	v := validator.New()
	// shift start times must be in chronological order
	if err := v.RegisterValidation("nondecreasing", func(fl validator.FieldLevel) bool {
		starts, ok := fl.Field().Interface().([]timeutil.TimeOfDay)
		if !ok {
			return false
		}
		for i := 1; i < len(starts); i++ {
			if starts[i] < starts[i-1] {
				return false
			}
		}
		return true
	}); err != nil {
		panic(err)
	}
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		cc := sl.Current().Interface().(CommonConfig)
		if cc.WeekStart.ShiftIndex >= len(cc.ShiftStartTimes) {
			sl.ReportError(cc.WeekStart.ShiftIndex, "WeekStart.ShiftIndex", "shiftIndex", "ltshifts", "")
		}
	}, CommonConfig{})

	return &Client{
		baseURL:  cfg.BaseURL,
		http:     hc,
		validate: v,
		cacheTTL: ttl,
	}
}

// getJSON fetches u and decodes the body into dst. Requires a 2xx status.
func (c *Client) getJSON(ctx context.Context, u *url.URL, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnknown, "building request")
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeUpstream, "sending request")
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return perr.Upstreamf("bad response status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return perr.Wrap(err, perr.ErrorCodeJSON, "decoding response")
	}
	return nil
}

// common returns the cached config or fetches a fresh one. The lock is held
// across the fetch: this is intentional single-flight, not a lock-holding
// bug; do not release it before the fetch completes. ctx is the worker's
// context, never a single caller's, so one waiter's disconnect cannot abort
// the shared fetch.
func (c *Client) common(ctx context.Context) (CommonConfig, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cache != nil && time.Since(c.cache.at) < c.cacheTTL {
		return c.cache.cfg, nil
	}
	var cfg CommonConfig
	if err := c.getJSON(ctx, c.baseURL.JoinPath("common"), &cfg); err != nil {
		return CommonConfig{}, err
	}
	if err := c.validate.Struct(cfg); err != nil {
		return CommonConfig{}, perr.Wrap(err, perr.ErrorCodeValidation, "validating common config")
	}
	c.cache = &cacheEntry{at: time.Now(), cfg: cfg}
	return cfg, nil
}

// partner fetches one partner's config; never cached
func (c *Client) partner(ctx context.Context, id string) (PartnerConfig, error) {
	if id == "" {
		return PartnerConfig{}, perr.InvalidArgf("empty partner id")
	}
	var cfg PartnerConfig
	if err := c.getJSON(ctx, c.baseURL.JoinPath(id), &cfg); err != nil {
		return PartnerConfig{}, err
	}
	if err := c.validate.Struct(cfg); err != nil {
		return PartnerConfig{}, perr.Wrap(err, perr.ErrorCodeValidation, "validating partner config")
	}
	return cfg, nil
}

// HandleCommon spawns the common-config worker and returns its channel
func (c *Client) HandleCommon(ctx context.Context, wg *sync.WaitGroup) CommonSender {
	tx, rx := channel.New[CommonRequest, CommonConfig](channel.DefaultCapacity)
	log := logger.Named("common_config_worker")

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
			c.serveCommon(ctx, log, call)
		}
		log.Info().Msg("terminating")
	}()

	return tx
}

func (c *Client) serveCommon(ctx context.Context, log *logger.Logger, call *channel.Call[CommonRequest, CommonConfig]) {
	defer call.Drop()
	cfg, err := c.common(ctx)
	if err != nil {
		log.Error().Str("kind", "common config fetch").Err(err).Msg("request failed")
		return
	}
	call.Reply(cfg)
}

// HandlePartner spawns the partner-config worker and returns its channel
func (c *Client) HandlePartner(ctx context.Context, wg *sync.WaitGroup) PartnerSender {
	tx, rx := channel.New[PartnerRequest, PartnerConfig](channel.DefaultCapacity)
	log := logger.Named("partner_config_worker")

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
			c.servePartner(log, call)
		}
		log.Info().Msg("terminating")
	}()

	return tx
}

func (c *Client) servePartner(log *logger.Logger, call *channel.Call[PartnerRequest, PartnerConfig]) {
	defer call.Drop()
	cfg, err := c.partner(call.Context(), call.Req.ID)
	if err != nil {
		log.Error().Str("kind", "partner config fetch").Str("id", call.Req.ID).Err(err).Msg("request failed")
		return
	}
	call.Reply(cfg)
}
