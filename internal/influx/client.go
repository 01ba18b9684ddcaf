// Package influx implements the time-series store client and the three
// workers built on it: health probe, timeline query and performance
// computation. Queries are Flux templates with textual placeholders; responses
// come back as annotated CSV.
package influx

import (
	"context"
	_ "embed"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/jszwec/csvutil"

	perr "lineview/internal/platform/errors"
)

//go:embed timeline.flux
var timelineFlux string

//go:embed performance.flux
var performanceFlux string

// Config carries the client construction options
type Config struct {
	URL         *url.URL
	APIToken    string
	Org         string
	Bucket      string
	Measurement string
	HTTPClient  *http.Client // nil means http.DefaultClient
}

// Client talks to the time-series store. Read-only after construction, safe
// to share between workers.
type Client struct {
	baseURL     *url.URL
	authHeader  string
	org         string
	bucket      string
	measurement string
	http        *http.Client
}

// New constructs a Client
func New(cfg Config) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{
		baseURL:     cfg.URL,
		authHeader:  "Token " + cfg.APIToken,
		org:         cfg.Org,
		bucket:      cfg.Bucket,
		measurement: cfg.Measurement,
		http:        hc,
	}
}

type queryError struct {
	Message string `json:"message"`
}

// query posts the Flux body (bucket and measurement placeholders substituted
// here, the rest by the caller) and decodes the CSV response into rows. An
// empty response body yields no rows and no error.
func query[T any](ctx context.Context, c *Client, flux string) ([]T, error) {
	u := c.baseURL.JoinPath("api", "v2", "query")
	q := u.Query()
	q.Set("org", c.org)
	u.RawQuery = q.Encode()

	body := strings.NewReplacer(
		"__bucketplaceholder__", c.bucket,
		"__measurementplaceholder__", c.measurement,
	).Replace(flux)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), strings.NewReader(body))
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnknown, "building request")
	}
	req.Header.Set("Accept", "application/csv")
	req.Header.Set("Authorization", c.authHeader)
	req.Header.Set("Content-Type", "application/vnd.flux")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUpstream, "sending request")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var qe queryError
		_ = json.NewDecoder(resp.Body).Decode(&qe)
		return nil, perr.Upstreamf("bad response status %d: %s", resp.StatusCode, qe.Message)
	}

	cr := csv.NewReader(resp.Body)
	cr.Comment = '#'
	dec, err := csvutil.NewDecoder(cr)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, perr.Wrap(err, perr.ErrorCodeJSON, "reading CSV header")
	}

	var rows []T
	for {
		var row T
		if err := dec.Decode(&row); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, perr.Wrap(err, perr.ErrorCodeJSON, "decoding CSV row")
		}
		rows = append(rows, row)
	}
	return rows, nil
}
