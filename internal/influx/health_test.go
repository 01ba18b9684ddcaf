package influx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"lineview/internal/channel"
)

func TestHealth_Healthy(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("path = %q, want /health", r.URL.Path)
		}
	}))
	defer srv.Close()

	ctx, wg := workerContext(t)
	health := newTestClient(t, srv.URL).HandleHealth(ctx, wg)
	status, err := health.Roundtrip(context.Background(), HealthRequest{})
	if err != nil {
		t.Fatalf("roundtrip: %v", err)
	}
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
}

func TestHealth_Unhealthy(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, wg := workerContext(t)
	health := newTestClient(t, srv.URL).HandleHealth(ctx, wg)
	status, err := health.Roundtrip(context.Background(), HealthRequest{})
	if err != nil {
		t.Fatalf("roundtrip: %v", err)
	}
	if status != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", status)
	}
}

func TestHealth_RequestSendFailure(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	ctx, wg := workerContext(t)
	health := newTestClient(t, srv.URL).HandleHealth(ctx, wg)
	_, err := health.Roundtrip(context.Background(), HealthRequest{})
	if !errors.Is(err, channel.ErrClosed) {
		t.Fatalf("err = %v, want ErrClosed", err)
	}
}
