package influx

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
)

func newTestClient(t *testing.T, rawURL string) *Client {
	t.Helper()
	u, err := url.Parse(rawURL)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	return New(Config{
		URL:         u,
		APIToken:    "sometoken",
		Org:         "someorg",
		Bucket:      "somebucket",
		Measurement: "somemeasurement",
	})
}

func workerContext(t *testing.T) (context.Context, *sync.WaitGroup) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	wg := &sync.WaitGroup{}
	t.Cleanup(func() {
		cancel()
		wg.Wait()
	})
	return ctx, wg
}

// checkQueryRequest asserts the invariants every Flux query request carries
func checkQueryRequest(t *testing.T, r *http.Request) {
	t.Helper()
	if r.Method != http.MethodPost || r.URL.Path != "/api/v2/query" {
		t.Errorf("%s %s, want POST /api/v2/query", r.Method, r.URL.Path)
	}
	if got := r.URL.Query().Get("org"); got != "someorg" {
		t.Errorf("org = %q", got)
	}
	if got := r.Header.Get("Accept"); got != "application/csv" {
		t.Errorf("Accept = %q", got)
	}
	if got := r.Header.Get("Authorization"); got != "Token sometoken" {
		t.Errorf("Authorization = %q", got)
	}
	if got := r.Header.Get("Content-Type"); got != "application/vnd.flux" {
		t.Errorf("Content-Type = %q", got)
	}
}

// stallFirstRequestServer serves body, except that the first request hangs
// until its client walks away. The returned channel closes once the first
// request is being held.
func stallFirstRequestServer(t *testing.T, body string) (*httptest.Server, <-chan struct{}) {
	t.Helper()
	var hits atomic.Int32
	stalled := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			close(stalled)
			_, _ = io.Copy(io.Discard, r.Body)
			<-r.Context().Done()
			return
		}
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, stalled
}

type queryRow struct {
	First  string `csv:"first_member"`
	Second uint8  `csv:"second_member"`
}

func TestQuery(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		checkQueryRequest(t, r)
		w.Write([]byte("#group,false,false\n#datatype,string,long\n#default,_result,\nfirst_member,second_member\none,1\ntwo,2"))
	}))
	defer srv.Close()

	rows, err := query[queryRow](context.Background(), newTestClient(t, srv.URL), "some Flux query")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	want := []queryRow{{"one", 1}, {"two", 2}}
	if len(rows) != len(want) {
		t.Fatalf("rows = %+v, want %+v", rows, want)
	}
	for i := range want {
		if rows[i] != want[i] {
			t.Fatalf("rows = %+v, want %+v", rows, want)
		}
	}
}

func TestQuery_PlaceholderSubstitution(t *testing.T) {
	t.Parallel()
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		body = string(b)
	}))
	defer srv.Close()

	flux := "some Flux query with __bucketplaceholder__ and __measurementplaceholder__"
	if _, err := query[queryRow](context.Background(), newTestClient(t, srv.URL), flux); err != nil {
		t.Fatalf("query: %v", err)
	}
	if want := "some Flux query with somebucket and somemeasurement"; body != want {
		t.Fatalf("body = %q, want %q", body, want)
	}
}

func TestQuery_BadStatus(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"message": "compilation failed"}`))
	}))
	defer srv.Close()

	if _, err := query[queryRow](context.Background(), newTestClient(t, srv.URL), "some Flux query"); err == nil {
		t.Fatal("expected error on bad status")
	}
}

func TestQuery_EmptyBody(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	rows, err := query[queryRow](context.Background(), newTestClient(t, srv.URL), "some Flux query")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("rows = %+v, want none", rows)
	}
}

func TestQuery_RequestSendFailure(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // keep the URL, kill the listener

	if _, err := query[queryRow](context.Background(), newTestClient(t, srv.URL), "some Flux query"); err == nil {
		t.Fatal("expected error on unreachable server")
	}
}
