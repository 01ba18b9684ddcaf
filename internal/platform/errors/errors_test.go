package errors

import (
	stderrs "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestCodeOf_SurvivesWrapping(t *testing.T) {
	t.Parallel()
	err := fmt.Errorf("outer: %w", Upstreamf("bad response status %d", 502))
	if got := CodeOf(err); got != ErrorCodeUpstream {
		t.Fatalf("code = %v, want upstream", got)
	}
}

func TestCodeOf_ForeignError(t *testing.T) {
	t.Parallel()
	if got := CodeOf(stderrs.New("plain")); got != ErrorCodeUnknown {
		t.Fatalf("code = %v, want unknown", got)
	}
}

func TestHTTPStatus(t *testing.T) {
	t.Parallel()
	if got := HTTPStatus(InvalidArgf("bad id")); got != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", got)
	}
	if got := HTTPStatus(Closedf("dropped")); got != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", got)
	}
}

func TestRoot(t *testing.T) {
	t.Parallel()
	cause := stderrs.New("cause")
	err := Wrap(cause, ErrorCodeJSON, "decoding response")
	if got := Root(err); got != cause {
		t.Fatalf("root = %v, want cause", got)
	}
}

func TestAs(t *testing.T) {
	t.Parallel()
	err := fmt.Errorf("outer: %w", Wrap(stderrs.New("cause"), ErrorCodeValidation, "shift start times out of order"))
	e, ok := As(err)
	if !ok {
		t.Fatal("expected one of ours")
	}
	if e.Code() != ErrorCodeValidation {
		t.Fatalf("code = %v, want validation", e.Code())
	}
}
