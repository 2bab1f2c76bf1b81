package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  *Error
		want int
	}{
		{NotFound("x"), http.StatusNotFound},
		{Validation("x"), http.StatusBadRequest},
		{Conflict("x"), http.StatusConflict},
		{Unauthorized("x"), http.StatusUnauthorized},
		{TooManyRequests("x"), http.StatusTooManyRequests},
		{Unavailable("x"), http.StatusBadGateway},
		{Internal("x"), http.StatusInternalServerError},
		{New(KindUnknown, "x"), http.StatusBadRequest},
	}
	for _, tc := range cases {
		if got := tc.err.HTTPStatus(); got != tc.want {
			t.Errorf("kind %d: expected %d, got %d", tc.err.Kind, tc.want, got)
		}
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	base := errors.New("pool closed")
	err := fmt.Errorf("create quote: %w", Wrap(KindInternal, "database error", base).WithOp("repo.CreateQuote"))

	if !Is(err, KindInternal) {
		t.Fatalf("expected internal kind, got %d", GetKind(err))
	}
	if !errors.Is(err, base) {
		t.Fatal("expected underlying error to be reachable")
	}
	if GetKind(base) != KindUnknown {
		t.Fatal("plain errors should have unknown kind")
	}
}

func TestRetryAfterRoundsUp(t *testing.T) {
	cases := map[time.Duration]int{
		0:                       1,
		300 * time.Millisecond:  1,
		2500 * time.Millisecond: 3,
		90 * time.Second:        90,
	}
	for d, want := range cases {
		if got := NewRetryAfterDetails(d).RetryAfterSeconds; got != want {
			t.Errorf("%v: expected %d, got %d", d, want, got)
		}
	}

	err := RateLimited("slow down", time.Minute)
	details, ok := err.Details.(RetryAfterDetails)
	if err.Kind != KindTooManyRequests || !ok || details.RetryAfterSeconds != 60 {
		t.Fatalf("unexpected rate limit error: %+v", err)
	}
}
