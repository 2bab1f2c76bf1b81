package httpkit

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"paintquote_backend/platform/apperr"

	"github.com/gin-gonic/gin"
)

func runHandleError(t *testing.T, err error) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	if !HandleError(c, err) {
		t.Fatal("expected error to be handled")
	}
	return w
}

func TestHandleErrorMapsKinds(t *testing.T) {
	w := runHandleError(t, apperr.NotFound("conversation not found"))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}

	var body ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Error != "conversation not found" {
		t.Fatalf("unexpected message %q", body.Error)
	}
}

func TestHandleErrorSetsRetryAfter(t *testing.T) {
	w := runHandleError(t, apperr.RateLimited("too many messages", 1500*time.Millisecond))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "2" {
		t.Fatalf("expected Retry-After 2, got %q", got)
	}
}

func TestHandleErrorHidesUntypedErrors(t *testing.T) {
	w := runHandleError(t, errors.New("pq: password authentication failed"))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}

	var body ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Error != "internal error" {
		t.Fatalf("leaked error message %q", body.Error)
	}
}

func TestHandleErrorNil(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if HandleError(c, nil) {
		t.Fatal("nil error should not be handled")
	}
}
