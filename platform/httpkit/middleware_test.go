package httpkit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"paintquote_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newLimitedEngine(limiter *IPRateLimiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(limiter.RateLimit())
	engine.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return engine
}

func requestFrom(engine *gin.Engine, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = ip + ":40000"
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestIPRateLimiterRejectsWithRetryAfter(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	limiter := NewIPRateLimiter(rate.Limit(1), 2, logger.Discard())
	limiter.now = clock.now
	engine := newLimitedEngine(limiter)

	for i := 0; i < 2; i++ {
		if w := requestFrom(engine, "203.0.113.7"); w.Code != http.StatusNoContent {
			t.Fatalf("request %d: expected 204, got %d", i, w.Code)
		}
	}

	w := requestFrom(engine, "203.0.113.7")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "1" {
		t.Fatalf("expected Retry-After 1, got %q", got)
	}

	if w := requestFrom(engine, "198.51.100.9"); w.Code != http.StatusNoContent {
		t.Fatalf("other IPs keep their own bucket, got %d", w.Code)
	}

	clock.advance(time.Second)
	if w := requestFrom(engine, "203.0.113.7"); w.Code != http.StatusNoContent {
		t.Fatalf("expected a refilled token after one second, got %d", w.Code)
	}
}

func TestIPRateLimiterSweepDropsIdleIPs(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	limiter := NewIPRateLimiter(rate.Limit(1), 2, logger.Discard())
	limiter.now = clock.now
	limiter.idleTTL = time.Minute
	engine := newLimitedEngine(limiter)

	requestFrom(engine, "203.0.113.7")
	clock.advance(50 * time.Second)
	requestFrom(engine, "198.51.100.9")
	clock.advance(40 * time.Second)

	removed, err := limiter.Sweep(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if removed != 1 || limiter.Len() != 1 {
		t.Fatalf("expected only the idle IP swept, removed=%d len=%d", removed, limiter.Len())
	}
}

func TestIPRateLimiterSweepWaitsForRefill(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	// One token per 100s: a swept IP must not get its burst back sooner.
	limiter := NewIPRateLimiter(rate.Limit(0.01), 1, logger.Discard())
	limiter.now = clock.now
	limiter.idleTTL = time.Second
	engine := newLimitedEngine(limiter)

	requestFrom(engine, "203.0.113.7")
	clock.advance(10 * time.Second)

	if removed, _ := limiter.Sweep(context.Background()); removed != 0 {
		t.Fatalf("expected the IP kept until its bucket refills, removed %d", removed)
	}
	if w := requestFrom(engine, "203.0.113.7"); w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 while the bucket is empty, got %d", w.Code)
	}
}

func TestGetIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	if GetIdentity(c).IsAuthenticated() {
		t.Fatal("empty context must not be authenticated")
	}

	userID, companyID := uuid.New(), uuid.New()
	c.Set(ContextUserIDKey, userID)
	if GetIdentity(c).IsAuthenticated() {
		t.Fatal("identity without a company must not be authenticated")
	}

	c.Set(ContextTenantIDKey, companyID)
	id := GetIdentity(c)
	if !id.IsAuthenticated() || id.UserID() != userID || id.CompanyID() != companyID {
		t.Fatalf("unexpected identity: user=%s company=%s", id.UserID(), id.CompanyID())
	}
}
