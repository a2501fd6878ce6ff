package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiterWithConfig(10, 5) // 10 per minute, burst of 5
	defer rl.Stop()

	for i := 0; i < 5; i++ {
		if !rl.Allow("op:a") {
			t.Errorf("Request %d should be allowed", i+1)
		}
	}

	if rl.Allow("op:a") {
		t.Error("Request 6 should be rate limited")
	}
}

func TestRateLimiter_DifferentCallers(t *testing.T) {
	rl := NewRateLimiterWithConfig(10, 3)
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		rl.Allow("op:a")
	}
	if rl.Allow("op:a") {
		t.Error("Caller a should be rate limited")
	}

	for i := 0; i < 3; i++ {
		if !rl.Allow("op:b") {
			t.Errorf("Caller b request %d should be allowed", i+1)
		}
	}
}

func TestRateLimiter_InvalidConfigFallsBack(t *testing.T) {
	rl := NewRateLimiterWithConfig(0, -1)
	defer rl.Stop()

	if rl.requestsPerMinute != DefaultRateLimit || rl.burstSize != DefaultBurstSize {
		t.Errorf("Expected defaults, got %d/%d", rl.requestsPerMinute, rl.burstSize)
	}
}

func TestRateLimiter_EvictStale(t *testing.T) {
	rl := NewRateLimiterWithConfig(10, 3)
	defer rl.Stop()

	rl.Allow("op:a")
	rl.evictStale(time.Now())
	if rl.Size() != 1 {
		t.Fatalf("Expected fresh limiter to survive, got size %d", rl.Size())
	}

	rl.evictStale(time.Now().Add(LimiterTTL + time.Second))
	if rl.Size() != 0 {
		t.Errorf("Expected stale limiter to be removed, got size %d", rl.Size())
	}
}

func TestRateLimiter_StopTwice(t *testing.T) {
	rl := NewRateLimiter()
	rl.Stop()
	rl.Stop()
}

func newOperatorContext(e *echo.Echo, operator string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/loans", nil)
	req.RemoteAddr = "10.0.0.7:51234"
	if operator != "" {
		req = req.WithContext(context.WithValue(req.Context(), OperatorKey, operator))
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestRateLimitMiddleware_LimitsOperator(t *testing.T) {
	e := echo.New()
	rl := NewRateLimiterWithConfig(10, 2)
	defer rl.Stop()

	handler := func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	}

	for i := 0; i < 2; i++ {
		c, rec := newOperatorContext(e, "auth0|cajero")
		if err := RateLimitMiddleware(rl)(handler)(c); err != nil {
			t.Fatalf("Request %d: Expected no error, got %v", i+1, err)
		}
		if rec.Code != http.StatusOK {
			t.Errorf("Request %d: Expected status 200, got %d", i+1, rec.Code)
		}
		if rec.Header().Get("X-RateLimit-Limit") != "10" {
			t.Errorf("Request %d: Expected X-RateLimit-Limit 10, got %q", i+1, rec.Header().Get("X-RateLimit-Limit"))
		}
	}

	c, rec := newOperatorContext(e, "auth0|cajero")
	if err := RateLimitMiddleware(rl)(handler)(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("Expected status 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("Expected Retry-After header")
	}

	// another operator from the same address is unaffected
	c, rec = newOperatorContext(e, "auth0|gerente")
	_ = RateLimitMiddleware(rl)(handler)(c)
	if rec.Code != http.StatusOK {
		t.Errorf("Expected other operator to pass, got %d", rec.Code)
	}
}

func TestRateLimitMiddleware_AnonymousKeyedByIP(t *testing.T) {
	e := echo.New()
	rl := NewRateLimiterWithConfig(10, 1)
	defer rl.Stop()

	handler := func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}

	c, rec := newOperatorContext(e, AnonymousOperator)
	_ = RateLimitMiddleware(rl)(handler)(c)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	c, rec = newOperatorContext(e, "")
	_ = RateLimitMiddleware(rl)(handler)(c)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("Expected anonymous requests from one IP to share a limiter, got %d", rec.Code)
	}
}
