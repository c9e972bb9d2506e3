// SPDX-License-Identifier: MIT
package middleware

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func rateLimitedRequest(middleware gin.HandlerFunc, remoteAddr string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("POST", "/api/v2/cmv_api", nil)
	c.Request.RemoteAddr = remoteAddr
	middleware(c)
	return w
}

func TestRateLimitAllowed(t *testing.T) {
	gin.SetMode(gin.TestMode)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	limiter := NewRateLimiter(ctx, 5, time.Minute)

	w := rateLimitedRequest(RateLimitMiddleware(limiter), "10.0.0.1:1234")
	if w.Code == 429 {
		t.Error("Expected request to be allowed")
	}
	if w.Header().Get("X-RateLimit-Remaining") != "4" {
		t.Errorf("Expected X-RateLimit-Remaining: 4, got %s", w.Header().Get("X-RateLimit-Remaining"))
	}
}

func TestRateLimitExceeded(t *testing.T) {
	gin.SetMode(gin.TestMode)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	limiter := NewRateLimiter(ctx, 2, time.Minute)
	middleware := RateLimitMiddleware(limiter)

	for i := 0; i < 2; i++ {
		if w := rateLimitedRequest(middleware, "10.0.0.1:1234"); w.Code == 429 {
			t.Errorf("Request %d should be allowed", i+1)
		}
	}

	w := rateLimitedRequest(middleware, "10.0.0.1:1234")
	if w.Code != 429 {
		t.Errorf("Third request should be rate limited, got %d", w.Code)
	}

	// Check headers
	if w.Header().Get("X-RateLimit-Limit") != "2" {
		t.Errorf("Expected X-RateLimit-Limit: 2, got %s", w.Header().Get("X-RateLimit-Limit"))
	}
	if w.Header().Get("Retry-After") != "60" {
		t.Errorf("Expected Retry-After: 60, got %s", w.Header().Get("Retry-After"))
	}
}

func TestRateLimitPerClient(t *testing.T) {
	gin.SetMode(gin.TestMode)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	limiter := NewRateLimiter(ctx, 1, time.Minute)
	middleware := RateLimitMiddleware(limiter)

	rateLimitedRequest(middleware, "10.0.0.1:1234")

	if w := rateLimitedRequest(middleware, "10.0.0.2:1234"); w.Code == 429 {
		t.Error("A different client should have its own bucket")
	}
}

func TestRateLimitRefill(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	limiter := NewRateLimiter(ctx, 1, 20*time.Millisecond)

	if ok, _ := limiter.Allow("10.0.0.1"); !ok {
		t.Fatal("First request should be allowed")
	}
	if ok, _ := limiter.Allow("10.0.0.1"); ok {
		t.Fatal("Second request should be limited")
	}

	time.Sleep(30 * time.Millisecond)

	if ok, _ := limiter.Allow("10.0.0.1"); !ok {
		t.Error("Bucket should refill after the interval")
	}
}

func TestRateLimitPrune(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	limiter := NewRateLimiter(ctx, 1, time.Minute)

	limiter.Allow("10.0.0.1")
	limiter.prune(time.Now().Add(time.Hour))

	limiter.mu.RLock()
	defer limiter.mu.RUnlock()
	if len(limiter.buckets) != 0 {
		t.Errorf("Expected idle buckets to be pruned, got %d", len(limiter.buckets))
	}
}
