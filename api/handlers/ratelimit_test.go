package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/malbeclabs/orders-dashboard/api/handlers"
)

func TestClientLimiter_Burst(t *testing.T) {
	t.Parallel()
	limiter := handlers.NewClientLimiter(clockwork.NewFakeClock(), rate.Limit(5), 5)

	for i := range 5 {
		allowed, _ := limiter.Reserve("192.168.1.1")
		assert.True(t, allowed, "request %d should be allowed", i+1)
	}

	allowed, retryAfter := limiter.Reserve("192.168.1.1")
	assert.False(t, allowed)
	assert.Equal(t, 200*time.Millisecond, retryAfter)

	allowed, _ = limiter.Reserve("192.168.1.2")
	assert.True(t, allowed, "other clients have their own bucket")
}

func TestClientLimiter_Refill(t *testing.T) {
	t.Parallel()
	clock := clockwork.NewFakeClock()
	limiter := handlers.NewClientLimiter(clock, rate.Limit(10), 2)

	for range 2 {
		allowed, _ := limiter.Reserve("192.168.1.1")
		require.True(t, allowed)
	}
	allowed, _ := limiter.Reserve("192.168.1.1")
	require.False(t, allowed)

	clock.Advance(100 * time.Millisecond)
	allowed, _ = limiter.Reserve("192.168.1.1")
	assert.True(t, allowed, "one token refills every 100ms")
}

func TestClientIP(t *testing.T) {
	t.Parallel()
	req := httptest.NewRequest(http.MethodPost, "/api/views", nil)
	req.RemoteAddr = "10.1.2.3:5555"
	assert.Equal(t, "10.1.2.3", handlers.ClientIP(req))

	req.RemoteAddr = "10.1.2.3"
	assert.Equal(t, "10.1.2.3", handlers.ClientIP(req))
}

func TestLimitByClient_RejectsWithRetryAfter(t *testing.T) {
	t.Parallel()
	limiter := handlers.NewClientLimiter(clockwork.NewFakeClock(), rate.Every(time.Minute/10), 1)
	handler := handlers.LimitByClient(limiter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/views", nil)
	req.RemoteAddr = "192.168.1.50:12345"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "6", rec.Header().Get("Retry-After"))

	var resp handlers.RateLimitError
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "rate_limit_exceeded", resp.Error)
	assert.Equal(t, 6, resp.RetryAfter)
}
