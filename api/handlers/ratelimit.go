package handlers

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"

	"github.com/malbeclabs/orders-dashboard/api/metrics"
)

// RateLimitError is the body of a 429 response.
type RateLimitError struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retry_after"` // seconds
}

// ClientLimiter is a token bucket per client IP. Buckets idle for longer than idleTTL are
// evicted on the next call.
type ClientLimiter struct {
	clock   clockwork.Clock
	rate    rate.Limit
	burst   int
	idleTTL time.Duration

	mu        sync.Mutex
	clients   map[string]*clientBucket
	lastSweep time.Time
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewClientLimiter allows r requests per second per client with the given burst.
func NewClientLimiter(clock clockwork.Clock, r rate.Limit, burst int) *ClientLimiter {
	return &ClientLimiter{
		clock:     clock,
		rate:      r,
		burst:     burst,
		idleTTL:   5 * time.Minute,
		clients:   make(map[string]*clientBucket),
		lastSweep: clock.Now(),
	}
}

// Reserve takes a token for ip. When none is left it reports how long until one is.
func (l *ClientLimiter) Reserve(ip string) (bool, time.Duration) {
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.sweep(now)

	b, ok := l.clients[ip]
	if !ok {
		b = &clientBucket{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.clients[ip] = b
	}
	b.lastSeen = now

	r := b.limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, time.Minute
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay
	}
	return true, 0
}

func (l *ClientLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < l.idleTTL {
		return
	}
	cutoff := now.Add(-l.idleTTL)
	for ip, b := range l.clients {
		if b.lastSeen.Before(cutoff) {
			delete(l.clients, ip)
		}
	}
	l.lastSweep = now
}

// ViewLimiter bounds view materialization to 10 per minute per client, burst 3.
var ViewLimiter = NewClientLimiter(clockwork.NewRealClock(), rate.Every(time.Minute/10), 3)

// ClientIP returns the request's client address. Behind chi's RealIP middleware RemoteAddr
// already holds the forwarded address.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// LimitByClient rejects requests over l's budget with 429 and a Retry-After header.
func LimitByClient(l *ClientLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, retryAfter := l.Reserve(ClientIP(r))
			if allowed {
				next.ServeHTTP(w, r)
				return
			}

			seconds := max(int(retryAfter.Seconds()), 1)
			metrics.RecordAPIError("rate_limited")
			w.Header().Set("Retry-After", strconv.Itoa(seconds))
			writeJSON(w, http.StatusTooManyRequests, RateLimitError{
				Error:      "rate_limit_exceeded",
				Message:    "Too many requests. Please slow down.",
				RetryAfter: seconds,
			})
		})
	}
}
