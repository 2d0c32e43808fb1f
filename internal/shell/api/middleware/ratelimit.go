// Package middleware provides HTTP middleware for the sponsors API.
package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// =============================================================================
// Rate Limit Configuration
// =============================================================================

// RateLimitConfig holds configuration for the rate limit middleware.
type RateLimitConfig struct {
	// RPS is the sustained request rate allowed per client.
	RPS float64

	// Burst is the number of requests a client may make at once.
	Burst int

	// IdleTTL is how long an unused client bucket is kept.
	// Default: 15 minutes.
	IdleTTL time.Duration

	// CleanupEvery is the janitor interval.
	// Default: 2 minutes.
	CleanupEvery time.Duration

	// Logger for rate limit logging.
	Logger *slog.Logger
}

// =============================================================================
// Rate Limiter
// =============================================================================

// RateLimiter keeps one token bucket per client address.
type RateLimiter struct {
	config RateLimitConfig

	mu      sync.Mutex
	entries map[string]*limiterEntry
	now     func() time.Time
}

type limiterEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a new rate limiter with the given config.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 15 * time.Minute
	}
	if cfg.CleanupEvery <= 0 {
		cfg.CleanupEvery = 2 * time.Minute
	}
	return &RateLimiter{
		config:  cfg,
		entries: make(map[string]*limiterEntry),
		now:     time.Now,
	}
}

// limiter returns the bucket for key, creating it on first use.
func (l *RateLimiter) limiter(key string) *rate.Limiter {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if ent, ok := l.entries[key]; ok {
		ent.lastSeen = now
		return ent.lim
	}

	lim := rate.NewLimiter(rate.Limit(l.config.RPS), l.config.Burst)
	l.entries[key] = &limiterEntry{lim: lim, lastSeen: now}
	return lim
}

// Cleanup drops buckets that have been idle longer than IdleTTL.
func (l *RateLimiter) Cleanup() {
	cutoff := l.now().Add(-l.config.IdleTTL)

	l.mu.Lock()
	defer l.mu.Unlock()

	for k, ent := range l.entries {
		if ent.lastSeen.Before(cutoff) {
			delete(l.entries, k)
		}
	}
}

// Len returns the number of tracked clients.
func (l *RateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// StartJanitor removes idle buckets periodically until ctx is cancelled.
func (l *RateLimiter) StartJanitor(ctx context.Context) {
	t := time.NewTicker(l.config.CleanupEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				l.Cleanup()
			}
		}
	}()
}

// Handler returns the middleware handler function.
// Rejected requests get 429 with a Retry-After header in whole seconds.
func (l *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientKey(r)
		now := l.now()

		res := l.limiter(key).ReserveN(now, 1)
		if !res.OK() {
			l.reject(w, r, key, time.Second)
			return
		}
		if delay := res.DelayFrom(now); delay > 0 {
			res.CancelAt(now)
			l.reject(w, r, key, delay)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (l *RateLimiter) reject(w http.ResponseWriter, r *http.Request, key string, retryAfter time.Duration) {
	l.config.Logger.Debug("rate limited",
		"client", key,
		"path", r.URL.Path,
		"method", r.Method,
	)
	seconds := int(math.Ceil(retryAfter.Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(seconds))
	writeJSONError(w, http.StatusTooManyRequests, "too many requests", "rate_limited")
}

// clientKey identifies the caller by remote host. RealIP runs earlier in the
// chain, so RemoteAddr already reflects forwarding headers.
func clientKey(r *http.Request) string {
	addr := strings.TrimSpace(r.RemoteAddr)
	host, _, err := net.SplitHostPort(addr)
	if err == nil && host != "" {
		return host
	}
	if addr != "" {
		return addr
	}
	return "unknown"
}

// =============================================================================
// JSON Error Response
// =============================================================================

// ErrorResponse mirrors the API error body.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// writeJSONError writes an error body in the API's error format.
func writeJSONError(w http.ResponseWriter, status int, message, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error: message,
		Code:  code,
	})
}
