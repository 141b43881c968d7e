package middlewares

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/render"

	"github.com/formwise/formwise/apperr"
)

// RateLimiter is an in-process sliding-window request counter keyed by
// client identity. State is process-local and not shared across
// horizontally scaled instances.
type RateLimiter struct {
	limit  int
	window time.Duration

	mu        sync.Mutex
	hits      map[string][]time.Time
	lastSweep time.Time

	now func() time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:  limit,
		window: window,
		hits:   map[string][]time.Time{},
		now:    time.Now,
	}
}

// Allow prunes timestamps older than the window for the given client,
// then either records the request and allows it, or denies it without
// recording the attempt.
func (rl *RateLimiter) Allow(key string) bool {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := now.Add(-rl.window)
	rl.sweep(now, cutoff)

	hits := rl.hits[key]
	expired := 0
	for expired < len(hits) && !hits[expired].After(cutoff) {
		expired++
	}
	hits = hits[expired:]

	if len(hits) >= rl.limit {
		rl.hits[key] = hits
		return false
	}

	rl.hits[key] = append(hits, now)
	return true
}

// sweep evicts clients whose every timestamp has aged out of the window,
// so the record set stays bounded by recently active clients. Runs at most
// once per window; the caller holds the lock.
func (rl *RateLimiter) sweep(now, cutoff time.Time) {
	if now.Sub(rl.lastSweep) < rl.window {
		return
	}
	rl.lastSweep = now

	for key, hits := range rl.hits {
		if len(hits) == 0 || !hits[len(hits)-1].After(cutoff) {
			delete(rl.hits, key)
		}
	}
}

// Limit gates the given request paths behind the sliding window; all other
// paths pass through untouched.
func (rl *RateLimiter) Limit(paths ...string) func(http.Handler) http.Handler {
	limited := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		limited[p] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := limited[r.URL.Path]; !ok {
				next.ServeHTTP(w, r)
				return
			}

			if !rl.Allow(clientKey(r)) {
				err := apperr.RateLimited()
				render.Status(r, err.Status())
				render.JSON(w, r, map[string]any{"detail": err.Message})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
