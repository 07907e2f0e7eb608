// Package ratelimit implements fixed-window request counting for the
// credential-guessing surface (register, login, refresh).
package ratelimit

import (
	"net"
	"net/http"
	"sync"
	"time"

	"dronewatch/internal/auth"
)

type bucket struct {
	count       int
	windowStart time.Time
}

// Limiter counts attempts per client key within fixed windows. Every call
// to Allow increments the counter, including rejected calls, so a client
// cannot reset the limiter by hammering it.
type Limiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	limit     int
	window    time.Duration
	now       func() time.Time
	lastSweep time.Time
}

func New(limit int, window time.Duration) *Limiter {
	return &Limiter{
		buckets: make(map[string]*bucket),
		limit:   limit,
		window:  window,
		now:     time.Now,
	}
}

// Allow records an attempt for key and reports whether it is within
// quota for the current window.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[key]
	if !ok || now.Sub(b.windowStart) >= l.window {
		// New key, or the window rolled over: lazy eviction by reset.
		b = &bucket{windowStart: now}
		l.buckets[key] = b
	}
	b.count++

	l.maybeSweep(now)
	return b.count <= l.limit
}

// maybeSweep drops expired buckets so memory stays bounded under many
// distinct clients. Runs at most once per window; caller holds the lock.
func (l *Limiter) maybeSweep(now time.Time) {
	if now.Sub(l.lastSweep) < l.window {
		return
	}
	l.lastSweep = now
	for key, b := range l.buckets {
		if now.Sub(b.windowStart) >= l.window {
			delete(l.buckets, key)
		}
	}
}

// Middleware rejects over-quota requests with the rate-limited error.
// The client key is the remote IP plus the request path, so abuse of one
// endpoint does not lock a client out of the others.
func Middleware(l *Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow(clientKey(r)) {
				auth.WriteError(w, auth.ErrRateLimited)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return host + ":" + r.URL.Path
}
