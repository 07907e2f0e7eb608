package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAllowWithinLimit(t *testing.T) {
	l := New(3, time.Minute)

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("1.2.3.4:/api/auth/login"), "attempt %d", i+1)
	}
	assert.False(t, l.Allow("1.2.3.4:/api/auth/login"))
}

func TestRejectedAttemptsStillCount(t *testing.T) {
	l := New(2, time.Minute)
	base := time.Now()
	l.now = func() time.Time { return base }

	key := "1.2.3.4:/api/auth/login"
	l.Allow(key)
	l.Allow(key)
	assert.False(t, l.Allow(key))

	// Hammering while denied must not shorten the lockout: just before
	// the window rolls over the client is still rejected.
	l.now = func() time.Time { return base.Add(59 * time.Second) }
	assert.False(t, l.Allow(key))
}

func TestWindowRollover(t *testing.T) {
	l := New(2, time.Minute)
	base := time.Now()
	l.now = func() time.Time { return base }

	key := "1.2.3.4:/api/auth/login"
	l.Allow(key)
	l.Allow(key)
	assert.False(t, l.Allow(key))

	l.now = func() time.Time { return base.Add(time.Minute + time.Second) }
	assert.True(t, l.Allow(key))
}

func TestKeysAreIndependent(t *testing.T) {
	l := New(1, time.Minute)

	assert.True(t, l.Allow("1.2.3.4:/api/auth/login"))
	assert.False(t, l.Allow("1.2.3.4:/api/auth/login"))
	assert.True(t, l.Allow("5.6.7.8:/api/auth/login"))
	assert.True(t, l.Allow("1.2.3.4:/api/auth/register"))
}

func TestSweepEvictsStaleBuckets(t *testing.T) {
	l := New(5, time.Minute)
	base := time.Now()
	l.now = func() time.Time { return base }

	l.Allow("a")
	l.Allow("b")
	l.Allow("c")

	l.now = func() time.Time { return base.Add(2 * time.Minute) }
	l.Allow("d")

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.NotContains(t, l.buckets, "a")
	assert.NotContains(t, l.buckets, "b")
	assert.NotContains(t, l.buckets, "c")
	assert.Contains(t, l.buckets, "d")
}

func TestConcurrentIncrementsDoNotUndercount(t *testing.T) {
	const limit = 50
	l := New(limit, time.Minute)

	var allowed int64
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Allow("shared") {
				atomic.AddInt64(&allowed, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(limit), allowed)
}

func TestMiddleware(t *testing.T) {
	l := New(2, time.Minute)
	handler := Middleware(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "1.2.3.4:51234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, do())
	assert.Equal(t, http.StatusOK, do())
	assert.Equal(t, http.StatusTooManyRequests, do())
}

func TestMiddlewareKeyIncludesPath(t *testing.T) {
	l := New(1, time.Minute)
	handler := Middleware(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(path string) int {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		req.RemoteAddr = "1.2.3.4:51234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, do("/api/auth/login"))
	assert.Equal(t, http.StatusTooManyRequests, do("/api/auth/login"))
	assert.Equal(t, http.StatusOK, do("/api/auth/register"))
}
