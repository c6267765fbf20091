package middleware

import (
	"net/http"
	"strings"
	"sync"
	"time"
)

// bucket holds the recent request times for one client IP.
type bucket struct {
	mu    sync.Mutex
	times []time.Time
}

// RateLimiter caps requests per client IP over a sliding window. The
// router puts one in front of login/signup and another in front of the
// comment and report routes, with limits from config.
type RateLimiter struct {
	mu      sync.RWMutex
	buckets map[string]*bucket
	limit   int
	window  time.Duration
	done    chan struct{}
}

// NewRateLimiter allows limit requests per window per IP and starts a
// janitor goroutine that drops idle buckets. Call Stop on shutdown.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		buckets: make(map[string]*bucket),
		limit:   limit,
		window:  window,
		done:    make(chan struct{}),
	}
	go rl.janitor()
	return rl
}

// Stop ends the janitor goroutine.
func (rl *RateLimiter) Stop() {
	close(rl.done)
}

// janitor periodically drops buckets whose requests have all aged out of
// the window, so one-off visitors do not accumulate in the map.
func (rl *RateLimiter) janitor() {
	interval := 10 * rl.window
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.sweep()
		case <-rl.done:
			return
		}
	}
}

func (rl *RateLimiter) sweep() {
	cutoff := time.Now().Add(-rl.window)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for ip, b := range rl.buckets {
		b.mu.Lock()
		idle := len(b.times) == 0 || !b.times[len(b.times)-1].After(cutoff)
		b.mu.Unlock()
		if idle {
			delete(rl.buckets, ip)
		}
	}
}

// allow records a request for key and reports whether it fits the window.
func (rl *RateLimiter) allow(key string) bool {
	rl.mu.RLock()
	b := rl.buckets[key]
	rl.mu.RUnlock()

	if b == nil {
		rl.mu.Lock()
		if b = rl.buckets[key]; b == nil {
			b = &bucket{}
			rl.buckets[key] = b
		}
		rl.mu.Unlock()
	}

	now := time.Now()
	cutoff := now.Add(-rl.window)

	b.mu.Lock()
	defer b.mu.Unlock()

	// Times are appended in order, so everything before the first
	// still-valid entry has expired.
	keep := 0
	for keep < len(b.times) && !b.times[keep].After(cutoff) {
		keep++
	}
	b.times = append(b.times[:0], b.times[keep:]...)

	if len(b.times) >= rl.limit {
		return false
	}
	b.times = append(b.times, now)
	return true
}

// Middleware rejects over-limit requests with 429 before they reach the
// handler.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(clientIP(r)) {
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP resolves the originating client address, trusting the usual
// reverse-proxy headers before falling back to the socket address.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// The leftmost entry is the original client.
		if i := strings.IndexByte(xff, ','); i != -1 {
			return strings.TrimSpace(xff[:i])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	addr := r.RemoteAddr
	if i := strings.LastIndex(addr, ":"); i != -1 {
		return addr[:i]
	}
	return addr
}
