// Package ratelimit throttles state-changing API calls per client address
// using fixed one-minute windows.
package ratelimit

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

const window = time.Minute

type Config struct {
	RequestsPerMinute int
	CleanupInterval   time.Duration
	// IdleAfter is how long a client may stay silent before its window is forgotten.
	IdleAfter time.Duration
}

func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 60,
		CleanupInterval:   5 * time.Minute,
		IdleAfter:         10 * time.Minute,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.RequestsPerMinute <= 0 {
		c.RequestsPerMinute = d.RequestsPerMinute
	}
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = d.CleanupInterval
	}
	if c.IdleAfter <= 0 {
		c.IdleAfter = d.IdleAfter
	}
	return c
}

type bucket struct {
	opened time.Time
	used   int
}

// Limiter counts requests per client key. The zero value is not usable.
type Limiter struct {
	cfg Config
	now func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket

	rejected atomic.Int64
	done     chan struct{}
	stopOnce sync.Once
}

// NewLimiter starts a janitor goroutine that forgets idle clients. Call Stop
// to end it.
func NewLimiter(cfg Config) *Limiter {
	l := &Limiter{
		cfg:     cfg.withDefaults(),
		now:     time.Now,
		buckets: make(map[string]*bucket),
		done:    make(chan struct{}),
	}
	go l.janitor()
	return l
}

// Allow records one request for key and reports whether it fits the window.
func (l *Limiter) Allow(key string) bool {
	ok, _ := l.take(key)
	return ok
}

// take returns whether the request is admitted and, when it is not, how long
// until the window reopens.
func (l *Limiter) take(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b := l.buckets[key]
	if b == nil || now.Sub(b.opened) >= window {
		l.buckets[key] = &bucket{opened: now, used: 1}
		return true, 0
	}
	if b.used >= l.cfg.RequestsPerMinute {
		l.rejected.Add(1)
		return false, b.opened.Add(window).Sub(now)
	}
	b.used++
	return true, 0
}

func (l *Limiter) janitor() {
	t := time.NewTicker(l.cfg.CleanupInterval)
	defer t.Stop()
	for {
		select {
		case <-l.done:
			return
		case <-t.C:
			l.cleanupStaleEntries()
		}
	}
}

func (l *Limiter) cleanupStaleEntries() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.cfg.IdleAfter)
	for key, b := range l.buckets {
		if b.opened.Before(cutoff) {
			delete(l.buckets, key)
		}
	}
}

func (l *Limiter) ActiveClients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// Stop ends the janitor. It is safe to call more than once.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.done) })
}

type Metrics struct {
	Rejected    int64
	ClientCount int64
}

func (l *Limiter) GetMetrics() Metrics {
	return Metrics{
		Rejected:    l.rejected.Load(),
		ClientCount: int64(l.ActiveClients()),
	}
}

// Middleware applies the limit to writes only. Rejected requests carry a
// Retry-After header in whole seconds and are passed to onLimit, or answered
// with a plain 429 when onLimit is nil.
func (l *Limiter) Middleware(clientKey func(*http.Request) string, onLimit http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isRead(r.Method) {
				next.ServeHTTP(w, r)
				return
			}
			ok, wait := l.take(clientKey(r))
			if ok {
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			if onLimit == nil {
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}
			onLimit(w, r)
		})
	}
}

func isRead(method string) bool {
	return method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions
}
