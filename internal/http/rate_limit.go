package httpapi

import (
	"encoding/json"
	"log"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// fixedWindow counts requests per key in fixed windows. Buckets older than
// one window are swept on the next call after the window passes.
type fixedWindow struct {
	mu        sync.Mutex
	name      string
	limit     int
	window    time.Duration
	buckets   map[string]windowBucket
	lastSweep time.Time
	now       func() time.Time
}

type windowBucket struct {
	start time.Time
	count int
}

func newFixedWindow(name string, limit int, window time.Duration) *fixedWindow {
	return &fixedWindow{
		name:    name,
		limit:   limit,
		window:  window,
		buckets: map[string]windowBucket{},
		now:     time.Now,
	}
}

// Allow records one request for key. When the key is over its limit it
// returns false and the time until its window resets.
func (l *fixedWindow) Allow(key string) (bool, time.Duration) {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) >= l.window {
		for k, b := range l.buckets {
			if now.Sub(b.start) >= l.window {
				delete(l.buckets, k)
			}
		}
		l.lastSweep = now
	}

	b, ok := l.buckets[key]
	if !ok || now.Sub(b.start) >= l.window {
		l.buckets[key] = windowBucket{start: now, count: 1}
		return true, 0
	}
	if b.count >= l.limit {
		return false, b.start.Add(l.window).Sub(now)
	}
	b.count++
	l.buckets[key] = b
	return true, 0
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// byDevice keys device traffic on the IMEI path value so one chatty watch
// cannot starve others behind the same NAT.
func byDevice(r *http.Request) string {
	if imei := r.PathValue("imei"); imei != "" {
		return "imei:" + imei
	}
	return clientIP(r)
}

func withRateLimit(limiter *fixedWindow, key func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k := key(r)
			ok, retry := limiter.Allow(k)
			if !ok {
				log.Printf("[ratelimit] %s limit hit key=%s", limiter.name, k)
				secs := int(retry.Round(time.Second) / time.Second)
				if secs < 1 {
					secs = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "rate limit exceeded"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
