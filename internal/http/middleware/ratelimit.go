package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultRateLimitRPS   = 20
	defaultRateLimitBurst = 40

	limiterSweepInterval = time.Minute
	limiterStaleAfter    = 5 * time.Minute
)

// clientLimiters hands out one token bucket per caller IP. Deck
// conversions tend to arrive in bursts from a single upload session, so
// the bucket depth matters more than the steady rate.
type clientLimiters struct {
	mu      sync.Mutex
	buckets map[string]*clientBucket
	rps     rate.Limit
	burst   int
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func (c *clientLimiters) allow(ip string) bool {
	c.mu.Lock()
	bucket, ok := c.buckets[ip]
	if !ok {
		bucket = &clientBucket{limiter: rate.NewLimiter(c.rps, c.burst)}
		c.buckets[ip] = bucket
	}
	bucket.lastSeen = time.Now()
	c.mu.Unlock()

	return bucket.limiter.Allow()
}

func (c *clientLimiters) sweep() {
	ticker := time.NewTicker(limiterSweepInterval)
	defer ticker.Stop()
	for range ticker.C {
		c.mu.Lock()
		for ip, bucket := range c.buckets {
			if time.Since(bucket.lastSeen) > limiterStaleAfter {
				delete(c.buckets, ip)
			}
		}
		c.mu.Unlock()
	}
}

func RateLimit(rps float64, burst int) func(http.Handler) http.Handler {
	if rps <= 0 {
		rps = defaultRateLimitRPS
	}
	if burst <= 0 {
		burst = defaultRateLimitBurst
	}

	limiters := &clientLimiters{
		buckets: make(map[string]*clientBucket),
		rps:     rate.Limit(rps),
		burst:   burst,
	}
	go limiters.sweep()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiters.allow(clientAddress(r.RemoteAddr)) {
				w.Header().Set("Retry-After", "1")
				writeRefusal(w, r, http.StatusTooManyRequests, "rate_limited", "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientAddress(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil || host == "" {
		return remoteAddr
	}
	return host
}
