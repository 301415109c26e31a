package server

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"cvmatch/internal/errors"
)

// rateLimitMessage is the body message of a limiter rejection
const rateLimitMessage = "Too many analysis requests, please try again later"

// idleClientAge is how long an unused client bucket is kept
const idleClientAge = 10 * time.Minute

// clientBucket is one client's token bucket and its last use
type clientBucket struct {
	limiter *rate.Limiter
	seen    time.Time
}

// RateLimiter keeps one token bucket per client key (IP or API key)
type RateLimiter struct {
	mu       sync.Mutex
	clients  map[string]*clientBucket
	perSec   rate.Limit
	burst    int
	rejected int64
	now      func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
	logger   *errors.Logger
}

// LimiterStats is the limiter section of /stats
type LimiterStats struct {
	Enabled       bool    `json:"enabled"`
	ActiveClients int     `json:"active_clients"`
	PerMinute     float64 `json:"rate_per_minute"`
	Burst         int     `json:"burst_capacity"`
	Rejected      int64   `json:"rejected_total"`
	ByIP          bool    `json:"by_ip"`
	ByAPIKey      bool    `json:"by_api_key"`
}

// NewRateLimiter allows requestsPerMin per key with a bucket of burstCapacity.
// A non-positive burst defaults to requestsPerMin.
func NewRateLimiter(requestsPerMin int, burstCapacity int, logger *errors.Logger) *RateLimiter {
	if burstCapacity <= 0 {
		burstCapacity = max(requestsPerMin, 1)
	}
	rl := &RateLimiter{
		clients: make(map[string]*clientBucket),
		perSec:  rate.Limit(float64(requestsPerMin) / 60),
		burst:   burstCapacity,
		now:     time.Now,
		stop:    make(chan struct{}),
		logger:  logger,
	}
	go rl.evictLoop(idleClientAge)
	return rl
}

// Reserve takes a token for key. When none is left it returns false and how
// long the client should wait before the next token.
func (rl *RateLimiter) Reserve(key string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	bucket, ok := rl.clients[key]
	if !ok {
		bucket = &clientBucket{limiter: rate.NewLimiter(rl.perSec, rl.burst)}
		rl.clients[key] = bucket
	}
	bucket.seen = now

	if bucket.limiter.AllowN(now, 1) {
		return true, 0
	}
	rl.rejected++

	r := bucket.limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, time.Minute
	}
	wait := r.DelayFrom(now)
	r.CancelAt(now)
	return false, wait
}

// Stats reports the limiter's configuration and activity
func (rl *RateLimiter) Stats() LimiterStats {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return LimiterStats{
		Enabled:       true,
		ActiveClients: len(rl.clients),
		PerMinute:     float64(rl.perSec) * 60,
		Burst:         rl.burst,
		Rejected:      rl.rejected,
	}
}

func (rl *RateLimiter) evictLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.evictIdle(every)
		case <-rl.stop:
			return
		}
	}
}

// evictIdle drops buckets unused for longer than age
func (rl *RateLimiter) evictIdle(age time.Duration) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-age)
	evicted := 0
	for key, bucket := range rl.clients {
		if bucket.seen.Before(cutoff) {
			delete(rl.clients, key)
			evicted++
		}
	}
	if rl.logger != nil && evicted > 0 {
		rl.logger.Debug("Evicted idle rate limit buckets",
			"evicted", evicted,
			"remaining", len(rl.clients))
	}
	return evicted
}

// Close stops the eviction goroutine
func (rl *RateLimiter) Close() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// retryAfterSeconds rounds wait up to whole seconds, at least one
func retryAfterSeconds(wait time.Duration) string {
	return strconv.Itoa(max(int(math.Ceil(wait.Seconds())), 1))
}

// rateLimitMiddleware rejects clients that exceed the analysis route limit
func (s *Server) rateLimitMiddleware() func(http.HandlerFunc) http.HandlerFunc {
	if s.RateLimiter == nil {
		return func(next http.HandlerFunc) http.HandlerFunc { return next }
	}

	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			key := clientKey(r, s.RateLimit.ByAPIKey, s.RateLimit.ByIP)
			if key == "" {
				next(w, r)
				return
			}

			ok, wait := s.RateLimiter.Reserve(key)
			if !ok {
				keyType, _, _ := strings.Cut(key, ":")
				s.Logger.Info("Analysis rate limit exceeded",
					"key_type", keyType,
					"endpoint", r.URL.Path,
					"client_ip", clientIP(r),
					"retry_after", wait,
					"request_id", requestID(r.Context()))
				s.om.RecordRateLimitHit(r.Context(), r.URL.Path, keyType)
				w.Header().Set("Retry-After", retryAfterSeconds(wait))
				writeErrorEnvelope(w, http.StatusTooManyRequests, rateLimitMessage, CodeTooManyRequests)
				return
			}
			next(w, r)
		}
	}
}

// clientKey prefers the API key when byAPIKey is set, then the client IP.
// An empty key means the request is not limited.
func clientKey(r *http.Request, byAPIKey, byIP bool) string {
	if byAPIKey {
		if credential := requestCredential(r); credential != "" {
			return "api:" + credential
		}
	}
	if byIP {
		return "ip:" + clientIP(r)
	}
	return ""
}

// clientIP takes the first valid X-Forwarded-For entry, then X-Real-IP,
// then the connection's remote address
func clientIP(r *http.Request) string {
	for candidate := range strings.SplitSeq(r.Header.Get("X-Forwarded-For"), ",") {
		if candidate = strings.TrimSpace(candidate); net.ParseIP(candidate) != nil {
			return candidate
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); net.ParseIP(realIP) != nil {
		return realIP
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
