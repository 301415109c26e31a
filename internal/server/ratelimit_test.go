package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T, perMin, burst int) (*RateLimiter, *time.Time) {
	t.Helper()
	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(perMin, burst, nil)
	rl.now = func() time.Time { return clock }
	t.Cleanup(rl.Close)
	return rl, &clock
}

func TestRateLimiterReserve(t *testing.T) {
	rl, clock := newTestLimiter(t, 3, 0)

	for i := 0; i < 3; i++ {
		ok, _ := rl.Reserve("ip:10.0.0.1")
		require.True(t, ok, "request %d", i+1)
	}

	ok, wait := rl.Reserve("ip:10.0.0.1")
	assert.False(t, ok)
	assert.InDelta(t, 20*time.Second, wait, float64(time.Second))

	ok, _ = rl.Reserve("ip:10.0.0.2")
	assert.True(t, ok, "buckets are per client")

	*clock = clock.Add(21 * time.Second)
	ok, _ = rl.Reserve("ip:10.0.0.1")
	assert.True(t, ok, "a token refills after the wait")

	stats := rl.Stats()
	assert.Equal(t, 2, stats.ActiveClients)
	assert.Equal(t, 3, stats.Burst)
	assert.InDelta(t, 3.0, stats.PerMinute, 1e-9)
	assert.Equal(t, int64(1), stats.Rejected)
}

func TestRateLimiterRejectionKeepsTokens(t *testing.T) {
	rl, clock := newTestLimiter(t, 60, 1)

	ok, _ := rl.Reserve("api:k")
	require.True(t, ok)
	for i := 0; i < 5; i++ {
		ok, _ = rl.Reserve("api:k")
		require.False(t, ok)
	}

	*clock = clock.Add(1100 * time.Millisecond)
	ok, _ = rl.Reserve("api:k")
	assert.True(t, ok, "rejected requests must not borrow future tokens")
}

func TestRateLimiterEvictIdle(t *testing.T) {
	rl, clock := newTestLimiter(t, 3, 0)
	rl.Reserve("ip:old")
	*clock = clock.Add(11 * time.Minute)
	rl.Reserve("ip:fresh")

	assert.Equal(t, 1, rl.evictIdle(idleClientAge))
	assert.Equal(t, 1, rl.Stats().ActiveClients)
}

func TestRetryAfterSeconds(t *testing.T) {
	assert.Equal(t, "1", retryAfterSeconds(0))
	assert.Equal(t, "1", retryAfterSeconds(200*time.Millisecond))
	assert.Equal(t, "20", retryAfterSeconds(19100*time.Millisecond))
}

func TestClientKey(t *testing.T) {
	tests := []struct {
		name     string
		headers  map[string]string
		byAPIKey bool
		byIP     bool
		want     string
	}{
		{"api key preferred", map[string]string{"X-API-Key": "k1"}, true, true, "api:k1"},
		{"falls back to ip", nil, true, true, "ip:192.0.2.10"},
		{"first valid forwarded entry", map[string]string{"X-Forwarded-For": "junk, 198.51.100.4, 203.0.113.1"}, false, true, "ip:198.51.100.4"},
		{"real ip header", map[string]string{"X-Real-IP": "198.51.100.7"}, false, true, "ip:198.51.100.7"},
		{"limiting off", map[string]string{"X-API-Key": "k1"}, false, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/analysis/analyze", nil)
			r.RemoteAddr = "192.0.2.10:5123"
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, clientKey(r, tt.byAPIKey, tt.byIP))
		})
	}
}
