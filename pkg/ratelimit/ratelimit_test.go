package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLimiter(t *testing.T, cfg PerIPConfig) *PerIPLimiter {
	t.Helper()
	rl := NewPerIPLimiter(cfg)
	t.Cleanup(rl.Stop)
	return rl
}

func TestPerIPLimiter_Allow(t *testing.T) {
	rl := newLimiter(t, PerIPConfig{Rate: 1, Burst: 2})
	now := time.Unix(1000, 0)
	rl.now = func() time.Time { return now }

	ok, remaining, _ := rl.Allow("10.0.0.1")
	assert.True(t, ok)
	assert.Equal(t, 1, remaining)

	ok, remaining, _ = rl.Allow("10.0.0.1")
	assert.True(t, ok)
	assert.Equal(t, 0, remaining)

	ok, _, retry := rl.Allow("10.0.0.1")
	assert.False(t, ok)
	assert.Equal(t, int64(1), retry)

	// Other clients have their own bucket.
	ok, _, _ = rl.Allow("10.0.0.2")
	assert.True(t, ok)

	now = now.Add(time.Second)
	ok, _, _ = rl.Allow("10.0.0.1")
	assert.True(t, ok)
}

func TestPerIPLimiter_Defaults(t *testing.T) {
	rl := newLimiter(t, PerIPConfig{})
	assert.Equal(t, 200, rl.Burst())

	rl = newLimiter(t, PerIPConfig{Rate: 0.2})
	assert.Equal(t, 1, rl.Burst())
}

func TestPerIPLimiter_RemoveStale(t *testing.T) {
	rl := newLimiter(t, PerIPConfig{Rate: 1, EntryTTL: time.Minute})
	now := time.Unix(1000, 0)
	rl.now = func() time.Time { return now }

	rl.Allow("10.0.0.1")
	now = now.Add(2 * time.Minute)
	rl.Allow("10.0.0.2")
	rl.removeStale()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.NotContains(t, rl.clients, "10.0.0.1")
	assert.Contains(t, rl.clients, "10.0.0.2")
}

func TestPerIPLimiter_ClientIP(t *testing.T) {
	rl := newLimiter(t, PerIPConfig{TrustedProxies: []string{"10.1.0.0/16", "192.168.1.5", "bogus"}})

	tests := []struct {
		name   string
		remote string
		xff    string
		realIP string
		want   string
	}{
		{"direct", "203.0.113.9:4000", "", "", "203.0.113.9"},
		{"untrusted forwarder ignored", "203.0.113.9:4000", "1.2.3.4", "", "203.0.113.9"},
		{"trusted cidr", "10.1.2.3:80", "1.2.3.4, 10.1.2.3", "", "1.2.3.4"},
		{"trusted single ip real-ip", "192.168.1.5:80", "", "5.6.7.8", "5.6.7.8"},
		{"trusted but garbage header", "10.1.2.3:80", "not-an-ip", "", "10.1.2.3"},
		{"no port", "203.0.113.9", "", "", "203.0.113.9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.realIP != "" {
				r.Header.Set("X-Real-IP", tt.realIP)
			}
			assert.Equal(t, tt.want, rl.ClientIP(r))
		})
	}
}

func TestMiddleware(t *testing.T) {
	rl := newLimiter(t, PerIPConfig{Rate: 0.01, Burst: 1})
	h := Middleware(rl)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Limit"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "rate_limit_exceeded")
}

func TestMiddleware_NilLimiter(t *testing.T) {
	h := Middleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
