// Package ratelimit limits HTTP requests per client address.
package ratelimit

import (
	"math"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Default per-client limiter values.
const (
	DefaultCleanupInterval = 1 * time.Minute
	DefaultEntryTTL        = 1 * time.Minute
)

// PerIPConfig configures a PerIPLimiter.
type PerIPConfig struct {
	Rate            float64       // requests per second
	Burst           int           // bucket capacity, defaults to twice Rate
	TrustedProxies  []string      // CIDRs or single IPs allowed to set X-Forwarded-For
	CleanupInterval time.Duration // how often idle clients are forgotten
	EntryTTL        time.Duration // idle time before a client is forgotten
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// PerIPLimiter keeps one token bucket per client IP.
type PerIPLimiter struct {
	limit          rate.Limit
	burst          int
	entryTTL       time.Duration
	trustedProxies []*net.IPNet

	mu      sync.Mutex
	clients map[string]*client

	now       func() time.Time
	stopCh    chan struct{}
	stoppedCh chan struct{}
}

// NewPerIPLimiter creates a limiter and starts its cleanup goroutine.
// Call Stop when done.
func NewPerIPLimiter(cfg PerIPConfig) *PerIPLimiter {
	rps := cfg.Rate
	if rps <= 0 {
		rps = 100
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = max(1, int(rps*2))
	}
	cleanupInterval := cfg.CleanupInterval
	if cleanupInterval <= 0 {
		cleanupInterval = DefaultCleanupInterval
	}
	entryTTL := cfg.EntryTTL
	if entryTTL <= 0 {
		entryTTL = DefaultEntryTTL
	}

	rl := &PerIPLimiter{
		limit:     rate.Limit(rps),
		burst:     burst,
		entryTTL:  entryTTL,
		clients:   make(map[string]*client),
		now:       time.Now,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
	for _, cidr := range cfg.TrustedProxies {
		if network := parseNetwork(cidr); network != nil {
			rl.trustedProxies = append(rl.trustedProxies, network)
		}
	}

	go rl.cleanup(cleanupInterval)
	return rl
}

// Burst returns the bucket capacity.
func (rl *PerIPLimiter) Burst() int {
	return rl.burst
}

// Allow takes a token for ip. When it is refused, retryAfter is how long
// until the next token, rounded up to whole seconds.
func (rl *PerIPLimiter) Allow(ip string) (allowed bool, remaining int, retryAfter int64) {
	now := rl.now()

	rl.mu.Lock()
	c, ok := rl.clients[ip]
	if !ok {
		c = &client{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[ip] = c
	}
	c.lastSeen = now
	rl.mu.Unlock()

	if c.limiter.AllowN(now, 1) {
		return true, max(0, int(c.limiter.TokensAt(now))), 0
	}

	r := c.limiter.ReserveN(now, 1)
	delay := r.DelayFrom(now)
	r.CancelAt(now)
	return false, 0, max(1, int64(math.Ceil(delay.Seconds())))
}

// ClientIP returns the address requests from r are counted against.
// Forwarding headers are honored only from trusted proxies.
func (rl *PerIPLimiter) ClientIP(r *http.Request) string {
	remoteIP := extractRemoteIP(r.RemoteAddr)
	if !rl.isTrustedProxy(remoteIP) {
		return remoteIP
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); net.ParseIP(ip) != nil {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); net.ParseIP(ip) != nil {
		return ip
	}
	return remoteIP
}

// Stop ends the cleanup goroutine.
func (rl *PerIPLimiter) Stop() {
	close(rl.stopCh)
	<-rl.stoppedCh
}

func (rl *PerIPLimiter) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	defer close(rl.stoppedCh)

	for {
		select {
		case <-ticker.C:
			rl.removeStale()
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *PerIPLimiter) removeStale() {
	cutoff := rl.now().Add(-rl.entryTTL)
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, c := range rl.clients {
		if c.lastSeen.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

func (rl *PerIPLimiter) isTrustedProxy(ip string) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	for _, network := range rl.trustedProxies {
		if network.Contains(parsed) {
			return true
		}
	}
	return false
}

func parseNetwork(s string) *net.IPNet {
	if _, network, err := net.ParseCIDR(s); err == nil {
		return network
	}
	ip := net.ParseIP(s)
	if ip == nil {
		return nil
	}
	bits := 128
	if ip.To4() != nil {
		ip = ip.To4()
		bits = 32
	}
	return &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)}
}

func extractRemoteIP(remoteAddr string) string {
	ip, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return ip
}
