package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig holds configuration for the rate limit middleware.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained per-client rate.  Zero disables
	// limiting.
	RequestsPerSecond float64
	// BurstSize is the number of requests a client may issue at once.
	BurstSize int
	// KeyFunc extracts the client key.  Defaults to the remote IP.
	KeyFunc func(r *http.Request) string
	// SkipPaths bypass rate limiting.
	SkipPaths []string
	// IdleTimeout drops the limiter of a client idle for that long.
	IdleTimeout time.Duration
}

// DefaultRateLimitConfig returns the default rate limit configuration.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 10,
		BurstSize:         20,
		SkipPaths:         []string{"/healthz", "/readyz", "/metrics"},
		IdleTimeout:       5 * time.Minute,
	}
}

// remoteIP keys clients by the host part of RemoteAddr, which chi's RealIP
// middleware has already rewritten for proxied requests.
func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimitMiddleware applies a token bucket per client.
type RateLimitMiddleware struct {
	config RateLimitConfig
	skip   map[string]bool

	mu      sync.Mutex
	clients map[string]*client
	now     func() time.Time
}

// NewRateLimitMiddleware creates the middleware.
func NewRateLimitMiddleware(config RateLimitConfig) *RateLimitMiddleware {
	if config.KeyFunc == nil {
		config.KeyFunc = remoteIP
	}
	if config.BurstSize < 1 {
		config.BurstSize = 1
	}
	if config.IdleTimeout <= 0 {
		config.IdleTimeout = 5 * time.Minute
	}
	skip := make(map[string]bool, len(config.SkipPaths))
	for _, p := range config.SkipPaths {
		skip[p] = true
	}
	return &RateLimitMiddleware{
		config:  config,
		skip:    skip,
		clients: make(map[string]*client),
		now:     time.Now,
	}
}

func (m *RateLimitMiddleware) limiter(key string) *rate.Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	c, ok := m.clients[key]
	if !ok {
		c = &client{limiter: rate.NewLimiter(rate.Limit(m.config.RequestsPerSecond), m.config.BurstSize)}
		m.clients[key] = c
	}
	c.lastSeen = now
	return c.limiter
}

// Cleanup drops idle clients.  It is called by the server's housekeeping
// ticker.
func (m *RateLimitMiddleware) Cleanup() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	threshold := m.now().Add(-m.config.IdleTimeout)
	removed := 0
	for key, c := range m.clients {
		if c.lastSeen.Before(threshold) {
			delete(m.clients, key)
			removed++
		}
	}
	return removed
}

// Clients returns the number of tracked clients.
func (m *RateLimitMiddleware) Clients() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.clients)
}

// Handler wraps next.
func (m *RateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.config.RequestsPerSecond <= 0 || m.skip[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		lim := m.limiter(m.config.KeyFunc(r))
		allowed := lim.AllowN(m.now(), 1)
		remaining := int(lim.TokensAt(m.now()))
		if remaining < 0 {
			remaining = 0
		}
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(m.config.BurstSize))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			retryAfter := int(1/m.config.RequestsPerSecond + 0.999)
			if retryAfter < 1 {
				retryAfter = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"code":"RATE_LIMITED","message":"rate limit exceeded, please retry later"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

//Personal.AI order the ending
