// Package ratelimit provides the per-client token buckets for the HTTP
// surface. Buckets live in an expirable LRU so idle clients age out instead
// of accumulating in an unbounded map.
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"
)

const (
	defaultMaxClients = 10_000
	defaultClientTTL  = 30 * time.Minute
)

// Config tunes the limiter. RPS <= 0 or Burst <= 0 disables limiting.
type Config struct {
	RPS   float64
	Burst int

	// Bounds for the client bucket cache.
	MaxClients int
	ClientTTL  time.Duration
}

// Limiter hands out one token bucket per client key.
type Limiter struct {
	cfg     Config
	mu      sync.Mutex
	clients *expirable.LRU[string, *rate.Limiter]
}

func New(cfg Config) *Limiter {
	if cfg.MaxClients <= 0 {
		cfg.MaxClients = defaultMaxClients
	}
	if cfg.ClientTTL <= 0 {
		cfg.ClientTTL = defaultClientTTL
	}
	return &Limiter{
		cfg:     cfg,
		clients: expirable.NewLRU[string, *rate.Limiter](cfg.MaxClients, nil, cfg.ClientTTL),
	}
}

// Enabled reports whether the limiter does anything at all.
func (l *Limiter) Enabled() bool {
	return l != nil && l.cfg.RPS > 0 && l.cfg.Burst > 0
}

// Allow charges one request against the client's bucket.
func (l *Limiter) Allow(clientKey string) bool {
	if !l.Enabled() {
		return true
	}

	l.mu.Lock()
	bucket, ok := l.clients.Get(clientKey)
	if !ok {
		bucket = rate.NewLimiter(rate.Limit(l.cfg.RPS), l.cfg.Burst)
		l.clients.Add(clientKey, bucket)
	}
	l.mu.Unlock()

	return bucket.Allow()
}

// Len reports how many client buckets are live. Intended for tests.
func (l *Limiter) Len() int {
	if l == nil || l.clients == nil {
		return 0
	}
	return l.clients.Len()
}

// ClientKey derives the rate-limit key for a request: the client IP, taken
// from X-Forwarded-For only when the gateway sits behind a trusted proxy.
func ClientKey(r *http.Request, trustProxyHeaders bool) string {
	if trustProxyHeaders {
		if fwd := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); fwd != "" {
			// First hop is the original client.
			if idx := strings.IndexByte(fwd, ','); idx >= 0 {
				fwd = fwd[:idx]
			}
			if ip := strings.TrimSpace(fwd); ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
