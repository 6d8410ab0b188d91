package mw

import (
	"net/http"

	"github.com/LMSAIH/xhacks2026-sub000/pkg/gateway/apierror"
	"github.com/LMSAIH/xhacks2026-sub000/pkg/gateway/ratelimit"
)

// RateLimit applies the per-client token bucket to every route except the
// health probes and CORS preflights.
func RateLimit(limiter *ratelimit.Limiter, trustProxyHeaders bool, next http.Handler) http.Handler {
	if !limiter.Enabled() {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Health endpoints must remain cheap and reliable.
		if r.URL.Path == "/healthz" || r.URL.Path == "/readyz" {
			next.ServeHTTP(w, r)
			return
		}
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		if !limiter.Allow(ratelimit.ClientKey(r, trustProxyHeaders)) {
			reqID, _ := RequestIDFrom(r.Context())
			w.Header().Set("Retry-After", "1")
			apierror.Write(w, http.StatusTooManyRequests, &apierror.Error{
				Code:      apierror.CodeRateLimited,
				Message:   "rate limit exceeded",
				RequestID: reqID,
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
