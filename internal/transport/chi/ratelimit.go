package chi

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/ragdex/internal/domain"
	"github.com/kailas-cloud/ragdex/internal/metrics"
)

// NewLimiter builds a token bucket of rps requests per second. A zero rps
// disables limiting (nil limiter); burst defaults to ceil(rps).
func NewLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = int(rps)
		if float64(burst) < rps {
			burst++
		}
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

// RateLimitMiddleware hands domain.ErrRateLimited to reject once the limiter
// is exhausted. Requests are never queued.
func RateLimitMiddleware(
	limiter *rate.Limiter,
	reject func(w http.ResponseWriter, r *http.Request, err error),
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				path := r.URL.Path
				if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
					path = rctx.RoutePattern()
				}
				metrics.RateLimitedTotal.WithLabelValues(path).Inc()
				w.Header().Set("Retry-After", "1")
				reject(w, r, fmt.Errorf("%s: %w", path, domain.ErrRateLimited))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
