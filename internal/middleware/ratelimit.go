package middleware

import (
	"net/http"

	"retroprofile-api/internal/logging"
	"retroprofile-api/internal/ratelimit"
	"retroprofile-api/pkg/apierror"

	"github.com/go-chi/httprate"
)

// RateLimit rejects clients that exceed the limiter's window with a 429.
// Clients are keyed by their real IP (X-Forwarded-For, X-Real-IP, then the
// remote address).
func RateLimit(l *ratelimit.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, err := httprate.KeyByRealIP(r)
			if err != nil || key == "" {
				key = "unknown"
			}

			if !l.Allow(key) {
				logging.Ctx(r.Context()).Warn().
					Str("limiter", l.Name()).
					Str("client", key).
					Msg("[RateLimit] request rejected")

				e := apierror.TooManyRequests()
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(e.StatusCode)
				w.Write(e.ToJSON())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
