package middleware

import (
	"context"
	"net/http"

	"retroprofile-api/internal/logging"
	"retroprofile-api/pkg/uid"
)

// RequestID is a middleware that adds a unique request ID to each request.
// Incoming ids are kept only when they are valid UUIDs.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if !uid.IsValid(requestID) {
			requestID = uid.New()
		}

		w.Header().Set("X-Request-ID", requestID)

		ctx := logging.WithRequestID(r.Context(), requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID retrieves the request ID from context.
func GetRequestID(ctx context.Context) string {
	return logging.RequestID(ctx)
}
