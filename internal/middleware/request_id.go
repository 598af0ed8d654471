// Package middleware carries the HTTP cross-cutting concerns: request
// identity, structured request logging, panic recovery, per-request
// timeouts and CSRF enforcement. Handlers stay free of all of them.
package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"storygraph-backend/pkg/api"
)

type contextKey string

// RequestIDKey stores the request id in the request context.
const RequestIDKey contextKey = "requestID"

// RequestID honors an incoming X-Request-ID or generates one, exposes it in
// the response header and stores it in the context for log correlation.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(api.HeaderRequestID)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
		w.Header().Set(api.HeaderRequestID, requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID extracts the request id from a context, empty if absent.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}
