package middleware

import (
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"

	"storygraph-backend/pkg/api"
	"storygraph-backend/pkg/errors"
)

// Recovery converts handler panics into 500 responses instead of dropped
// connections. The stack goes to the log, never to the client.
func Recovery(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rec),
						zap.String("method", r.Method),
						zap.String("path", r.URL.Path),
						zap.String("requestID", GetRequestID(r.Context())),
						zap.ByteString("stack", debug.Stack()),
					)

					// Headers may already be gone if the handler panicked
					// mid-write; in that case there is nothing left to send.
					if w.Header().Get("Content-Type") == "" {
						api.Error(w, logger, errors.NewInternalError("internal server error"))
					}
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
