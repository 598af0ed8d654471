package middleware

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"storygraph-backend/pkg/api"
	"storygraph-backend/pkg/errors"
)

// Timeout bounds each request with a deadline. Handlers observe it through
// the request context; if one overruns anyway the client still gets a 504
// instead of waiting forever.
func Timeout(d time.Duration, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()

			done := make(chan struct{})
			go func() {
				defer close(done)
				next.ServeHTTP(w, r.WithContext(ctx))
			}()

			select {
			case <-done:
			case <-ctx.Done():
				if ctx.Err() == context.DeadlineExceeded {
					logger.Warn("request timed out",
						zap.String("method", r.Method),
						zap.String("path", r.URL.Path),
						zap.Duration("timeout", d),
						zap.String("requestID", GetRequestID(r.Context())),
					)
					// The handler goroutine may have started writing already;
					// only send the timeout envelope on an untouched response.
					if w.Header().Get("Content-Type") == "" {
						api.Error(w, logger, errors.NewTimeoutError(r.Method+" "+r.URL.Path))
					}
				}
			}
		})
	}
}
