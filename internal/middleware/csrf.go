package middleware

import (
	"net"
	"net/http"

	"go.uber.org/zap"

	"storygraph-backend/internal/csrf"
	"storygraph-backend/pkg/api"
	"storygraph-backend/pkg/errors"
)

// SessionHeader carries the caller's session id. Browser clients send it on
// every request so token issue and token check agree on the session.
const SessionHeader = "X-Session-ID"

// SessionID identifies the caller for CSRF purposes: the session header when
// present, otherwise the remote host.
func SessionID(r *http.Request) string {
	if id := r.Header.Get(SessionHeader); id != "" {
		return id
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// CSRF rejects mutating requests that do not echo a token previously issued
// for the same session. Safe methods pass untouched, as does everything when
// enforcement is off.
func CSRF(store *csrf.Store, enabled bool, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !enabled || safeMethod(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			token := r.Header.Get(api.HeaderCSRFToken)
			if !store.Validate(SessionID(r), token) {
				logger.Warn("csrf check failed",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.String("requestID", GetRequestID(r.Context())),
				)
				api.Error(w, logger, errors.NewForbiddenError("missing or invalid CSRF token"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func safeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}
