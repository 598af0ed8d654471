package notion

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"storygraph-backend/pkg/errors"
)

// mapAPIError translates an upstream error response into the application
// taxonomy. Permanent 4xx pass through with the upstream's status, code and
// message; 404 and 409 map onto the dedicated types so callers can branch
// with the usual predicates.
func mapAPIError(status int, body []byte, retryAfter time.Duration) *errors.AppError {
	var payload apiError
	if err := json.Unmarshal(body, &payload); err != nil || payload.Message == "" {
		payload.Status = status
		payload.Code = "unknown_error"
		payload.Message = http.StatusText(status)
	}

	switch status {
	case http.StatusNotFound:
		return errors.NewNotFoundError("page").
			WithCode(payload.Code).
			WithDetail("upstreamStatus", status).
			WithDetail("upstreamMessage", payload.Message)
	case http.StatusConflict:
		return errors.NewConflictError(payload.Message).
			WithCode(payload.Code).
			WithDetail("upstreamStatus", status)
	case http.StatusTooManyRequests:
		return errors.NewRateLimitError(retryAfter).WithCode(payload.Code)
	}

	appErr := errors.NewUpstreamError("notion", status, payload.Code, payload.Message)
	// Read paths propagate the upstream status verbatim.
	appErr.HTTPStatus = status
	return appErr
}

// isRetryable reports whether an upstream status is worth another attempt.
func isRetryable(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// parseRetryAfter reads the upstream's requested wait. Zero means the
// header was absent or unparseable.
func parseRetryAfter(h http.Header) time.Duration {
	raw := h.Get("Retry-After")
	if raw == "" {
		return 0
	}
	if secs, err := strconv.Atoi(raw); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(raw); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}
