package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors_StatusMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		wantType ErrorType
		wantHTTP int
	}{
		{"validation", NewValidationError("bad input"), ErrorTypeValidation, http.StatusBadRequest},
		{"not found", NewNotFoundError("character"), ErrorTypeNotFound, http.StatusNotFound},
		{"conflict", NewConflictError("stale version"), ErrorTypeConflict, http.StatusConflict},
		{"forbidden", NewForbiddenError(""), ErrorTypeForbidden, http.StatusForbidden},
		{"internal", NewInternalError("boom"), ErrorTypeInternal, http.StatusInternalServerError},
		{"config", NewConfigError("NOTION_API_KEY", "missing"), ErrorTypeConfig, http.StatusInternalServerError},
		{"timeout", NewTimeoutError("query_database"), ErrorTypeTimeout, http.StatusGatewayTimeout},
		{"rate limit", NewRateLimitError(2 * time.Second), ErrorTypeRateLimit, http.StatusTooManyRequests},
		{"unavailable", NewUnavailableError("notion"), ErrorTypeUnavailable, http.StatusServiceUnavailable},
		{"upstream", NewUpstreamError("notion", 500, "internal_server_error", "boom"), ErrorTypeUpstream, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantType, tt.err.Type)
			assert.Equal(t, tt.wantHTTP, tt.err.HTTPStatus)
			assert.NotEmpty(t, tt.err.StackTrace)
		})
	}
}

func TestRateLimitError_RetryAfterDetail(t *testing.T) {
	err := NewRateLimitError(1500 * time.Millisecond)
	require.NotNil(t, err.Details)
	assert.Equal(t, 1.5, err.Details["retryAfterSeconds"])

	// Zero wait means no detail at all, not a zero-valued one.
	assert.Nil(t, NewRateLimitError(0).Details)
}

func TestUpstreamError_CarriesStatusAndCode(t *testing.T) {
	err := NewUpstreamError("notion", 409, "conflict_error", "transaction conflict")
	assert.Equal(t, "conflict_error", err.Code)
	assert.Equal(t, 409, err.Details["upstreamStatus"])
	assert.Contains(t, err.Error(), "notion")
}

func TestWrap(t *testing.T) {
	t.Run("nil passes through", func(t *testing.T) {
		assert.NoError(t, Wrap(nil, "context"))
	})

	t.Run("plain error becomes internal", func(t *testing.T) {
		err := Wrap(errors.New("socket closed"), "fetching page")
		appErr := GetAppError(err)
		require.NotNil(t, appErr)
		assert.Equal(t, ErrorTypeInternal, appErr.Type)
		assert.Equal(t, "fetching page", appErr.Message)
		assert.EqualError(t, appErr.Cause, "socket closed")
	})

	t.Run("app error keeps its type", func(t *testing.T) {
		err := Wrap(NewNotFoundError("element"), "resolving relation")
		appErr := GetAppError(err)
		require.NotNil(t, appErr)
		assert.Equal(t, ErrorTypeNotFound, appErr.Type)
		assert.Equal(t, "resolving relation: element not found", appErr.Message)
	})

	t.Run("wrapf formats", func(t *testing.T) {
		err := Wrapf(errors.New("x"), "page %s", "abc-123")
		assert.Contains(t, err.Error(), "page abc-123")
	})
}

func TestPredicates_SeeThroughWrapping(t *testing.T) {
	base := NewRateLimitError(time.Second)
	wrapped := fmt.Errorf("query: %w", base)

	assert.True(t, IsAppError(wrapped))
	assert.True(t, IsRateLimit(wrapped))
	assert.False(t, IsNotFound(wrapped))
	assert.Same(t, base, GetAppError(wrapped))
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewNetworkError("upstream unreachable", cause)
	assert.True(t, errors.Is(err, cause))
}
