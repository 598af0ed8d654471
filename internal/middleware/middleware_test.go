package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storygraph-backend/internal/csrf"
	"storygraph-backend/internal/middleware"
	"storygraph-backend/pkg/api"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) api.ErrorResponse {
	t.Helper()
	var resp api.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestRequestID_GeneratesOne(t *testing.T) {
	var seen string
	h := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = middleware.GetRequestID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	got := rec.Header().Get(api.HeaderRequestID)
	require.NotEmpty(t, got)
	assert.Equal(t, got, seen)

	_, err := uuid.Parse(got)
	assert.NoError(t, err, "generated ids are uuids")
}

func TestRequestID_HonorsClientValue(t *testing.T) {
	var seen string
	h := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = middleware.GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(api.HeaderRequestID, "trace-me-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "trace-me-42", seen)
	assert.Equal(t, "trace-me-42", rec.Header().Get(api.HeaderRequestID))
}

func TestGetRequestID_EmptyWithoutMiddleware(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, middleware.GetRequestID(req.Context()))
}

func TestLogging_PassesResponseThrough(t *testing.T) {
	h := middleware.Logging(zap.NewNop(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/teapot", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "short and stout", rec.Body.String())
}

func TestRecovery_TurnsPanicInto500(t *testing.T) {
	h := middleware.Recovery(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	require.NotPanics(t, func() {
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decodeError(t, rec)
	assert.True(t, resp.Error)
	assert.Equal(t, "Internal server error", resp.Message)
}

func TestRecovery_LeavesStartedResponseAlone(t *testing.T) {
	h := middleware.Recovery(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"partial":`))
		panic("mid-write")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `{"partial":`, rec.Body.String())
}

func TestTimeout_SlowHandlerGets504(t *testing.T) {
	released := make(chan struct{})
	h := middleware.Timeout(20*time.Millisecond, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
		close(released)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/slow", nil))

	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	resp := decodeError(t, rec)
	assert.True(t, resp.Error)
	assert.Equal(t, "TIMEOUT", resp.Type)

	select {
	case <-released:
	case <-time.After(time.Second):
		t.Fatal("handler never observed the cancelled context")
	}
}

func TestTimeout_FastHandlerUntouched(t *testing.T) {
	h := middleware.Timeout(time.Second, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/fast", nil))

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestCSRF_DisabledIsTransparent(t *testing.T) {
	store := csrf.NewStore(10, time.Minute)
	h := middleware.CSRF(store, false, zap.NewNop())(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/elements", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCSRF_SafeMethodsSkipTheCheck(t *testing.T) {
	store := csrf.NewStore(10, time.Minute)
	h := middleware.CSRF(store, true, zap.NewNop())(okHandler())

	for _, method := range []string{http.MethodGet, http.MethodHead, http.MethodOptions} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(method, "/api/v1/elements", nil))
		assert.Equal(t, http.StatusOK, rec.Code, method)
	}
}

func TestCSRF_RejectsMissingToken(t *testing.T) {
	store := csrf.NewStore(10, time.Minute)
	h := middleware.CSRF(store, true, zap.NewNop())(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/elements", nil))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	resp := decodeError(t, rec)
	assert.True(t, resp.Error)
	assert.Equal(t, "FORBIDDEN", resp.Type)
}

func TestCSRF_AcceptsIssuedToken(t *testing.T) {
	store := csrf.NewStore(10, time.Minute)
	token, err := store.Issue("session-1")
	require.NoError(t, err)

	h := middleware.CSRF(store, true, zap.NewNop())(okHandler())

	req := httptest.NewRequest(http.MethodPut, "/api/v1/elements/abc", nil)
	req.Header.Set(middleware.SessionHeader, "session-1")
	req.Header.Set(api.HeaderCSRFToken, token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCSRF_RejectsTokenFromAnotherSession(t *testing.T) {
	store := csrf.NewStore(10, time.Minute)
	token, err := store.Issue("session-1")
	require.NoError(t, err)

	h := middleware.CSRF(store, true, zap.NewNop())(okHandler())

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/elements/abc", nil)
	req.Header.Set(middleware.SessionHeader, "session-2")
	req.Header.Set(api.HeaderCSRFToken, token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSessionID_PrefersHeaderOverRemoteAddr(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.7:4455"

	assert.Equal(t, "192.0.2.7", middleware.SessionID(req))

	req.Header.Set(middleware.SessionHeader, "session-9")
	assert.Equal(t, "session-9", middleware.SessionID(req))
}
