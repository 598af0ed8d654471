package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"storygraph-backend/internal/csrf"
	"storygraph-backend/internal/middleware"
	"storygraph-backend/pkg/api"
	"storygraph-backend/pkg/errors"
)

// CSRFHandler issues the per-session tokens that mutating requests echo
// back through the CSRF middleware.
type CSRFHandler struct {
	store  *csrf.Store
	logger *zap.Logger
}

// NewCSRFHandler creates the token-issuing handler.
func NewCSRFHandler(store *csrf.Store, logger *zap.Logger) *CSRFHandler {
	return &CSRFHandler{
		store:  store,
		logger: logger,
	}
}

// Token handles GET /api/v1/csrf-token. Reissuing invalidates the session's
// previous token.
func (h *CSRFHandler) Token(w http.ResponseWriter, r *http.Request) {
	token, err := h.store.Issue(middleware.SessionID(r))
	if err != nil {
		api.Error(w, h.logger, errors.NewInternalError("token generation failed").WithCause(err))
		return
	}

	w.Header().Set(api.HeaderCSRFToken, token)
	api.Success(w, http.StatusOK, map[string]interface{}{
		"token":      token,
		"ttlSeconds": int(h.store.TTL().Seconds()),
	})
}
