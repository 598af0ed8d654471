// Package api provides standardized helper functions for HTTP API responses.
package api

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"storygraph-backend/pkg/errors"
)

// ErrorResponse is the standardized error body for API responses.
type ErrorResponse struct {
	Error   bool                   `json:"error"`
	Message string                 `json:"message"`
	Code    int                    `json:"code"`
	Type    string                 `json:"type,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Warning describes a non-fatal problem encountered while serving a request,
// such as an inverse relation update that could not be applied.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// Success sends a standardized successful HTTP response with optional JSON data.
func Success(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// Error sends an error response derived from err. AppError values map to
// their HTTP status and expose type, code and details; anything else becomes
// an opaque 500 so internals never leak to clients.
func Error(w http.ResponseWriter, logger *zap.Logger, err error) {
	resp := ErrorResponse{
		Error:   true,
		Message: "Internal server error",
		Code:    http.StatusInternalServerError,
	}

	if appErr := errors.GetAppError(err); appErr != nil {
		resp.Message = appErr.Message
		resp.Code = appErr.HTTPStatus
		resp.Type = string(appErr.Type)
		resp.Details = appErr.Details
		if appErr.Type == errors.ErrorTypeInternal {
			resp.Message = "Internal server error"
			resp.Details = nil
		}
	}

	if resp.Code >= http.StatusInternalServerError && logger != nil {
		logger.Error("request failed", zap.Error(err), zap.Int("status", resp.Code))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.Code)
	json.NewEncoder(w).Encode(resp)
}

// ErrorMessage sends a plain error response when there is no error value,
// only a status and a message.
func ErrorMessage(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   true,
		Message: message,
		Code:    statusCode,
	})
}
