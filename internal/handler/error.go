// Package handler holds the JSON HTTP handlers for the invoice API.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dukerupert/gymdesk/internal/domain"
	"github.com/dukerupert/gymdesk/internal/middleware"
	"github.com/dukerupert/gymdesk/internal/telemetry"
)

// errorBody is the JSON error envelope: {"error": {"code", "message"}}.
type errorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// ErrorResponse logs err and writes its JSON form with the mapped status.
// Internal errors never expose their details.
func ErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	code := domain.ErrorCode(err)
	status := ErrorCodeToHTTPStatus(code)

	logError(r, err, code, status)

	writeJSON(w, status, map[string]any{
		"error": errorBody{Code: code, Message: domain.ErrorMessage(err)},
	})
}

// ValidationErrorResponse writes a 400 with every field message. The joined
// message lists them in the order they were found. Non-validation errors
// fall back to ErrorResponse.
func ValidationErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		ErrorResponse(w, r, err)
		return
	}

	logError(r, err, domain.EINVALID, http.StatusBadRequest)

	writeJSON(w, http.StatusBadRequest, map[string]any{
		"error": errorBody{
			Code:    domain.EINVALID,
			Message: ve.Joined(),
			Fields:  ve.Fields,
		},
	})
}

// ErrorCodeToHTTPStatus maps domain error codes to HTTP status codes.
func ErrorCodeToHTTPStatus(code string) int {
	switch code {
	case domain.EINVALID:
		return http.StatusBadRequest
	case domain.ENOTFOUND:
		return http.StatusNotFound
	case domain.ECONFLICT:
		return http.StatusConflict
	case domain.ETOOLARGE:
		return http.StatusRequestEntityTooLarge
	case domain.ERATELIMIT:
		return http.StatusTooManyRequests
	case domain.EINTERNAL:
		return http.StatusInternalServerError
	case domain.ENOTIMPL:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func logError(r *http.Request, err error, code string, status int) {
	logger := middleware.GetLogger(r.Context())
	attrs := []any{
		"error", err.Error(),
		"code", code,
		"op", domain.ErrorOp(err),
		"status", status,
	}

	if status >= 500 {
		logger.Error("request failed", attrs...)
		telemetry.CaptureError(r.Context(), err, map[string]any{
			"path": r.URL.Path,
			"code": code,
		})
		return
	}
	logger.Info("request rejected", attrs...)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
