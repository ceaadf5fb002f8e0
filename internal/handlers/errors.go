package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"studytrack/internal/content"
	"studytrack/internal/identity"
	"studytrack/internal/service"
)

type errorResponse struct {
	Error string `json:"error"`
}

// statusForError maps core error kinds to HTTP status codes
func statusForError(err error) int {
	switch {
	case errors.Is(err, identity.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrQuotaExceeded):
		return http.StatusPaymentRequired
	case errors.Is(err, service.ErrInvalidResult):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, content.ErrServiceUnavailable), errors.Is(err, content.ErrInvalidFormat):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// userMessageForError returns the body text for an error without leaking
// internal detail on server-side failures
func userMessageForError(err error, status int) string {
	if status >= http.StatusInternalServerError {
		return http.StatusText(status)
	}
	return err.Error()
}

func (h *APIHandler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusForError(err)

	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}

	respondJSON(w, status, errorResponse{Error: userMessageForError(err, status)})
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
