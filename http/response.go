package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sagarc03/mediagate"
)

// ErrorResponse represents a JSON error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteError writes a JSON error response
func WriteError(w http.ResponseWriter, code int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   errCode,
		Message: message,
	}); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// HandleError writes appropriate error response based on error type.
// Store failures only expose the short operation name of the UpstreamError.
func HandleError(w http.ResponseWriter, err error) {
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		slog.Debug("request error", "error", err)
		WriteError(w, http.StatusRequestEntityTooLarge, "payload_too_large", "Upload exceeds the maximum allowed size")
		return
	}

	if errors.Is(err, mediagate.ErrNotFound) {
		slog.Debug("request error", "error", err)
		WriteError(w, http.StatusNotFound, "not_found", "Object not found")
		return
	}

	if errors.Is(err, mediagate.ErrInvalidInput) {
		slog.Debug("request error", "error", err)
		WriteError(w, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}

	if errors.Is(err, mediagate.ErrUnauthorized) {
		slog.Debug("request error", "error", err)
		w.Header().Set("WWW-Authenticate", `Bearer realm="mediagate"`)
		WriteError(w, http.StatusUnauthorized, "unauthorized", "Missing or invalid bearer token")
		return
	}

	if errors.Is(err, mediagate.ErrConflict) {
		slog.Debug("request error", "error", err)
		WriteError(w, http.StatusConflict, "conflict", "Resource already exists")
		return
	}

	if errors.Is(err, mediagate.ErrRangeNotSatisfiable) {
		slog.Debug("request error", "error", err)
		WriteError(w, http.StatusRequestedRangeNotSatisfiable, "range_not_satisfiable", "Requested range not satisfiable")
		return
	}

	slog.Error("request error", "error", err)

	var upstream *mediagate.UpstreamError
	if errors.As(err, &upstream) {
		WriteError(w, http.StatusInternalServerError, "upstream_error", "Failed to "+upstream.Op)
		return
	}

	// Default internal error
	WriteError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, code int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(data)
}
