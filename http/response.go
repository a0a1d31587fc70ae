package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/sagarc03/storefront"
)

// ErrorResponse represents a JSON error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// MessageResponse is returned by operations that have no entity to return.
type MessageResponse struct {
	Message string `json:"message"`
}

// WriteError writes a JSON error response
func WriteError(w http.ResponseWriter, code int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   errCode,
		Message: message,
	}); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// HandleError writes appropriate error response based on error type.
// Client errors carry the wrapped message; server errors never do.
func HandleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storefront.ErrBackend):
		slog.Error("request error", "error", err)
		WriteError(w, http.StatusInternalServerError, "storage_error", "Image upload failed on every storage backend")
	case errors.Is(err, storefront.ErrInvalidInput):
		slog.Warn("request error", "error", err)
		WriteError(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, storefront.ErrNotFound):
		slog.Warn("request error", "error", err)
		WriteError(w, http.StatusNotFound, "not_found", "Resource not found")
	case errors.Is(err, storefront.ErrConflict):
		slog.Warn("request error", "error", err)
		WriteError(w, http.StatusBadRequest, "conflict", err.Error())
	case errors.Is(err, storefront.ErrInactive):
		slog.Warn("request error", "error", err)
		WriteError(w, http.StatusUnauthorized, "account_inactive", "Account is deactivated")
	case errors.Is(err, storefront.ErrUnauthorized):
		slog.Warn("request error", "error", err)
		WriteError(w, http.StatusUnauthorized, "unauthorized", "Invalid or missing credentials")
	default:
		slog.Error("request error", "error", err)
		WriteError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, code int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(data)
}

// decodeJSON reads a single JSON document of at most maxBytes into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is empty", storefront.ErrInvalidInput)
		}
		return fmt.Errorf("%w: malformed JSON body: %v", storefront.ErrInvalidInput, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: request body must contain a single JSON object", storefront.ErrInvalidInput)
	}
	return nil
}
