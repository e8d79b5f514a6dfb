package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fleetops/nginx-fleet-manager/internal/registry"
	"github.com/fleetops/nginx-fleet-manager/internal/storage"
)

// APIError is the standard error response format: {"detail": "..."}.
type APIError struct {
	Detail string `json:"detail"`
}

// WriteError writes a JSON error response with the given status code and detail.
func WriteError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encErr := json.NewEncoder(w).Encode(APIError{Detail: detail})
	if encErr != nil {
		// Response already started, nothing we can do
		_ = encErr
	}
}

// writeJSON writes a JSON success response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encErr := json.NewEncoder(w).Encode(v)
	if encErr != nil {
		// Encoding errors are not critical once headers are sent
		_ = encErr
	}
}

// writeMappedError translates component error kinds to transport codes.
// This is the single translation point: handlers never pick status codes
// for component failures themselves.
//
//	invalid/expired/used token  -> 401 (uniform message, no enumeration)
//	invalid argument            -> 400
//	not found                   -> 404
//	uniqueness violation        -> 409
//	anything else               -> 500
func (h *Handler) writeMappedError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, registry.ErrInvalidToken), errors.Is(err, storage.ErrTokenSpent):
		WriteError(w, http.StatusUnauthorized, "invalid or expired registration token")
	case errors.Is(err, registry.ErrInvalidArgument):
		WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, storage.ErrNotFound):
		WriteError(w, http.StatusNotFound, "resource not found")
	case errors.Is(err, storage.ErrDuplicate):
		WriteError(w, http.StatusConflict, "resource already exists")
	default:
		h.logger.Error("internal error", "error", err)
		WriteError(w, http.StatusInternalServerError, "internal server error")
	}
}
