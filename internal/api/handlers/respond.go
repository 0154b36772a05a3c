package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/nikhilbhutani/clinicstaff/internal/directory"
	"github.com/nikhilbhutani/clinicstaff/internal/permission"
	"github.com/nikhilbhutani/clinicstaff/internal/validation"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps directory and validation failures to status codes.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var dirErr *directory.ValidationError
	var reqErr *validation.Error
	var unknown *permission.UnknownPermissionError

	switch {
	case directory.IsNotFound(err):
		writeError(w, http.StatusNotFound, directory.ErrNotFound.Error())
	case errors.As(err, &dirErr):
		writeError(w, http.StatusBadRequest, dirErr.Error())
	case errors.As(err, &reqErr):
		writeError(w, http.StatusBadRequest, reqErr.Error())
	case errors.As(err, &unknown), errors.Is(err, permission.ErrInvalidLevel):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, permission.ErrCommitInProgress):
		writeError(w, http.StatusConflict, err.Error())
	case directory.IsTransient(err):
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusServiceUnavailable, "staff directory temporarily unavailable")
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dest interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(dest)
}

func idParam(r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	return id, err == nil
}
