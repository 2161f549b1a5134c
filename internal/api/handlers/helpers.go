package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"mailcenter-service/internal/dates"
	"mailcenter-service/internal/domain"
	"mailcenter-service/internal/platform/logger"
)

func writeJSON(w http.ResponseWriter, r *http.Request, log *logger.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("encode response failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, log *logger.Logger, status int, msg string) {
	writeJSON(w, r, log, status, map[string]string{"error": msg})
}

// writeDomainError maps the error taxonomy onto HTTP statuses: validation
// 400, state conflicts 409, malformed instants 422, missing rows 404,
// anything else an opaque 500.
func writeDomainError(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error) {
	var validation *domain.ValidationError
	var state *domain.InvalidStateError
	var malformed *dates.MalformedInstantError

	switch {
	case errors.As(err, &validation):
		writeError(w, r, log, http.StatusBadRequest, validation.Error())
	case errors.As(err, &state):
		writeError(w, r, log, http.StatusConflict, state.Error())
	case errors.As(err, &malformed):
		writeError(w, r, log, http.StatusUnprocessableEntity, malformed.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, r, log, http.StatusNotFound, "not found")
	default:
		log.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		writeError(w, r, log, http.StatusInternalServerError, "internal server error")
	}
}

func requireMethod(w http.ResponseWriter, r *http.Request, log *logger.Logger, method string) bool {
	if r.Method != method {
		w.Header().Set("Allow", method)
		writeError(w, r, log, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}
	return true
}
