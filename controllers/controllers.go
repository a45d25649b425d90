package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"trinity_server/services"
)

// writeJSON sends a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeServiceError maps the service error taxonomy onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrRoomNotFound),
		errors.Is(err, services.ErrConnectionNotFound),
		errors.Is(err, services.ErrInvalidInvite):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrDuplicateVote),
		errors.Is(err, services.ErrRoomNotJoinable),
		errors.Is(err, services.ErrRoomFull),
		errors.Is(err, services.ErrRoomNotActive):
		status = http.StatusConflict
	case errors.Is(err, services.ErrNotHost),
		errors.Is(err, services.ErrNotMember),
		errors.Is(err, services.ErrFiltersImmutable):
		status = http.StatusForbidden
	case errors.Is(err, services.ErrTooManyCategories),
		errors.Is(err, services.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrUnavailable):
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// decodeBody parses a JSON request body into dst.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, `{"error": "Invalid request body"}`, http.StatusBadRequest)
		return false
	}
	return true
}
