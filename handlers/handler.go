package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"task-tracker/backend/logging"
	"task-tracker/backend/middleware"
	"task-tracker/backend/repositories"
	"task-tracker/backend/services"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Logger.Errorf("Event ID: RESPONSE_ENCODE_FAILED, Description: Failed to encode response: %v", err)
	}
}

// writeError maps service and storage errors onto HTTP statuses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, verr.Fields)
	case errors.Is(err, services.ErrInvalidCredentials):
		middleware.WriteDetail(w, http.StatusUnauthorized, services.ErrInvalidCredentials.Error())
	case errors.Is(err, services.ErrInvalidToken):
		middleware.WriteDetail(w, http.StatusUnauthorized, "Token is invalid or expired")
	case errors.Is(err, services.ErrUnauthenticated):
		middleware.WriteDetail(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
	case errors.Is(err, services.ErrForbidden):
		middleware.WriteDetail(w, http.StatusForbidden, "You do not have permission to perform this action.")
	case errors.Is(err, repositories.ErrNotFound):
		middleware.WriteDetail(w, http.StatusNotFound, "Not found.")
	case errors.Is(err, repositories.ErrConflict):
		middleware.WriteDetail(w, http.StatusConflict, "An object with these unique fields already exists.")
	case errors.Is(err, repositories.ErrInUse):
		middleware.WriteDetail(w, http.StatusConflict, "This object is still referenced and has no replacement.")
	default:
		logging.Logger.Errorf("Event ID: REQUEST_FAILED, Description: %s %s failed: %v", r.Method, r.URL.Path, err)
		middleware.WriteDetail(w, http.StatusInternalServerError, "Internal server error.")
	}
}

// decodeJSON reads the request body into v. An empty body decodes to the
// zero value.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	logging.Logger.Warnf("Event ID: INVALID_REQUEST_BODY, Description: %s %s: %v", r.Method, r.URL.Path, err)
	middleware.WriteDetail(w, http.StatusBadRequest, fmt.Sprintf("JSON parse error - %v", err))
	return false
}

// pathID parses the numeric {id} route variable. It writes a 404 and
// returns false when the variable is not a number.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		middleware.WriteDetail(w, http.StatusNotFound, "Not found.")
		return 0, false
	}
	return id, true
}

// queryID parses an optional numeric query parameter into v.
func queryID(r *http.Request, key string, v *services.ValidationError) *int64 {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		v.Add(key, "Enter a number.")
		return nil
	}
	return &id
}

func queryBool(r *http.Request, key string) bool {
	switch r.URL.Query().Get(key) {
	case "1", "true", "True":
		return true
	}
	return false
}
