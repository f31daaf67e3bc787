package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"

	"github.com/stormlightlabs/fixtureline/internal/core"
)

// ErrorResponse is the JSON body returned for every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// PaginatedResponse wraps a page of list results with its paging cursor.
type PaginatedResponse struct {
	Data   any `json:"data"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total"`
}

// HealthResponse is the GET /v1/health body.
type HealthResponse struct {
	Status string `json:"status"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	data, err := json.Marshal(v)
	if err != nil {
		log.Error("writeJSON marshal error", "err", err)
		return
	}
	if _, err := w.Write(data); err != nil {
		log.Error("writeJSON write error", "err", err)
	}
}

func writeInternalServerError(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: msg})
}

func writeNotFound(w http.ResponseWriter, resource string) {
	writeJSON(w, http.StatusNotFound, ErrorResponse{Error: resource + " not found"})
}

// writeError maps an error to its HTTP status: not-found errors are 404;
// validation errors and the no-active-model, model-version-mismatch,
// team-not-found and unknown-league sentinels are 400; a lost activation
// race is 409; everything else is a 500.
func writeError(w http.ResponseWriter, err error) {
	if core.IsNotFound(err) {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
		return
	}

	var verr core.ValidationError
	var verrs core.ValidationErrors
	if errors.As(err, &verr) || errors.As(err, &verrs) {
		writeBadRequest(w, err.Error())
		return
	}

	switch {
	case errors.Is(err, core.ErrNoActiveModel),
		errors.Is(err, core.ErrModelVersionMismatch),
		errors.Is(err, core.ErrTeamNotFound),
		errors.Is(err, core.ErrUnknownLeague):
		writeBadRequest(w, err.Error())
	case errors.Is(err, core.ErrActivationRaceLost):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: err.Error()})
	default:
		writeInternalServerError(w, err)
	}
}

func getIntQuery(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return i
}
