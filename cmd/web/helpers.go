package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/myrjola/overload/internal/errors"
	"github.com/myrjola/overload/internal/progression"
	"github.com/myrjola/overload/internal/workout"
)

// writeJSON writes v as a JSON response with the given status code.
func (app *application) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		app.serverError(w, r, errors.Wrap(err, "marshal response"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}

type errorResponse struct {
	Error string `json:"error"`
}

func (app *application) serverError(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.LogAttrs(r.Context(), slog.LevelError, "server error", errors.SlogError(err))
	app.writeJSON(w, r, http.StatusInternalServerError,
		errorResponse{Error: http.StatusText(http.StatusInternalServerError)})
}

// handleServiceError maps service failures onto HTTP statuses: malformed
// set data is the client's fault, a missing exercise is 404 and anything
// else is a server error.
func (app *application) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, progression.ErrInvalidRecord):
		app.writeJSON(w, r, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	case errors.Is(err, workout.ErrNotFound):
		app.writeJSON(w, r, http.StatusNotFound, errorResponse{Error: http.StatusText(http.StatusNotFound)})
	default:
		app.serverError(w, r, err)
	}
}

// parseExerciseIDParam parses the "exerciseID" path parameter from the request URL.
// On failure, sends HTTP 404 response automatically.
func (app *application) parseExerciseIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	exerciseIDStr := r.PathValue("exerciseID")
	exerciseID, err := strconv.ParseInt(exerciseIDStr, 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return 0, false
	}
	return exerciseID, true
}

// decodeJSON decodes the request body into v, rejecting unknown fields.
func (app *application) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		app.writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return false
	}
	return true
}
