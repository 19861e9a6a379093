package main

import (
	"net/http"
	"time"

	"github.com/myrjola/overload/internal/progression"
)

type logSessionRequest struct {
	// PerformedAt is optional; it defaults to the current time.
	PerformedAt time.Time               `json:"performed_at"`
	Sets        []progression.SetRecord `json:"sets"`
}

type logSessionResponse struct {
	SessionID int64 `json:"session_id"`
}

// sessionCreatePOST logs a completed training session for an exercise.
func (app *application) sessionCreatePOST(w http.ResponseWriter, r *http.Request) {
	exerciseID, ok := app.parseExerciseIDParam(w, r)
	if !ok {
		return
	}

	var req logSessionRequest
	if !app.decodeJSON(w, r, &req) {
		return
	}
	if len(req.Sets) == 0 {
		app.writeJSON(w, r, http.StatusUnprocessableEntity, errorResponse{Error: "at least one set is required"})
		return
	}

	sessionID, err := app.workoutService.LogSession(r.Context(), exerciseID, req.PerformedAt, req.Sets)
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusCreated, logSessionResponse{SessionID: sessionID})
}

type autoregulateRequest struct {
	// CurrentSets are the sets logged so far in the ongoing session.
	CurrentSets []progression.SetRecord `json:"current_sets"`
}

// autoregulatePOST layers a session-scoped adjustment over the stored
// recommendation. The caller re-invokes it after every new set.
func (app *application) autoregulatePOST(w http.ResponseWriter, r *http.Request) {
	exerciseID, ok := app.parseExerciseIDParam(w, r)
	if !ok {
		return
	}

	var req autoregulateRequest
	if !app.decodeJSON(w, r, &req) {
		return
	}

	adjusted, err := app.workoutService.Autoregulate(r.Context(), exerciseID, req.CurrentSets)
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, adjusted)
}
