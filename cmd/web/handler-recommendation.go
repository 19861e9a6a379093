package main

import "net/http"

// recommendationGET computes the next-session recommendation for an
// exercise.
func (app *application) recommendationGET(w http.ResponseWriter, r *http.Request) {
	exerciseID, ok := app.parseExerciseIDParam(w, r)
	if !ok {
		return
	}

	rec, err := app.workoutService.Recommend(r.Context(), exerciseID)
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, rec)
}

// recommendationsGET computes recommendations for the whole catalog.
func (app *application) recommendationsGET(w http.ResponseWriter, r *http.Request) {
	recommendations, err := app.workoutService.RecommendAll(r.Context())
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, recommendations)
}
