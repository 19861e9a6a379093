package main

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/myrjola/overload/internal/errors"
	"github.com/myrjola/overload/internal/workout"
	"github.com/yuin/goldmark"
)

type exerciseResponse struct {
	workout.Exercise
	DescriptionHTML string `json:"description_html,omitempty"`
}

// exercisesGET lists the exercise catalog.
func (app *application) exercisesGET(w http.ResponseWriter, r *http.Request) {
	exercises, err := app.workoutService.ListExercises(r.Context())
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, exercises)
}

// exerciseGET returns one catalog entry with its description rendered to
// HTML.
func (app *application) exerciseGET(w http.ResponseWriter, r *http.Request) {
	exerciseID, ok := app.parseExerciseIDParam(w, r)
	if !ok {
		return
	}

	exercise, err := app.workoutService.GetExercise(r.Context(), exerciseID)
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}

	var descriptionHTML bytes.Buffer
	if err = goldmark.Convert([]byte(exercise.DescriptionMarkdown), &descriptionHTML); err != nil {
		app.serverError(w, r, errors.Wrap(err, "render description markdown"))
		return
	}

	app.writeJSON(w, r, http.StatusOK, exerciseResponse{
		Exercise:        exercise,
		DescriptionHTML: descriptionHTML.String(),
	})
}

type createExerciseRequest struct {
	Name                string `json:"name"`
	EquipmentClass      string `json:"equipment_class"`
	DescriptionMarkdown string `json:"description_markdown"`
}

// exerciseCreatePOST adds a catalog entry.
func (app *application) exerciseCreatePOST(w http.ResponseWriter, r *http.Request) {
	var req createExerciseRequest
	if !app.decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		app.writeJSON(w, r, http.StatusUnprocessableEntity, errorResponse{Error: "name is required"})
		return
	}

	exercise := workout.Exercise{
		Name:                req.Name,
		EquipmentClass:      workout.EquipmentClass(req.EquipmentClass),
		DescriptionMarkdown: req.DescriptionMarkdown,
	}
	if exercise.EquipmentClass == "" {
		exercise.EquipmentClass = workout.EquipmentUpperCompound
	}

	created, err := app.workoutService.CreateExercise(r.Context(), exercise)
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusCreated, created)
}
