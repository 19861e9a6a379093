package main

import "net/http"

func (app *application) routes() http.Handler {
	mux := http.NewServeMux()

	api := func(next http.Handler) http.Handler {
		return app.recoverPanic(app.logAndTraceRequest(secureHeaders(noCache(app.timeout(next)))))
	}

	mux.Handle("GET /api/exercises", api(http.HandlerFunc(app.exercisesGET)))
	mux.Handle("POST /api/exercises", api(http.HandlerFunc(app.exerciseCreatePOST)))
	mux.Handle("GET /api/exercises/{exerciseID}", api(http.HandlerFunc(app.exerciseGET)))

	mux.Handle("GET /api/exercises/{exerciseID}/recommendation", api(http.HandlerFunc(app.recommendationGET)))
	mux.Handle("POST /api/exercises/{exerciseID}/autoregulate", api(http.HandlerFunc(app.autoregulatePOST)))
	mux.Handle("POST /api/exercises/{exerciseID}/sessions", api(http.HandlerFunc(app.sessionCreatePOST)))

	mux.Handle("GET /api/recommendations", api(http.HandlerFunc(app.recommendationsGET)))

	mux.Handle("GET /api/healthy", api(http.HandlerFunc(app.healthy)))

	return mux
}
