package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/Mohamed-Rabiaa/Flasheeta/internal/api"
	"github.com/Mohamed-Rabiaa/Flasheeta/internal/api/middleware"
	"github.com/Mohamed-Rabiaa/Flasheeta/internal/api/shared"
)

// setupRouter configures the HTTP routes and middleware chain.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Trace)
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", app.handleHealth)

	progressHandler := api.NewProgressHandler(app.progressService, app.logger)
	flashcardHandler := api.NewFlashcardHandler(app.progressService, app.logger)

	r.Route("/api/v1", func(r chi.Router) {
		progressHandler.RegisterRoutes(r)
		flashcardHandler.RegisterRoutes(r)
	})

	return r
}

// handleHealth reports server liveness and database reachability.
func (app *application) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := app.db.PingContext(r.Context()); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusServiceUnavailable, "Database unavailable", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}
