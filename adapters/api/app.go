// Package api exposes a station over HTTP. The coordinator's task runner
// posts partial-computation requests here; the reply body is always a wire
// payload, so a failed extraction answers 200 with a tagged error object
// rather than an HTTP error.
package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"fedstats/internal"
	"fedstats/internal/station"
)

// App is the station HTTP application.
type App struct {
	router  *chi.Mux
	station *station.Station
	log     *internal.Logger
}

// NewApp builds the station application around one station.
func NewApp(st *station.Station) *App {
	app := &App{
		router:  chi.NewRouter(),
		station: st,
		log:     internal.DefaultLogger,
	}
	app.setupMiddleware()
	app.setupRoutes()
	return app
}

// Router returns the HTTP handler for serving.
func (a *App) Router() http.Handler { return a.router }

func (a *App) setupMiddleware() {
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Compress(5))
}

func (a *App) setupRoutes() {
	a.router.Get("/v1/health", a.handleHealth)
	a.router.Get("/v1/station", a.handleStationInfo)
	a.router.Post("/v1/partial/{method}", a.handlePartial)
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) handleStationInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"station_id": a.station.ID().String()})
}

// handlePartial runs one partial computation. The request body holds the
// method's keyword arguments as JSON; an empty body means defaults.
func (a *App) handlePartial(w http.ResponseWriter, r *http.Request) {
	method := chi.URLParam(r, "method")

	kwargs, err := io.ReadAll(r.Body)
	if err != nil {
		a.log.Warn("api: reading request body for %s: %v", method, err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unreadable request body"})
		return
	}

	payload := a.station.Handle(r.Context(), method, kwargs)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(payload)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		internal.DefaultLogger.Warn("api: encoding response: %v", err)
	}
}
