package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"bridge-metrics/internal/api/http/mw"
)

// BuildRouter mounts the API, health and metrics endpoints.
// A nil metricsHandler leaves /metrics unmounted.
func BuildRouter(api *API, logMW *mw.LoggingMiddleware, metricsHandler http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if logMW != nil {
		r.Use(logMW.Handler)
	}
	r.Use(middleware.Recoverer)

	r.Get("/healthz", api.Healthz)
	r.Get("/readiness", api.Readiness)
	if metricsHandler != nil {
		r.Mount("/metrics", metricsHandler)
	}

	r.Route("/api/v1", func(apiR chi.Router) {
		apiR.Get("/overview", api.Overview)
		apiR.Get("/timeseries", api.TimeSeries)
		apiR.Get("/dimensions/{dimension}", api.Dimension)
		apiR.Get("/dashboard", api.Dashboard)
	})

	return r
}
