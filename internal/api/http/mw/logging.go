// Package mw holds the HTTP middleware of the API.
package mw

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"bridge-metrics/internal/observability"
)

// LoggingMiddleware logs every request and records its duration.
type LoggingMiddleware struct {
	Log zerolog.Logger
}

func NewLogging(log zerolog.Logger) *LoggingMiddleware {
	return &LoggingMiddleware{Log: log.With().Str("component", "http").Logger()}
}

func (m *LoggingMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		lrw := &loggingRW{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(lrw, r)

		dur := time.Since(start)
		route := routePattern(r)
		observability.RecordHTTPRequest(r.Method, route, lrw.status, dur.Seconds())

		ev := m.Log.Info()
		if lrw.status >= http.StatusInternalServerError {
			ev = m.Log.Warn()
		}
		ev.Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("route", route).
			Int("status", lrw.status).
			Int("size", lrw.size).
			Int64("dur_ms", dur.Milliseconds()).
			Str("ip", r.RemoteAddr).
			Str("ua", r.UserAgent()).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("http_request")
	})
}

// routePattern returns the matched chi pattern, so metric labels stay bounded.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

type loggingRW struct {
	http.ResponseWriter
	status int
	size   int
}

func (w *loggingRW) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *loggingRW) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.size += n
	return n, err
}
