// Package api exposes city search over HTTP for the single-page front end.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/urbanscope/citysearch/internal/metrics"
	"github.com/urbanscope/citysearch/pkg/geocode"
)

// Options configures the router.
type Options struct {
	CORSOrigins []string
	PerPage     int
	Popular     []geocode.PopularCity
}

// NewRouter wires the handlers, middleware and the metrics endpoint.
func NewRouter(client geocode.Client, opts Options) http.Handler {
	h := &handler{
		client:  client,
		perPage: opts.PerPage,
		popular: opts.Popular,
	}
	if h.popular == nil {
		h.popular = geocode.PopularCities()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", h.health)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/cities/search", h.search)
		r.Get("/cities/reverse", h.reverse)
		r.Get("/cities/popular", h.popularCities)
		r.Get("/distance", h.distance)
	})
	return r
}

// accessLog logs one line per request through the global logger.
func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		zap.L().Info("api: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
