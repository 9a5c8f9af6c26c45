package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/telhawk-systems/mediabridge/common/logging"
	"github.com/telhawk-systems/mediabridge/common/middleware"
	"github.com/telhawk-systems/mediabridge/core/internal/handlers"
)

// Options configures the middleware wrapped around the routes.
type Options struct {
	AllowedOrigins []string
	Logger         *logging.Logger
}

// NewRouter wires HTTP routes for the translation service.
func NewRouter(h *handlers.ProcessorHandler, opts Options) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/events", h.Ingest)
	mux.HandleFunc("/api/v1/streams/{key}/playhead", h.Playhead)
	mux.HandleFunc("/healthz", h.Health)
	mux.Handle("/metrics", promhttp.Handler())

	cors := middleware.DefaultCORSConfig()
	if len(opts.AllowedOrigins) > 0 {
		cors.AllowedOrigins = opts.AllowedOrigins
	}
	return middleware.Chain(mux,
		middleware.RequestID,
		middleware.AccessLog(opts.Logger),
		middleware.CORS(cors),
	)
}
