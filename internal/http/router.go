// Package httpapi assembles the service router: shared middleware, the
// module handlers and the Prometheus endpoint.
package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"verity/internal/platform/metrics"
	"verity/internal/platform/middleware"
	"verity/pkg/platform/middleware/metadata"
)

// Registrar is implemented by module handlers that mount their own routes.
type Registrar interface {
	Register(r chi.Router)
}

// Options configures NewRouter.
type Options struct {
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	RequestTimeout time.Duration
	ServiceName    string
	// RateLimit, when set, runs after client metadata is resolved.
	RateLimit func(http.Handler) http.Handler
}

// NewRouter wires the shared middleware stack in front of every handler.
// Order matters: request ids exist before logging, and recovery wraps
// everything below it.
func NewRouter(opts Options, handlers ...Registrar) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(metadata.ClientMetadata)
	r.Use(middleware.Recovery(opts.Logger, opts.Metrics))
	r.Use(middleware.Logger(opts.Logger))
	r.Use(middleware.LatencyMiddleware(opts.Metrics))
	if opts.RateLimit != nil {
		r.Use(opts.RateLimit)
	}
	if opts.RequestTimeout > 0 {
		r.Use(middleware.Timeout(opts.RequestTimeout))
	}

	for _, h := range handlers {
		h.Register(r)
	}
	r.Handle("/metrics", promhttp.Handler())

	name := opts.ServiceName
	if name == "" {
		name = "verity"
	}
	return otelhttp.NewHandler(r, name)
}
