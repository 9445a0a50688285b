// Package httptransport wires the HTTP surface of the verification service:
// middleware stack, versioned API routes, health probes, and metrics.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"stagepass/internal/platform/health"
	"stagepass/internal/platform/middleware"
	"stagepass/internal/verify/handler"
)

// Config carries the transport-level knobs the router needs.
type Config struct {
	// OperatorToken guards the operator routes; empty leaves them open.
	// OperatorTokenHash is the bcrypt alternative and wins when set.
	OperatorToken     string
	OperatorTokenHash string
	// RequestTimeout bounds each request end to end.
	RequestTimeout time.Duration
}

// NewRouter wires all endpoints with the middleware stack.
func NewRouter(verify *handler.Handler, healthHandler *health.Handler, cfg Config, logger *slog.Logger) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Device)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.ContentTypeJSON)

	r.Route("/v1", func(r chi.Router) {
		verify.Register(r)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireOperatorToken(cfg.OperatorToken, cfg.OperatorTokenHash, logger))
			verify.RegisterOperator(r)
		})
	})

	healthHandler.Register(r)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}
