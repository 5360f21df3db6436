// Package httptransport is the thin HTTP adapter over the partner registry,
// the ledger and the configured goal escrow. It carries no business rules.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"syncvault/pkg/platform/httputil"
	authmw "syncvault/pkg/platform/middleware/auth"
	"syncvault/pkg/platform/middleware/metadata"
	"syncvault/pkg/platform/middleware/request"
	"syncvault/pkg/platform/middleware/requesttime"
)

// Registrar mounts a group of endpoints. requireAuth wraps routes that act
// on behalf of the caller.
type Registrar interface {
	Register(r chi.Router, requireAuth func(http.Handler) http.Handler)
}

// RouterConfig collects the router's collaborators.
type RouterConfig struct {
	Logger    *slog.Logger
	Validator authmw.JWTValidator
	// Gatherer backs /metrics. Nil serves the default registry.
	Gatherer prometheus.Gatherer
	Handlers []Registrar
}

// NewRouter wires middleware, health and metrics endpoints, and every
// registered handler group.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)
	r.Use(request.Logger(cfg.Logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	requireAuth := authmw.RequireAuth(cfg.Validator, cfg.Logger)
	for _, h := range cfg.Handlers {
		h.Register(r, requireAuth)
	}
	return r
}
