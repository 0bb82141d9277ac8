package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sapid/internal/platform/middleware"
	dErrors "sapid/pkg/domain-errors"
	"sapid/pkg/platform/httputil"
)

const requestTimeout = 30 * time.Second

// Registrar mounts a feature's routes.
type Registrar interface {
	Register(r chi.Router)
}

// ReadinessCheck reports whether a dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

// Config holds what the router wires together.
type Config struct {
	Logger         *slog.Logger
	Gatherer       prometheus.Gatherer
	CookieSecure   bool
	TrustedProxies []netip.Prefix
	Ready          []ReadinessCheck
	APIs           []Registrar
}

// NewRouter wires the health checks, the metrics endpoint and every API. API routes
// run behind the visitor cookie; unknown site paths redirect to the home page.
func NewRouter(cfg Config) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.ClientMetadata(cfg.TrustedProxies))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.RequestTime)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", readyHandler(cfg.Logger, cfg.Ready))
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Visitor(cfg.CookieSecure))
		for _, api := range cfg.APIs {
			api.Register(r)
		}
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"service": "sapid"})
	})
	r.NotFound(notFound)
	return r
}

func readyHandler(logger *slog.Logger, checks []ReadinessCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for _, check := range checks {
			if err := check(r.Context()); err != nil {
				logger.WarnContext(r.Context(), "readiness check failed",
					"request_id", middleware.GetRequestID(r.Context()),
					"error", err,
				)
				httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeUnavailable, "not ready"))
				return
			}
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// notFound answers unknown API paths with a JSON 404 and sends every other
// unknown page back to the home page.
func notFound(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") || r.URL.Path == "/api" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "no such endpoint"))
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}
