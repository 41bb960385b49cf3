package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"talentmatch/internal/platform/metrics"
	"talentmatch/internal/platform/middleware"
	dErrors "talentmatch/pkg/domain-errors"
	"talentmatch/pkg/platform/httputil"
	"talentmatch/pkg/platform/validation"
)

const (
	DefaultMaxBodyBytes   int64 = validation.MaxBodySize
	DefaultRequestTimeout       = 30 * time.Second
)

// Registrar mounts a feature's routes.
type Registrar interface {
	Register(r chi.Router)
}

// Config wires the router. Nil registrars are skipped.
type Config struct {
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	Gatherer       prometheus.Gatherer
	Health         Registrar
	APIs           []Registrar
	MaxBodyBytes   int64
	RequestTimeout time.Duration
}

// NewRouter wires all public endpoints with middleware. Health and metrics
// sit outside the JSON API group so probes skip the body and content-type
// checks.
func NewRouter(cfg Config) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}

	r := chi.NewRouter()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics(cfg.Metrics))
	r.Use(chimw.Timeout(cfg.RequestTimeout))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusMethodNotAllowed, httputil.ErrorResponse{
			Error: "method_not_allowed",
		})
	})

	if cfg.Health != nil {
		cfg.Health.Register(r)
	}
	r.Handle("/metrics", metrics.Handler(cfg.Gatherer))

	r.Group(func(api chi.Router) {
		api.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
		api.Use(middleware.ContentTypeJSON)
		for _, reg := range cfg.APIs {
			if reg != nil {
				reg.Register(api)
			}
		}
	})

	return r
}
