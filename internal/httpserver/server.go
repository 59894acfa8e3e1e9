// Package httpserver exposes the evaluation variants over HTTP.
package httpserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/spigell/eb1-screener/internal/document"
	"github.com/spigell/eb1-screener/internal/evaluation"
	"github.com/spigell/eb1-screener/internal/observability"
)

const maxJSONBody = 1 << 20

type Config struct {
	CORSOrigins     []string
	RateLimitPerMin int
}

type Deps struct {
	Registry  *evaluation.Registry
	Documents *document.Extractor
	Metrics   *observability.Metrics
	Gatherer  prometheus.Gatherer
	Logger    *zap.Logger
}

type Server struct {
	cfg  Config
	deps Deps
}

func New(cfg Config, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Documents == nil {
		deps.Documents = document.NewExtractor(0, deps.Logger)
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}
	return &Server{cfg: cfg, deps: deps}
}

// Handler builds the router with every middleware and route.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(RequestID(s.deps.Logger))
	r.Use(AccessLog)
	if s.deps.Metrics != nil {
		r.Use(s.deps.Metrics.HTTPMiddleware)
	}
	r.Use(SpanName)
	// Innermost so panicked requests are still logged and counted.
	r.Use(Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: parseOrigins(s.cfg.CORSOrigins),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{headerRequestID, headerVariant, headerStrategy},
		MaxAge:         300,
	}))

	r.Group(func(wr chi.Router) {
		if s.cfg.RateLimitPerMin > 0 {
			wr.Use(httprate.LimitByIP(s.cfg.RateLimitPerMin, time.Minute))
		}
		wr.Post("/v1/evaluate/{variant}", s.evaluate)
		wr.Post("/v1/documents/extract", s.extractDocument)
	})

	r.Get("/v1/variants", s.variants)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{}))

	return otelhttp.NewHandler(r, "eb1-screener",
		// SpanName replaces this once the route is known.
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return "HTTP " + r.Method
		}),
	)
}

// parseOrigins trims the configured origins; an empty list allows any origin.
func parseOrigins(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
