// Package observability holds the prometheus metrics and OpenTelemetry setup
// of the screener.
package observability

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/spigell/eb1-screener/internal/extract"
)

// Metrics implements evaluation.Recorder on top of prometheus collectors.
type Metrics struct {
	evaluations   *prometheus.CounterVec
	strategies    *prometheus.CounterVec
	generation    *prometheus.HistogramVec
	promptTokens  *prometheus.HistogramVec
	httpRequests  *prometheus.CounterVec
	httpDurations *prometheus.HistogramVec

	tokens TokenCounter
}

// NewMetrics registers every collector on reg. A nil tokens falls back to
// EstimateTokens.
func NewMetrics(reg prometheus.Registerer, tokens TokenCounter) (*Metrics, error) {
	if tokens == nil {
		tokens = TokenCounterFunc(EstimateTokens)
	}

	m := &Metrics{
		evaluations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eb1_evaluations_total",
				Help: "Evaluations by variant and outcome",
			},
			[]string{"variant", "outcome"},
		),
		strategies: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eb1_extraction_strategy_total",
				Help: "Extraction strategy that recovered structured data from model output",
			},
			[]string{"variant", "strategy"},
		),
		generation: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "eb1_generation_duration_seconds",
				Help:    "Text generation call duration in seconds",
				Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 60},
			},
			[]string{"variant", "provider"},
		),
		promptTokens: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "eb1_prompt_tokens",
				Help:    "Estimated prompt size in tokens",
				Buckets: prometheus.ExponentialBuckets(128, 2, 8),
			},
			[]string{"variant"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eb1_http_requests_total",
				Help: "HTTP requests by route, method and status",
			},
			[]string{"route", "method", "status"},
		),
		httpDurations: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "eb1_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"route", "method"},
		),
		tokens: tokens,
	}

	for _, c := range []prometheus.Collector{
		m.evaluations, m.strategies, m.generation, m.promptTokens, m.httpRequests, m.httpDurations,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("registering metrics: %w", err)
		}
	}

	return m, nil
}

func (m *Metrics) ObservePrompt(variant, prompt string) {
	m.promptTokens.WithLabelValues(variant).Observe(float64(m.tokens.Count(prompt)))
}

func (m *Metrics) ObserveGeneration(variant, provider string, elapsed time.Duration) {
	m.generation.WithLabelValues(variant, provider).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveExtraction(variant string, strategy extract.Strategy) {
	m.strategies.WithLabelValues(variant, string(strategy)).Inc()
}

func (m *Metrics) ObserveOutcome(variant, outcome string) {
	m.evaluations.WithLabelValues(variant, outcome).Inc()
}

// UnmatchedRoute labels requests that matched no route.
const UnmatchedRoute = "unmatched"

// RouteLabel returns the chi route pattern that served r, or UnmatchedRoute.
// Raw paths are never used so label cardinality stays bounded.
func RouteLabel(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if pattern := rc.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return UnmatchedRoute
}

// HTTPMiddleware records request counts and durations per chi route pattern.
func (m *Metrics) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := RouteLabel(r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.httpRequests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		m.httpDurations.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}
