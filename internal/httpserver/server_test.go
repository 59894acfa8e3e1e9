package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/eb1-screener/internal/ai"
	"github.com/spigell/eb1-screener/internal/document"
	"github.com/spigell/eb1-screener/internal/evaluation"
	"github.com/spigell/eb1-screener/internal/observability"
)

type stubGenerator struct {
	mu        sync.Mutex
	output    string
	err       error
	panicWith string
	calls     int
}

func (s *stubGenerator) Generate(context.Context, string, ai.GenerationParameters) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.panicWith != "" {
		panic(s.panicWith)
	}
	return s.output, s.err
}

func (s *stubGenerator) Provider() string { return "stub" }

func (s *stubGenerator) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type testServer struct {
	handler http.Handler
	gen     *stubGenerator
}

func newTestServer(t *testing.T, gen *stubGenerator, cfg Config, maxUpload int64) *testServer {
	t.Helper()
	return newLoggedTestServer(t, gen, cfg, maxUpload, nil)
}

func newLoggedTestServer(t *testing.T, gen *stubGenerator, cfg Config, maxUpload int64, log *zap.Logger) *testServer {
	t.Helper()

	reg := prometheus.NewRegistry()
	metrics, err := observability.NewMetrics(reg, nil)
	require.NoError(t, err)

	registry, err := evaluation.NewDefaultRegistry(evaluation.Deps{Generator: gen, Recorder: metrics}, nil)
	require.NoError(t, err)

	srv := New(cfg, Deps{
		Registry:  registry,
		Documents: document.NewExtractor(maxUpload, nil),
		Metrics:   metrics,
		Gatherer:  reg,
		Logger:    log,
	})
	return &testServer{handler: srv.Handler(), gen: gen}
}

func (ts *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func jsonRequest(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

const answersBody = `{"category": "EB-1A", "answers": {"awards": "ACM fellow"}}`

func TestEvaluateReturnsResult(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, &stubGenerator{output: `{"score": 75, "category": "EB-1A"}`}, Config{}, 0)
	rec := ts.do(jsonRequest("/v1/evaluate/eligibility", answersBody))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "eligibility", rec.Header().Get(headerVariant))
	assert.Equal(t, "direct", rec.Header().Get(headerStrategy))
	assert.NotEmpty(t, rec.Header().Get(headerRequestID))

	body := decode(t, rec)
	assert.Equal(t, 75.0, body["score"])
	assert.Equal(t, []any{}, body["criteriaBreakdown"])
	assert.NotContains(t, body, "raw")
}

func TestEvaluateDiagnostics(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, &stubGenerator{output: "No JSON here, just prose."}, Config{}, 0)
	rec := ts.do(jsonRequest("/v1/evaluate/eligibility?diagnostics=true", answersBody))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "eligibility", body["variant"])
	assert.Equal(t, "none", body["strategy"])
	assert.Equal(t, "No JSON here, just prose.", body["raw"])

	result, ok := body["result"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 0.0, result["score"])
	assert.Equal(t, "N/A", result["category"])
}

func TestEvaluateDetailedNarrative(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, &stubGenerator{output: "{\"score\": 80}\n---\nThis candidate shows strong..."}, Config{}, 0)
	rec := ts.do(jsonRequest("/v1/evaluate/detailed", answersBody))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, 80.0, body["score"])
	assert.Equal(t, "This candidate shows strong...", body["narrative"])
}

func TestEvaluateRejectsMissingAnswers(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{output: `{"score": 99}`}
	ts := newTestServer(t, gen, Config{}, 0)
	rec := ts.do(jsonRequest("/v1/evaluate/eligibility", `{"resume": "CV text"}`))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, evaluation.ErrInvalidRequest.Error(), body["error"])
	assert.Equal(t, map[string]any{"answers": "required"}, body["details"])
	assert.Zero(t, gen.Calls())
}

func TestEvaluateBadRequests(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{name: "malformed json", path: "/v1/evaluate/eligibility", body: `{"answers": `, status: http.StatusBadRequest},
		{name: "wrong answer type", path: "/v1/evaluate/eligibility", body: `{"answers": {"awards": 1}}`, status: http.StatusBadRequest},
		{name: "unknown variant", path: "/v1/evaluate/premium", body: answersBody, status: http.StatusNotFound},
		{name: "body too large", path: "/v1/evaluate/eligibility", body: `{"resume": "` + strings.Repeat("x", maxJSONBody) + `"}`, status: http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			gen := &stubGenerator{output: "{}"}
			ts := newTestServer(t, gen, Config{}, 0)
			rec := ts.do(jsonRequest(tt.path, tt.body))

			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.NotEmpty(t, decode(t, rec)["error"])
			assert.Zero(t, gen.Calls())
		})
	}
}

func TestEvaluateGenerationFailureHidesProviderError(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{err: ai.WrapError("stub", ai.ErrUnavailable, errors.New("secret upstream detail"))}
	ts := newTestServer(t, gen, Config{}, 0)
	rec := ts.do(jsonRequest("/v1/evaluate/eligibility", answersBody))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, messageUnavailable, decode(t, rec)["error"])
	assert.NotContains(t, rec.Body.String(), "secret upstream detail")
	assert.Equal(t, 1, gen.Calls())
}

func TestVariants(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, &stubGenerator{}, Config{}, 0)
	rec := ts.do(httptest.NewRequest(http.MethodGet, "/v1/variants", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got []variantInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 3)
	assert.Equal(t, "eligibility", got[0].Name)
	assert.Equal(t, evaluation.Requirements{Resume: true}, got[2].Requirements)
}

func multipartRequest(t *testing.T, field, filename string, content []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = io.Copy(fw, bytes.NewReader(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/documents/extract", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestExtractDocument(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, &stubGenerator{}, Config{}, 1024)

	rec := ts.do(multipartRequest(t, "file", "cv.txt", []byte("Principal engineer\n12 patents")))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "Principal engineer\n12 patents", body["text"])
	assert.Equal(t, false, body["placeholder"])

	rec = ts.do(multipartRequest(t, "file", "photo.png", []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")))
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode(t, rec)
	assert.Equal(t, true, body["placeholder"])
	assert.Equal(t, document.PlaceholderText, body["text"])
}

func TestExtractDocumentErrors(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, &stubGenerator{}, Config{}, 16)

	rec := ts.do(jsonRequest("/v1/documents/extract", `{}`))
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

	rec = ts.do(multipartRequest(t, "attachment", "cv.txt", []byte("text")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, map[string]any{"file": "required"}, decode(t, rec)["details"])

	rec = ts.do(multipartRequest(t, "file", "cv.txt", []byte(strings.Repeat("a", 17))))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, &stubGenerator{output: "{}"}, Config{RateLimitPerMin: 1}, 0)

	first := ts.do(jsonRequest("/v1/evaluate/eligibility", answersBody))
	assert.Equal(t, http.StatusOK, first.Code)

	second := ts.do(jsonRequest("/v1/evaluate/eligibility", answersBody))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)

	health := ts.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, health.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, &stubGenerator{output: `{"score": 1}`}, Config{}, 0)

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])

	ts.do(jsonRequest("/v1/evaluate/eligibility", answersBody))

	rec = ts.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `eb1_evaluations_total{outcome="ok",variant="eligibility"} 1`)
	assert.Contains(t, rec.Body.String(), `eb1_extraction_strategy_total{strategy="direct",variant="eligibility"} 1`)
	assert.Contains(t, rec.Body.String(), "eb1_http_requests_total")
}

func TestRequestIDIsPropagated(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, &stubGenerator{}, Config{}, 0)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(headerRequestID, "client-supplied")

	rec := ts.do(req)
	assert.Equal(t, "client-supplied", rec.Header().Get(headerRequestID))
}

func TestRequestIDRejectsUnsafeValues(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, &stubGenerator{}, Config{}, 0)

	for _, supplied := range []string{
		strings.Repeat("a", maxRequestIDLen+1),
		"<script>alert(1)</script>",
		"id with spaces",
		"forged\" level=error",
	} {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.Header.Set(headerRequestID, supplied)

		rec := ts.do(req)
		got := rec.Header().Get(headerRequestID)
		assert.NotEqual(t, supplied, got)
		_, err := ulid.ParseStrict(got)
		assert.NoError(t, err, got)
	}
}

func TestValidRequestID(t *testing.T) {
	t.Parallel()

	assert.True(t, validRequestID("01HX-req_1.a"))
	assert.True(t, validRequestID(strings.Repeat("a", maxRequestIDLen)))
	assert.False(t, validRequestID(""))
	assert.False(t, validRequestID("caf\u00e9"))
}

func TestPanicIsLoggedAndCounted(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.InfoLevel)
	ts := newLoggedTestServer(t, &stubGenerator{panicWith: "boom"}, Config{}, 0, zap.New(core))

	rec := ts.do(jsonRequest("/v1/evaluate/eligibility", answersBody))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal error", decode(t, rec)["error"])

	assert.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
	access := logs.FilterMessage("http access").All()
	require.Len(t, access, 1)
	assert.Equal(t, int64(http.StatusInternalServerError), access[0].ContextMap()["status"])
	assert.Equal(t, "/v1/evaluate/{variant}", access[0].ContextMap()["route"])

	metrics := ts.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, metrics.Body.String(),
		`eb1_http_requests_total{method="POST",route="/v1/evaluate/{variant}",status="500"} 1`)
}

func TestSpanNameUsesRoutePattern(t *testing.T) {
	t.Parallel()

	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	r := chi.NewRouter()
	r.Use(SpanName)
	r.Get("/v1/items/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for _, path := range []string{"/v1/items/42", "/scan/1"} {
		ctx, span := tp.Tracer("test").Start(context.Background(), "HTTP GET")
		req := httptest.NewRequest(http.MethodGet, path, nil).WithContext(ctx)
		r.ServeHTTP(httptest.NewRecorder(), req)
		span.End()
	}

	ended := spans.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, "GET /v1/items/{id}", ended[0].Name())
	assert.Equal(t, "GET "+observability.UnmatchedRoute, ended[1].Name())
}

func TestCORSPreflight(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, &stubGenerator{}, Config{CORSOrigins: []string{" https://eb1.example.com "}}, 0)

	req := httptest.NewRequest(http.MethodOptions, "/v1/evaluate/eligibility", nil)
	req.Header.Set("Origin", "https://eb1.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	rec := ts.do(req)
	assert.Equal(t, "https://eb1.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestParseOrigins(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"*"}, parseOrigins(nil))
	assert.Equal(t, []string{"*"}, parseOrigins([]string{" ", ""}))
	assert.Equal(t, []string{"https://a", "https://b"}, parseOrigins([]string{" https://a", "https://b "}))
}
