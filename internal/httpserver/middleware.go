package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/spigell/eb1-screener/internal/logger"
	"github.com/spigell/eb1-screener/internal/observability"
)

const (
	headerRequestID = "X-Request-Id"

	maxRequestIDLen = 64
)

// RequestID assigns a ULID to every request unless the client sent a
// well-formed id, and stores a logger carrying it in the request context.
func RequestID(base *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := r.Header.Get(headerRequestID)
			if !validRequestID(reqID) {
				reqID = ulid.Make().String()
				r.Header.Set(headerRequestID, reqID)
			}

			fields := []zap.Field{zap.String(logger.FieldRequestID, reqID)}
			if sc := trace.SpanContextFromContext(r.Context()); sc.HasTraceID() {
				fields = append(fields, zap.String("trace_id", sc.TraceID().String()))
			}

			ctx := logger.ToContext(r.Context(), logger.WithFields(base, fields...))
			w.Header().Set(headerRequestID, reqID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// validRequestID accepts short ids made of letters, digits, '-', '_' and '.'.
func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-', c == '_', c == '.':
		default:
			return false
		}
	}
	return true
}

// SpanName renames the server span once routing is done, so traces are
// grouped by route pattern.
func SpanName(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)
		trace.SpanFromContext(r.Context()).SetName(r.Method + " " + observability.RouteLabel(r))
	})
}

// Recoverer turns panics into a logged 500.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.FromContext(r.Context(), nil).Error("panic recovered", zap.Any("recover", rec))
				writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// AccessLog logs one line per request; level follows the status class.
func AccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("route", observability.RouteLabel(r)),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
		}

		log := logger.FromContext(r.Context(), nil)
		switch {
		case status >= http.StatusInternalServerError:
			log.Error("http access", fields...)
		case status >= http.StatusBadRequest:
			log.Warn("http access", fields...)
		default:
			log.Info("http access", fields...)
		}
	})
}
