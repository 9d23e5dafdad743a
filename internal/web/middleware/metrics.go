package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/freekieb7/go-newsgate/internal/web/response"
	"github.com/google/uuid"
)

const RequestIDHeader = "X-Request-ID"

type requestIDContextKey struct{}

// RequestIDFromContext returns the id assigned by RequestID, if any.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDContextKey{}).(string)
	return id
}

// RequestID propagates the caller's X-Request-ID or assigns a new one.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(RequestIDHeader)
			if id == "" || len(id) > 128 {
				id = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, id)
			ctx := context.WithValue(r.Context(), requestIDContextKey{}, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// MetricsCollector defines the interface for collecting request metrics
type MetricsCollector interface {
	RecordRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration)
	RecordError(ctx context.Context, method, path string, errorType string)
}

// LogMetricsCollector implements MetricsCollector using structured logging
type LogMetricsCollector struct {
	logger *slog.Logger
}

func NewLogMetricsCollector(logger *slog.Logger) *LogMetricsCollector {
	return &LogMetricsCollector{
		logger: logger,
	}
}

func (c *LogMetricsCollector) RecordRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	c.logger.InfoContext(ctx, "HTTP request completed",
		slog.String("request_id", RequestIDFromContext(ctx)),
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status_code", statusCode),
		slog.Duration("duration", duration),
		slog.Float64("duration_ms", float64(duration.Nanoseconds())/1e6))
}

func (c *LogMetricsCollector) RecordError(ctx context.Context, method, path string, errorType string) {
	c.logger.WarnContext(ctx, "HTTP request error",
		slog.String("request_id", RequestIDFromContext(ctx)),
		slog.String("method", method),
		slog.String("path", path),
		slog.String("error_type", errorType))
}

// responseWriter wraps http.ResponseWriter to capture status code and size
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	size        int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.wroteHeader = true
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	size, err := rw.ResponseWriter.Write(b)
	rw.size += size
	return size, err
}

// MetricsMiddleware records every request with collector.
func MetricsMiddleware(collector MetricsCollector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapper := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(wrapper, r)

			duration := time.Since(start)
			collector.RecordRequest(r.Context(), r.Method, r.URL.Path, wrapper.statusCode, duration)

			if wrapper.statusCode >= 400 {
				collector.RecordError(r.Context(), r.Method, r.URL.Path, categorizeError(wrapper.statusCode))
			}
		})
	}
}

func categorizeError(statusCode int) string {
	switch {
	case statusCode >= 400 && statusCode < 500:
		return "client_error"
	case statusCode >= 500:
		return "server_error"
	default:
		return "unknown_error"
	}
}

// Recover turns a panicking handler into a 500 envelope.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				p := recover()
				if p == nil {
					return
				}
				if p == http.ErrAbortHandler {
					panic(p)
				}

				logger.ErrorContext(r.Context(), "Request panic recovered",
					slog.Any("panic", p),
					slog.String("path", r.URL.Path),
					slog.String("method", r.Method),
					slog.String("stack", string(debug.Stack())))

				response.ErrorResponse(w, fmt.Errorf("%v", p), nil)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
