package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/felixgeelhaar/chartforge/domain/telemetry"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// Metric names recorded for HTTP requests.
const (
	MetricHTTPRequests = "chartforge.http.requests"
	MetricHTTPErrors   = "chartforge.http.errors"
	MetricHTTPDuration = "chartforge.http.duration_ms"
)

// TracingMiddleware creates middleware that traces HTTP requests. Incoming
// trace context headers are honored.
func TracingMiddleware(tracer telemetry.Tracer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			ctx, span := tracer.StartSpan(ctx, "http.request",
				telemetry.String("http.method", r.Method),
				telemetry.String("http.target", r.URL.Path),
			)
			defer span.End()

			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			status := statusOf(ww)
			span.SetAttributes(
				telemetry.String("http.route", routePattern(r)),
				telemetry.Int("http.status_code", status),
			)
			if status >= http.StatusInternalServerError {
				span.RecordError(statusError(status))
			}
		})
	}
}

// MetricsMiddleware creates middleware that records HTTP request metrics.
func MetricsMiddleware(meter telemetry.Meter) func(http.Handler) http.Handler {
	requests := meter.Counter(MetricHTTPRequests,
		telemetry.WithDescription("Total number of HTTP requests"),
		telemetry.WithUnit("{request}"),
	)

	errs := meter.Counter(MetricHTTPErrors,
		telemetry.WithDescription("Total number of HTTP requests answered with an error"),
		telemetry.WithUnit("{request}"),
	)

	duration := meter.Histogram(MetricHTTPDuration,
		telemetry.WithDescription("Duration of HTTP requests"),
		telemetry.WithUnit("ms"),
	)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := statusOf(ww)
			attrs := []telemetry.Attribute{
				telemetry.String("method", r.Method),
				telemetry.String("route", routePattern(r)),
				telemetry.String("status", strconv.Itoa(status)),
			}

			ctx := r.Context()
			requests.Add(ctx, 1, attrs...)
			if status >= http.StatusBadRequest {
				errs.Add(ctx, 1, attrs...)
			}
			duration.Record(ctx, float64(time.Since(start).Microseconds())/1000, attrs...)
		})
	}
}

// CombinedMiddleware creates middleware that combines tracing and metrics.
func CombinedMiddleware(tracer telemetry.Tracer, meter telemetry.Meter) func(http.Handler) http.Handler {
	tracingMw := TracingMiddleware(tracer)
	metricsMw := MetricsMiddleware(meter)

	return func(next http.Handler) http.Handler {
		// Chain: tracing wraps metrics wraps handler
		return tracingMw(metricsMw(next))
	}
}

func statusOf(ww chimiddleware.WrapResponseWriter) int {
	if ww.Status() == 0 {
		return http.StatusOK
	}
	return ww.Status()
}

// routePattern returns the matched chi route, or the raw path outside a
// chi router.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}

type statusError int

func (e statusError) Error() string {
	return "http status " + strconv.Itoa(int(e))
}
