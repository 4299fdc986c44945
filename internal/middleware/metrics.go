package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"vendtune/internal/infrastructure"
)

// MetricsMiddleware records request counters and durations through the
// OpenTelemetry meter.
type MetricsMiddleware struct {
	metrics *infrastructure.BusinessMetrics
}

// NewMetricsMiddleware creates the middleware from the shared providers.
func NewMetricsMiddleware(providers *infrastructure.OTelProviders) (*MetricsMiddleware, error) {
	if providers.Meter == nil {
		return &MetricsMiddleware{}, nil
	}
	metrics, err := infrastructure.CreateBusinessMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}
	return &MetricsMiddleware{metrics: metrics}, nil
}

// BusinessMetrics exposes the instruments for services that record their own
// measurements (aggregation runs, mutations, reloads).
func (m *MetricsMiddleware) BusinessMetrics() *infrastructure.BusinessMetrics {
	return m.metrics
}

// Handler returns the middleware handler function
func (m *MetricsMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.metrics == nil {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = r.URL.Path
		}

		attrs := metric.WithAttributes(
			attribute.String("method", r.Method),
			attribute.String("route", route),
			attribute.Int("status", ww.Status()),
		)

		ctx := r.Context()
		m.metrics.HTTPRequestsTotal.Add(ctx, 1, attrs)
		m.metrics.HTTPRequestDuration.Record(ctx, time.Since(start).Seconds(), attrs)
	})
}
