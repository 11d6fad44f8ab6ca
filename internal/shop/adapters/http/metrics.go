package http

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type Metrics struct {
	requestDuration metric.Float64Histogram
	requestsTotal   metric.Int64Counter
	inFlight        metric.Int64UpDownCounter
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.requestDuration, err = meter.Float64Histogram(
		"shop_http_request_duration_seconds",
		metric.WithDescription("Storefront API request duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create shop_http_request_duration_seconds histogram: %w", err)
	}

	m.requestsTotal, err = meter.Int64Counter(
		"shop_http_requests_total",
		metric.WithDescription("Storefront API requests by route and status"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create shop_http_requests_total counter: %w", err)
	}

	m.inFlight, err = meter.Int64UpDownCounter(
		"shop_http_requests_in_flight",
		metric.WithDescription("Storefront API requests currently being served"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create shop_http_requests_in_flight counter: %w", err)
	}

	return m, nil
}

// RecordRequest is keyed by route pattern, never the raw path, so order IDs
// do not explode label cardinality.
func (m *Metrics) RecordRequest(ctx context.Context, method, route string, statusCode int, durationSeconds float64) {
	m.requestsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.Int("status_code", statusCode),
	))
	m.requestDuration.Record(ctx, durationSeconds, metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
	))
}

func (m *Metrics) trackInFlight(ctx context.Context, delta int64) {
	m.inFlight.Add(ctx, delta)
}
