package database

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type Metrics struct {
	queryDuration       metric.Float64Histogram
	transactionDuration metric.Float64Histogram
	transactionsTotal   metric.Int64Counter
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.queryDuration, err = meter.Float64Histogram(
		"db_query_duration_seconds",
		metric.WithDescription("Repository operation duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create db_query_duration histogram: %w", err)
	}

	m.transactionDuration, err = meter.Float64Histogram(
		"db_transaction_duration_seconds",
		metric.WithDescription("Duration of checkout transactions including lock waits"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create db_transaction_duration histogram: %w", err)
	}

	m.transactionsTotal, err = meter.Int64Counter(
		"db_transactions_total",
		metric.WithDescription("Transactions by result"),
		metric.WithUnit("{transaction}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create db_transactions_total counter: %w", err)
	}

	return m, nil
}

func (m *Metrics) RecordQuery(ctx context.Context, operation string, durationSeconds float64) {
	m.queryDuration.Record(ctx, durationSeconds, metric.WithAttributes(
		attribute.String("operation", operation),
	))
}

func (m *Metrics) RecordTransaction(ctx context.Context, committed bool, durationSeconds float64) {
	result := "commit"
	if !committed {
		result = "rollback"
	}
	m.transactionsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
	m.transactionDuration.Record(ctx, durationSeconds, metric.WithAttributes(attribute.String("result", result)))
}
