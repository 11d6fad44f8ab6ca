package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Outcome labels a finished command for the commands_total counter.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeRejected Outcome = "rejected"
	OutcomeError    Outcome = "error"
)

type Metrics struct {
	commandsTotal      metric.Int64Counter
	commandDuration    metric.Float64Histogram
	paymentsTotal      metric.Int64Counter
	stockUnitsDeducted metric.Int64Counter
	orderValue         metric.Float64Histogram
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.commandsTotal, err = meter.Int64Counter(
		"shop_commands_total",
		metric.WithDescription("Total number of checkout commands handled"),
		metric.WithUnit("{command}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create shop_commands_total counter: %w", err)
	}

	m.commandDuration, err = meter.Float64Histogram(
		"shop_command_duration_seconds",
		metric.WithDescription("Duration of checkout commands"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create shop_command_duration histogram: %w", err)
	}

	m.paymentsTotal, err = meter.Int64Counter(
		"shop_payments_total",
		metric.WithDescription("Payment attempts by result"),
		metric.WithUnit("{payment}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create shop_payments_total counter: %w", err)
	}

	m.stockUnitsDeducted, err = meter.Int64Counter(
		"shop_stock_units_deducted_total",
		metric.WithDescription("Units removed from stock by successful payments"),
		metric.WithUnit("{unit}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create shop_stock_units_deducted_total counter: %w", err)
	}

	m.orderValue, err = meter.Float64Histogram(
		"shop_order_value",
		metric.WithDescription("Total cost of created orders"),
		metric.WithUnit("{currency}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create shop_order_value histogram: %w", err)
	}

	return m, nil
}

func (m *Metrics) RecordCommand(ctx context.Context, command string, outcome Outcome, durationSeconds float64) {
	m.commandsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("command", command),
		attribute.String("outcome", string(outcome)),
	))
	m.commandDuration.Record(ctx, durationSeconds, metric.WithAttributes(
		attribute.String("command", command),
	))
}

// RecordPayment counts a payment attempt. reason is empty on success.
func (m *Metrics) RecordPayment(ctx context.Context, success bool, reason string) {
	result := "success"
	if !success {
		result = "failed"
	}
	attrs := []attribute.KeyValue{attribute.String("result", result)}
	if reason != "" {
		attrs = append(attrs, attribute.String("reason", reason))
	}
	m.paymentsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *Metrics) RecordStockDeducted(ctx context.Context, units int) {
	m.stockUnitsDeducted.Add(ctx, int64(units))
}

func (m *Metrics) RecordOrderValue(ctx context.Context, total float64) {
	m.orderValue.Record(ctx, total)
}
