package adapters

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/dejobratic/shop/internal/events"
	"github.com/dejobratic/shop/internal/shop/ports"
	"github.com/dejobratic/shop/internal/telemetry"
)

// ObservableEventBus traces every publish and logs failures, which callers
// do not propagate.
type ObservableEventBus struct {
	bus     ports.EventBus
	logger  *slog.Logger
	metrics *events.Metrics
}

func NewObservableEventBus(bus ports.EventBus, logger *slog.Logger, metrics *events.Metrics) *ObservableEventBus {
	return &ObservableEventBus{
		bus:     bus,
		logger:  logger,
		metrics: metrics,
	}
}

func (e *ObservableEventBus) PublishOrderCreated(ctx context.Context, orderID int64) error {
	return e.publish(ctx, "EventBus.PublishOrderCreated", events.TopicOrderCreated, orderID, nil,
		func(ctx context.Context) error { return e.bus.PublishOrderCreated(ctx, orderID) })
}

func (e *ObservableEventBus) PublishOrderAccepted(ctx context.Context, orderID int64) error {
	return e.publish(ctx, "EventBus.PublishOrderAccepted", events.TopicOrderAccepted, orderID, nil,
		func(ctx context.Context) error { return e.bus.PublishOrderAccepted(ctx, orderID) })
}

func (e *ObservableEventBus) PublishOrderPaid(ctx context.Context, orderID int64) error {
	return e.publish(ctx, "EventBus.PublishOrderPaid", events.TopicOrderPaid, orderID, nil,
		func(ctx context.Context) error { return e.bus.PublishOrderPaid(ctx, orderID) })
}

func (e *ObservableEventBus) PublishPaymentFailed(ctx context.Context, orderID int64, reason string) error {
	return e.publish(ctx, "EventBus.PublishPaymentFailed", events.TopicPaymentFailed, orderID,
		[]attribute.KeyValue{attribute.String("failure.reason", reason)},
		func(ctx context.Context) error { return e.bus.PublishPaymentFailed(ctx, orderID, reason) })
}

func (e *ObservableEventBus) publish(
	ctx context.Context,
	spanName, topic string,
	orderID int64,
	extra []attribute.KeyValue,
	fn func(ctx context.Context) error,
) error {
	ctx, span := telemetry.StartSpan(ctx, spanName)
	defer span.End()

	telemetry.AddSpanAttributes(span, append([]attribute.KeyValue{
		attribute.Int64("order.id", orderID),
		attribute.String("event.type", topic),
		attribute.String("topic", topic),
	}, extra...)...)

	start := time.Now()
	err := fn(ctx)
	duration := time.Since(start).Seconds()

	e.metrics.RecordPublish(ctx, topic, duration, err == nil)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		e.logger.ErrorContext(ctx, "failed to publish event", "topic", topic, "order_id", orderID, "error", err)
		return err
	}

	telemetry.SetSpanSuccess(span)
	return nil
}
