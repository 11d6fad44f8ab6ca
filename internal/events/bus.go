package events

import (
	"context"
	"log/slog"
)

const (
	TopicOrderCreated  = "order.created"
	TopicOrderAccepted = "order.accepted"
	TopicOrderPaid     = "order.paid"
	TopicPaymentFailed = "payment.failed"
)

// LogBus writes checkout events to the logger instead of a broker.
type LogBus struct {
	logger *slog.Logger
}

func NewLogBus(logger *slog.Logger) *LogBus {
	return &LogBus{logger: logger}
}

func (b *LogBus) PublishOrderCreated(ctx context.Context, orderID int64) error {
	b.logger.DebugContext(ctx, "event::"+TopicOrderCreated, "order_id", orderID)
	return nil
}

func (b *LogBus) PublishOrderAccepted(ctx context.Context, orderID int64) error {
	b.logger.DebugContext(ctx, "event::"+TopicOrderAccepted, "order_id", orderID)
	return nil
}

func (b *LogBus) PublishOrderPaid(ctx context.Context, orderID int64) error {
	b.logger.DebugContext(ctx, "event::"+TopicOrderPaid, "order_id", orderID)
	return nil
}

func (b *LogBus) PublishPaymentFailed(ctx context.Context, orderID int64, reason string) error {
	b.logger.DebugContext(ctx, "event::"+TopicPaymentFailed, "order_id", orderID, "reason", reason)
	return nil
}
